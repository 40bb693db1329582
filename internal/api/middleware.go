// Package api is the local HTTP bridge a presentation process uses to drive
// the client core.
package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// tokenQueryParam carries the token for clients that cannot set headers,
// such as a browser EventSource on /events.
const tokenQueryParam = "access_token"

// AuthMiddleware returns middleware that validates a Bearer token.
// If enabled is false, all requests pass through (disabled mode).
// If enabled is true, requests must carry a valid "Authorization: Bearer <token>" header.
func AuthMiddleware(enabled bool, token string) func(http.Handler) http.Handler {
	return authMiddleware(enabled, token, false)
}

// EventStreamAuth is AuthMiddleware for the SSE route. It also accepts the
// token from the access_token query parameter.
func EventStreamAuth(enabled bool, token string) func(http.Handler) http.Handler {
	return authMiddleware(enabled, token, true)
}

func authMiddleware(enabled bool, token string, allowQuery bool) func(http.Handler) http.Handler {
	want := []byte(token)
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok && allowQuery {
				got = r.URL.Query().Get(tokenQueryParam)
			}
			if subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				w.Header().Set("WWW-Authenticate", `Bearer realm="noteai"`)
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger is chi's request logger with the access_token query
// parameter masked, so stream credentials never reach the access log.
func RequestLogger(logger middleware.LoggerInterface) func(http.Handler) http.Handler {
	return middleware.RequestLogger(redactingFormatter{
		next: &middleware.DefaultLogFormatter{Logger: logger, NoColor: true},
	})
}

type redactingFormatter struct {
	next middleware.LogFormatter
}

func (f redactingFormatter) NewLogEntry(r *http.Request) middleware.LogEntry {
	q := r.URL.Query()
	if !q.Has(tokenQueryParam) {
		return f.next.NewLogEntry(r)
	}
	q.Set(tokenQueryParam, "REDACTED")
	u := *r.URL
	u.RawQuery = q.Encode()
	masked := *r
	masked.URL = &u
	masked.RequestURI = u.RequestURI()
	return f.next.NewLogEntry(&masked)
}
