// Package testutil provides shared test helpers for running the client core
// against an in-process development remote.
package testutil

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/noteai/internal/devserver"
	"github.com/starford/noteai/internal/remote"
)

// RemoteToken is the bearer token the test remote requires.
const RemoteToken = "test-token"

// TestDB opens a development database in a temp directory that is closed
// automatically.
func TestDB(t *testing.T) *devserver.DB {
	t.Helper()
	db, err := devserver.Open(context.Background(), filepath.Join(t.TempDir(), "noteai-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestRemote starts a development remote and returns its server and a
// client pointed at it.
func TestRemote(t *testing.T) (*httptest.Server, *remote.Client) {
	t.Helper()
	srv := httptest.NewServer(devserver.NewServer(TestDB(t), RemoteToken, nil).Handler())
	t.Cleanup(srv.Close)
	client := remote.New(srv.URL+"/api", remote.StaticToken(RemoteToken), remote.WithTimeout(5*time.Second))
	return srv, client
}
