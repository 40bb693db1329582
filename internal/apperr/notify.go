package apperr

import "errors"

// Level is the severity of a user-facing notification.
type Level string

// Notification levels.
const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
)

// Notice is a message meant for the user.
type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Notification converts err into a notice, prefixed with fallback when the
// error carries no user-worthy text of its own.
func Notification(fallback string, err error) Notice {
	var ve *ValidationError
	var re *RemoteError
	switch {
	case errors.As(err, &ve):
		return Notice{Level: LevelWarning, Message: ve.Error()}
	case errors.As(err, &re) && re.Message != "":
		return Notice{Level: LevelError, Message: fallback + ": " + re.Message}
	case errors.Is(err, ErrNetwork):
		return Notice{Level: LevelError, Message: fallback + ": network unavailable"}
	default:
		return Notice{Level: LevelError, Message: fallback}
	}
}
