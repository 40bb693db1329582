package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func TestValidationErrorMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("create: %w", Invalid("title", "is required"))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("errors.Is(%v, ErrValidation) = false", err)
	}
	if err.Error() != "create: title: is required" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestNetworkErrorMatchesSentinelAndCause(t *testing.T) {
	err := &NetworkError{Op: "GET /notes", Err: context.DeadlineExceeded}
	if !errors.Is(err, ErrNetwork) {
		t.Error("expected ErrNetwork")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("expected wrapped cause")
	}
}

func TestNotification(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		level Level
		msg   string
	}{
		{"validation", Invalid("title", "is required"), LevelWarning, "title: is required"},
		{"remote", &RemoteError{StatusCode: 400, Message: "Title cannot be empty."}, LevelError, "Failed to create note: Title cannot be empty."},
		{"network", &NetworkError{Op: "POST /notes", Err: errors.New("dial tcp")}, LevelError, "Failed to create note: network unavailable"},
		{"other", errors.New("boom"), LevelError, "Failed to create note"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n := Notification("Failed to create note", tc.err)
			if n.Level != tc.level || n.Message != tc.msg {
				t.Errorf("Notification = %+v, want {%s %s}", n, tc.level, tc.msg)
			}
		})
	}
}

func TestFromValidation(t *testing.T) {
	if FromValidation(nil) != nil {
		t.Fatal("nil must stay nil")
	}

	err := FromValidation(validation.Errors{
		"title":    validation.Validate("", validation.Required),
		"category": nil,
	}.Filter())
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if ve.Field != "title" {
		t.Errorf("field = %q, want title", ve.Field)
	}
	if !errors.Is(err, ErrValidation) {
		t.Error("expected ErrValidation")
	}

	single := FromValidation(validation.Validate("abc", validation.RuneLength(10, 0)))
	if !errors.Is(single, ErrValidation) {
		t.Errorf("single rule error not converted: %v", single)
	}

	plain := errors.New("boom")
	if FromValidation(plain) != plain {
		t.Error("non-validation errors must pass through")
	}
}
