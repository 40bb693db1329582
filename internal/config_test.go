package internal

import (
	"strings"
	"testing"
	"time"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestRemoteConfig_RequireCredential(t *testing.T) {
	cfg := NewDefaultConfig().Remote
	err := cfg.RequireCredential()
	if err == nil {
		t.Fatal("no token and no token file should fail")
	}
	if !strings.Contains(err.Error(), "token_file") {
		t.Errorf("unexpected error: %v", err)
	}

	cfg.TokenFile = "/run/secrets/noteai-token"
	if err := cfg.RequireCredential(); err != nil {
		t.Fatalf("token file should satisfy the credential rule: %v", err)
	}
}

func TestRemoteConfig_BaseURL(t *testing.T) {
	cases := []struct {
		url string
		ok  bool
	}{
		{"http://localhost:8000/api", true},
		{"https://notes.example.com", true},
		{"localhost:8000", false},
		{"ftp://example.com", false},
		{"", false},
	}
	for _, tc := range cases {
		cfg := RemoteConfig{BaseURL: tc.url, Timeout: time.Second}
		err := cfg.Validate()
		if tc.ok && err != nil {
			t.Errorf("%q: unexpected error %v", tc.url, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("%q: expected error", tc.url)
		}
	}
}

func TestRemoteConfig_TimeoutRequired(t *testing.T) {
	cfg := RemoteConfig{BaseURL: "http://localhost"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero timeout should fail")
	}
}

func TestDevServerConfig(t *testing.T) {
	cfg := DevServerConfig{Port: 8000}
	if err := cfg.Validate(); err == nil {
		t.Fatal("missing sqlite path should fail")
	}
	cfg.SQLitePath = "dev.db"
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Address() != ":8000" {
		t.Errorf("address = %q", cfg.Address())
	}
}

func TestEventsConfig_BufferRequired(t *testing.T) {
	cfg := EventsConfig{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero buffer should fail")
	}
}
