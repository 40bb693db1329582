package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Port  int    `yaml:"port"`
	Token string `yaml:"token"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("NOTEAI_SET", "value")
	t.Setenv("NOTEAI_EMPTY", "")

	cases := map[string]string{
		"${NOTEAI_SET}":              "value",
		"$NOTEAI_SET":                "value",
		"${NOTEAI_UNSET_X}":          "",
		"${NOTEAI_UNSET_X:-dflt}":    "dflt",
		"${NOTEAI_EMPTY:-dflt}":      "dflt",
		"${NOTEAI_SET:-dflt}":        "value",
		"http://${NOTEAI_SET}:8000/": "http://value:8000/",
	}
	for in, want := range cases {
		if got := ExpandEnv(in); got != want {
			t.Errorf("ExpandEnv(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	t.Setenv("NOTEAI_TEST_TOKEN", "secret")
	path := writeFile(t, "port: 9000\ntoken: ${NOTEAI_TEST_TOKEN}\n")

	cfg := sample{Name: "default", Port: 1}
	if err := Load(path, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "default" {
		t.Errorf("name = %q, want default", cfg.Name)
	}
	if cfg.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Port)
	}
	if cfg.Token != "secret" {
		t.Errorf("token = %q, want secret", cfg.Token)
	}
}

func TestLoadValidates(t *testing.T) {
	path := writeFile(t, "port: 0\n")
	cfg := sample{}
	err := Load(path, &cfg)
	if err == nil || !strings.Contains(err.Error(), "port must be positive") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := writeFile(t, "port: [\n")
	cfg := sample{Port: 1}
	if err := Load(path, &cfg); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	cfg := sample{Port: 8080}
	if err := LoadWithDefaults(missing, "", &cfg); err != nil {
		t.Fatalf("missing file without fallback should keep defaults: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("port = %d", cfg.Port)
	}

	fallback := writeFile(t, "port: 7000\n")
	if err := LoadWithDefaults(missing, fallback, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 7000 {
		t.Errorf("port = %d, want 7000", cfg.Port)
	}

	bad := sample{}
	if err := LoadWithDefaults(missing, "", &bad); err == nil {
		t.Fatal("defaults are still validated")
	}
}
