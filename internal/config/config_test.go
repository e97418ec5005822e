package config_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/derickschaefer/eqviz/internal/config"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

// writeConfig writes a config.json into dir and changes the working directory
// to dir for the duration of the test.
func writeConfig(t *testing.T, dir string, f config.File) {
	t.Helper()
	path := filepath.Join(dir, "config.json")
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	chdir(t, dir)
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

// unsetEnv removes EQVIZ_API_BASE for the duration of the test so that a
// .env file may supply it.
func unsetEnv(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvAPIBase, "")
	if err := os.Unsetenv(config.EnvAPIBase); err != nil {
		t.Fatalf("unsetenv: %v", err)
	}
}

// ─── Defaults ─────────────────────────────────────────────────────────────────

func TestLoadDefaults(t *testing.T) {
	t.Setenv(config.EnvAPIBase, "")
	chdir(t, t.TempDir())

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBase != config.DefaultAPIBase {
		t.Errorf("APIBase: expected %q, got %q", config.DefaultAPIBase, cfg.APIBase)
	}
	if cfg.Format != config.DefaultFormat {
		t.Errorf("Format: expected %q, got %q", config.DefaultFormat, cfg.Format)
	}
	if cfg.Timeout != config.DefaultTimeout {
		t.Errorf("Timeout: expected %v, got %v", config.DefaultTimeout, cfg.Timeout)
	}
	if cfg.Rate != config.DefaultRate {
		t.Errorf("Rate: expected %g, got %g", config.DefaultRate, cfg.Rate)
	}
	if cfg.Listen != config.DefaultListen {
		t.Errorf("Listen: expected %q, got %q", config.DefaultListen, cfg.Listen)
	}
	if cfg.DBPath == "" {
		t.Error("DBPath should have a default (home dir based) value")
	}
	if cfg.ConfigPath != "" {
		t.Errorf("ConfigPath should be empty when no file found, got %q", cfg.ConfigPath)
	}
}

// ─── Config file loading ──────────────────────────────────────────────────────

func TestLoadFromFile(t *testing.T) {
	t.Setenv(config.EnvAPIBase, "")
	writeConfig(t, t.TempDir(), config.File{
		APIBase:       "https://equipment.example.com/api",
		DefaultFormat: "json",
		Timeout:       "60s",
		Rate:          2.5,
		DBPath:        "/tmp/reports.db",
		Listen:        ":9090",
	})

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBase != "https://equipment.example.com/api" {
		t.Errorf("APIBase: got %q", cfg.APIBase)
	}
	if cfg.Format != "json" {
		t.Errorf("Format: expected json, got %q", cfg.Format)
	}
	if cfg.Timeout.String() != "1m0s" {
		t.Errorf("Timeout: expected 1m0s, got %q", cfg.Timeout.String())
	}
	if cfg.Rate != 2.5 {
		t.Errorf("Rate: expected 2.5, got %g", cfg.Rate)
	}
	if cfg.DBPath != "/tmp/reports.db" {
		t.Errorf("DBPath: expected /tmp/reports.db, got %q", cfg.DBPath)
	}
	if cfg.Listen != ":9090" {
		t.Errorf("Listen: expected :9090, got %q", cfg.Listen)
	}
	if !strings.Contains(cfg.ConfigPath, "config.json") {
		t.Errorf("ConfigPath should contain config.json, got %q", cfg.ConfigPath)
	}
}

func TestLoadInvalidTimeoutIgnored(t *testing.T) {
	t.Setenv(config.EnvAPIBase, "")
	writeConfig(t, t.TempDir(), config.File{Timeout: "not-a-duration"})

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Timeout != config.DefaultTimeout {
		t.Errorf("invalid timeout should use default %v, got %v", config.DefaultTimeout, cfg.Timeout)
	}
}

// ─── Environment / flag priority ─────────────────────────────────────────────

func TestLoadEnvOverridesFile(t *testing.T) {
	writeConfig(t, t.TempDir(), config.File{APIBase: "http://file.example/api"})
	t.Setenv(config.EnvAPIBase, "http://env.example/api")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBase != "http://env.example/api" {
		t.Errorf("env should override file: got %q", cfg.APIBase)
	}
}

func TestLoadDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	unsetEnv(t)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(config.EnvAPIBase+"=http://dotenv.example/api\n"), 0600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	chdir(t, dir)

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBase != "http://dotenv.example/api" {
		t.Errorf(".env should supply the API base: got %q", cfg.APIBase)
	}
}

func TestLoadFlagOverridesEnvAndFile(t *testing.T) {
	writeConfig(t, t.TempDir(), config.File{APIBase: "http://file.example/api"})
	t.Setenv(config.EnvAPIBase, "http://env.example/api")

	cfg, err := config.Load("http://flag.example/api")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBase != "http://flag.example/api" {
		t.Errorf("flag should win: got %q", cfg.APIBase)
	}
}

// ─── Validate / APIHost ──────────────────────────────────────────────────────

func TestValidate(t *testing.T) {
	cases := []struct {
		base string
		ok   bool
	}{
		{"http://127.0.0.1:8000/api", true},
		{"https://equipment.example.com/api/", true},
		{"", false},
		{"127.0.0.1:8000/api", false},
		{"ftp://example.com/api", false},
		{"http:///api", false},
	}
	for _, c := range cases {
		err := (&config.Config{APIBase: c.base}).Validate()
		if c.ok && err != nil {
			t.Errorf("Validate(%q): unexpected error %v", c.base, err)
		}
		if !c.ok && err == nil {
			t.Errorf("Validate(%q): expected error", c.base)
		}
	}
}

func TestAPIHost(t *testing.T) {
	cases := map[string]string{
		"http://127.0.0.1:8000/api":   "http://127.0.0.1:8000",
		"http://127.0.0.1:8000/api/":  "http://127.0.0.1:8000",
		"http://127.0.0.1:8000/api//": "http://127.0.0.1:8000",
		"https://x.example/v2":        "https://x.example/v2",
		"https://x.example/apis":      "https://x.example/apis",
	}
	for in, want := range cases {
		if got := config.APIHost(in); got != want {
			t.Errorf("APIHost(%q) = %q, want %q", in, got, want)
		}
	}
}

// ─── WriteFile / Template ─────────────────────────────────────────────────────

func TestWriteFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	f := config.File{
		APIBase:       "https://api.example.com/api",
		DefaultFormat: "csv",
		Timeout:       "45s",
		Rate:          3.0,
		DBPath:        "/data/reports.db",
	}
	if err := config.WriteFile(path, f); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := config.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if *got != f {
		t.Errorf("round trip mismatch: got %+v want %+v", *got, f)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("file permissions: expected 0600, got %04o", info.Mode().Perm())
	}
}

func TestTemplateDefaults(t *testing.T) {
	tmpl := config.Template()
	if tmpl.APIBase != config.DefaultAPIBase {
		t.Errorf("Template.APIBase: got %q", tmpl.APIBase)
	}
	if tmpl.Timeout != "30s" {
		t.Errorf("Template.Timeout: expected 30s, got %q", tmpl.Timeout)
	}
	if tmpl.Rate != config.DefaultRate {
		t.Errorf("Template.Rate: expected %g, got %g", config.DefaultRate, tmpl.Rate)
	}
}
