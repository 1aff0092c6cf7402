package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoad(t *testing.T) {
	dir := writeConfig(t, `
npm = "/usr/local/bin/npm"
registry = "http://verdaccio:4873"
max_depth = 4
pack_timeout = "90s"
output_dir = "mirror"
history = true
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.NPM != "/usr/local/bin/npm" {
		t.Errorf("NPM = %q", cfg.NPM)
	}
	if cfg.Registry != "http://verdaccio:4873" {
		t.Errorf("Registry = %q", cfg.Registry)
	}
	if cfg.MaxDepth != 4 {
		t.Errorf("MaxDepth = %d, want 4", cfg.MaxDepth)
	}
	if cfg.PackTimeout.Duration != 90*time.Second {
		t.Errorf("PackTimeout = %v, want 90s", cfg.PackTimeout.Duration)
	}
	if cfg.OutputDir != "mirror" || !cfg.History {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if *cfg != (Config{}) {
		t.Errorf("missing file should give empty config, got %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown key", `registy = "x"`, "unknown key"},
		{"bad duration", `pack_timeout = "soon"`, "failed to parse"},
		{"negative depth", `max_depth = -1`, "max_depth"},
		{"invalid toml", `registry = `, "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Load() should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestDirRespectsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	dir, err := Dir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join("/tmp/xdg", "npmmirror") {
		t.Errorf("Dir() = %s", dir)
	}
}

func TestDBPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := &Config{DB: "/data/h.db"}
	if p, _ := cfg.DBPath(); p != "/data/h.db" {
		t.Errorf("DBPath() = %s, want explicit path", p)
	}

	p, err := (&Config{}).DBPath()
	if err != nil {
		t.Fatalf("DBPath() failed: %v", err)
	}
	if filepath.Base(p) != "history.db" || filepath.Base(filepath.Dir(p)) != ".npmmirror" {
		t.Errorf("DBPath() = %s", p)
	}
	if _, err := os.Stat(filepath.Dir(p)); !os.IsNotExist(err) {
		t.Errorf("DBPath() should not create %s", filepath.Dir(p))
	}
}
