package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
config_version = 1
username = "alice"
product = "myplayer"

[cache]
dir = "` + dir + `"

[history]
db = "` + filepath.Join(dir, "history.db") + `"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if resolved != path {
		t.Errorf("expected resolved path %s, got %s", path, resolved)
	}
	if cfg.Username != "alice" {
		t.Errorf("unexpected username %q", cfg.Username)
	}
	if cfg.Product != "myplayer" {
		t.Errorf("unexpected product %q", cfg.Product)
	}
	if cfg.Cache.Dir != dir {
		t.Errorf("unexpected cache dir %q", cfg.Cache.Dir)
	}
	if !cfg.History.JournalEnabled() {
		t.Error("history should default to enabled")
	}
}

func TestHistoryCanBeDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
username = "alice"

[history]
enabled = false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.History.JournalEnabled() {
		t.Error("enabled = false in config should turn the journal off")
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	if _, _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("expected an error for a missing explicit config path")
	}
}

func TestLoadMissingDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, _, err := Load("")
	if err != nil {
		t.Fatalf("missing default config should yield defaults: %v", err)
	}
	if cfg.Product != "scrobz" {
		t.Errorf("expected default product, got %q", cfg.Product)
	}
	if cfg.ConfigVersion != 1 {
		t.Errorf("expected default config_version 1, got %d", cfg.ConfigVersion)
	}
}

func TestLoadBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("username = [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Load(path); err == nil {
		t.Error("expected a parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "defaults",
			cfg:     Config{ConfigVersion: 1, Product: "scrobz"},
			wantErr: false,
		},
		{
			name:    "future config version",
			cfg:     Config{ConfigVersion: 2},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
