package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Practice.Threshold != nil || cfg.Storage.Backend != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigDecodesSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[practice]
threshold = 95.0
streak = 2
player = "aplay"

[materials]
files = 20
mode = "gradual"

[storage]
backend = "sqlite"

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Practice.Threshold == nil || *cfg.Practice.Threshold != 95 {
		t.Fatalf("unexpected threshold: %v", cfg.Practice.Threshold)
	}
	if cfg.Practice.Streak == nil || *cfg.Practice.Streak != 2 {
		t.Fatalf("unexpected streak")
	}
	if cfg.Materials.Mode == nil || *cfg.Materials.Mode != "gradual" {
		t.Fatalf("unexpected mode")
	}
	if cfg.Storage.Backend == nil || *cfg.Storage.Backend != "sqlite" {
		t.Fatalf("unexpected backend")
	}
	if cfg.Practice.CharWPM != nil {
		t.Fatalf("expected unset char-wpm")
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[practice]\nspeed = 3\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestUserConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user.json")
	cfg := DefaultUserConfig()
	cfg.Theme = ThemeDark
	cfg.Opacity = 0.8
	cfg.LastLesson = 7
	cfg.UnlockedLesson = 9
	cfg.SetTextIndex(7, 3)
	if err := SaveUserConfig(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded := LoadUserConfig(path, discardLogger())
	if loaded.Theme != ThemeDark || loaded.Opacity != 0.8 || loaded.LastLesson != 7 || loaded.UnlockedLesson != 9 {
		t.Fatalf("unexpected loaded config: %+v", loaded)
	}
	if loaded.TextIndexFor(7) != 3 || loaded.TextIndexFor(8) != 0 {
		t.Fatalf("unexpected text index: %+v", loaded.TextIndex)
	}
}

func TestLoadUserConfigFallsBack(t *testing.T) {
	dir := t.TempDir()
	missing := LoadUserConfig(filepath.Join(dir, "missing.json"), discardLogger())
	if missing.LastLesson != 1 || missing.Theme != ThemeLight {
		t.Fatalf("expected defaults, got %+v", missing)
	}

	malformed := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(malformed, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := LoadUserConfig(malformed, discardLogger()); got.Opacity != DefaultOpacity {
		t.Fatalf("expected defaults for malformed file, got %+v", got)
	}

	invalid := filepath.Join(dir, "invalid.json")
	body := `{"theme":"neon","opacity":3,"volume":40,"last_lesson":55,"unlocked_lesson":4,"text_index":{"x":1,"4":2}}`
	if err := os.WriteFile(invalid, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got := LoadUserConfig(invalid, discardLogger())
	if got.Theme != ThemeLight || got.Opacity != DefaultOpacity || got.LastLesson != 1 {
		t.Fatalf("expected invalid fields reset, got %+v", got)
	}
	if got.Volume != 40 || got.UnlockedLesson != 4 {
		t.Fatalf("expected valid fields kept, got %+v", got)
	}
	if _, ok := got.TextIndex["x"]; ok || got.TextIndexFor(4) != 2 {
		t.Fatalf("unexpected text index: %+v", got.TextIndex)
	}
}

func TestSaveUserConfigRejectsInvalid(t *testing.T) {
	cfg := DefaultUserConfig()
	cfg.Opacity = 0
	if err := SaveUserConfig(filepath.Join(t.TempDir(), "user.json"), cfg); err == nil {
		t.Fatalf("expected validation error")
	}
}
