package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/verte-zerg/koch/internal/config"
)

func TestDefaultConfigTemplateParses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	if cfg.Practice.Threshold != nil || cfg.Storage.Backend != nil {
		t.Fatalf("expected every value commented out, got %+v", cfg)
	}
}

func TestResolveOptionsLayersConfigUnderFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	cfg := "[practice]\nstreak = 7\nthreshold = 80.0\n\n[storage]\nbackend = \"sqlite\"\n"
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cmd := newRootCmd()
	if err := cmd.ParseFlags([]string{"--config", path, "--streak", "5", "--lesson", "4"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	opts := resolveOptions(cmd)
	if opts.Practice.Streak != 5 {
		t.Fatalf("expected flag value to win, got %d", opts.Practice.Streak)
	}
	if opts.Practice.Threshold != 80 || opts.Backend != "sqlite" {
		t.Fatalf("expected config values to apply, got threshold %.2f backend %q", opts.Practice.Threshold, opts.Backend)
	}
	if opts.Practice.Lesson != 4 || opts.Practice.CharWPM != defaults.Practice.CharWPM {
		t.Fatalf("unexpected options: %+v", opts.Practice)
	}
}

func TestStatsConfigValidation(t *testing.T) {
	statsLesson, statsGranularity, statsYear, statsCurveWindow = 0, "month", 0, 0
	cfg, err := statsConfig()
	if err != nil {
		t.Fatalf("stats config: %v", err)
	}
	if cfg.Granularity.String() != "month" || cfg.CurveWindow != 1 {
		t.Fatalf("unexpected stats config: %+v", cfg)
	}
	statsLesson = 99
	if _, err := statsConfig(); err == nil || !strings.Contains(err.Error(), "--lesson") {
		t.Fatalf("expected lesson error, got %v", err)
	}
	statsLesson, statsGranularity = 0, "week"
	if _, err := statsConfig(); err == nil {
		t.Fatalf("expected granularity error")
	}
}
