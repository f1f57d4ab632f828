package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/verte-zerg/koch/internal/fileutil"
	"github.com/verte-zerg/koch/internal/lesson"
)

// Theme is the UI color scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

const (
	MinOpacity     = 0.1
	MaxOpacity     = 1.0
	DefaultVolume  = 50
	DefaultOpacity = 1.0
)

// UserConfig is the per-user state written by the UI.
type UserConfig struct {
	Theme          Theme          `json:"theme"`
	Opacity        float64        `json:"opacity"`
	Volume         int            `json:"volume"`
	LastLesson     int            `json:"last_lesson"`
	UnlockedLesson int            `json:"unlocked_lesson"`
	TextIndex      map[string]int `json:"text_index,omitempty"`
}

// DefaultUserConfig returns the state of a first run.
func DefaultUserConfig() UserConfig {
	return UserConfig{
		Theme:          ThemeLight,
		Opacity:        DefaultOpacity,
		Volume:         DefaultVolume,
		LastLesson:     lesson.First,
		UnlockedLesson: lesson.First,
		TextIndex:      map[string]int{},
	}
}

// LoadUserConfig reads the JSON user config. A missing or malformed file
// yields defaults; invalid fields are reset individually. Problems are logged,
// never returned, so startup cannot fail on user state.
func LoadUserConfig(path string, logger *slog.Logger) UserConfig {
	cfg := DefaultUserConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("failed to read user config, using defaults", "path", path, "err", err)
		}
		return cfg
	}
	var raw UserConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		logger.Warn("malformed user config, using defaults", "path", path, "err", err)
		return cfg
	}
	for _, problem := range raw.normalize() {
		logger.Warn("invalid user config value reset to default", "path", path, "field", problem)
	}
	return raw
}

// normalize replaces invalid fields with defaults and names the fields it fixed.
func (c *UserConfig) normalize() []string {
	def := DefaultUserConfig()
	var fixed []string
	if c.Theme != ThemeLight && c.Theme != ThemeDark {
		c.Theme = def.Theme
		fixed = append(fixed, "theme")
	}
	if c.Opacity < MinOpacity || c.Opacity > MaxOpacity {
		c.Opacity = def.Opacity
		fixed = append(fixed, "opacity")
	}
	if c.Volume < 0 || c.Volume > 100 {
		c.Volume = def.Volume
		fixed = append(fixed, "volume")
	}
	if !lesson.Valid(c.UnlockedLesson) {
		c.UnlockedLesson = def.UnlockedLesson
		fixed = append(fixed, "unlocked_lesson")
	}
	if !lesson.Valid(c.LastLesson) {
		c.LastLesson = def.LastLesson
		fixed = append(fixed, "last_lesson")
	}
	if c.LastLesson > c.UnlockedLesson {
		c.UnlockedLesson = c.LastLesson
	}
	if c.TextIndex == nil {
		c.TextIndex = map[string]int{}
	}
	for key, idx := range c.TextIndex {
		id, err := strconv.Atoi(key)
		if err != nil || !lesson.Valid(id) || idx < 0 {
			delete(c.TextIndex, key)
			fixed = append(fixed, "text_index."+key)
		}
	}
	return fixed
}

// Validate reports the first invalid field.
func (c UserConfig) Validate() error {
	if c.Theme != ThemeLight && c.Theme != ThemeDark {
		return fmt.Errorf("theme must be light or dark, got %q", c.Theme)
	}
	if c.Opacity < MinOpacity || c.Opacity > MaxOpacity {
		return fmt.Errorf("opacity must be between %.1f and %.1f", MinOpacity, MaxOpacity)
	}
	if c.Volume < 0 || c.Volume > 100 {
		return fmt.Errorf("volume must be between 0 and 100")
	}
	if !lesson.Valid(c.LastLesson) {
		return fmt.Errorf("last lesson: %w", lesson.ErrLessonNotFound)
	}
	return nil
}

// TextIndexFor returns the saved transcript index of a lesson.
func (c UserConfig) TextIndexFor(lessonID int) int {
	return c.TextIndex[strconv.Itoa(lessonID)]
}

// SetTextIndex stores the transcript index of a lesson.
func (c *UserConfig) SetTextIndex(lessonID, idx int) {
	if c.TextIndex == nil {
		c.TextIndex = map[string]int{}
	}
	c.TextIndex[strconv.Itoa(lessonID)] = idx
}

// ResetProgress clears saved transcript positions while keeping the lesson.
func (c *UserConfig) ResetProgress() {
	c.TextIndex = map[string]int{}
}

// SaveUserConfig writes the user config atomically.
func SaveUserConfig(path string, cfg UserConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("failed to validate user config: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode user config: %w", err)
	}
	if err := fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		_, err := w.Write(append(data, '\n'))
		return err
	}); err != nil {
		return fmt.Errorf("failed to write user config: %w", err)
	}
	return nil
}
