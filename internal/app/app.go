// Package app wires configuration, user state, logging and the statistics
// store into one explicit application context.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/verte-zerg/koch/internal/config"
	"github.com/verte-zerg/koch/internal/generator"
	"github.com/verte-zerg/koch/internal/lesson"
	"github.com/verte-zerg/koch/internal/logging"
	"github.com/verte-zerg/koch/internal/materials"
	"github.com/verte-zerg/koch/internal/model"
	"github.com/verte-zerg/koch/internal/score"
	"github.com/verte-zerg/koch/internal/session"
	"github.com/verte-zerg/koch/internal/store"
)

// Options are the resolved settings of one run: defaults, then the TOML
// file, then command-line flags.
type Options struct {
	Practice       model.Config
	Backend        string
	StatsPath      string
	UserConfigPath string
	LogLevel       string
	LogFile        string
}

// DefaultOptions returns the settings used when nothing is configured.
func DefaultOptions() Options {
	policy := score.DefaultPolicy()
	return Options{
		Practice: model.Config{
			Threshold:    policy.Threshold,
			Streak:       policy.Streak,
			CharWPM:      lesson.DefaultCharWPM,
			EffectiveWPM: lesson.DefaultEffectiveWPM,
			MaterialsDir: config.DefaultMaterialsDir(),
			Files:        materials.DefaultFiles,
			Mode:         string(generator.Gradual),
		},
		Backend:        string(store.KindJSON),
		UserConfigPath: config.DefaultUserConfigPath(),
		LogLevel:       "info",
		LogFile:        config.DefaultLogPath(),
	}
}

// ApplyFile overlays the values set in a TOML config.
func (o *Options) ApplyFile(fc config.FileConfig) {
	setFloat(&o.Practice.Threshold, fc.Practice.Threshold)
	setInt(&o.Practice.Streak, fc.Practice.Streak)
	setInt(&o.Practice.CharWPM, fc.Practice.CharWPM)
	setInt(&o.Practice.EffectiveWPM, fc.Practice.EffectiveWPM)
	setString(&o.Practice.Player, fc.Practice.Player)
	setString(&o.Practice.MaterialsDir, fc.Materials.Dir)
	setInt(&o.Practice.Files, fc.Materials.Files)
	setString(&o.Practice.Mode, fc.Materials.Mode)
	setString(&o.Backend, fc.Storage.Backend)
	setString(&o.StatsPath, fc.Storage.Path)
	setString(&o.LogLevel, fc.Log.Level)
	setString(&o.LogFile, fc.Log.File)
}

// Policy returns the advancement policy of the options.
func (o Options) Policy() score.Policy {
	return score.Policy{Threshold: o.Practice.Threshold, Streak: o.Practice.Streak}
}

// Validate reports the first invalid setting.
func (o Options) Validate() error {
	if err := o.Policy().Validate(); err != nil {
		return err
	}
	if o.Practice.CharWPM <= 0 {
		return fmt.Errorf("--char-wpm must be > 0")
	}
	if o.Practice.EffectiveWPM <= 0 || o.Practice.EffectiveWPM > o.Practice.CharWPM {
		return fmt.Errorf("--effective-wpm must be between 1 and --char-wpm")
	}
	if o.Practice.Files <= 0 {
		return fmt.Errorf("--files must be > 0")
	}
	if o.Practice.Lesson != 0 && !lesson.Valid(o.Practice.Lesson) {
		return fmt.Errorf("--lesson must be between %d and %d", lesson.First, lesson.Last)
	}
	if _, err := generator.ParseMode(o.Practice.Mode); err != nil {
		return err
	}
	if _, err := store.ParseKind(o.Backend); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(o.LogLevel); err != nil {
		return err
	}
	return nil
}

// App is the application context of one run.
type App struct {
	Options Options
	Logger  *logging.Logger
	Store   *store.Store
	User    config.UserConfig
}

// Open validates opts and opens the logger, the user state and the store.
func Open(ctx context.Context, opts Options) (*App, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	level, err := logging.ParseLevel(opts.LogLevel)
	if err != nil {
		return nil, err
	}
	logger, err := logging.Open(opts.LogFile, level)
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}

	kind, err := store.ParseKind(opts.Backend)
	if err != nil {
		return nil, errors.Join(err, logger.Close())
	}
	if opts.StatsPath == "" {
		opts.StatsPath = config.DefaultStatsPath(string(kind))
	}
	backend, err := store.OpenBackend(kind, opts.StatsPath)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to open statistics: %w", err), logger.Close())
	}
	st, err := store.Open(ctx, backend, logger.Logger)
	if err != nil {
		return nil, errors.Join(err, backend.Close(), logger.Close())
	}

	user := config.LoadUserConfig(opts.UserConfigPath, logger.Logger)
	logger.Info("koch started", "backend", kind, "stats", opts.StatsPath, "materials", opts.Practice.MaterialsDir)
	return &App{
		Options: opts,
		Logger:  logger,
		Store:   st,
		User:    user,
	}, nil
}

// SaveUser records and persists the user state.
func (a *App) SaveUser(u config.UserConfig) error {
	a.User = u
	return config.SaveUserConfig(a.Options.UserConfigPath, u)
}

// Session builds a practice controller over the app's state.
func (a *App) Session() (*session.Controller, error) {
	mode, err := generator.ParseMode(a.Options.Practice.Mode)
	if err != nil {
		return nil, err
	}
	user := a.User
	if a.Options.Practice.Lesson != 0 {
		user.LastLesson = a.Options.Practice.Lesson
		if user.LastLesson > user.UnlockedLesson {
			user.UnlockedLesson = user.LastLesson
		}
	}
	return session.New(session.Deps{
		Store:        a.Store,
		User:         user,
		SaveUser:     a.SaveUser,
		MaterialsDir: a.Options.Practice.MaterialsDir,
		Source:       generator.New(mode),
		Policy:       a.Options.Policy(),
		CharWPM:      a.Options.Practice.CharWPM,
		EffectiveWPM: a.Options.Practice.EffectiveWPM,
		Now:          time.Now,
		Logger:       a.Logger.Logger,
	})
}

// Close flushes pending results, writes the user state and closes the log.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.Store.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := config.SaveUserConfig(a.Options.UserConfigPath, a.User); err != nil {
		a.Logger.Warn("failed to save user config", "err", err)
		errs = append(errs, err)
	}
	a.Logger.Info("koch stopped")
	if err := a.Logger.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close log: %w", err))
	}
	return errors.Join(errs...)
}

func setString(target, value *string) {
	if value != nil {
		*target = *value
	}
}

func setInt(target, value *int) {
	if value != nil {
		*target = *value
	}
}

func setFloat(target, value *float64) {
	if value != nil {
		*target = *value
	}
}
