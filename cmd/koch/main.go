// Package main provides the CLI entrypoint for koch.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/koch/internal/app"
	"github.com/verte-zerg/koch/internal/config"
	"github.com/verte-zerg/koch/internal/tui"
)

var defaults = app.DefaultOptions()

var (
	configPath     string
	storageBackend string
	storagePath    string
	materialsDir   string
	logLevel       string
	logFile        string

	practiceLesson       int
	practiceThreshold    float64
	practiceStreak       int
	practiceCharWPM      int
	practiceEffectiveWPM int
	practicePlayer       string
	practiceMode         string
	materialsFiles       int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "koch",
		Short:         "Koch method Morse code trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", config.DefaultConfigPath(), "TOML config file")
	pf.StringVar(&storageBackend, "backend", defaults.Backend, "statistics backend: json, sqlite or badger")
	pf.StringVar(&storagePath, "stats-path", "", "statistics file or directory (default depends on backend)")
	pf.StringVar(&materialsDir, "materials", defaults.Practice.MaterialsDir, "lesson materials directory")
	pf.StringVar(&logLevel, "log-level", defaults.LogLevel, "log level: debug, info, warn or error")
	pf.StringVar(&logFile, "log-file", defaults.LogFile, "log file (empty logs to stderr)")
	pf.IntVar(&materialsFiles, "files", defaults.Practice.Files, "transcripts per lesson")
	pf.StringVar(&practiceMode, "mode", defaults.Practice.Mode, "generator mode: uniform, new-char-focus, gradual or difficulty")

	rootCmd.Flags().IntVar(&practiceLesson, "lesson", 0, "start on this lesson (default: last practiced)")
	rootCmd.Flags().Float64Var(&practiceThreshold, "threshold", defaults.Practice.Threshold, "accuracy needed to pass a drill (percent)")
	rootCmd.Flags().IntVar(&practiceStreak, "streak", defaults.Practice.Streak, "consecutive passing drills needed to unlock the next lesson")
	rootCmd.Flags().IntVar(&practiceCharWPM, "char-wpm", defaults.Practice.CharWPM, "character speed (WPM)")
	rootCmd.Flags().IntVar(&practiceEffectiveWPM, "effective-wpm", defaults.Practice.EffectiveWPM, "effective Farnsworth speed (WPM)")
	rootCmd.Flags().StringVar(&practicePlayer, "player", "", "audio player command, e.g. \"mpv --volume={volume} {file}\"")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newLessonsCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newMaterialsCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newResetCmd())

	return rootCmd
}

// resolveOptions starts from the defaults, overlays the TOML config and then
// the flags that were set explicitly.
func resolveOptions(cmd *cobra.Command) app.Options {
	opts := app.DefaultOptions()
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		logErrf("warning: %v (using defaults for unreadable values)\n", err)
	}
	opts.ApplyFile(fileCfg)

	applyFlag(cmd, "backend", &opts.Backend, storageBackend)
	applyFlag(cmd, "stats-path", &opts.StatsPath, storagePath)
	applyFlag(cmd, "materials", &opts.Practice.MaterialsDir, materialsDir)
	applyFlag(cmd, "files", &opts.Practice.Files, materialsFiles)
	applyFlag(cmd, "mode", &opts.Practice.Mode, practiceMode)
	applyFlag(cmd, "log-level", &opts.LogLevel, logLevel)
	applyFlag(cmd, "log-file", &opts.LogFile, logFile)
	applyFlag(cmd, "threshold", &opts.Practice.Threshold, practiceThreshold)
	applyFlag(cmd, "streak", &opts.Practice.Streak, practiceStreak)
	applyFlag(cmd, "char-wpm", &opts.Practice.CharWPM, practiceCharWPM)
	applyFlag(cmd, "effective-wpm", &opts.Practice.EffectiveWPM, practiceEffectiveWPM)
	applyFlag(cmd, "player", &opts.Practice.Player, practicePlayer)
	opts.Practice.Lesson = practiceLesson
	return opts
}

func openApp(cmd *cobra.Command) (*app.App, error) {
	return app.Open(cmd.Context(), resolveOptions(cmd))
}

func closeApp(a *app.App) {
	if err := a.Close(context.Background()); err != nil {
		logErrf("failed to close: %v\n", err)
	}
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a)

	ctrl, err := a.Session()
	if err != nil {
		return fmt.Errorf("failed to start practice: %w", err)
	}
	model := tui.NewModel(ctrl, tui.NewPlayer(a.Options.Practice.Player))
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	if pending := a.Store.Pending(); pending > 0 {
		logErrf("%d practice results are not saved yet; retrying on exit\n", pending)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := configPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// applyFlag overrides target with value when the flag was given.
func applyFlag[T any](cmd *cobra.Command, name string, target *T, value T) {
	if cmd.Flags().Changed(name) {
		*target = value
	}
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# koch configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# threshold = %.0f         # Accuracy (percent) a drill needs to count as passed
# streak = %d              # Consecutive passing drills that unlock the next lesson
# char-wpm = %d           # Character speed
# effective-wpm = %d      # Effective (Farnsworth) speed
# player = "mpv --really-quiet --volume={volume} {file}"

[materials]
# dir = %q
# files = %d              # Transcripts per lesson
# mode = %q        # uniform, new-char-focus, gradual or difficulty

[storage]
# backend = %q           # json, sqlite or badger
# path = ""                # Defaults to the data directory

[log]
# level = %q
# file = %q
`,
		defaults.Practice.Threshold,
		defaults.Practice.Streak,
		defaults.Practice.CharWPM,
		defaults.Practice.EffectiveWPM,
		defaults.Practice.MaterialsDir,
		defaults.Practice.Files,
		defaults.Practice.Mode,
		defaults.Backend,
		defaults.LogLevel,
		defaults.LogFile,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
