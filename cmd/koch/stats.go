package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/koch/internal/fileutil"
	"github.com/verte-zerg/koch/internal/lesson"
	"github.com/verte-zerg/koch/internal/model"
	"github.com/verte-zerg/koch/internal/stats"
	"github.com/verte-zerg/koch/internal/statsui"
)

const defaultCurveWindow = 5

var (
	statsLesson      int
	statsGranularity string
	statsYear        int
	statsCurveWindow int
	statsText        bool
	statsColor       bool
	exportOutput     string
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	addReportFlags(cmd)
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().BoolVar(&statsText, "text", false, "print a plain report instead of the TUI")
	cmd.Flags().BoolVar(&statsColor, "color", false, "force colored curves in --text mode")
	return cmd
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export aggregated stats as JSON",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	addReportFlags(cmd)
	cmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&statsLesson, "lesson", 0, "lesson filter (0 for all lessons)")
	cmd.Flags().StringVar(&statsGranularity, "by", model.Day.String(), "bucket size: hour, day, month or year")
	cmd.Flags().IntVar(&statsYear, "year", 0, "calendar year (default: latest practiced)")
}

func statsConfig() (model.StatsConfig, error) {
	if statsLesson != 0 && !lesson.Valid(statsLesson) {
		return model.StatsConfig{}, fmt.Errorf("--lesson must be between %d and %d", lesson.First, lesson.Last)
	}
	g, err := model.ParseGranularity(statsGranularity)
	if err != nil {
		return model.StatsConfig{}, err
	}
	if statsYear < 0 {
		return model.StatsConfig{}, fmt.Errorf("--year must be >= 0")
	}
	if statsCurveWindow < 1 {
		statsCurveWindow = 1
	}
	return model.StatsConfig{
		Lesson:      statsLesson,
		Granularity: g,
		Year:        statsYear,
		CurveWindow: statsCurveWindow,
	}, nil
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := statsConfig()
	if err != nil {
		return err
	}
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a)

	if statsText || !term.IsTerminal(int(os.Stdout.Fd())) {
		report := stats.BuildReport(a.Store, cfg, time.Now())
		return stats.RenderReport(os.Stdout, report, cfg.CurveWindow, 0, statsColor)
	}

	m := statsui.NewModel(a.Store, cfg)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := statsConfig()
	if err != nil {
		return err
	}
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a)

	report := stats.BuildReport(a.Store, cfg, time.Now())
	if exportOutput == "" {
		return stats.Export(os.Stdout, report)
	}
	var buf bytes.Buffer
	if err := stats.Export(&buf, report); err != nil {
		return err
	}
	if err := fileutil.WriteAtomic(exportOutput, 0o644, func(w io.Writer) error {
		_, err := buf.WriteTo(w)
		return err
	}); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	logErrf("exported %d practices to %s\n", report.Summary.Count, exportOutput)
	return nil
}
