package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/koch/internal/generator"
	"github.com/verte-zerg/koch/internal/lesson"
	"github.com/verte-zerg/koch/internal/materials"
	"github.com/verte-zerg/koch/internal/store"
)

var (
	materialsForce bool
	materialsSeed  int64
	resetAll       bool
)

func newMaterialsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "materials",
		Short: "Generate lesson transcripts",
		Args:  cobra.NoArgs,
		RunE:  runMaterialsCmd,
	}
	cmd.Flags().BoolVar(&materialsForce, "force", false, "overwrite existing transcripts")
	cmd.Flags().Int64Var(&materialsSeed, "seed", 0, "random seed (0 picks one)")
	return cmd
}

func runMaterialsCmd(cmd *cobra.Command, _ []string) error {
	opts := resolveOptions(cmd)
	if err := opts.Validate(); err != nil {
		return err
	}
	mode, err := generator.ParseMode(opts.Practice.Mode)
	if err != nil {
		return err
	}
	dir := opts.Practice.MaterialsDir
	if !materialsForce {
		for _, l := range lesson.Lessons() {
			if materials.TextCount(dir, l.ID) > 0 {
				return fmt.Errorf("transcripts already exist in %s (use --force to overwrite)", dir)
			}
		}
	}

	seed := materialsSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	src := generator.NewSeeded(mode, seed)
	progress := func(l lesson.Lesson, files int) {
		logErrf("lesson %2d/%d: %d transcripts (%s)\n", l.ID, lesson.Last, files, l.Chars)
	}
	if err := materials.Build(cmd.Context(), dir, opts.Practice.Files, src, progress); err != nil {
		return fmt.Errorf("failed to build materials: %w", err)
	}
	logErrf("wrote %d transcripts per lesson to %s (mode %s, seed %d)\n", opts.Practice.Files, dir, mode, seed)
	logErrln("audio files are not generated; render each transcript to the matching .wav path")
	return nil
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check lesson materials for missing files",
		Args:  cobra.NoArgs,
		RunE:  runCheckCmd,
	}
}

func runCheckCmd(cmd *cobra.Command, _ []string) error {
	opts := resolveOptions(cmd)
	dir := opts.Practice.MaterialsDir
	report := materials.Check(dir, opts.Practice.Files)
	if report.Complete() {
		fmt.Printf("materials in %s are complete\n", dir)
		return nil
	}
	if len(report.MissingCharacters) > 0 {
		chars := make([]string, len(report.MissingCharacters))
		for i, idx := range report.MissingCharacters {
			chars[i] = string(lesson.Sequence[idx])
		}
		fmt.Printf("missing character audio: %s\n", strings.Join(chars, " "))
	}
	if len(report.IncompleteLessons) > 0 {
		ids := make([]string, len(report.IncompleteLessons))
		for i, id := range report.IncompleteLessons {
			ids[i] = strconv.Itoa(id)
		}
		fmt.Printf("incomplete lessons: %s\n", strings.Join(ids, ", "))
	}
	return errors.New("materials are incomplete")
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a legacy per-lesson statistics file",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportCmd,
	}
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	results, err := store.ParseLegacy(f, time.Local)
	if closeErr := f.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a)

	added, err := a.Store.Import(cmd.Context(), results)
	if err != nil {
		return fmt.Errorf("failed to import: %w", err)
	}
	fmt.Printf("imported %d of %d practices\n", added, len(results))
	if skipped := len(results) - added; skipped > 0 {
		fmt.Printf("skipped %d already imported or invalid\n", skipped)
	}
	return nil
}

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset transcript progress",
		Args:  cobra.NoArgs,
		RunE:  runResetCmd,
	}
	cmd.Flags().BoolVar(&resetAll, "all", false, "also return to lesson 1")
	return cmd
}

func runResetCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a)

	user := a.User
	user.ResetProgress()
	if resetAll {
		user.LastLesson = lesson.First
		user.UnlockedLesson = lesson.First
	}
	if err := a.SaveUser(user); err != nil {
		return fmt.Errorf("failed to save user config: %w", err)
	}
	fmt.Println("practice progress reset")
	return nil
}
