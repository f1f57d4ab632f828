package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/koch/internal/lesson"
	"github.com/verte-zerg/koch/internal/materials"
	"github.com/verte-zerg/koch/internal/stats"
)

const recentPractices = 10

func newLessonsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lessons",
		Short: "List lessons and progress",
		Args:  cobra.NoArgs,
		RunE:  runLessonsCmd,
	}
}

func runLessonsCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a)

	policy := a.Options.Policy()
	dir := a.Options.Practice.MaterialsDir
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "\tLESSON\tNEW\tCHARACTERS\tPRACTICES\tSTREAK\tRECENT\tTEXTS"); err != nil {
		return err
	}
	for _, l := range lesson.Lessons() {
		marker := " "
		switch {
		case l.ID == a.User.LastLesson:
			marker = ">"
		case l.ID > a.User.UnlockedLesson:
			marker = "-"
		}
		accs := a.Store.Accuracies(l.ID)
		decision := policy.Evaluate(accs)
		streak := fmt.Sprintf("%d/%d", min(decision.Streak, policy.Streak), policy.Streak)
		if decision.Passed {
			streak += " passed"
		}
		recent := accs[max(0, len(accs)-recentPractices):]
		if _, err := fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%d\t%s\t%s\t%d\n",
			marker, l.ID, printable(l.NewChar), l.Chars, len(accs), streak, stats.Sparkline(recent), materials.TextCount(dir, l.ID)); err != nil {
			return err
		}
	}
	return w.Flush()
}

func printable(r rune) string {
	if r == 0 {
		return "-"
	}
	return string(r)
}
