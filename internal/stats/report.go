package stats

import (
	"fmt"
	"io"
	"time"

	"github.com/verte-zerg/koch/internal/model"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Scope       int
	Granularity model.Granularity
	Summary     Summary
	Points      []Point
	Year        int
	Years       []int
	Days        []DayPoint
	YearSummary Summary
	Lessons     []LessonRow
}

// BuildReport prepares every view of the statistics for one scope. A zero
// cfg.Year selects the latest practiced year, or now's year when there is none.
func BuildReport(src Source, cfg model.StatsConfig, now time.Time) Report {
	years := Years(src)
	year := cfg.Year
	if year == 0 {
		year = now.Year()
		if len(years) > 0 {
			year = years[len(years)-1]
		}
	}
	days, yearSummary := YearHeatmap(src, year, now.Location())
	return Report{
		Scope:       cfg.Lesson,
		Granularity: cfg.Granularity,
		Summary:     Overview(src, cfg.Lesson),
		Points:      Series(src, cfg.Lesson, cfg.Granularity),
		Year:        year,
		Years:       years,
		Days:        days,
		YearSummary: yearSummary,
		Lessons:     LessonRows(src),
	}
}

// RenderReport prints the summary, the series table, the curves and the
// calendar of a report.
func RenderReport(w io.Writer, r Report, window, width int, useColor bool) error {
	if err := RenderSummary(w, r.Summary); err != nil {
		return err
	}
	if r.Summary.Count == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "By %s\n", r.Granularity); err != nil {
		return err
	}
	if err := RenderSeriesTable(w, r.Points); err != nil {
		return err
	}
	if len(r.Points) > 1 {
		if err := RenderCurvesWithSize(w, r.Points, window, width, 10, useColor); err != nil {
			return err
		}
	}
	if err := RenderCalendar(w, r.Days, r.YearSummary); err != nil {
		return err
	}
	if r.Scope == model.GlobalScope {
		return RenderLessonTable(w, r.Lessons)
	}
	return nil
}

// RenderLessonTable prints per-lesson totals.
func RenderLessonTable(w io.Writer, rows []LessonRow) error {
	if len(rows) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Per-Lesson"); err != nil {
		return err
	}
	headers := []string{"Lesson", "Practices", "Time", "Avg Accuracy"}
	tableRows := make([][]string, 0, len(rows))
	for _, r := range rows {
		tableRows = append(tableRows, []string{
			ScopeName(r.Lesson),
			fmt.Sprintf("%d", r.Count),
			FormatDuration(msDuration(r.DurationMs)),
			fmt.Sprintf("%.2f%%", r.Accuracy),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true}
	for _, line := range formatTable(headers, tableRows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
