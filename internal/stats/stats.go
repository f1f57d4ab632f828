// Package stats turns stored practice aggregates into heat-map and series
// views and renders them as text.
package stats

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/koch/internal/lesson"
)

const sparkChars = " .:-=+*#%@"

func formatUnits(v int64, unit string) string {
	return strconv.FormatInt(v, 10) + unit
}

func msDuration(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		b.WriteByte(sparkChars[level(v, minVal, maxVal, len(sparkChars))])
	}
	return b.String()
}

// level maps v in [minVal,maxVal] onto 0..levels-1.
func level(v, minVal, maxVal float64, levels int) int {
	if maxVal-minVal < 1e-9 {
		return levels - 1
	}
	pos := (v - minVal) / (maxVal - minVal)
	idx := int(math.Round(pos * float64(levels-1)))
	if idx < 0 {
		idx = 0
	}
	if idx >= levels {
		idx = levels - 1
	}
	return idx
}

// ScopeName returns "All lessons" for the global scope and the lesson name otherwise.
func ScopeName(scope int) string {
	l, err := lesson.Get(scope)
	if err != nil {
		return "All lessons"
	}
	return "Lesson " + l.Name
}

// RenderSummary prints the totals of a scope.
func RenderSummary(w io.Writer, s Summary) error {
	if _, err := fmt.Fprintf(w, "Summary: %s\n", ScopeName(s.Scope)); err != nil {
		return err
	}
	if s.Count == 0 {
		_, err := fmt.Fprintln(w, "No practice recorded.")
		return err
	}
	if _, err := fmt.Fprintf(w, "Practices: %d\n", s.Count); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Practice time: %s\n", FormatDuration(s.Duration())); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Avg Accuracy: %.2f%%\n", s.Accuracy); err != nil {
		return err
	}
	if !s.First.IsZero() {
		if _, err := fmt.Fprintf(w, "Active: %s to %s\n", dayKey(s.First), dayKey(s.Last)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return nil
}

// RenderSeriesTable prints one row per bucket.
func RenderSeriesTable(w io.Writer, points []Point) error {
	if len(points) == 0 {
		_, err := fmt.Fprintln(w, "No practice recorded.")
		return err
	}
	headers := []string{"Period", "Practices", "Time", "Avg Accuracy"}
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		rows = append(rows, []string{
			p.Key,
			strconv.Itoa(p.Count),
			FormatDuration(msDuration(p.DurationMs)),
			fmt.Sprintf("%.2f%%", p.Accuracy),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return nil
}

// RenderCurvesWithSize prints the smoothed accuracy curve on a 0-100% axis
// together with the practice count per bucket, sized to a total width.
func RenderCurvesWithSize(w io.Writer, points []Point, window, totalWidth, height int, useColor bool) error {
	if len(points) == 0 {
		return nil
	}
	accs := make([]float64, len(points))
	counts := make([]float64, len(points))
	for i, p := range points {
		accs[i] = p.Accuracy
		counts[i] = float64(p.Count)
	}
	counts = MovingAverage(counts, window)
	peak := 1.0
	for _, c := range counts {
		peak = max(peak, math.Ceil(c))
	}

	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	return PlotCurves(w, "Learning Curves", []Curve{
		{Name: "Accuracy", Unit: "%", Min: 0, Max: 100, Values: MovingAverage(accs, window)},
		{Name: "Practices", Min: 0, Max: peak, Values: counts},
	}, width, height, useColor)
}
