package stats

import (
	"fmt"
	"io"
	"strings"
	"time"
)

const calendarShades = "·░▒▓█"

var weekdayLabels = [7]string{"Mon", "   ", "Wed", "   ", "Fri", "   ", "Sun"}

// CalendarGrid lays days out in weeks starting on Monday. grid[weekday][week]
// is nil for cells outside the range.
func CalendarGrid(days []DayPoint) [7][]*DayPoint {
	var grid [7][]*DayPoint
	if len(days) == 0 {
		return grid
	}
	offset := mondayIndex(days[0].Date.Weekday())
	weeks := (offset + len(days) + 6) / 7
	for i := range grid {
		grid[i] = make([]*DayPoint, weeks)
	}
	for i := range days {
		cell := offset + i
		grid[cell%7][cell/7] = &days[i]
	}
	return grid
}

func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// Shade returns the heat level 0..levels-1 of count relative to maxCount.
// Zero counts are always level 0.
func Shade(count, maxCount, levels int) int {
	if count <= 0 || maxCount <= 0 || levels < 2 {
		return 0
	}
	return 1 + level(float64(count), 1, float64(maxCount), levels-1)
}

// MaxCount returns the largest daily count.
func MaxCount(days []DayPoint) int {
	maxCount := 0
	for _, d := range days {
		if d.Count > maxCount {
			maxCount = d.Count
		}
	}
	return maxCount
}

// RenderCalendar prints a year heat-map with one column per week.
func RenderCalendar(w io.Writer, days []DayPoint, summary Summary) error {
	if len(days) == 0 {
		return nil
	}
	year := days[0].Date.Year()
	if _, err := fmt.Fprintf(w, "Calendar %d: %d practices, %s, avg accuracy %.2f%%\n",
		year, summary.Count, FormatDuration(summary.Duration()), summary.Accuracy); err != nil {
		return err
	}
	grid := CalendarGrid(days)
	maxCount := MaxCount(days)
	shades := []rune(calendarShades)

	if _, err := fmt.Fprintln(w, "    "+monthHeader(grid[0], grid[6])); err != nil {
		return err
	}
	for wd := 0; wd < 7; wd++ {
		var b strings.Builder
		b.WriteString(weekdayLabels[wd])
		b.WriteByte(' ')
		for _, cell := range grid[wd] {
			if cell == nil {
				b.WriteByte(' ')
				continue
			}
			b.WriteRune(shades[Shade(cell.Count, maxCount, len(shades))])
		}
		if _, err := fmt.Fprintln(w, b.String()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "    less %s more\n\n", calendarShades)
	return err
}

// monthHeader labels the week columns where a month begins.
func monthHeader(mondays, sundays []*DayPoint) string {
	header := make([]rune, len(sundays))
	for i := range header {
		header[i] = ' '
	}
	lastMonth := time.Month(0)
	for col := range sundays {
		cell := sundays[col]
		if cell == nil && col < len(mondays) {
			cell = mondays[col]
		}
		if cell == nil {
			continue
		}
		if m := cell.Date.Month(); m != lastMonth {
			lastMonth = m
			label := []rune(m.String()[:3])
			if col+len(label) <= len(header) {
				copy(header[col:], label)
			}
		}
	}
	return strings.TrimRight(string(header), " ")
}
