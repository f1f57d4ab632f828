package stats

import (
	"math"
	"sort"
	"time"

	"github.com/verte-zerg/koch/internal/model"
)

// Source is the read side of the statistics store.
type Source interface {
	Records(scope int, g model.Granularity) []model.StatsRecord
	Totals(scope int) model.StatsRecord
	Lessons() []int
}

// DayPoint is one calendar day of practice.
type DayPoint struct {
	Date       time.Time `json:"-"`
	Day        string    `json:"date"`
	Count      int       `json:"count"`
	DurationMs int64     `json:"duration_ms"`
}

// Point is one time bucket of a series.
type Point struct {
	Key        string    `json:"key"`
	Label      string    `json:"label"`
	Start      time.Time `json:"start"`
	Count      int       `json:"count"`
	DurationMs int64     `json:"duration_ms"`
	Accuracy   float64   `json:"accuracy"`
}

// Summary totals a scope or a year.
type Summary struct {
	Scope      int       `json:"scope"`
	Count      int       `json:"count"`
	DurationMs int64     `json:"duration_ms"`
	Accuracy   float64   `json:"accuracy"`
	First      time.Time `json:"first,omitzero"`
	Last       time.Time `json:"last,omitzero"`
}

// Duration returns the total practice time.
func (s Summary) Duration() time.Duration {
	return time.Duration(s.DurationMs) * time.Millisecond
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// Heatmap returns one point per calendar day from the first to the last
// practiced day across all lessons. Days without practice have zero counts.
func Heatmap(src Source) []DayPoint {
	records := src.Records(model.GlobalScope, model.Day)
	if len(records) == 0 {
		return []DayPoint{}
	}
	byDay := make(map[string]model.StatsRecord, len(records))
	for _, rec := range records {
		byDay[rec.Key] = rec
	}
	first := records[0].Start
	last := records[len(records)-1].Start
	return fillDays(first, last, byDay)
}

func fillDays(first, last time.Time, byDay map[string]model.StatsRecord) []DayPoint {
	first = model.Day.Truncate(first)
	last = model.Day.Truncate(last)
	var out []DayPoint
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		key := dayKey(d)
		rec := byDay[key]
		out = append(out, DayPoint{Date: d, Day: key, Count: rec.Count, DurationMs: rec.DurationMs})
	}
	return out
}

// YearHeatmap returns every day of year, zero-filled, together with the
// year's totals. Days are laid out in loc.
func YearHeatmap(src Source, year int, loc *time.Location) ([]DayPoint, Summary) {
	if loc == nil {
		loc = time.Local
	}
	byDay := map[string]model.StatsRecord{}
	summary := Summary{Scope: model.GlobalScope}
	var accuracySum float64
	for _, rec := range src.Records(model.GlobalScope, model.Day) {
		if rec.Start.Year() != year {
			continue
		}
		merged := byDay[rec.Key]
		merged.Count += rec.Count
		merged.DurationMs += rec.DurationMs
		byDay[rec.Key] = merged

		summary.Count += rec.Count
		summary.DurationMs += rec.DurationMs
		accuracySum += rec.AccuracySum
		if summary.First.IsZero() || rec.Start.Before(summary.First) {
			summary.First = rec.Start
		}
		if rec.Start.After(summary.Last) {
			summary.Last = rec.Start
		}
	}
	if summary.Count > 0 {
		summary.Accuracy = round2(accuracySum / float64(summary.Count))
	}
	first := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	last := time.Date(year, time.December, 31, 0, 0, 0, 0, loc)
	return fillDays(first, last, byDay), summary
}

// Years returns the years with practice in ascending order.
func Years(src Source) []int {
	seen := map[int]bool{}
	var years []int
	for _, rec := range src.Records(model.GlobalScope, model.Year) {
		y := rec.Start.Year()
		if !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}
	sort.Ints(years)
	return years
}

// Series returns the buckets of a scope at one granularity in chronological
// order, with average accuracy rounded to two decimals.
func Series(src Source, scope int, g model.Granularity) []Point {
	records := src.Records(scope, g)
	out := make([]Point, 0, len(records))
	for _, rec := range records {
		out = append(out, Point{
			Key:        rec.Key,
			Label:      g.Label(rec.Start),
			Start:      rec.Start,
			Count:      rec.Count,
			DurationMs: rec.DurationMs,
			Accuracy:   round2(rec.AverageAccuracy()),
		})
	}
	return out
}

// Overview totals a scope.
func Overview(src Source, scope int) Summary {
	total := src.Totals(scope)
	summary := Summary{
		Scope:      scope,
		Count:      total.Count,
		DurationMs: total.DurationMs,
		Accuracy:   round2(total.AverageAccuracy()),
	}
	days := src.Records(scope, model.Day)
	if len(days) > 0 {
		summary.First = days[0].Start
		summary.Last = days[len(days)-1].Start
	}
	return summary
}

// FormatDuration renders a practice duration as "45s", "23m 45s" or "2h 15m".
func FormatDuration(d time.Duration) string {
	seconds := int64(d / time.Second)
	if seconds < 0 {
		seconds = 0
	}
	if seconds < 60 {
		return formatUnits(seconds, "s")
	}
	minutes := seconds / 60
	if minutes < 60 {
		return formatUnits(minutes, "m") + " " + formatUnits(seconds%60, "s")
	}
	return formatUnits(minutes/60, "h") + " " + formatUnits(minutes%60, "m")
}
