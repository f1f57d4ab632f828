// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"
)

// GlobalScope selects statistics across all lessons.
const GlobalScope = 0

// Config defines practice settings.
type Config struct {
	Lesson       int
	Threshold    float64
	Streak       int
	CharWPM      int
	EffectiveWPM int
	Player       string
	MaterialsDir string
	Files        int
	Mode         string
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Lesson      int
	Granularity Granularity
	Year        int
	CurveWindow int
}

// PracticeResult captures one checked drill. It is never modified once recorded.
type PracticeResult struct {
	ID         string    `json:"id"`
	Lesson     int       `json:"lesson"`
	Text       int       `json:"text"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"timestamp"`
	Expected   string    `json:"expected"`
	Typed      string    `json:"typed"`
	Accuracy   float64   `json:"accuracy"`
	DurationMs int64     `json:"duration_ms"`
	Correct    int       `json:"correct"`
	Incorrect  int       `json:"incorrect"`
	Missing    int       `json:"missing"`
	Extra      int       `json:"extra"`
}

// Duration returns the practice time of the result.
func (r PracticeResult) Duration() time.Duration {
	return time.Duration(r.DurationMs) * time.Millisecond
}

// MarkKind classifies one aligned position of a drill.
type MarkKind int

const (
	Correct MarkKind = iota
	Incorrect
	Missing
	Extra
)

func (k MarkKind) String() string {
	switch k {
	case Correct:
		return "correct"
	case Incorrect:
		return "incorrect"
	case Missing:
		return "missing"
	case Extra:
		return "extra"
	default:
		return fmt.Sprintf("MarkKind(%d)", int(k))
	}
}

// Mark is the classification of one position. Expected is zero for extra
// positions and Typed is zero for missing ones.
type Mark struct {
	Kind     MarkKind
	Expected rune
	Typed    rune
}

// Granularity is the width of a statistics time bucket.
type Granularity int

const (
	Hour Granularity = iota
	Day
	Month
	Year
)

// Granularities lists every bucket width maintained by the store.
var Granularities = []Granularity{Hour, Day, Month, Year}

func (g Granularity) String() string {
	switch g {
	case Hour:
		return "hour"
	case Day:
		return "day"
	case Month:
		return "month"
	case Year:
		return "year"
	default:
		return fmt.Sprintf("Granularity(%d)", int(g))
	}
}

// ParseGranularity parses hour, day, month or year.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hour", "h":
		return Hour, nil
	case "day", "d", "":
		return Day, nil
	case "month", "m":
		return Month, nil
	case "year", "y":
		return Year, nil
	default:
		return Day, fmt.Errorf("unknown granularity %q (want hour, day, month or year)", s)
	}
}

// Truncate returns the start of the bucket containing t, in t's location.
func (g Granularity) Truncate(t time.Time) time.Time {
	switch g {
	case Hour:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
	case Month:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	case Year:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location())
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}
}

// Key returns the sortable bucket key for t.
func (g Granularity) Key(t time.Time) string {
	switch g {
	case Hour:
		return t.Format("2006-01-02 15:00")
	case Month:
		return t.Format("2006-01")
	case Year:
		return t.Format("2006")
	default:
		return t.Format("2006-01-02")
	}
}

// Label returns the short display label for a bucket start.
func (g Granularity) Label(t time.Time) string {
	switch g {
	case Hour:
		return t.Format("01-02 15:00")
	case Month:
		return t.Format("2006-01")
	case Year:
		return t.Format("2006")
	default:
		return t.Format("01-02")
	}
}

// StatsRecord aggregates results falling in one scope and time bucket.
type StatsRecord struct {
	Key         string
	Start       time.Time
	Count       int
	DurationMs  int64
	AccuracySum float64
}

// Add folds a result into the record.
func (r *StatsRecord) Add(res PracticeResult) {
	r.Count++
	r.DurationMs += res.DurationMs
	r.AccuracySum += res.Accuracy
}

// AverageAccuracy returns the mean accuracy of the bucket.
func (r StatsRecord) AverageAccuracy() float64 {
	if r.Count == 0 {
		return 0
	}
	return r.AccuracySum / float64(r.Count)
}
