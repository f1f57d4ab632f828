package stats

import (
	"encoding/json"
	"fmt"
	"io"
)

// ExportDocument is the view data handed to an external chart layer.
type ExportDocument struct {
	Scope       string      `json:"scope"`
	Granularity string      `json:"granularity"`
	Summary     Summary     `json:"summary"`
	Series      []Point     `json:"series"`
	Year        int         `json:"year"`
	Years       []int       `json:"years"`
	Heatmap     []DayPoint  `json:"heatmap"`
	YearSummary Summary     `json:"year_summary"`
	Lessons     []LessonRow `json:"lessons"`
}

// NewExportDocument converts a report into its export form.
func NewExportDocument(r Report) ExportDocument {
	doc := ExportDocument{
		Scope:       ScopeName(r.Scope),
		Granularity: r.Granularity.String(),
		Summary:     r.Summary,
		Series:      r.Points,
		Year:        r.Year,
		Years:       r.Years,
		Heatmap:     r.Days,
		YearSummary: r.YearSummary,
		Lessons:     r.Lessons,
	}
	if doc.Series == nil {
		doc.Series = []Point{}
	}
	if doc.Years == nil {
		doc.Years = []int{}
	}
	if doc.Heatmap == nil {
		doc.Heatmap = []DayPoint{}
	}
	if doc.Lessons == nil {
		doc.Lessons = []LessonRow{}
	}
	return doc
}

// Export writes the report as indented JSON.
func Export(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewExportDocument(r)); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return nil
}
