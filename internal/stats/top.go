package stats

import "sort"

// LessonRow totals one practiced lesson.
type LessonRow struct {
	Lesson     int     `json:"lesson"`
	Count      int     `json:"count"`
	DurationMs int64   `json:"duration_ms"`
	Accuracy   float64 `json:"accuracy"`
}

// LessonRows returns the totals of every practiced lesson ordered by id.
func LessonRows(src Source) []LessonRow {
	ids := src.Lessons()
	rows := make([]LessonRow, 0, len(ids))
	for _, id := range ids {
		total := src.Totals(id)
		rows = append(rows, LessonRow{
			Lesson:     id,
			Count:      total.Count,
			DurationMs: total.DurationMs,
			Accuracy:   round2(total.AverageAccuracy()),
		})
	}
	return rows
}

// TopLessonsByCount returns the n most practiced lessons.
func TopLessonsByCount(rows []LessonRow, n int) []LessonRow {
	if n <= 0 || len(rows) == 0 {
		return nil
	}
	items := make([]LessonRow, len(rows))
	copy(items, rows)
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count == items[j].Count {
			return items[i].Lesson < items[j].Lesson
		}
		return items[i].Count > items[j].Count
	})
	if n > len(items) {
		n = len(items)
	}
	return items[:n]
}
