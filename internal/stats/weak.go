package stats

import "sort"

// WeakLessons selects the lowest-accuracy lessons below threshold.
func WeakLessons(rows []LessonRow, threshold float64, top int) []LessonRow {
	candidates := make([]LessonRow, 0, len(rows))
	for _, r := range rows {
		if r.Count > 0 && r.Accuracy < threshold {
			candidates = append(candidates, r)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Accuracy == candidates[j].Accuracy {
			return candidates[i].Lesson < candidates[j].Lesson
		}
		return candidates[i].Accuracy < candidates[j].Accuracy
	})
	if top > 0 && top < len(candidates) {
		candidates = candidates[:top]
	}
	return candidates
}
