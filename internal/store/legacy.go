package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/verte-zerg/koch/internal/model"
)

// legacyDocument is the per-lesson statistics layout written by earlier
// trainers: totals plus an accuracy history for each lesson.
type legacyDocument struct {
	Lessons map[string]struct {
		History []struct {
			Timestamp    string  `json:"timestamp"`
			Accuracy     float64 `json:"accuracy"`
			PracticeTime float64 `json:"practice_time"`
		} `json:"accuracy_history"`
	} `json:"lessons"`
}

var legacyLayouts = []string{
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
}

// ParseLegacy converts a legacy statistics document into practice results.
// Naive timestamps are read in loc.
func ParseLegacy(r io.Reader, loc *time.Location) ([]model.PracticeResult, error) {
	var doc legacyDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	var results []model.PracticeResult
	for key, entry := range doc.Lessons {
		lessonID, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("%w: lesson key %q", ErrMalformed, key)
		}
		for _, h := range entry.History {
			ended, err := parseLegacyTime(h.Timestamp, loc)
			if err != nil {
				return nil, err
			}
			durationMs := int64(math.Round(h.PracticeTime * 1000))
			results = append(results, model.PracticeResult{
				ID:         legacyID(lessonID, ended),
				Lesson:     lessonID,
				StartedAt:  ended.Add(-time.Duration(durationMs) * time.Millisecond),
				EndedAt:    ended,
				Accuracy:   h.Accuracy,
				DurationMs: durationMs,
			})
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].EndedAt.Before(results[j].EndedAt)
	})
	return results, nil
}

// legacyID derives a stable id from the entry itself so importing the same
// document twice adds nothing the second time.
func legacyID(lessonID int, ended time.Time) string {
	return fmt.Sprintf("legacy-%02d-%d", lessonID, ended.UnixNano())
}

func parseLegacyTime(value string, loc *time.Location) (time.Time, error) {
	for _, layout := range legacyLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: timestamp %q", ErrMalformed, value)
}

// Import records a batch of results, skipping invalid ones and ids already
// in the history, and persists them together. It returns the number of
// results added.
func (s *Store) Import(ctx context.Context, results []model.PracticeResult) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	added, duplicates := 0, 0
	for _, r := range results {
		if err := validate(r); err != nil {
			s.logger.Warn("skipping imported result", "id", r.ID, "err", err)
			continue
		}
		if s.known(r.ID) {
			duplicates++
			continue
		}
		if r.ID == "" {
			r.ID = gonanoid.Must()
		}
		s.add(r)
		s.pending = append(s.pending, r)
		added++
	}
	if duplicates > 0 {
		s.logger.Info("skipped results already imported", "count", duplicates)
	}
	return added, s.flushLocked(ctx)
}
