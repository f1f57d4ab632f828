// Package store keeps the practice history and its per-bucket aggregates.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/verte-zerg/koch/internal/lesson"
	"github.com/verte-zerg/koch/internal/model"
)

type bucketIndex map[model.Granularity]map[string]*model.StatsRecord

// Store is an append-only history of practice results. Every recorded result
// is folded into aggregates for the global scope and its lesson scope at each
// granularity, so reads never rescan the history.
type Store struct {
	backend Backend
	logger  *slog.Logger

	mu      sync.RWMutex
	results []model.PracticeResult
	ids     map[string]struct{}
	index   map[int]bucketIndex
	pending []model.PracticeResult
}

// Open loads the backend's history. Unreadable history is logged and
// whatever the backend could still decode is kept; invalid entries are
// skipped.
func Open(ctx context.Context, backend Backend, logger *slog.Logger) (*Store, error) {
	s := &Store{
		backend: backend,
		logger:  logger,
		ids:     map[string]struct{}{},
		index:   map[int]bucketIndex{},
	}
	loaded, err := backend.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrMalformed) {
			return nil, fmt.Errorf("failed to load statistics: %w", err)
		}
		logger.Warn("statistics partly unreadable", "kept", len(loaded), "err", err)
	}
	for _, r := range loaded {
		if err := validate(r); err != nil {
			logger.Warn("skipping stored result", "id", r.ID, "err", err)
			continue
		}
		if s.known(r.ID) {
			logger.Warn("skipping duplicate stored result", "id", r.ID)
			continue
		}
		s.add(r)
	}
	logger.Debug("statistics loaded", "results", len(s.results))
	return s, nil
}

func validate(r model.PracticeResult) error {
	switch {
	case !lesson.Valid(r.Lesson):
		return fmt.Errorf("%w: lesson %d", ErrInvalidResult, r.Lesson)
	case math.IsNaN(r.Accuracy) || r.Accuracy < 0 || r.Accuracy > 100:
		return fmt.Errorf("%w: accuracy %.2f", ErrInvalidResult, r.Accuracy)
	case r.DurationMs < 0:
		return fmt.Errorf("%w: negative duration", ErrInvalidResult)
	case r.EndedAt.IsZero():
		return fmt.Errorf("%w: missing timestamp", ErrInvalidResult)
	}
	return nil
}

func (s *Store) known(id string) bool {
	_, ok := s.ids[id]
	return id != "" && ok
}

func (s *Store) add(r model.PracticeResult) {
	s.results = append(s.results, r)
	if r.ID != "" {
		s.ids[r.ID] = struct{}{}
	}
	for _, scope := range []int{model.GlobalScope, r.Lesson} {
		idx, ok := s.index[scope]
		if !ok {
			idx = bucketIndex{}
			s.index[scope] = idx
		}
		for _, g := range model.Granularities {
			buckets, ok := idx[g]
			if !ok {
				buckets = map[string]*model.StatsRecord{}
				idx[g] = buckets
			}
			key := g.Key(r.EndedAt)
			rec, ok := buckets[key]
			if !ok {
				rec = &model.StatsRecord{Key: key, Start: g.Truncate(r.EndedAt)}
				buckets[key] = rec
			}
			rec.Add(r)
		}
	}
}

// Record validates r, assigns an id when missing, adds it to the history and
// persists it. A *PersistenceError means r is kept in memory and will be
// retried; any other error means r was rejected.
func (s *Store) Record(ctx context.Context, r model.PracticeResult) (model.PracticeResult, error) {
	if err := validate(r); err != nil {
		return r, err
	}
	if r.ID == "" {
		r.ID = gonanoid.Must()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.add(r)
	s.pending = append(s.pending, r)
	return r, s.flushLocked(ctx)
}

// Flush retries persisting pending results.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked(ctx)
}

func (s *Store) flushLocked(ctx context.Context) error {
	if len(s.pending) == 0 {
		return nil
	}
	if err := s.backend.Append(ctx, s.pending); err != nil {
		s.logger.Error("failed to persist statistics", "pending", len(s.pending), "err", err)
		return &PersistenceError{Pending: len(s.pending), Err: err}
	}
	s.pending = nil
	return nil
}

// Pending returns the number of results not yet persisted.
func (s *Store) Pending() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending)
}

// Close flushes pending results and closes the backend.
func (s *Store) Close(ctx context.Context) error {
	flushErr := s.Flush(ctx)
	if err := s.backend.Close(); err != nil {
		return errors.Join(flushErr, fmt.Errorf("failed to close statistics: %w", err))
	}
	return flushErr
}

// Len returns the number of recorded results.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}

// Results returns the results of a scope ordered by end time.
func (s *Store) Results(scope int) []model.PracticeResult {
	s.mu.RLock()
	out := make([]model.PracticeResult, 0, len(s.results))
	for _, r := range s.results {
		if scope == model.GlobalScope || r.Lesson == scope {
			out = append(out, r)
		}
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EndedAt.Before(out[j].EndedAt)
	})
	return out
}

// Recent returns the last n results of a scope, oldest first.
func (s *Store) Recent(scope, n int) []model.PracticeResult {
	results := s.Results(scope)
	if n >= 0 && len(results) > n {
		results = results[len(results)-n:]
	}
	return results
}

// Accuracies returns the accuracy history of a lesson in chronological order.
func (s *Store) Accuracies(lessonID int) []float64 {
	if lessonID == model.GlobalScope {
		return nil
	}
	results := s.Results(lessonID)
	out := make([]float64, len(results))
	for i, r := range results {
		out[i] = r.Accuracy
	}
	return out
}

// Records returns the aggregates of a scope at one granularity in
// chronological order.
func (s *Store) Records(scope int, g model.Granularity) []model.StatsRecord {
	s.mu.RLock()
	buckets := s.index[scope][g]
	out := make([]model.StatsRecord, 0, len(buckets))
	for _, rec := range buckets {
		out = append(out, *rec)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start) {
			return out[i].Key < out[j].Key
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

// Totals returns the aggregate of a whole scope.
func (s *Store) Totals(scope int) model.StatsRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := model.StatsRecord{Key: "total"}
	for _, rec := range s.index[scope][model.Year] {
		if total.Start.IsZero() || rec.Start.Before(total.Start) {
			total.Start = rec.Start
		}
		total.Count += rec.Count
		total.DurationMs += rec.DurationMs
		total.AccuracySum += rec.AccuracySum
	}
	return total
}

// Lessons returns the practiced lesson ids in ascending order.
func (s *Store) Lessons() []int {
	s.mu.RLock()
	ids := make([]int, 0, len(s.index))
	for scope := range s.index {
		if scope != model.GlobalScope {
			ids = append(ids, scope)
		}
	}
	s.mu.RUnlock()
	sort.Ints(ids)
	return ids
}
