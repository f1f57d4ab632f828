package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/verte-zerg/koch/internal/fileutil"
	"github.com/verte-zerg/koch/internal/model"
)

// fileVersion is the current statistics document version.
const fileVersion = 1

type document struct {
	Version int                    `json:"version"`
	Results []model.PracticeResult `json:"results"`
}

// JSONFile keeps all results in one versioned JSON document that is rewritten
// atomically on every append.
type JSONFile struct {
	path string

	mu        sync.Mutex
	persisted []model.PracticeResult
	now       func() time.Time
}

// NewJSONFile returns a JSON backend for path. Nothing is read until Load.
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path, now: time.Now}
}

// Path returns the document location.
func (f *JSONFile) Path() string {
	return f.path
}

// Load reads the document. A missing file is an empty history. A malformed
// file is renamed to <path>.corrupt-<unix> and reported with ErrMalformed.
func (f *JSONFile) Load(_ context.Context) ([]model.PracticeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.persisted = nil
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read statistics: %w", err)
	}

	var doc document
	decodeErr := json.Unmarshal(data, &doc)
	if decodeErr == nil && doc.Version != fileVersion {
		decodeErr = fmt.Errorf("unsupported version %d", doc.Version)
	}
	if decodeErr != nil {
		aside := fmt.Sprintf("%s.corrupt-%d", f.path, f.now().Unix())
		if err := os.Rename(f.path, aside); err != nil {
			return nil, fmt.Errorf("failed to move malformed statistics aside: %w", err)
		}
		return nil, fmt.Errorf("%w: %v (moved to %s)", ErrMalformed, decodeErr, aside)
	}

	f.persisted = doc.Results
	out := make([]model.PracticeResult, len(doc.Results))
	copy(out, doc.Results)
	return out, nil
}

// Append rewrites the document with the new results. On failure the file on
// disk is unchanged.
func (f *JSONFile) Append(_ context.Context, results []model.PracticeResult) error {
	if len(results) == 0 {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	next := make([]model.PracticeResult, 0, len(f.persisted)+len(results))
	next = append(next, f.persisted...)
	next = append(next, results...)
	data, err := json.MarshalIndent(document{Version: fileVersion, Results: next}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode statistics: %w", err)
	}
	if err := fileutil.WriteAtomic(f.path, 0o644, func(w io.Writer) error {
		_, err := w.Write(append(data, '\n'))
		return err
	}); err != nil {
		return fmt.Errorf("failed to write statistics: %w", err)
	}
	f.persisted = next
	return nil
}

// Close is a no-op; the document is complete after every Append.
func (f *JSONFile) Close() error {
	return nil
}
