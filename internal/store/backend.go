package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/verte-zerg/koch/internal/model"
)

// Backend persists practice results. Append must be all-or-nothing for the
// given batch. Load may return the readable part of a damaged history
// together with an error wrapping ErrMalformed.
type Backend interface {
	Load(ctx context.Context) ([]model.PracticeResult, error)
	Append(ctx context.Context, results []model.PracticeResult) error
	Close() error
}

// Kind names a backend implementation.
type Kind string

const (
	KindJSON   Kind = "json"
	KindSQLite Kind = "sqlite"
	KindBadger Kind = "badger"
)

// ParseKind parses json, sqlite or badger. Empty means json.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindJSON, "":
		return KindJSON, nil
	case KindSQLite:
		return KindSQLite, nil
	case KindBadger:
		return KindBadger, nil
	default:
		return KindJSON, fmt.Errorf("unknown storage backend %q (want json, sqlite or badger)", s)
	}
}

// OpenBackend opens the backend of the given kind at path.
func OpenBackend(kind Kind, path string) (Backend, error) {
	switch kind {
	case KindSQLite:
		db, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return db, nil
	case KindBadger:
		db, err := OpenBadger(path)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return NewJSONFile(path), nil
	}
}
