package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/verte-zerg/koch/internal/model"
)

var resultsPrefix = []byte("results/")

// Badger stores each result as a JSON value keyed by end time and id, so a
// prefix scan returns them in chronological order.
type Badger struct {
	db *badger.DB
}

// OpenBadger opens or creates a badger database directory.
func OpenBadger(path string) (*Badger, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return &Badger{db: db}, nil
}

// Close closes the database.
func (b *Badger) Close() error {
	return b.db.Close()
}

// Append writes the batch in one transaction.
func (b *Badger) Append(_ context.Context, results []model.PracticeResult) error {
	if len(results) == 0 {
		return nil
	}
	return b.db.Update(func(txn *badger.Txn) error {
		for _, r := range results {
			data, err := json.Marshal(r)
			if err != nil {
				return err
			}
			if err := txn.Set(resultKey(r), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// Load returns every stored result. Values that cannot be decoded are
// skipped and reported together with ErrMalformed.
func (b *Badger) Load(_ context.Context) ([]model.PracticeResult, error) {
	var results []model.PracticeResult
	var bad []string
	if err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(resultsPrefix); it.ValidForPrefix(resultsPrefix); it.Next() {
			item := it.Item()
			if err := item.Value(func(value []byte) error {
				var r model.PracticeResult
				if err := json.Unmarshal(value, &r); err != nil {
					bad = append(bad, string(item.KeyCopy(nil)))
					return nil
				}
				results = append(results, r)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if len(bad) > 0 {
		return results, fmt.Errorf("%w: skipped %d result(s): %s", ErrMalformed, len(bad), strings.Join(bad, ", "))
	}
	return results, nil
}

func resultKey(r model.PracticeResult) []byte {
	return []byte(fmt.Sprintf("results/%020d/%s", r.EndedAt.UnixNano(), r.ID))
}
