// Package dataset holds the canonical record collection of a mounted page.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/stwalsh4118/mppl/dashboard/internal/backend"
	"github.com/stwalsh4118/mppl/dashboard/internal/eventloop"
	"github.com/stwalsh4118/mppl/dashboard/internal/logger"
	"github.com/stwalsh4118/mppl/dashboard/internal/models"
)

// Dataset errors
var (
	ErrLoadFailure   = errors.New("failed to load connection records")
	ErrCommitFailure = errors.New("failed to save connection record")
)

// Store is the single source of truth for one page's records.
//
// Store is not safe for concurrent use: every method, and every done
// callback, runs on the owning page's event loop. The collection is only
// changed by Load and CommitEdit completions, and is replaced rather than
// written through, so a slice returned by Records stays valid.
type Store struct {
	backend backend.Backend
	loop    *eventloop.Loop
	log     *logger.Logger

	records []models.ConnectionRecord
	loaded  bool
	lastErr error
}

// NewStore creates an empty store that fetches from b and applies results on loop.
func NewStore(b backend.Backend, loop *eventloop.Loop, log *logger.Logger) *Store {
	return &Store{
		backend: b,
		loop:    loop,
		log:     log.With(logger.Fields{"component": "dataset"}),
		records: []models.ConnectionRecord{},
	}
}

// Load fetches the whole collection without blocking. On success the
// collection is replaced; on failure the previous one is kept. done, if
// non-nil, receives nil or an error wrapping ErrLoadFailure.
func (s *Store) Load(ctx context.Context, done func(error)) {
	s.log.Debug("Loading record collection", nil)

	s.loop.Go(func() func() {
		records, err := s.backend.FetchAll(ctx)

		return func() {
			if err != nil {
				err = fmt.Errorf("%w: %w", ErrLoadFailure, err)
				s.lastErr = err
				s.log.Error("Record collection load failed", err, logger.Fields{
					"kept_records": len(s.records),
				})
				notify(done, err)
				return
			}

			s.records = records
			s.loaded = true
			s.lastErr = nil
			s.log.Info("Record collection loaded", logger.Fields{
				"count": len(records),
			})
			notify(done, nil)
		}
	})
}

// CommitEdit sends record to the backend without blocking. On success the
// stored record with the same id is replaced at its position. On failure the
// collection is unchanged and done receives an error wrapping ErrCommitFailure.
func (s *Store) CommitEdit(ctx context.Context, record models.ConnectionRecord, done func(error)) {
	rec := record.Clone()
	s.log.Debug("Committing record", logger.Fields{"id": rec.ID})

	s.loop.Go(func() func() {
		err := s.backend.Update(ctx, rec)

		return func() {
			if err != nil {
				err = fmt.Errorf("%w: %w", ErrCommitFailure, err)
				s.lastErr = err
				s.log.Error("Record commit failed", err, logger.Fields{"id": rec.ID})
				notify(done, err)
				return
			}

			s.replace(rec)
			s.lastErr = nil
			s.log.Info("Record committed", logger.Fields{"id": rec.ID})
			notify(done, nil)
		}
	})
}

func (s *Store) replace(rec models.ConnectionRecord) {
	i := s.IndexOf(rec.ID)
	if i < 0 {
		// A reload landed between issue and completion and dropped the record.
		s.log.Warn("Committed record no longer in collection", logger.Fields{"id": rec.ID})
		return
	}

	updated := slices.Clone(s.records)
	updated[i] = rec
	s.records = updated
}

// Records returns the current collection. Callers must not modify it.
func (s *Store) Records() []models.ConnectionRecord {
	return s.records
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	return len(s.records)
}

// IndexOf returns the position of the record with the given id, or -1.
func (s *Store) IndexOf(id int64) int {
	return slices.IndexFunc(s.records, func(r models.ConnectionRecord) bool {
		return r.ID == id
	})
}

// At returns the record at index i.
func (s *Store) At(i int) (models.ConnectionRecord, bool) {
	if i < 0 || i >= len(s.records) {
		return models.ConnectionRecord{}, false
	}
	return s.records[i], true
}

// Loaded reports whether any load has succeeded.
func (s *Store) Loaded() bool {
	return s.loaded
}

// LastError returns the most recent load or commit failure, cleared by the
// next success of either.
func (s *Store) LastError() error {
	return s.lastErr
}

func notify(done func(error), err error) {
	if done != nil {
		done(err)
	}
}
