// Package session implements the select/view/edit state machine of the grid page.
package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/stwalsh4118/mppl/dashboard/internal/logger"
	"github.com/stwalsh4118/mppl/dashboard/internal/models"
)

// Session errors
var (
	ErrInvalidTransition = errors.New("invalid view transition")
	ErrInvalidValue      = errors.New("invalid field value")
)

// Committer persists a draft. done runs on the session's event loop with
// nil on success.
type Committer interface {
	CommitEdit(ctx context.Context, record models.ConnectionRecord, done func(error))
}

// EditSession tracks which record is selected and the draft being edited.
//
// EditSession is not safe for concurrent use; it belongs to one page and is
// only touched from that page's event loop.
type EditSession struct {
	state     State
	validator *Validator
	log       *logger.Logger

	// generation identifies the current Editing entry so stale save
	// completions cannot close a newer draft.
	generation uint64
	saving     int
	commitErr  error
}

// New creates a session in Listing.
func New(v *Validator, log *logger.Logger) *EditSession {
	return &EditSession{
		state:     Listing{},
		validator: v,
		log:       log.With(logger.Fields{"component": "edit_session"}),
	}
}

// State returns the current state. An Editing draft is returned as a copy.
func (s *EditSession) State() State {
	if e, ok := s.state.(Editing); ok {
		e.Draft = e.Draft.Clone()
		return e
	}
	return s.state
}

// Mode returns the variant of the current state.
func (s *EditSession) Mode() Mode {
	return s.state.Mode()
}

// Select moves from Listing to Detail of the record at index in the
// canonical collection.
func (s *EditSession) Select(index int, record models.ConnectionRecord) error {
	if _, ok := s.state.(Listing); !ok {
		return s.invalid("select")
	}
	s.state = Detail{Index: index, ID: record.ID}
	return nil
}

// Back returns from Detail to Listing.
func (s *EditSession) Back() error {
	if _, ok := s.state.(Detail); !ok {
		return s.invalid("back")
	}
	s.state = Listing{}
	return nil
}

// Edit moves from Detail to Editing with a fresh copy of record as the draft.
// record must be the selected one.
func (s *EditSession) Edit(record models.ConnectionRecord) error {
	d, ok := s.state.(Detail)
	if !ok {
		return s.invalid("edit")
	}
	if record.ID != d.ID {
		return fmt.Errorf("%w: record %d is not the selected record %d", ErrInvalidTransition, record.ID, d.ID)
	}

	s.generation++
	s.commitErr = nil
	s.state = Editing{Index: d.Index, ID: d.ID, Draft: record.Clone()}
	return nil
}

// Cancel discards the draft and returns to Listing.
func (s *EditSession) Cancel() error {
	if _, ok := s.state.(Editing); !ok {
		return s.invalid("cancel")
	}
	s.leaveEditing()
	return nil
}

// Reset returns to Listing from any state, discarding a draft.
func (s *EditSession) Reset() {
	if _, ok := s.state.(Editing); ok {
		s.leaveEditing()
		return
	}
	s.state = Listing{}
}

// Draft returns a copy of the draft while Editing.
func (s *EditSession) Draft() (models.ConnectionRecord, bool) {
	e, ok := s.state.(Editing)
	if !ok {
		return models.ConnectionRecord{}, false
	}
	return e.Draft.Clone(), true
}

// SetLoadApplied sets the draft load from raw form input. Input is read like
// a leading integer; anything without one becomes 0. Range is checked on Save.
func (s *EditSession) SetLoadApplied(raw string) error {
	return s.mutate("loadApplied", func(d *models.ConnectionRecord) error {
		d.LoadApplied = CoerceLoad(raw)
		return nil
	})
}

// SetStatus sets the draft status.
func (s *EditSession) SetStatus(status models.Status) error {
	return s.mutate("status", func(d *models.ConnectionRecord) error {
		if !status.Valid() {
			return fmt.Errorf("%w: unknown status %q", ErrInvalidValue, status)
		}
		d.Status = status
		return nil
	})
}

// SetCategory sets the draft category.
func (s *EditSession) SetCategory(category models.Category) error {
	return s.mutate("category", func(d *models.ConnectionRecord) error {
		if !category.Valid() {
			return fmt.Errorf("%w: unknown category %q", ErrInvalidValue, category)
		}
		d.Category = category
		return nil
	})
}

func (s *EditSession) mutate(field string, fn func(*models.ConnectionRecord) error) error {
	e, ok := s.state.(Editing)
	if !ok {
		return s.invalid("set " + field)
	}
	if err := fn(&e.Draft); err != nil {
		return err
	}
	s.state = e
	return nil
}

// Save validates the draft and hands it to c. A draft that fails validation
// returns a *ValidationFailure, stays in Editing and is never sent. Otherwise
// the session returns to Listing when c reports success; on failure it stays
// in Editing with the draft kept and CommitError set.
func (s *EditSession) Save(ctx context.Context, c Committer) error {
	e, ok := s.state.(Editing)
	if !ok {
		return s.invalid("save")
	}

	if err := s.validator.Check(e.Draft); err != nil {
		s.log.Warn("Draft rejected", logger.Fields{
			"id":    e.ID,
			"error": err.Error(),
		})
		return err
	}

	gen := s.generation
	s.saving++
	s.log.Info("Saving draft", logger.Fields{
		"id":           e.ID,
		"load_applied": e.Draft.LoadApplied,
		"status":       e.Draft.Status,
		"category":     e.Draft.Category,
	})

	c.CommitEdit(ctx, e.Draft.Clone(), func(err error) {
		s.saving--
		current, editing := s.state.(Editing)
		sameDraft := editing && s.generation == gen && current.ID == e.ID

		if err != nil {
			if sameDraft {
				s.commitErr = err
			}
			return
		}
		if sameDraft {
			s.leaveEditing()
		}
	})
	return nil
}

// Saving reports whether a save is in flight.
func (s *EditSession) Saving() bool {
	return s.saving > 0
}

// CommitError returns the failure of the last save of the current draft.
func (s *EditSession) CommitError() error {
	return s.commitErr
}

func (s *EditSession) leaveEditing() {
	s.state = Listing{}
	s.commitErr = nil
}

func (s *EditSession) invalid(action string) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, action, s.state.Mode())
}

// CoerceLoad reads the leading integer of raw, ignoring leading whitespace
// and stopping at the first non-digit. Input without one yields 0.
func CoerceLoad(raw string) int {
	s := strings.TrimLeftFunc(raw, unicode.IsSpace)

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0
	}

	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		// Out of range; keep the sign so validation still rejects it.
		if s[0] == '-' {
			return math.MinInt32
		}
		return math.MaxInt32
	}
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	if n < math.MinInt32 {
		return math.MinInt32
	}
	return int(n)
}
