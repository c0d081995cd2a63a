package pages

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/stwalsh4118/mppl/dashboard/internal/backend"
	"github.com/stwalsh4118/mppl/dashboard/internal/dataset"
	"github.com/stwalsh4118/mppl/dashboard/internal/eventloop"
	"github.com/stwalsh4118/mppl/dashboard/internal/filter"
	"github.com/stwalsh4118/mppl/dashboard/internal/logger"
	"github.com/stwalsh4118/mppl/dashboard/internal/models"
	"github.com/stwalsh4118/mppl/dashboard/internal/pagination"
	"github.com/stwalsh4118/mppl/dashboard/internal/session"
)

// GridPage is the record table with its search, date range, page size and
// select/view/edit flow.
type GridPage struct {
	id   string
	log  *logger.Logger
	loop *eventloop.Loop

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once

	// Loop-owned state.
	store    *dataset.Store
	session  *session.EditSession
	criteria filter.Criteria
	pageSize pagination.PageSize
	prompt   *Prompt
}

// Prompt is a blocking message the user must acknowledge.
type Prompt struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// DraftInput carries the editable draft fields. Nil fields are unchanged.
type DraftInput struct {
	LoadApplied *string `json:"loadApplied"`
	Status      *string `json:"status"`
	Category    *string `json:"category"`
}

// SelectedRecord is the record shown in Detail mode.
type SelectedRecord struct {
	Index      int                `json:"index"`
	ID         int64              `json:"id"`
	Attributes []models.Attribute `json:"attributes"`
}

// DraftView is the draft shown in Editing mode.
type DraftView struct {
	Index      int                     `json:"index"`
	Record     models.ConnectionRecord `json:"record"`
	Saving     bool                    `json:"saving"`
	Statuses   []models.Status         `json:"statuses"`
	Categories []models.Category       `json:"categories"`
}

// GridView is a snapshot of a grid page.
type GridView struct {
	SessionID  string                    `json:"sessionId"`
	Mode       session.Mode              `json:"mode"`
	Criteria   filter.Criteria           `json:"criteria"`
	PageSize   pagination.PageSize       `json:"pageSize"`
	PageSizes  []pagination.PageSize     `json:"pageSizes"`
	Columns    []models.Column           `json:"columns"`
	Rows       []models.ConnectionRecord `json:"rows"`
	Matched    int                       `json:"matched"`
	Total      int                       `json:"total"`
	Loaded     bool                      `json:"loaded"`
	Selected   *SelectedRecord           `json:"selected,omitempty"`
	Draft      *DraftView                `json:"draft,omitempty"`
	Prompt     *Prompt                   `json:"prompt,omitempty"`
	Diagnostic *Diagnostic               `json:"diagnostic,omitempty"`
	Pending    int                       `json:"pending"`
}

// NewGridPage creates an unmounted grid page reading from b.
func NewGridPage(id string, b backend.Backend, v *session.Validator, size pagination.PageSize, log *logger.Logger) *GridPage {
	log = log.WithSession(string(KindGrid), id)
	loop := eventloop.New(log)
	ctx, cancel := context.WithCancel(context.Background())

	return &GridPage{
		id:       id,
		log:      log,
		loop:     loop,
		ctx:      ctx,
		cancel:   cancel,
		store:    dataset.NewStore(b, loop, log),
		session:  session.New(v, log),
		pageSize: size,
	}
}

// ID returns the page session id.
func (p *GridPage) ID() string { return p.id }

// Kind returns KindGrid.
func (p *GridPage) Kind() Kind { return KindGrid }

// Mount starts the page and issues the initial load. It runs once and must
// precede every other call except Unmount.
func (p *GridPage) Mount() {
	p.once.Do(func() {
		p.loop.Start()
		_ = p.loop.Do(func() {
			p.log.Info("Grid page mounted", logger.Fields{"page_size": int(p.pageSize)})
			p.store.Load(p.ctx, nil)
		})
	})
}

// Unmount stops the page. Requests still in flight are abandoned and their
// results dropped.
func (p *GridPage) Unmount() {
	p.once.Do(p.loop.Start)
	p.loop.Stop()
	p.cancel()
	p.log.Info("Grid page unmounted", nil)
}

// Settle waits until every issued request has been applied.
func (p *GridPage) Settle(ctx context.Context) error {
	return settle(ctx, p.loop)
}

// SetSearch replaces the search term. The current page size is kept.
func (p *GridPage) SetSearch(term string) error {
	return p.act(func() error {
		p.criteria.Search = term
		return nil
	})
}

// SetDateRange replaces the application date range.
func (p *GridPage) SetDateRange(r filter.DateRange) error {
	return p.act(func() error {
		p.criteria.Range = r
		return nil
	})
}

// SetCriteria replaces the search term and date range together.
func (p *GridPage) SetCriteria(c filter.Criteria) error {
	return p.act(func() error {
		p.criteria = c
		return nil
	})
}

// SetPageSize changes the page size and refetches the collection when it
// differs from the current one.
func (p *GridPage) SetPageSize(size pagination.PageSize) error {
	if !size.Valid() {
		return fmt.Errorf("%w: %d", pagination.ErrInvalidPageSize, size)
	}
	return p.act(func() error {
		if size == p.pageSize {
			return nil
		}
		p.log.Debug("Page size changed", logger.Fields{
			"from": int(p.pageSize),
			"to":   int(size),
		})
		p.pageSize = size
		p.store.Load(p.ctx, nil)
		return nil
	})
}

// Reload refetches the collection.
func (p *GridPage) Reload() error {
	return p.act(func() error {
		p.store.Load(p.ctx, nil)
		return nil
	})
}

// Select opens the detail of the displayed row at position row. The selection
// is stored as the record's position in the full collection.
func (p *GridPage) Select(row int) error {
	return p.act(func() error {
		rows := p.displayed()
		if row < 0 || row >= len(rows) {
			return fmt.Errorf("%w: %d of %d", ErrRowOutOfRange, row, len(rows))
		}
		record := rows[row]
		return p.session.Select(p.store.IndexOf(record.ID), record)
	})
}

// Back closes the detail view.
func (p *GridPage) Back() error {
	return p.act(p.session.Back)
}

// Edit opens the selected record for editing.
func (p *GridPage) Edit() error {
	return p.act(func() error {
		d, ok := p.session.State().(session.Detail)
		if !ok {
			return fmt.Errorf("%w: cannot edit while %s", session.ErrInvalidTransition, p.session.Mode())
		}
		record, _, ok := p.lookup(d.Index, d.ID)
		if !ok {
			return fmt.Errorf("%w: id %d", ErrRecordNotFound, d.ID)
		}
		return p.session.Edit(record)
	})
}

// UpdateDraft applies in to the draft.
func (p *GridPage) UpdateDraft(in DraftInput) error {
	return p.act(func() error {
		if in.LoadApplied != nil {
			if err := p.session.SetLoadApplied(*in.LoadApplied); err != nil {
				return err
			}
		}
		if in.Status != nil {
			if err := p.session.SetStatus(models.Status(*in.Status)); err != nil {
				return err
			}
		}
		if in.Category != nil {
			if err := p.session.SetCategory(models.Category(*in.Category)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Save validates the draft and sends it to the backend. A draft that fails
// validation raises the prompt and returns the *session.ValidationFailure.
func (p *GridPage) Save() error {
	return p.act(func() error {
		err := p.session.Save(p.ctx, p.store)

		var failure *session.ValidationFailure
		if errors.As(err, &failure) {
			p.prompt = &Prompt{Message: failure.Error(), Fields: failure.Fields}
		}
		return err
	})
}

// Cancel discards the draft.
func (p *GridPage) Cancel() error {
	return p.act(p.session.Cancel)
}

// Acknowledge dismisses the validation prompt.
func (p *GridPage) Acknowledge() error {
	return p.run(func() error {
		if p.prompt == nil {
			return fmt.Errorf("%w: no prompt to acknowledge", session.ErrInvalidTransition)
		}
		p.prompt = nil
		return nil
	})
}

// View returns a snapshot of the page.
func (p *GridPage) View() (GridView, error) {
	var view GridView
	err := do(p.loop, func() {
		view = p.view()
	})
	return view, err
}

// act runs fn on the loop unless a prompt is waiting.
func (p *GridPage) act(fn func() error) error {
	return p.run(func() error {
		if p.prompt != nil {
			return ErrPromptPending
		}
		return fn()
	})
}

func (p *GridPage) run(fn func() error) error {
	var err error
	if loopErr := do(p.loop, func() { err = fn() }); loopErr != nil {
		return loopErr
	}
	return err
}

func (p *GridPage) matched() []models.ConnectionRecord {
	return filter.Apply(p.store.Records(), p.criteria)
}

func (p *GridPage) displayed() []models.ConnectionRecord {
	return pagination.Window(p.matched(), p.pageSize)
}

// lookup finds the record a selection refers to. index is tried first and
// the id is searched for if a reload moved it.
func (p *GridPage) lookup(index int, id int64) (models.ConnectionRecord, int, bool) {
	if r, ok := p.store.At(index); ok && r.ID == id {
		return r, index, true
	}
	i := p.store.IndexOf(id)
	if i < 0 {
		return models.ConnectionRecord{}, -1, false
	}
	r, _ := p.store.At(i)
	return r, i, true
}

func (p *GridPage) view() GridView {
	matched := p.matched()

	view := GridView{
		SessionID: p.id,
		Mode:      p.session.Mode(),
		Criteria:  p.criteria,
		PageSize:  p.pageSize,
		PageSizes: pagination.PageSizes(),
		Columns:   models.ListingColumns,
		Rows:      cloneRecords(pagination.Window(matched, p.pageSize)),
		Matched:   len(matched),
		Total:     p.store.Len(),
		Loaded:    p.store.Loaded(),
		Pending:   p.loop.Pending(),
	}

	switch s := p.session.State().(type) {
	case session.Detail:
		if r, i, ok := p.lookup(s.Index, s.ID); ok {
			view.Selected = &SelectedRecord{Index: i, ID: r.ID, Attributes: r.Attributes()}
		}
	case session.Editing:
		view.Draft = &DraftView{
			Index:      s.Index,
			Record:     s.Draft,
			Saving:     p.session.Saving(),
			Statuses:   models.Statuses(),
			Categories: models.Categories(),
		}
	}

	if p.prompt != nil {
		view.Prompt = &Prompt{Message: p.prompt.Message, Fields: maps.Clone(p.prompt.Fields)}
	}

	if err := p.session.CommitError(); err != nil {
		view.Diagnostic = diagnose(err)
	} else {
		view.Diagnostic = diagnose(p.store.LastError())
	}
	return view
}
