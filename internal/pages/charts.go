package pages

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/stwalsh4118/mppl/dashboard/internal/aggregate"
	"github.com/stwalsh4118/mppl/dashboard/internal/backend"
	"github.com/stwalsh4118/mppl/dashboard/internal/dataset"
	"github.com/stwalsh4118/mppl/dashboard/internal/eventloop"
	"github.com/stwalsh4118/mppl/dashboard/internal/logger"
	"github.com/stwalsh4118/mppl/dashboard/internal/models"
	"github.com/stwalsh4118/mppl/dashboard/internal/session"
)

// ChartsPage is the monthly applications chart with its status selector.
type ChartsPage struct {
	id   string
	log  *logger.Logger
	loop *eventloop.Loop

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once

	// Loop-owned state.
	store  *dataset.Store
	status string
}

// ChartView is a snapshot of a charts page. Buckets is nil until the first
// load succeeds.
type ChartView struct {
	SessionID  string              `json:"sessionId"`
	Filter     string              `json:"filter"`
	Options    []string            `json:"options"`
	Buckets    *models.ChartBucket `json:"buckets"`
	Total      int                 `json:"total"`
	Loaded     bool                `json:"loaded"`
	Diagnostic *Diagnostic         `json:"diagnostic,omitempty"`
	Pending    int                 `json:"pending"`
}

// NewChartsPage creates an unmounted charts page reading from b.
func NewChartsPage(id string, b backend.Backend, log *logger.Logger) *ChartsPage {
	log = log.WithSession(string(KindCharts), id)
	loop := eventloop.New(log)
	ctx, cancel := context.WithCancel(context.Background())

	return &ChartsPage{
		id:     id,
		log:    log,
		loop:   loop,
		ctx:    ctx,
		cancel: cancel,
		store:  dataset.NewStore(b, loop, log),
		status: aggregate.StatusAll,
	}
}

// ID returns the page session id.
func (p *ChartsPage) ID() string { return p.id }

// Kind returns KindCharts.
func (p *ChartsPage) Kind() Kind { return KindCharts }

// Mount starts the page and issues the initial load. It runs once and must
// precede every other call except Unmount.
func (p *ChartsPage) Mount() {
	p.once.Do(func() {
		p.loop.Start()
		_ = p.loop.Do(func() {
			p.log.Info("Charts page mounted", nil)
			p.store.Load(p.ctx, nil)
		})
	})
}

// Unmount stops the page and drops the results of requests in flight.
func (p *ChartsPage) Unmount() {
	p.once.Do(p.loop.Start)
	p.loop.Stop()
	p.cancel()
	p.log.Info("Charts page unmounted", nil)
}

// Settle waits until every issued request has been applied.
func (p *ChartsPage) Settle(ctx context.Context) error {
	return settle(ctx, p.loop)
}

// SetStatusFilter selects the status counted by the chart, or
// aggregate.StatusAll. A changed value refetches the collection.
func (p *ChartsPage) SetStatusFilter(status string) error {
	status = strings.TrimSpace(status)
	if status == "" {
		return fmt.Errorf("%w: empty status filter", session.ErrInvalidValue)
	}

	return do(p.loop, func() {
		if status == p.status {
			return
		}
		p.log.Debug("Status filter changed", logger.Fields{
			"from": p.status,
			"to":   status,
		})
		p.status = status
		p.store.Load(p.ctx, nil)
	})
}

// View returns a snapshot of the page.
func (p *ChartsPage) View() (ChartView, error) {
	var view ChartView
	err := do(p.loop, func() {
		records := p.store.Records()
		view = ChartView{
			SessionID:  p.id,
			Filter:     p.status,
			Options:    aggregate.StatusOptions(records),
			Loaded:     p.store.Loaded(),
			Diagnostic: diagnose(p.store.LastError()),
			Pending:    p.loop.Pending(),
		}
		if p.store.Loaded() {
			buckets := aggregate.Monthly(records, p.status)
			view.Buckets = &buckets
			view.Total = buckets.Total()
		}
	})
	return view, err
}
