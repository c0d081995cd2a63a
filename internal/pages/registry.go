package pages

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/stwalsh4118/mppl/dashboard/internal/backend"
	"github.com/stwalsh4118/mppl/dashboard/internal/config"
	"github.com/stwalsh4118/mppl/dashboard/internal/logger"
	"github.com/stwalsh4118/mppl/dashboard/internal/pagination"
	"github.com/stwalsh4118/mppl/dashboard/internal/session"
)

// Registry tracks mounted pages by session id. A page idle for longer than
// the session TTL is unmounted by the next sweep.
type Registry struct {
	backend   backend.Backend
	validator *session.Validator
	pageSize  pagination.PageSize
	sweep     time.Duration
	log       *logger.Logger

	pages *cache.Cache
}

// NewRegistry creates an empty registry whose pages read from b.
func NewRegistry(b backend.Backend, grid config.GridConfig, sessions config.SessionConfig, log *logger.Logger) (*Registry, error) {
	size, err := pagination.NewPageSize(grid.DefaultPageSize)
	if err != nil {
		return nil, fmt.Errorf("invalid default page size: %w", err)
	}
	v, err := session.NewValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create draft validator: %w", err)
	}

	r := &Registry{
		backend:   b,
		validator: v,
		pageSize:  size,
		sweep:     sessions.SweepInterval,
		log:       log.With(logger.Fields{"component": "registry"}),
		// Expiry is driven by Run rather than the cache janitor.
		pages: cache.New(sessions.TTL, 0),
	}
	r.pages.OnEvicted(func(id string, v interface{}) {
		page := v.(Page)
		page.Unmount()
		r.log.Debug("Page session closed", logger.Fields{
			"session_id": id,
			"page":       string(page.Kind()),
		})
	})
	return r, nil
}

// MountGrid creates and mounts a grid page.
func (r *Registry) MountGrid() *GridPage {
	page := NewGridPage(uuid.NewString(), r.backend, r.validator, r.pageSize, r.log)
	page.Mount()
	r.pages.SetDefault(page.ID(), page)
	return page
}

// MountCharts creates and mounts a charts page.
func (r *Registry) MountCharts() *ChartsPage {
	page := NewChartsPage(uuid.NewString(), r.backend, r.log)
	page.Mount()
	r.pages.SetDefault(page.ID(), page)
	return page
}

// Grid returns the grid page with the given id and extends its lifetime.
func (r *Registry) Grid(id string) (*GridPage, error) {
	page, err := r.lookup(id, KindGrid)
	if err != nil {
		return nil, err
	}
	return page.(*GridPage), nil
}

// Charts returns the charts page with the given id and extends its lifetime.
func (r *Registry) Charts(id string) (*ChartsPage, error) {
	page, err := r.lookup(id, KindCharts)
	if err != nil {
		return nil, err
	}
	return page.(*ChartsPage), nil
}

func (r *Registry) lookup(id string, kind Kind) (Page, error) {
	v, ok := r.pages.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	page := v.(Page)
	if page.Kind() != kind {
		return nil, fmt.Errorf("%w: %s is not a %s page", ErrSessionNotFound, id, kind)
	}
	r.pages.SetDefault(id, page)
	return page, nil
}

// Unmount closes the page with the given id.
func (r *Registry) Unmount(id string, kind Kind) error {
	if _, err := r.lookup(id, kind); err != nil {
		return err
	}
	r.pages.Delete(id)
	return nil
}

// Len returns the number of tracked pages, including expired ones not yet swept.
func (r *Registry) Len() int {
	return r.pages.ItemCount()
}

// Sweep unmounts every expired page.
func (r *Registry) Sweep() {
	before := r.pages.ItemCount()
	r.pages.DeleteExpired()
	if swept := before - r.pages.ItemCount(); swept > 0 {
		r.log.Info("Expired page sessions swept", logger.Fields{"count": swept})
	}
}

// Run sweeps on the configured interval until ctx is done, then unmounts
// every page.
func (r *Registry) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Sweep()
		case <-ctx.Done():
			r.Close()
			return nil
		}
	}
}

// Close unmounts every page.
func (r *Registry) Close() {
	r.pages.DeleteExpired()
	for id := range r.pages.Items() {
		r.pages.Delete(id)
	}
	r.log.Info("All page sessions closed", nil)
}
