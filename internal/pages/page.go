// Package pages holds the view-models of the mounted dashboard pages.
//
// A page owns its record store and view state and applies every change on
// its own event loop. Handlers drive pages through the exported methods,
// which block until the change has been applied, and read them back through
// View snapshots that share no memory with page state.
package pages

import (
	"context"
	"errors"

	"github.com/stwalsh4118/mppl/dashboard/internal/dataset"
	"github.com/stwalsh4118/mppl/dashboard/internal/eventloop"
	"github.com/stwalsh4118/mppl/dashboard/internal/models"
)

// Page errors
var (
	ErrSessionNotFound = errors.New("page session not found")
	ErrUnmounted       = errors.New("page is not mounted")
	ErrPromptPending   = errors.New("validation prompt must be acknowledged first")
	ErrRowOutOfRange   = errors.New("row is not displayed")
	ErrRecordNotFound  = errors.New("selected record is no longer loaded")
)

// Kind names a page type.
type Kind string

// Page kinds.
const (
	KindGrid   Kind = "grid"
	KindCharts Kind = "charts"
)

// Page is a mounted view-model tracked by the Registry.
type Page interface {
	ID() string
	Kind() Kind
	Unmount()
}

// Diagnostic kinds.
const (
	DiagnosticLoad   = "load_failure"
	DiagnosticCommit = "commit_failure"
)

// Diagnostic reports the last backend failure of a page.
type Diagnostic struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func diagnose(err error) *Diagnostic {
	if err == nil {
		return nil
	}
	kind := DiagnosticLoad
	if errors.Is(err, dataset.ErrCommitFailure) {
		kind = DiagnosticCommit
	}
	return &Diagnostic{Kind: kind, Message: err.Error()}
}

// do runs fn on loop, mapping a stopped loop to ErrUnmounted.
func do(loop *eventloop.Loop, fn func()) error {
	if err := loop.Do(fn); err != nil {
		return ErrUnmounted
	}
	return nil
}

// settle waits for loop to apply all in-flight work, or for ctx to end.
func settle(ctx context.Context, loop *eventloop.Loop) error {
	if loop.Stopped() {
		return ErrUnmounted
	}
	return loop.Settle(ctx)
}

func cloneRecords(records []models.ConnectionRecord) []models.ConnectionRecord {
	out := make([]models.ConnectionRecord, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
