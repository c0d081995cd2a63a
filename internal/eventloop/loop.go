// Package eventloop runs a page's state changes on one goroutine.
//
// Every read and write of page state happens inside a closure executed by the
// loop, so page state needs no locking. Blocking work such as network calls
// runs elsewhere through Go and hands its result back as a completion closure.
// Completions are applied in the order they arrive, not the order the work
// was issued.
package eventloop

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/stwalsh4118/mppl/dashboard/internal/logger"
)

const queueSize = 64

// ErrStopped is returned when posting to a loop that has been stopped.
var ErrStopped = errors.New("event loop stopped")

// Loop executes closures one at a time on a dedicated goroutine.
type Loop struct {
	log *logger.Logger

	mu     sync.Mutex
	closed bool
	tasks  chan func()

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	// idle is closed whenever pending is zero. Guarded by workMu, which is
	// never held while posting.
	workMu  sync.Mutex
	pending int
	idle    chan struct{}
}

// New creates a stopped loop. Call Start before posting work.
func New(log *logger.Logger) *Loop {
	if log == nil {
		log = logger.Nop()
	}
	idle := make(chan struct{})
	close(idle)
	return &Loop{
		log:   log,
		tasks: make(chan func(), queueSize),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
		idle:  idle,
	}
}

// Start begins processing tasks on a new goroutine.
func (l *Loop) Start() {
	go l.run()
}

func (l *Loop) run() {
	defer close(l.done)

	for {
		select {
		case task := <-l.tasks:
			l.execute(task)
		case <-l.stop:
			// Nothing can be queued once closed is set, so draining empties the queue.
			for {
				select {
				case task := <-l.tasks:
					l.execute(task)
				default:
					return
				}
			}
		}
	}
}

func (l *Loop) execute(task func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("Event loop task panicked", fmt.Errorf("panic: %v", r), nil)
		}
	}()
	task()
}

func (l *Loop) post(task func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return false
	}
	l.tasks <- task
	return true
}

// Do runs fn on the loop and waits for it to finish. A panic inside fn is
// re-raised on the caller's goroutine. Do must not be called from the loop.
func (l *Loop) Do(fn func()) error {
	var panicked interface{}
	finished := make(chan struct{})

	ok := l.post(func() {
		defer close(finished)
		defer func() { panicked = recover() }()
		fn()
	})
	if !ok {
		return ErrStopped
	}

	<-finished
	if panicked != nil {
		panic(panicked)
	}
	return nil
}

// Go runs work on its own goroutine and applies the completion it returns on
// the loop. A nil completion is skipped. Nothing is deduplicated or cancelled.
func (l *Loop) Go(work func() func()) {
	l.begin()

	go func() {
		apply := work()
		ok := l.post(func() {
			defer l.end()
			if apply != nil {
				apply()
			}
		})
		if !ok {
			l.end()
		}
	}()
}

func (l *Loop) begin() {
	l.workMu.Lock()
	defer l.workMu.Unlock()

	if l.pending == 0 {
		l.idle = make(chan struct{})
	}
	l.pending++
}

func (l *Loop) end() {
	l.workMu.Lock()
	defer l.workMu.Unlock()

	l.pending--
	if l.pending == 0 {
		close(l.idle)
	}
}

// Idle returns a channel that is closed once no work started with Go is
// waiting to be applied.
func (l *Loop) Idle() <-chan struct{} {
	l.workMu.Lock()
	defer l.workMu.Unlock()
	return l.idle
}

// Settle blocks until all work started with Go has been applied or ctx ends.
func (l *Loop) Settle(ctx context.Context) error {
	select {
	case <-l.Idle():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns the number of Go calls whose completion has not been applied.
func (l *Loop) Pending() int {
	l.workMu.Lock()
	defer l.workMu.Unlock()
	return l.pending
}

// Stop stops the loop after applying everything already queued. Work still
// running finishes on its own goroutine and its completion is dropped.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		l.mu.Lock()
		l.closed = true
		l.mu.Unlock()
		close(l.stop)
	})
	<-l.done
}

// Stopped reports whether Stop has been called.
func (l *Loop) Stopped() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}
