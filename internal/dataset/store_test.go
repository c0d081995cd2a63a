package dataset

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/mppl/dashboard/internal/eventloop"
	"github.com/stwalsh4118/mppl/dashboard/internal/logger"
	"github.com/stwalsh4118/mppl/dashboard/internal/models"
)

// MockBackend is a mock implementation of backend.Backend for testing
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) FetchAll(ctx context.Context) ([]models.ConnectionRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ConnectionRecord), args.Error(1)
}

func (m *MockBackend) Update(ctx context.Context, record models.ConnectionRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func newRecord(id int64, load int) models.ConnectionRecord {
	return models.ConnectionRecord{
		ID:                id,
		LoadApplied:       load,
		Status:            models.StatusPending,
		Category:          models.CategoryResidential,
		DateOfApplication: models.NewDate(2024, time.January, int(id)),
	}
}

func setupStore(t *testing.T) (*Store, *MockBackend, *eventloop.Loop) {
	t.Helper()
	loop := eventloop.New(logger.Nop())
	loop.Start()
	t.Cleanup(loop.Stop)

	mb := new(MockBackend)
	return NewStore(mb, loop, logger.Nop()), mb, loop
}

// run executes fn on the loop after all in-flight work has been applied.
func run(t *testing.T, loop *eventloop.Loop, fn func()) {
	t.Helper()
	require.NoError(t, loop.Settle(context.Background()))
	require.NoError(t, loop.Do(fn))
}

func TestLoad_ReplacesCollection(t *testing.T) {
	// Arrange
	store, mb, loop := setupStore(t)
	ctx := context.Background()
	first := []models.ConnectionRecord{newRecord(1, 10), newRecord(2, 20)}
	second := []models.ConnectionRecord{newRecord(3, 30)}
	mb.On("FetchAll", ctx).Return(first, nil).Once()
	mb.On("FetchAll", ctx).Return(second, nil).Once()

	// Act
	var results []error
	run(t, loop, func() { store.Load(ctx, func(err error) { results = append(results, err) }) })
	run(t, loop, func() { store.Load(ctx, func(err error) { results = append(results, err) }) })

	// Assert
	run(t, loop, func() {
		assert.Equal(t, []error{nil, nil}, results)
		assert.Equal(t, second, store.Records())
		assert.True(t, store.Loaded())
		assert.NoError(t, store.LastError())
	})
	mb.AssertExpectations(t)
}

func TestLoad_FailureKeepsPreviousCollection(t *testing.T) {
	store, mb, loop := setupStore(t)
	ctx := context.Background()
	original := []models.ConnectionRecord{newRecord(1, 10)}
	backendErr := errors.New("malformed collection response")
	mb.On("FetchAll", ctx).Return(original, nil).Once()
	mb.On("FetchAll", ctx).Return(nil, backendErr).Once()

	var loadErr error
	run(t, loop, func() { store.Load(ctx, nil) })
	run(t, loop, func() { store.Load(ctx, func(err error) { loadErr = err }) })

	run(t, loop, func() {
		assert.ErrorIs(t, loadErr, ErrLoadFailure)
		assert.ErrorIs(t, loadErr, backendErr)
		assert.Equal(t, original, store.Records())
		assert.ErrorIs(t, store.LastError(), ErrLoadFailure)
	})
}

func TestLoad_FailureBeforeAnySuccess(t *testing.T) {
	store, mb, loop := setupStore(t)
	ctx := context.Background()
	mb.On("FetchAll", ctx).Return(nil, errors.New("connection refused"))

	run(t, loop, func() { store.Load(ctx, nil) })

	run(t, loop, func() {
		assert.False(t, store.Loaded())
		assert.Empty(t, store.Records())
		assert.Equal(t, 0, store.Len())
	})
}

func TestCommitEdit_ReplacesInPlace(t *testing.T) {
	store, mb, loop := setupStore(t)
	ctx := context.Background()
	mb.On("FetchAll", ctx).Return([]models.ConnectionRecord{newRecord(1, 10), newRecord(2, 20), newRecord(3, 30)}, nil)
	run(t, loop, func() { store.Load(ctx, nil) })

	var before []models.ConnectionRecord
	run(t, loop, func() { before = store.Records() })

	edited := newRecord(2, 1999)
	edited.Status = models.StatusApproved
	mb.On("Update", ctx, edited).Return(nil)

	var commitErr error
	run(t, loop, func() { store.CommitEdit(ctx, edited, func(err error) { commitErr = err }) })

	var records []models.ConnectionRecord
	run(t, loop, func() { records = store.Records() })

	require.NoError(t, commitErr)
	require.Len(t, records, 3)
	assert.Equal(t, int64(2), records[1].ID)
	assert.Equal(t, 1999, records[1].LoadApplied)
	assert.Equal(t, models.StatusApproved, records[1].Status)

	// Earlier snapshots are not written through
	assert.Equal(t, 20, before[1].LoadApplied)
	mb.AssertExpectations(t)
}

func TestCommitEdit_FailureLeavesCollection(t *testing.T) {
	store, mb, loop := setupStore(t)
	ctx := context.Background()
	original := []models.ConnectionRecord{newRecord(1, 10)}
	mb.On("FetchAll", ctx).Return(original, nil)
	run(t, loop, func() { store.Load(ctx, nil) })

	edited := newRecord(1, 500)
	mb.On("Update", ctx, edited).Return(errors.New("unexpected response status: 500"))

	var commitErr error
	run(t, loop, func() { store.CommitEdit(ctx, edited, func(err error) { commitErr = err }) })

	run(t, loop, func() {
		assert.ErrorIs(t, commitErr, ErrCommitFailure)
		assert.Equal(t, original, store.Records())
		assert.ErrorIs(t, store.LastError(), ErrCommitFailure)
	})
}

func TestCommitEdit_RecordGoneAfterReload(t *testing.T) {
	store, mb, loop := setupStore(t)
	ctx := context.Background()
	mb.On("FetchAll", ctx).Return([]models.ConnectionRecord{newRecord(1, 10)}, nil)
	run(t, loop, func() { store.Load(ctx, nil) })

	ghost := newRecord(9, 100)
	mb.On("Update", ctx, ghost).Return(nil)

	var commitErr error
	run(t, loop, func() { store.CommitEdit(ctx, ghost, func(err error) { commitErr = err }) })

	run(t, loop, func() {
		assert.NoError(t, commitErr)
		assert.Equal(t, -1, store.IndexOf(9))
		assert.Equal(t, 1, store.Len())
	})
}

func TestAt(t *testing.T) {
	store, mb, loop := setupStore(t)
	ctx := context.Background()
	mb.On("FetchAll", ctx).Return([]models.ConnectionRecord{newRecord(1, 10)}, nil)
	run(t, loop, func() { store.Load(ctx, nil) })

	run(t, loop, func() {
		r, ok := store.At(0)
		assert.True(t, ok)
		assert.Equal(t, int64(1), r.ID)

		_, ok = store.At(1)
		assert.False(t, ok)
		_, ok = store.At(-1)
		assert.False(t, ok)
	})
}
