package pages

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
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

func record(id int64, idNumber string, applied models.Date, status models.Status) models.ConnectionRecord {
	return models.ConnectionRecord{
		ID:                id,
		ApplicantName:     fmt.Sprintf("Applicant %d", id),
		GovtIDType:        "Aadhar",
		IDNumber:          models.FlexString(idNumber),
		Category:          models.CategoryResidential,
		LoadApplied:       100,
		DateOfApplication: applied,
		Status:            status,
	}
}

// manyRecords returns n pending records applied on consecutive January days.
func manyRecords(n int) []models.ConnectionRecord {
	out := make([]models.ConnectionRecord, n)
	for i := range out {
		id := int64(i + 1)
		out[i] = record(id, fmt.Sprintf("ID%03d", id), models.NewDate(2024, time.January, i+1), models.StatusPending)
	}
	return out
}

func settled(t *testing.T, settle func(context.Context) error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, settle(ctx))
}

func testLogger() *logger.Logger {
	return logger.Nop()
}
