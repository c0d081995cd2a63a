package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/mppl/dashboard/internal/backend"
	"github.com/stwalsh4118/mppl/dashboard/internal/config"
	apierrors "github.com/stwalsh4118/mppl/dashboard/internal/errors"
	"github.com/stwalsh4118/mppl/dashboard/internal/logger"
	"github.com/stwalsh4118/mppl/dashboard/internal/middleware"
	"github.com/stwalsh4118/mppl/dashboard/internal/pages"
)

const collectionJSON = `[
	{"id": 1, "applicantName": "Asha", "idNumber": "PAN100", "pincode": 560001, "category": "Residential",
	 "loadApplied": 150, "dateOfApplication": "2024-01-15", "dateOfApproval": null, "status": "Pending"},
	{"id": 2, "applicantName": "Ravi", "idNumber": 778812, "pincode": "560002", "category": "Commercial",
	 "loadApplied": 900, "dateOfApplication": "2024-02-03T10:00:00Z", "dateOfApproval": "2024-02-20", "status": "Approved"},
	{"id": 3, "applicantName": "Meera", "idNumber": "PAN300", "pincode": "560003", "category": "Residential",
	 "loadApplied": 40, "dateOfApplication": "2024-02-28", "status": "Rejected"}
]`

// fakeRecordsService stands in for the remote records backend.
type fakeRecordsService struct {
	mu      sync.Mutex
	fetches int
	updates [][]byte
}

func (f *fakeRecordsService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.URL.Path == backend.CollectionPath:
		f.fetches++
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, collectionJSON)
	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/api/electricity-connections/update/"):
		body, _ := io.ReadAll(r.Body)
		f.updates = append(f.updates, body)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeRecordsService) snapshot() (int, [][]byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches, append([][]byte(nil), f.updates...)
}

// setupPagesRouter wires the page handlers to a registry reading from a fake
// records service.
func setupPagesRouter(t *testing.T) (*gin.Engine, *fakeRecordsService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := &fakeRecordsService{}
	srv := httptest.NewServer(svc)
	t.Cleanup(srv.Close)

	log := logger.Nop()
	client := backend.NewClient(config.BackendConfig{URL: srv.URL}, log)
	registry, err := pages.NewRegistry(client,
		config.GridConfig{DefaultPageSize: 10},
		config.SessionConfig{TTL: time.Minute, SweepInterval: time.Minute},
		log)
	require.NoError(t, err)
	t.Cleanup(registry.Close)

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	v1 := router.Group("/api/v1")
	NewGridHandler(registry).RegisterRoutes(v1)
	NewChartsHandler(registry).RegisterRoutes(v1)

	return router, svc
}

func do(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[apierrors.ErrorResponse](t, w).Error.Code
}
