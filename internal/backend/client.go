// Package backend talks to the remote electricity connection records service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/stwalsh4118/mppl/dashboard/internal/config"
	"github.com/stwalsh4118/mppl/dashboard/internal/logger"
	"github.com/stwalsh4118/mppl/dashboard/internal/models"
)

// Endpoint paths of the records service.
const (
	CollectionPath = "/api/electricity-connections/home"
	UpdatePath     = "/api/electricity-connections/update/%d"
)

// Backend errors
var (
	ErrMalformedResponse = errors.New("malformed collection response")
	ErrUnexpectedStatus  = errors.New("unexpected response status")
)

// Backend is the record collection service consumed by the dashboard.
type Backend interface {
	// FetchAll returns the full record collection.
	// Returns ErrMalformedResponse if the body is not a valid record array.
	FetchAll(ctx context.Context) ([]models.ConnectionRecord, error)

	// Update sends record to the service. Any non-2xx status is an error
	// wrapping ErrUnexpectedStatus. The response body is ignored.
	Update(ctx context.Context, record models.ConnectionRecord) error
}

// Client is the HTTP implementation of Backend.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

// NewClient creates a Client for the configured service. A zero timeout
// leaves requests unbounded.
func NewClient(cfg config.BackendConfig, log *logger.Logger) *Client {
	return &Client{
		baseURL: cfg.URL,
		http:    &http.Client{Timeout: cfg.Timeout},
		log:     log.With(logger.Fields{"component": "backend"}),
	}
}

// FetchAll requests the record collection.
func (c *Client) FetchAll(ctx context.Context) ([]models.ConnectionRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+CollectionPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build collection request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch collection: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read collection body: %w", err)
	}

	records, err := DecodeCollection(body)
	if err != nil {
		return nil, err
	}

	c.log.Debug("Fetched record collection", logger.Fields{
		"count": len(records),
	})
	return records, nil
}

// Update sends record to the update endpoint.
func (c *Client) Update(ctx context.Context, record models.ConnectionRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record %d: %w", record.ID, err)
	}

	url := c.baseURL + fmt.Sprintf(UpdatePath, record.ID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build update request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to update record %d: %w", record.ID, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	c.log.Debug("Updated record", logger.Fields{
		"id": record.ID,
	})
	return nil
}

// Ping checks that the service answers on the collection path. Any response
// below 500 counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+CollectionPath, nil)
	if err != nil {
		return fmt.Errorf("failed to build ping request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}
	return nil
}

// DecodeCollection decodes a collection body. The body must be a JSON array
// whose elements all decode as records with a dateOfApplication and a
// unique id.
func DecodeCollection(body []byte) ([]models.ConnectionRecord, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrMalformedResponse)
	}

	var records []models.ConnectionRecord
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	seen := make(map[int64]struct{}, len(records))
	for i, r := range records {
		if r.DateOfApplication.IsZero() {
			return nil, fmt.Errorf("%w: record at index %d has no dateOfApplication", ErrMalformedResponse, i)
		}
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %d", ErrMalformedResponse, r.ID)
		}
		seen[r.ID] = struct{}{}
	}

	if records == nil {
		records = []models.ConnectionRecord{}
	}
	return records, nil
}
