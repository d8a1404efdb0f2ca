// Package systemtrade provides a Go SDK for the systemtrade results API.
package systemtrade

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client talks to a systemtrade results server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new results API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// ListRuns retrieves the most recent runs, newest first. limit <= 0 uses the
// server default.
func (c *Client) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	u := c.baseURL + "/api/runs"
	if limit > 0 {
		u += "?limit=" + strconv.Itoa(limit)
	}
	var resp RunsResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	return resp.Runs, nil
}

// GetRun retrieves a single run by ID, equity curve included.
func (c *Client) GetRun(ctx context.Context, id string) (*RunDetail, error) {
	var detail RunDetail
	if err := c.getJSON(ctx, c.baseURL+"/api/runs/"+url.PathEscape(id), &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// GetSignals retrieves a run's signals in emission order.
func (c *Client) GetSignals(ctx context.Context, id string) ([]Signal, error) {
	var resp SignalsResponse
	err := c.getJSON(ctx, c.baseURL+"/api/runs/"+url.PathEscape(id)+"/signals", &resp)
	if err != nil {
		return nil, err
	}
	return resp.Signals, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s: status %d: %s", endpoint, resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
