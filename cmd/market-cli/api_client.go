package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/AnassEREKYSY/MarketPulse/internal/api/dto"
	"github.com/AnassEREKYSY/MarketPulse/internal/domain"
)

const maxErrorBody = 4 << 10

// apiClient talks to the market API
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string, timeout time.Duration) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Snapshot fetches every record of text/location
func (c *apiClient) Snapshot(ctx context.Context, text, location string) (domain.Snapshot, error) {
	params := url.Values{}
	if text != "" {
		params.Set("query", text)
	}
	if location != "" {
		params.Set("location", location)
	}

	endpoint := c.baseURL + "/api/v1/jobs/snapshot"
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to build snapshot request: %w", err)
	}

	var snapshot domain.Snapshot
	if err := c.do(req, &snapshot); err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to fetch snapshot: %w", err)
	}
	return snapshot, nil
}

// Refresh asks the API to recompute the cached aggregates of text/location
func (c *apiClient) Refresh(ctx context.Context, text, location string) (dto.RefreshResponse, error) {
	body, err := json.Marshal(dto.MarketQueryRequest{Query: text, Location: location})
	if err != nil {
		return dto.RefreshResponse{}, fmt.Errorf("failed to encode refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/cache/refresh", bytes.NewReader(body))
	if err != nil {
		return dto.RefreshResponse{}, fmt.Errorf("failed to build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp dto.RefreshResponse
	if err := c.do(req, &resp); err != nil {
		return dto.RefreshResponse{}, fmt.Errorf("failed to request refresh: %w", err)
	}
	return resp, nil
}

func (c *apiClient) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr dto.ErrorResponse
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("api returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("api returned %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// loadSnapshot reads the snapshot from --snapshot-file or the API
func loadSnapshot(ctx context.Context, o globalOptions) (domain.Snapshot, error) {
	if o.snapshotFile != "" {
		data, err := os.ReadFile(o.snapshotFile)
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("failed to read snapshot file: %w", err)
		}
		var snapshot domain.Snapshot
		if err := json.Unmarshal(data, &snapshot); err != nil {
			return domain.Snapshot{}, fmt.Errorf("failed to parse snapshot file: %w", err)
		}
		return snapshot, nil
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	return newAPIClient(o.apiURL, o.timeout).Snapshot(ctx, o.query, o.location)
}
