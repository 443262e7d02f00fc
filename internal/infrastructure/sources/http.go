// Package sources holds the concrete adapters behind ports.SourceAdapter.
// Each adapter is a thin I/O wrapper: one fetch, typed failures, no retry.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"aidigest/internal/domain"
)

const (
	userAgent       = "aidigest/1.0"
	maxResponseSize = 4 << 20
)

func defaultClient(client *http.Client) *http.Client {
	if client != nil {
		return client
	}
	return &http.Client{Timeout: 20 * time.Second}
}

// getJSON fetches url and decodes the body into v, mapping HTTP failures
// onto the shared error taxonomy.
func getJSON(ctx context.Context, client *http.Client, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("request %s: %w: %v", url, domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read body: %w: %v", domain.ErrUnavailable, err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w: %v", url, domain.ErrMalformed, err)
	}
	return nil
}

func classifyStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w", resp.Request.URL, domain.ErrRateLimited)
	case resp.StatusCode >= http.StatusBadRequest:
		return fmt.Errorf("%s returned %s: %w", resp.Request.URL, resp.Status, domain.ErrUnavailable)
	}
	return nil
}
