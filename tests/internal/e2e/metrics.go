package e2e

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const metricsPollInterval = 50 * time.Millisecond

// WaitForMetric polls url until the response body contains sample or ctx expires.
// It returns the last body that matched.
func WaitForMetric(ctx context.Context, url, sample string) ([]byte, error) {
	client := http.Client{ //nolint:exhaustruct // only timeout configured by context
		Timeout: time.Second,
	}

	ticker := time.NewTicker(metricsPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("wait for metric %q: %w", sample, ctx.Err())
		case <-ticker.C:
			body, status, err := fetch(ctx, &client, url)
			if err != nil || status != http.StatusOK {
				continue
			}

			if bytes.Contains(body, []byte(sample)) {
				return body, nil
			}
		}
	}
}

func fetch(ctx context.Context, client *http.Client, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("get %s: %w", url, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}

	return body, resp.StatusCode, nil
}
