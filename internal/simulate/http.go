package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/salto/pkg/logger"
)

// HTTPClient wraps http.Client with a timeout.
type HTTPClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{Timeout: timeout},
	}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// PostJSON performs a POST request and decodes the JSON response into out
// when out is non-nil. Returns the HTTP status code.
func (c *HTTPClient) PostJSON(ctx context.Context, url string, body, out any) (int, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// GetJSON performs a GET request and decodes the JSON response into out.
func (c *HTTPClient) GetJSON(ctx context.Context, url string, out any) (int, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.StatusCode, nil
}

// submitScores pushes all judge submissions through a concurrent worker pool.
func submitScores(ctx context.Context, cfg *Config, client *HTTPClient, scores []scoreRequest, stats *Stats) {
	logger.Get().Info(ctx, "submitting judge scores",
		logger.Int("scores", len(scores)),
		logger.Int("workers", cfg.Workers),
	)

	url := cfg.BaseURL + "/scores"

	var successful, failed int64

	scoreChan := make(chan scoreRequest, cfg.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sc := range scoreChan {
				select {
				case <-ctx.Done():
					return
				default:
				}

				code, err := client.PostJSON(ctx, url, sc, nil)
				if err != nil || code != http.StatusAccepted {
					atomic.AddInt64(&failed, 1)
					if cfg.Verbose {
						logger.Get().Warn(ctx, "score submission failed",
							logger.Int64("performance_id", sc.PerformanceID),
							logger.Int("status", code),
							logger.Error(err),
						)
					}
					continue
				}
				atomic.AddInt64(&successful, 1)
			}
		}()
	}

	go func() {
		defer close(scoreChan)
		for _, sc := range scores {
			select {
			case <-ctx.Done():
				return
			case scoreChan <- sc:
			}
		}
	}()

	wg.Wait()

	stats.ScoresSubmitted = len(scores)
	stats.ScoresSuccessful = int(atomic.LoadInt64(&successful))
	stats.ScoresFailed = int(atomic.LoadInt64(&failed))

	logger.Get().Info(ctx, "score submission completed",
		logger.Int("successful", stats.ScoresSuccessful),
		logger.Int("failed", stats.ScoresFailed),
	)
}
