package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with a shared timeout and admin credential.
type HTTPClient struct {
	client     *http.Client
	adminToken string
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(timeout time.Duration, adminToken string) *HTTPClient {
	return &HTTPClient{
		client:     &http.Client{Timeout: timeout},
		adminToken: adminToken,
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

// Post performs a POST request with a JSON body. An admin flag attaches the
// configured credential header.
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}, admin bool) (*http.Response, error) {
	var buf io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		buf = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set("X-Admin-Token", c.adminToken)
	}
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitAttempts submits attempts concurrently using a worker pool.
func submitAttempts(ctx context.Context, config *Config, attempts []Attempt, stats *Stats) error {
	log.Printf("submitting %d attempts with %d workers", len(attempts), config.Workers)

	client := newHTTPClient(config.Timeout, config.AdminToken)
	url := config.BaseURL + "/attempts"

	var (
		successful int64
		duplicate  int64
		failed     int64
		submitted  int64
	)

	attemptChan := make(chan Attempt, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for a := range attemptChan {
				select {
				case <-ctx.Done():
					return
				default:
				}

				atomic.AddInt64(&submitted, 1)
				switch submitSingleAttempt(ctx, client, url, a) {
				case "success":
					atomic.AddInt64(&successful, 1)
				case "duplicate":
					atomic.AddInt64(&duplicate, 1)
				default:
					atomic.AddInt64(&failed, 1)
				}
			}
		}()
	}

	go func() {
		defer close(attemptChan)
		for _, a := range attempts {
			select {
			case <-ctx.Done():
				return
			case attemptChan <- a:
			}
		}
	}()

	wg.Wait()

	stats.AttemptsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.AttemptsSuccessful = int(atomic.LoadInt64(&successful))
	stats.AttemptsDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.AttemptsFailed = int(atomic.LoadInt64(&failed))

	log.Printf("submission done: success=%d duplicate=%d failed=%d",
		stats.AttemptsSuccessful, stats.AttemptsDuplicate, stats.AttemptsFailed)
	return nil
}

// submitSingleAttempt submits one attempt and classifies the outcome.
func submitSingleAttempt(ctx context.Context, client *HTTPClient, url string, a Attempt) string {
	resp, err := client.Post(ctx, url, a, false)
	if err != nil {
		return "failed"
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return "failed"
	}

	switch resp.StatusCode {
	case StatusAccepted:
		return "success"
	case StatusOK:
		var ack AckResponse
		if err := json.Unmarshal(body, &ack); err == nil && ack.Duplicate {
			return "duplicate"
		}
		return "duplicate"
	default:
		return "failed"
	}
}

// triggerReindex requests a full reindex sweep through the admin surface.
func triggerReindex(ctx context.Context, config *Config) error {
	client := newHTTPClient(config.Timeout, config.AdminToken)

	resp, err := client.Post(ctx, config.BaseURL+"/reindex", nil, true)
	if err != nil {
		return fmt.Errorf("reindex request failed: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return fmt.Errorf("failed to read reindex response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("reindex returned HTTP %d: %s", resp.StatusCode, string(body))
	}

	log.Printf("reindex sweep: %s", string(body))
	return nil
}

// getLeaderboard retrieves the top N entries for one challenge.
func getLeaderboard(ctx context.Context, client *HTTPClient, config *Config, challengeID string) ([]Entry, error) {
	url := fmt.Sprintf("%s/leaderboard/%s?limit=%d", config.BaseURL, challengeID, config.TopN)

	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var lb leaderboardResponse
	if err := json.Unmarshal(body, &lb); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return lb.Entries, nil
}
