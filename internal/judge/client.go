package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/HarshSoni1801/NullByte/internal/platform/logger"

	"go.uber.org/zap"
)

var (
	// ErrRateLimited means the judge kept answering 429 past the retry
	// budget.
	ErrRateLimited = errors.New("judge service rate limit retries exhausted")
	// ErrPollTimeout means the batch never fully reached a terminal state
	// within the poll budget.
	ErrPollTimeout = errors.New("judge service polling attempts exhausted")
)

// Policy tunes one call site's tolerance: how often to poll a batch, how
// long to keep polling, and how patiently to sit out rate limiting. The
// submit/run paths use a tight cadence; reference-solution validation polls
// slower and waits out 429s longer.
type Policy struct {
	PollInterval      time.Duration
	MaxPollAttempts   int
	RateLimitCooldown time.Duration
	MaxRetries        int
}

// DefaultPolicy is the submit/run cadence.
func DefaultPolicy() Policy {
	return Policy{
		PollInterval:      time.Second,
		MaxPollAttempts:   60,
		RateLimitCooldown: 10 * time.Second,
		MaxRetries:        5,
	}
}

// ValidationPolicy is the authoring-time cadence: validation batches are
// large (every language x every case) and not latency-sensitive.
func ValidationPolicy() Policy {
	return Policy{
		PollInterval:      2 * time.Second,
		MaxPollAttempts:   90,
		RateLimitCooldown: 10 * time.Second,
		MaxRetries:        5,
	}
}

// Client talks to a Judge0-compatible batch execution service.
type Client struct {
	baseURL string
	apiKey  string
	apiHost string
	http    *http.Client
}

func NewClient(baseURL, apiKey, apiHost string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		apiHost: apiHost,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// SubmitBatch dispatches the units in order and returns one opaque token
// per unit, index-aligned with the input.
func (c *Client) SubmitBatch(ctx context.Context, units []Unit, pol Policy) ([]string, error) {
	if len(units) == 0 {
		return nil, fmt.Errorf("empty execution batch")
	}

	body, err := json.Marshal(batchSubmitRequest{Submissions: units})
	if err != nil {
		return nil, fmt.Errorf("marshal batch: %w", err)
	}

	url := c.baseURL + "/submissions/batch?base64_encoded=false"
	data, err := c.doWithRetry(ctx, http.MethodPost, url, body, pol)
	if err != nil {
		return nil, err
	}

	var created []batchSubmitResponse
	if err := json.Unmarshal(data, &created); err != nil {
		return nil, fmt.Errorf("decode batch tokens: %w", err)
	}
	if len(created) != len(units) {
		return nil, fmt.Errorf("judge returned %d tokens for %d units", len(created), len(units))
	}

	tokens := make([]string, len(created))
	for i, r := range created {
		if r.Token == "" {
			return nil, fmt.Errorf("judge returned empty token at index %d", i)
		}
		tokens[i] = r.Token
	}
	return tokens, nil
}

// FetchBatch retrieves the current results for the tokens, one per token,
// realigned to the token order.
func (c *Client) FetchBatch(ctx context.Context, tokens []string, pol Policy) ([]Result, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty token batch")
	}

	url := c.baseURL + "/submissions/batch?base64_encoded=false&fields=*&tokens=" + strings.Join(tokens, ",")
	data, err := c.doWithRetry(ctx, http.MethodGet, url, nil, pol)
	if err != nil {
		return nil, err
	}

	var fetched batchFetchResponse
	if err := json.Unmarshal(data, &fetched); err != nil {
		return nil, fmt.Errorf("decode batch results: %w", err)
	}
	return alignResults(fetched.Submissions, tokens)
}

// alignResults orders results by the requested token order. The judge's own
// contract only guarantees token correspondence, not ordering, so alignment
// is enforced here rather than assumed.
func alignResults(results []Result, tokens []string) ([]Result, error) {
	if len(results) != len(tokens) {
		return nil, fmt.Errorf("judge returned %d results for %d tokens", len(results), len(tokens))
	}

	byToken := make(map[string]Result, len(results))
	for _, r := range results {
		byToken[r.Token] = r
	}

	aligned := make([]Result, len(tokens))
	for i, tok := range tokens {
		r, ok := byToken[tok]
		if !ok {
			// Some deployments omit the token field on fetch; fall back to
			// positional order, which Judge0 preserves in practice.
			if len(byToken) < len(results) {
				return results, nil
			}
			return nil, fmt.Errorf("judge response missing result for token %s", tok)
		}
		aligned[i] = r
	}
	return aligned, nil
}

// doWithRetry performs one HTTP call, sitting out bounded 429 cooldowns.
// Any other non-2xx status or transport failure is fatal to the caller.
func (c *Client) doWithRetry(ctx context.Context, method, url string, body []byte, pol Policy) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, fmt.Errorf("build judge request: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("x-rapidapi-key", c.apiKey)
		req.Header.Set("x-rapidapi-host", c.apiHost)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("judge request failed: %w", err)
		}
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read judge response: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			if attempt >= pol.MaxRetries {
				return nil, fmt.Errorf("%w after %d attempts", ErrRateLimited, attempt+1)
			}
			logger.L().Warn("judge rate limited, backing off",
				zap.Int("attempt", attempt+1),
				zap.Duration("cooldown", pol.RateLimitCooldown))
			if err := sleep(ctx, pol.RateLimitCooldown); err != nil {
				return nil, err
			}
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("judge returned status %d: %s", resp.StatusCode, truncate(string(data), 200))
		}
		return data, nil
	}
}

// sleep waits for d or until the context is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
