// internal/adapters/reviewsapi/client.go
package reviewsapi

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"hostaway_reviews/internal/adapters/observability"
	"hostaway_reviews/internal/domain"
)

// Client talks to the /reviews HTTP API.
type Client struct {
	base string
	hc   *http.Client
	rl   *rate.Limiter
}

func New(base string, rps int) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("API base URL is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 10 * time.Second},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// APIError is a non-success reply that is neither 400 nor 404.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("reviews api: status %d: %s", e.Status, e.Message)
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Count   int             `json:"count"`
	Data    json.RawMessage `json:"data"`
}

// ---- Public API ----

func (c *Client) List(ctx context.Context, q url.Values) ([]domain.CanonicalReview, error) {
	u := c.base + "/reviews"
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	var out []domain.CanonicalReview
	if err := c.do(ctx, http.MethodGet, u, "list", nil, &out); err != nil {
		return out, err
	}
	return out, nil
}

// Update sends a partial moderation patch. Patches carry absolute values, so a
// retried request has the same effect as a single one.
func (c *Client) Update(ctx context.Context, id int64, p domain.ModerationPatch) (domain.ModerationResult, error) {
	body, err := json.Marshal(struct {
		ID int64 `json:"id"`
		domain.ModerationPatch
	}{ID: id, ModerationPatch: p})
	if err != nil {
		return domain.ModerationResult{}, err
	}
	var out domain.ModerationResult
	if err := c.do(ctx, http.MethodPatch, c.base+"/reviews", "update", body, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) Stats(ctx context.Context) (domain.ReviewStats, error) {
	var out domain.ReviewStats
	if err := c.do(ctx, http.MethodGet, c.base+"/stats", "stats", nil, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) Showcase(ctx context.Context, listing string) (domain.Showcase, error) {
	var out domain.Showcase
	u := c.base + "/showcase?" + url.Values{"listing": {listing}}.Encode()
	if err := c.do(ctx, http.MethodGet, u, "showcase", nil, &out); err != nil {
		return out, err
	}
	return out, nil
}

// ---- Internals ----

// do performs one call with client-side rate limiting and retries, decoding the
// envelope's data into out. Retries on 429 and transient 5xx, honoring
// Retry-After when provided.
func (c *Client) do(ctx context.Context, method, u, endpoint string, body []byte, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		// build a fresh request each attempt
		var rdr io.Reader
		if body != nil {
			rdr = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, rdr)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "reviewctl/1.0")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("reviews-api", endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal("reviews-api", endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			var env envelope
			err := json.NewDecoder(resp.Body).Decode(&env)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("decode %s response: %w", endpoint, err)
			}
			if out == nil || len(env.Data) == 0 {
				return nil
			}
			return json.Unmarshal(env.Data, out)

		case http.StatusBadRequest:
			msg := readMessage(resp)
			return fmt.Errorf("%s: %w", msg, domain.ErrInvalidInput)

		case http.StatusNotFound:
			msg := readMessage(resp)
			return fmt.Errorf("%s: %w", msg, domain.ErrNotFound)

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			// Prefer server-provided Retry-After; otherwise exponential backoff.
			wait := retryAfter(resp)
			lastErr = &APIError{Status: resp.StatusCode, Message: readMessage(resp)}
			if wait == 0 {
				wait = backoff(i)
			}
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			return &APIError{Status: resp.StatusCode, Message: readMessage(resp)}
		}
	}

	if lastErr == nil {
		lastErr = errors.New("reviews api: no attempt succeeded")
	}
	return lastErr
}

// readMessage pulls the envelope message out of an error body and closes it.
func readMessage(resp *http.Response) string {
	defer resp.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var env envelope
	if err := json.Unmarshal(b, &env); err == nil && env.Message != "" {
		return env.Message
	}
	if s := strings.TrimSpace(string(b)); s != "" {
		return s
	}
	return http.StatusText(resp.StatusCode)
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff: 100ms, 200ms, 400ms... plus up to 50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 100 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
