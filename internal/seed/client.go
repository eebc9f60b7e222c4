package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"cloud.google.com/go/civil"
	"golang.org/x/sync/errgroup"

	"github.com/bulldogs/rpetracker/internal/domain/model"
)

const defaultTimeout = 30 * time.Second

// Client talks to a running tracker.
type Client struct {
	baseURL string
	http    *http.Client
	workers int
}

// NewClient returns a client for the server at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		workers: 4,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitResponse is the server's acknowledgement of a submission.
type SubmitResponse struct {
	Message     string     `json:"message"`
	ID          string     `json:"id"`
	Day         civil.Date `json:"day"`
	RowInserted bool       `json:"rowInserted"`
	Overwrote   bool       `json:"overwrote"`
}

// Submit posts one submission.
func (c *Client) Submit(ctx context.Context, sub model.Submission) (SubmitResponse, error) {
	var out SubmitResponse
	err := c.do(ctx, http.MethodPost, "/submit", sub, &out)
	return out, err
}

// Reminders triggers reminder dispatch.
func (c *Client) Reminders(ctx context.Context) (model.DispatchResult, error) {
	var out model.DispatchResult
	err := c.do(ctx, http.MethodPost, "/reminders", nil, &out)
	return out, err
}

// CoachReports triggers coach report dispatch. Empty coaches uses the
// server's configured list.
func (c *Client) CoachReports(ctx context.Context, coaches []string) (model.DispatchResult, error) {
	var out model.DispatchResult
	var body any
	if len(coaches) > 0 {
		body = map[string][]string{"coaches": coaches}
	}
	err := c.do(ctx, http.MethodPost, "/reports/coach", body, &out)
	return out, err
}

// LoadStats counts the outcome of SubmitAll.
type LoadStats struct {
	Sent     int64
	Accepted int64
	Busy     int64
	Failed   int64
	Elapsed  time.Duration
}

// SubmitAll posts subs concurrently. A busy server is counted, not fatal;
// any other failure stops the run.
func (c *Client) SubmitAll(ctx context.Context, subs []model.Submission) (LoadStats, error) {
	var stats LoadStats
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for _, sub := range subs {
		g.Go(func() error {
			atomic.AddInt64(&stats.Sent, 1)
			_, err := c.Submit(ctx, sub)
			switch {
			case err == nil:
				atomic.AddInt64(&stats.Accepted, 1)
			case errors.Is(err, ErrBackpressure):
				atomic.AddInt64(&stats.Busy, 1)
			default:
				atomic.AddInt64(&stats.Failed, 1)
				return err
			}
			return nil
		})
	}
	err := g.Wait()
	stats.Elapsed = time.Since(start)
	return stats, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%s %s: %w", method, path, ErrBackpressure)
	case resp.StatusCode != http.StatusOK:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return fmt.Errorf("%s %s: %w %d: %s", method, path, ErrUnexpectedStatus, resp.StatusCode, bytes.TrimSpace(msg))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
