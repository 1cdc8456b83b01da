// Package rbnapi is the sole network boundary to the RBN data endpoint: one
// bounded GET per (callsign, day-set) with the three fetch outcomes kept
// distinguishable — success (404 included, as an empty success), rate-limited
// with a retry hint, and hard upstream/format errors.
package rbnapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/s53zo/RBN-spots-analysis-tool/internal/ratelimit"
	"github.com/s53zo/RBN-spots-analysis-tool/spot"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultTimeout bounds a single fetch.
const DefaultTimeout = 15 * time.Second

// DefaultRetryAfter is assumed when a 429 carries no usable Retry-After
// header.
const DefaultRetryAfter = 15 * time.Second

// Payload is the decoded response for one (call, day-set) fetch. Optional
// upstream totals stay pointers so "absent" is distinguishable from zero;
// Counts() folds them into usable values.
type Payload struct {
	Total         int             `json:"total"`
	Scanned       int             `json:"scanned"` // legacy alias of total
	TotalOfUs     *int            `json:"totalOfUs"`
	TotalByUs     *int            `json:"totalByUs"`
	CapPerSide    *int            `json:"capPerSide"`
	TruncatedOfUs bool            `json:"truncatedOfUs"`
	TruncatedByUs bool            `json:"truncatedByUs"`
	OfUsSpots     []spot.WireSpot `json:"ofUsSpots"`
	ByUsSpots     []spot.WireSpot `json:"byUsSpots"`
	Errors        []string        `json:"errors"`

	NotFound bool `json:"-"` // set on HTTP 404: valid empty result
}

// Counts returns the scanned total and the per-side totals, defaulting the
// per-side values to the spot array lengths when the feed omitted them.
func (p *Payload) Counts() (total, ofUs, byUs int) {
	total = p.Total
	if total == 0 {
		total = p.Scanned
	}
	ofUs = len(p.OfUsSpots)
	if p.TotalOfUs != nil {
		ofUs = *p.TotalOfUs
	}
	byUs = len(p.ByUsSpots)
	if p.TotalByUs != nil {
		byUs = *p.TotalByUs
	}
	return total, ofUs, byUs
}

// RateLimitError is the typed 429 outcome. It is auto-retryable; RetryAfter
// carries the server hint or DefaultRetryAfter.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited (HTTP 429), retry in %s", e.RetryAfter)
}

// UpstreamError is any other bad HTTP status, with the best message the
// response body offered.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

// ErrInvalidResponse marks a 2xx body that did not decode as JSON.
var ErrInvalidResponse = errors.New("invalid RBN response (non-JSON)")

// Client fetches spot data from the RBN endpoint.
type Client struct {
	endpoint string
	timeout  time.Duration
	http     *http.Client
	warnRate ratelimit.Counter
}

// NewClient builds a client for the given endpoint URL. A non-positive
// timeout selects DefaultTimeout.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoint: strings.TrimSpace(endpoint),
		timeout:  timeout,
		http:     &http.Client{},
		warnRate: ratelimit.NewCounter(30 * time.Second),
	}
}

// FetchSpots performs one GET for the callsign across the given day tokens.
// The error is a *RateLimitError for 429, ErrInvalidResponse for a non-JSON
// 2xx body, a *UpstreamError for other bad statuses, and a wrapped deadline
// error on timeout. HTTP 404 is not an error: it returns an empty payload
// with NotFound set.
func (c *Client) FetchSpots(ctx context.Context, call string, days []string) (*Payload, error) {
	params := url.Values{}
	if call != "" {
		params.Set("call", call)
	}
	if len(days) > 0 {
		params.Set("days", strings.Join(days, ","))
	}
	fetchURL := c.endpoint + "?" + params.Encode()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("rbnapi: build request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-store")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("rbnapi: fetch for %s timed out after %s: %w", call, c.timeout, err)
		}
		return nil, fmt.Errorf("rbnapi: fetch for %s: %w", call, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &RateLimitError{RetryAfter: retryAfterHint(resp)}
	case resp.StatusCode == http.StatusNotFound:
		return &Payload{NotFound: true}, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		upErr := &UpstreamError{Status: resp.StatusCode, Message: errorMessage(resp)}
		if total, ok := c.warnRate.Inc(); ok {
			log.Printf("rbnapi: upstream failure for %s: %v (%d so far)", call, upErr, total)
		}
		return nil, upErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("rbnapi: read response for %s: %w", call, err)
	}
	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, ErrInvalidResponse
	}
	return &payload, nil
}

// retryAfterHint parses an integer-seconds Retry-After header, defaulting
// when absent or non-numeric.
func retryAfterHint(resp *http.Response) time.Duration {
	raw := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if seconds, err := strconv.Atoi(raw); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	return DefaultRetryAfter
}

// errorMessage extracts a JSON error/message field from a failed response
// body, falling back to "HTTP <code>".
func errorMessage(resp *http.Response) string {
	fallback := fmt.Sprintf("HTTP %d", resp.StatusCode)
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(body) == 0 {
		return fallback
	}
	var shaped struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &shaped); err != nil {
		return fallback
	}
	if shaped.Error != "" {
		return shaped.Error
	}
	if shaped.Message != "" {
		return shaped.Message
	}
	return fallback
}
