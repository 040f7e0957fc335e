// Package strava is a minimal client for the Strava v3 activity endpoints.
package strava

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"example.com/stravahook/internal/domain"
	"example.com/stravahook/internal/observability"
)

var (
	// ErrUnauthorized is returned for 401 and 403 responses.
	ErrUnauthorized = errors.New("strava: unauthorized")
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("strava: activity not found")
	// ErrRateLimited is returned for 429 responses.
	ErrRateLimited = errors.New("strava: rate limited")
)

// APIError represents a non-successful response from the API.
type APIError struct {
	Method string
	Status int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("strava: %s failed with status %d %s", e.Method, e.Status, http.StatusText(e.Status))
}

// Unwrap maps well-known statuses onto the package sentinels.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	return nil
}

// Client performs authenticated activity reads and updates.
type Client struct {
	client  *http.Client
	baseURL string
	token   string
}

// NewClient constructs a Client for baseURL (for example https://www.strava.com/api/v3).
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

// GetActivity fetches a single activity by id.
func (c *Client) GetActivity(ctx context.Context, activityID int64) (*domain.Activity, error) {
	req, err := c.newRequest(ctx, http.MethodGet, activityID, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var activity domain.Activity
	if err := json.NewDecoder(resp.Body).Decode(&activity); err != nil {
		return nil, fmt.Errorf("strava: decode activity %d: %w", activityID, err)
	}
	return &activity, nil
}

// UpdateActivity applies a partial update. The response body is not read.
func (c *Client) UpdateActivity(ctx context.Context, activityID int64, update domain.ActivityUpdate) error {
	form := url.Values{}
	form.Set("name", update.Name)
	form.Set("private", formBool(update.Private))

	req, err := c.newRequest(ctx, http.MethodPut, activityID, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

func (c *Client) newRequest(ctx context.Context, method string, activityID int64, body io.Reader) (*http.Request, error) {
	endpoint := c.baseURL + "/activities/" + strconv.FormatInt(activityID, 10)
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("strava: %s %s: %w", req.Method, req.URL.Path, err)
	}
	observability.RecordUpstreamResponse(req.Method, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		resp.Body.Close()
		return nil, &APIError{Method: req.Method, Status: resp.StatusCode}
	}
	return resp, nil
}

// Strava reads private=1 as "only you".
func formBool(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
