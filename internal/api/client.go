// Package api talks to the remote roadmap voting service: one read of the
// feature list and one write per vote. It adds no caching, retries or
// pagination.
package api

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

	"github.com/kingrea/roadmap/internal/feature"
)

const (
	// StatusSuccess is the only vote response status meaning "accepted".
	StatusSuccess = "success"

	// DefaultMaxBodyBytes caps how much of a response we decode.
	DefaultMaxBodyBytes int64 = 8 << 20

	fetchFailedMessage = "Failed to fetch data"
)

// FetchError reports a failed feature load: transport failure, non-2xx
// status, or a body that is not the expected envelope.
type FetchError struct {
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fetchFailedMessage
	}
	if e.Err == nil {
		return fetchFailedMessage
	}
	return e.Err.Error()
}

func (e *FetchError) Unwrap() error { return e.Err }

// VoteRequest is the body of POST /vote.
type VoteRequest struct {
	FeatureID string `json:"featureId"`
	SessionID string `json:"sessionId"`
}

// VoteResponse is the service's verdict on a vote.
type VoteResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Accepted reports whether the service counted the vote.
func (r VoteResponse) Accepted() bool {
	return r.Status == StatusSuccess
}

type featuresEnvelope struct {
	Data *struct {
		Features *[]feature.Feature `json:"features"`
	} `json:"data"`
}

// Client is a thin JSON-over-HTTP client for the voting service.
type Client struct {
	baseURL      string
	http         *http.Client
	maxBodyBytes int64
}

// Option customizes client construction.
type Option func(*Client)

// WithHTTPClient swaps the underlying transport, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds each request. Zero keeps the transport default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			clone := *c.http
			clone.Timeout = d
			c.http = &clone
		}
	}
}

// NewClient builds a client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:         &http.Client{},
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchFeatures reads the full feature list with a single GET.
func (c *Client) FetchFeatures(ctx context.Context) ([]feature.Feature, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBodyBytes))
		return nil, &FetchError{StatusCode: resp.StatusCode, Err: fmt.Errorf("api: GET / returned %s", resp.Status)}
	}
	var envelope featuresEnvelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, c.maxBodyBytes)).Decode(&envelope); err != nil {
		return nil, &FetchError{Err: fmt.Errorf("api: decode features: %w", err)}
	}
	if envelope.Data == nil || envelope.Data.Features == nil {
		return nil, &FetchError{Err: errors.New("api: response has no data.features list")}
	}
	features := *envelope.Data.Features
	if features == nil {
		features = []feature.Feature{}
	}
	return features, nil
}

// PostVote sends one vote. The HTTP status is not consulted: whatever JSON
// verdict the service returns is handed back. An error means the verdict
// could not be obtained at all.
func (c *Client) PostVote(ctx context.Context, vote VoteRequest) (VoteResponse, error) {
	body, err := json.Marshal(vote)
	if err != nil {
		return VoteResponse{}, fmt.Errorf("api: encode vote: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/vote", bytes.NewReader(body))
	if err != nil {
		return VoteResponse{}, fmt.Errorf("api: build vote request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return VoteResponse{}, err
	}
	defer resp.Body.Close()
	var verdict VoteResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, c.maxBodyBytes)).Decode(&verdict); err != nil {
		if errors.Is(err, io.EOF) {
			return VoteResponse{}, fmt.Errorf("api: empty vote response (%s)", resp.Status)
		}
		return VoteResponse{}, fmt.Errorf("api: decode vote response: %w", err)
	}
	return verdict, nil
}
