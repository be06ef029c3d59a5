// Package client provides HTTP implementations of the remote service
// interfaces in [github.com/candidly-dev/candidly/pkg/api]: the interview
// service, the evaluation service, and a websocket subscription to a
// session's live transcript feed.
//
// All clients perform exactly one attempt per call; retry and backoff policy
// belongs to the caller. Authentication is a bearer token supplied via
// [WithToken]; anonymous use is permitted by the live interview endpoints.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// defaultTimeout bounds a single HTTP request when the caller's context
// carries no deadline of its own.
const defaultTimeout = 30 * time.Second

// options holds shared configuration for all client types.
type options struct {
	httpClient *http.Client
	token      string
	timeout    time.Duration
}

// Option is a functional option shared by [NewInterview] and [NewEvaluation].
type Option func(*options)

// WithHTTPClient replaces the default [http.Client].
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithToken sets the bearer token attached to every request.
func WithToken(token string) Option {
	return func(o *options) {
		o.token = token
	}
}

// WithTimeout overrides the default per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

func buildOptions(opts []Option) options {
	o := options{
		httpClient: &http.Client{},
		timeout:    defaultTimeout,
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// errorBody is the JSON error envelope returned by the Candidly server.
type errorBody struct {
	Error string `json:"error"`
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int

	// Message is the server's error text, when it sent one.
	Message string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Message)
}

// postJSON issues a single POST with a JSON body and decodes a JSON response
// into out. A nil body sends no payload; a nil out discards the response.
func postJSON(ctx context.Context, o options, url string, body, out any) error {
	if _, ok := ctx.Deadline(); !ok && o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if o.token != "" {
		req.Header.Set("Authorization", "Bearer "+o.token)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb errorBody
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&eb)
		return &StatusError{StatusCode: resp.StatusCode, Message: eb.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// trimBaseURL normalises a base URL for path joining.
func trimBaseURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/")
}
