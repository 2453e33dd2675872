// Package restclient is the small JSON/form HTTP client shared by the payment
// provider adapters.
package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxResponseBytes = 1 << 20

// TokenFunc returns the bearer token for a request. It is called per request
// so OAuth adapters can refresh transparently.
type TokenFunc func(ctx context.Context) (string, error)

// Client issues authenticated REST calls against one provider host.
type Client struct {
	name       string
	baseURL    string
	httpClient *http.Client
	token      TokenFunc
	headers    http.Header
	tracer     trace.Tracer
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the default 15s-timeout client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBearer authenticates every request with a static token.
func WithBearer(token string) Option {
	return func(c *Client) {
		c.token = func(context.Context) (string, error) { return token, nil }
	}
}

// WithTokenFunc authenticates every request with a dynamically obtained token.
func WithTokenFunc(fn TokenFunc) Option {
	return func(c *Client) { c.token = fn }
}

// WithHeader adds a header sent on every request (e.g. an API version pin).
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers.Set(key, value) }
}

// New creates a client for baseURL. name labels spans and errors.
func New(name, baseURL string, opts ...Option) *Client {
	c := &Client{
		name:       name,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		headers:    http.Header{},
		tracer:     otel.Tracer("paycore.payments.restclient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the host the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// Request describes a single provider call. At most one of JSON and Form is set.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	JSON   any
	Form   url.Values
	// IdempotencyKey is sent in IdempotencyHeader (default "Idempotency-Key").
	IdempotencyKey    string
	IdempotencyHeader string
	Headers           map[string]string
}

// StatusError is returned for any non-2xx provider response.
type StatusError struct {
	Provider   string
	Method     string
	Path       string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s api %s %s status %d: %s", e.Provider, e.Method, e.Path, e.StatusCode, strings.TrimSpace(string(e.Body)))
}

// Details returns the status and body of a StatusError for error reporting.
func Details(err error) map[string]any {
	var se *StatusError
	if !errors.As(err, &se) {
		return nil
	}
	details := map[string]any{"status": se.StatusCode}
	var parsed any
	if json.Unmarshal(se.Body, &parsed) == nil {
		details["body"] = parsed
	} else if len(se.Body) > 0 {
		details["body"] = string(se.Body)
	}
	return details
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// Do performs req and decodes a JSON response into out when out is non-nil.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	ctx, span := c.tracer.Start(ctx, c.name+" "+req.Method+" "+req.Path)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", req.Method),
		attribute.String("http.route", req.Path),
	)

	httpReq, err := c.build(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%s http: %w", c.name, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%s read body: %w", c.name, err)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		span.SetStatus(codes.Error, resp.Status)
		return &StatusError{
			Provider:   c.name,
			Method:     req.Method,
			Path:       req.Path,
			StatusCode: resp.StatusCode,
			Body:       body,
		}
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s decode: %w", c.name, err)
	}
	return nil
}

func (c *Client) build(ctx context.Context, req Request) (*http.Request, error) {
	endpoint := c.baseURL + req.Path
	if len(req.Query) > 0 {
		endpoint += "?" + req.Query.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case req.JSON != nil:
		payload, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, fmt.Errorf("%s payload: %w", c.name, err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	case req.Form != nil:
		body = strings.NewReader(req.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", c.name, err)
	}
	for key, values := range c.headers {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")

	if c.token != nil {
		token, err := c.token(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s auth: %w", c.name, err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	if req.IdempotencyKey != "" {
		header := req.IdempotencyHeader
		if header == "" {
			header = "Idempotency-Key"
		}
		httpReq.Header.Set(header, req.IdempotencyKey)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	return httpReq, nil
}
