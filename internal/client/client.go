// Package client is the typed transport to the dashboard REST API
package client

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

	"github.com/bricks-admin/dashboard/internal/models"
	"github.com/google/uuid"
)

var (
	// ErrUnauthorized is returned for a 401 on an authenticated call, after the
	// unauthorized handler has run
	ErrUnauthorized = errors.New("unauthorized")
	// ErrMalformedResponse is returned when a 2xx body does not have the expected shape
	ErrMalformedResponse = errors.New("malformed response")
)

// APIError is a non-2xx answer other than a session-ending 401
type APIError struct {
	StatusCode int
	Msg        string
}

func (e *APIError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Msg
}

// TokenSource supplies the bearer credential; an empty string sends none
type TokenSource interface {
	Token() string
}

// Client calls the dashboard API. It never retries.
type Client struct {
	baseURL        string
	http           *http.Client
	tokens         TokenSource
	onUnauthorized func()
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds every request; zero means no timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithUnauthorizedHandler registers fn to run whenever an authenticated call
// comes back 401, whichever operation triggered it
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		tokens:  tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type idempotencyKey struct{}

// WithIdempotencyKey pins the Idempotency-Key sent by mutations made with ctx.
// Without one each mutation gets a fresh key.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKey{}, key)
}

// Expand substitutes :name segments of template with params
func Expand(template string, params map[string]string) string {
	segments := strings.Split(template, "/")
	for i, seg := range segments {
		if strings.HasPrefix(seg, ":") {
			if v, ok := params[seg[1:]]; ok {
				segments[i] = url.PathEscape(v)
			}
		}
	}
	return strings.Join(segments, "/")
}

type rawEnvelope struct {
	Msg   string          `json:"msg"`
	Data  json.RawMessage `json:"data"`
	Total *int            `json:"total"`
}

// send performs one request and returns the 2xx body
func (c *Client) send(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("error encoding request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	if method != http.MethodGet {
		key, _ := ctx.Value(idempotencyKey{}).(string)
		if key == "" {
			key = uuid.NewString()
		}
		req.Header.Set("Idempotency-Key", key)
	}

	authenticated := false
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
			authenticated = true
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized && authenticated {
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return nil, fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr models.ErrorResponse
		_ = json.Unmarshal(raw, &apiErr)
		msg := apiErr.Msg
		if msg == "" {
			msg = apiErr.Message
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Msg: msg}
	}
	return raw, nil
}

// call sends a request whose answer is a {msg, data, total} envelope carrying T
func call[T any](ctx context.Context, c *Client, method, path string, body any) (models.Envelope[T], error) {
	var out models.Envelope[T]
	raw, err := c.send(ctx, method, path, body)
	if err != nil {
		return out, err
	}

	var env rawEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return out, fmt.Errorf("%s %s: %w: %v", method, path, ErrMalformedResponse, err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return out, fmt.Errorf("%s %s: %w: missing data", method, path, ErrMalformedResponse)
	}
	if err := json.Unmarshal(env.Data, &out.Data); err != nil {
		return out, fmt.Errorf("%s %s: %w: %v", method, path, ErrMalformedResponse, err)
	}
	out.Msg, out.Total = env.Msg, env.Total
	return out, nil
}

// exec sends a request whose answer carries only a message
func (c *Client) exec(ctx context.Context, method, path string, body any) (string, error) {
	raw, err := c.send(ctx, method, path, body)
	if err != nil {
		return "", err
	}
	var msg models.MessageResponse
	if err := json.Unmarshal(raw, &msg); err != nil {
		return "", fmt.Errorf("%s %s: %w: %v", method, path, ErrMalformedResponse, err)
	}
	return msg.Msg, nil
}

type validatable interface {
	Validate() error
}

func checkOne[T validatable](v T, err error) (T, error) {
	if err != nil {
		return v, err
	}
	if verr := v.Validate(); verr != nil {
		return v, fmt.Errorf("%w: %v", ErrMalformedResponse, verr)
	}
	return v, nil
}

func checkAll[T validatable](items []T, err error) ([]T, error) {
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if verr := item.Validate(); verr != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, verr)
		}
	}
	return items, nil
}
