// Package apiclient is the single entry point for backend calls. It attaches
// bearer tokens from the session store, recovers once from a 401 using the
// remembered token and unwraps the {success, data, message} envelope.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"field-agent/internal/model"
	"field-agent/internal/storage"
)

const DefaultBaseURL = "https://backend-mobilis-production.up.railway.app/api"

// Client talks to the backend on behalf of one device.
type Client struct {
	baseURL string
	http    *http.Client
	store   storage.Store
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default traced http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewHTTPClient returns an http.Client with traced transport. A zero timeout keeps the transport default.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   timeout,
	}
}

func New(baseURL string, store storage.Store, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		store:   store,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = NewHTTPClient(0)
	}
	return c
}

// RequestOptions describes one call. The zero value is an authenticated GET.
type RequestOptions struct {
	Method  string
	Headers map[string]string
	Body    any
	NoAuth  bool
}

// RequestOption adjusts RequestOptions for the verb helpers.
type RequestOption func(*RequestOptions)

// NoAuth sends the request without a bearer token (login).
func NoAuth() RequestOption {
	return func(o *RequestOptions) { o.NoAuth = true }
}

// WithHeader adds a caller header. Authorization cannot be overridden.
func WithHeader(key, value string) RequestOption {
	return func(o *RequestOptions) {
		if o.Headers == nil {
			o.Headers = make(map[string]string)
		}
		o.Headers[key] = value
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type requestState int

const (
	stateAttempt requestState = iota
	stateRecover
	stateRetry
)

// Request performs the call and returns the envelope's data.
func (c *Client) Request(ctx context.Context, endpoint string, opts RequestOptions) (json.RawMessage, error) {
	data, _, err := c.do(ctx, endpoint, opts)
	return data, err
}

func (c *Client) do(ctx context.Context, endpoint string, opts RequestOptions) (json.RawMessage, int, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	body, err := encodeBody(opts.Body)
	if err != nil {
		return nil, 0, err
	}

	var token string
	if !opts.NoAuth {
		token, err = c.resolveToken(ctx)
		if err != nil {
			return nil, 0, err
		}
	}

	// Attempt -> (success | 401 -> Recover -> Retry -> (success | fail)).
	// Retry never leads back to Recover, so at most two requests leave the client.
	state := stateAttempt
	for {
		switch state {
		case stateAttempt, stateRetry:
			resp, err := c.send(ctx, method, endpoint, body, opts.Headers, token)
			if err != nil {
				return nil, 0, err
			}
			if resp.StatusCode == http.StatusUnauthorized && !opts.NoAuth {
				drain(resp)
				if state == stateRetry {
					log.Printf("[info] api %s %s: saved token rejected", method, endpoint)
					return nil, resp.StatusCode, sessionExpired()
				}
				state = stateRecover
				continue
			}
			data, err := readEnvelope(resp)
			return data, resp.StatusCode, err
		case stateRecover:
			token, err = c.recoverToken(ctx)
			if err != nil {
				return nil, http.StatusUnauthorized, err
			}
			log.Printf("[info] api %s %s: retrying with saved token", method, endpoint)
			state = stateRetry
		}
	}
}

// resolveToken returns the session token, promoting savedToken when token is absent.
func (c *Client) resolveToken(ctx context.Context) (string, error) {
	token, err := c.readKey(ctx, model.KeyToken)
	if err != nil {
		return "", err
	}
	if token != "" {
		return token, nil
	}
	saved, err := c.readKey(ctx, model.KeySavedToken)
	if err != nil {
		return "", err
	}
	if saved == "" {
		log.Println("[info] api: no authentication token found")
		return "", unauthorized()
	}
	if err := c.store.Set(ctx, model.KeyToken, saved); err != nil {
		return "", storeError("promote saved token", err)
	}
	return saved, nil
}

// recoverToken promotes savedToken if it differs from the rejected token,
// otherwise it clears both and reports an expired session.
func (c *Client) recoverToken(ctx context.Context) (string, error) {
	saved, err := c.readKey(ctx, model.KeySavedToken)
	if err != nil {
		return "", err
	}
	current, err := c.readKey(ctx, model.KeyToken)
	if err != nil {
		return "", err
	}
	if saved != "" && saved != current {
		if err := c.store.Set(ctx, model.KeyToken, saved); err != nil {
			return "", storeError("promote saved token", err)
		}
		return saved, nil
	}

	if err := c.store.Remove(ctx, model.KeyToken); err != nil {
		return "", storeError("clear token", err)
	}
	if err := c.store.Remove(ctx, model.KeySavedToken); err != nil {
		return "", storeError("clear saved token", err)
	}
	return "", sessionExpired()
}

func (c *Client) readKey(ctx context.Context, key string) (string, error) {
	value, _, err := c.store.Get(ctx, key)
	if err != nil {
		return "", storeError("read "+key, err)
	}
	return value, nil
}

func (c *Client) send(ctx context.Context, method, endpoint string, body []byte, headers map[string]string, token string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, networkError(err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	} else {
		req.Header.Del("Authorization")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("api %s %s: %v", method, endpoint, err)
		return nil, networkError(err)
	}
	return resp, nil
}

func readEnvelope(resp *http.Response) (json.RawMessage, error) {
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, networkError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, serverError(resp.StatusCode, errorMessage(raw, resp.StatusCode))
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.Contains(contentType, "application/json") {
		return nil, unexpectedFormat(resp.StatusCode, nil)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, unexpectedFormat(resp.StatusCode, err)
	}
	if !env.Success {
		message := env.Message
		if message == "" {
			message = "Request failed"
		}
		return nil, serverError(resp.StatusCode, message)
	}
	return env.Data, nil
}

func errorMessage(raw []byte, status int) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		return body.Message
	}
	return fmt.Sprintf("Request failed with status %d", status)
}

func encodeBody(body any) ([]byte, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		return encoded, nil
	}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

func (c *Client) call(ctx context.Context, method, endpoint string, body, out any, opts []RequestOption) error {
	req := RequestOptions{Method: method, Body: body}
	for _, opt := range opts {
		opt(&req)
	}
	data, status, err := c.do(ctx, endpoint, req)
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return unexpectedFormat(status, err)
	}
	return nil
}

func (c *Client) Get(ctx context.Context, endpoint string, out any, opts ...RequestOption) error {
	return c.call(ctx, http.MethodGet, endpoint, nil, out, opts)
}

func (c *Client) Post(ctx context.Context, endpoint string, body, out any, opts ...RequestOption) error {
	return c.call(ctx, http.MethodPost, endpoint, body, out, opts)
}

func (c *Client) Put(ctx context.Context, endpoint string, body, out any, opts ...RequestOption) error {
	return c.call(ctx, http.MethodPut, endpoint, body, out, opts)
}

func (c *Client) Delete(ctx context.Context, endpoint string, out any, opts ...RequestOption) error {
	return c.call(ctx, http.MethodDelete, endpoint, nil, out, opts)
}
