// Package backend is the client of the external retail REST API.
//
// Every call is bound to an explicit Session carrying the operator's bearer
// token. Failures are classified as transport errors (no response), server
// errors (non-2xx with a message payload) or validation errors raised before
// any request is sent. Nothing is retried.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/erazemk/shopadmin/internal/apperr"
	"github.com/erazemk/shopadmin/internal/metrics"
	"github.com/erazemk/shopadmin/internal/model"
)

const (
	defaultTimeout          = 15 * time.Second
	errorBodyLimit    int64 = 4096
	responseBodyLimit int64 = 32 << 20
)

var errBaseURLRequired = errors.New("backend base url is required")

// Session is the operator identity attached to backend calls.
type Session struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// Client talks to the retail backend. A Client without a session can only
// log in; use WithSession to obtain an authenticated copy.
type Client struct {
	httpClient *http.Client
	baseURL    string
	session    Session
	logger     *slog.Logger
	metrics    *metrics.BackendMetrics
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithLogger sets the logger used for failed calls.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records call durations and failures.
func WithMetrics(m *metrics.BackendMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds a client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("parsing backend url: %w", err)
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// WithSession returns a copy of c that authenticates as s.
func (c *Client) WithSession(s Session) *Client {
	cp := *c
	cp.session = s
	return &cp
}

// Session returns the session the client is bound to.
func (c *Client) Session() Session {
	return c.session
}

// request describes one backend call.
type request struct {
	op          string
	method      string
	path        string
	body        io.Reader
	contentType string
	header      http.Header
	anonymous   bool
}

// do executes req and decodes a JSON response into out when out is non-nil.
func (c *Client) do(ctx context.Context, req request, out any) (err error) {
	if c == nil {
		return apperr.New(apperr.CodeInternal, "backend client not configured")
	}
	if !req.anonymous && c.session.Token == "" {
		return apperr.New(apperr.CodeUnauthorized, "no backend session")
	}

	start := time.Now()
	defer func() {
		kind := ""
		if err != nil {
			kind = string(apperr.CodeOf(err))
			c.logger.Warn("backend call failed", "op", req.op, "method", req.method, "path", req.path, "error", err)
		}
		c.metrics.Observe(req.op, kind, time.Since(start))
	}()

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, req.body)
	if err != nil {
		return apperr.Wrap(apperr.CodeInternal, err, "building backend request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	for k, vs := range req.header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if !req.anonymous {
		httpReq.Header.Set("Authorization", "Bearer "+c.session.Token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return apperr.Wrap(apperr.CodeTransport, err, req.op+" request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(req.op, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, errorBodyLimit))
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, responseBodyLimit)).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperr.Wrap(apperr.CodeServer, err, "decoding "+req.op+" response")
	}
	return nil
}

// doJSON sends in as a JSON body.
func (c *Client) doJSON(ctx context.Context, op, method, path string, in, out any) error {
	req := request{op: op, method: method, path: path}
	if in != nil {
		payload, err := marshal(op, in)
		if err != nil {
			return err
		}
		req.body = bytes.NewReader(payload)
		req.contentType = "application/json"
	}
	return c.do(ctx, req, out)
}

func marshal(op string, v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, err, "encoding "+op+" request")
	}
	return payload, nil
}

// statusError turns a non-2xx response into a classified error carrying the
// backend's message.
func statusError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	msg := backendMessage(raw)
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	code := apperr.CodeServer
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		code = apperr.CodeUnauthorized
	case http.StatusForbidden:
		code = apperr.CodeForbidden
	case http.StatusNotFound:
		code = apperr.CodeNotFound
	case http.StatusConflict:
		code = apperr.CodeConflict
	}
	return apperr.New(code, msg).WithDetails(map[string]any{
		"operation": op,
		"status":    resp.StatusCode,
	})
}

// backendMessage extracts {"message": ...} or {"error": ...} from an error
// body, falling back to the trimmed text.
func backendMessage(raw []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	text := strings.TrimSpace(string(raw))
	if strings.HasPrefix(text, "{") || strings.HasPrefix(text, "<") {
		return ""
	}
	return text
}

func idPath(format string, id int64) string {
	return fmt.Sprintf(format, id)
}
