// Package youdoapi implements the service.Service interface over the YouDo
// HTTP API.
package youdoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"youdo/internal/config"
	"youdo/internal/logging"
	"youdo/internal/service"
)

const (
	// RequestIDHeader carries a per-call correlation id.
	RequestIDHeader = "X-Request-ID"

	// snippetLen bounds how much of an undecodable body is kept.
	snippetLen = 50
)

// Client implements service.Service using the YouDo REST API.
type Client struct {
	baseURL string
	base    *http.Client
	creds   service.Credentials
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.base = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l.With("component", "youdoapi") }
}

// New creates a client for cfg.APIURL. creds is consulted on every call;
// its token, when non-empty, is sent as a bearer token.
func New(cfg *config.Config, creds service.Credentials, opts ...Option) *Client {
	c := &Client{
		baseURL: cfg.APIURL,
		base:    &http.Client{Timeout: cfg.Timeout},
		creds:   creds,
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
func NewWithHTTPClient(baseURL string, httpClient *http.Client, creds service.Credentials) *Client {
	return New(&config.Config{APIURL: baseURL}, creds, WithHTTPClient(httpClient))
}

// Login implements service.Authenticator.
func (c *Client) Login(ctx context.Context, req service.LoginRequest) (service.AuthData, error) {
	var out service.AuthData
	if err := c.do(ctx, http.MethodPost, "/auth/login", req, &out); err != nil {
		return service.AuthData{}, err
	}
	return out, nil
}

// Register implements service.Authenticator.
func (c *Client) Register(ctx context.Context, req service.RegisterRequest) (service.AuthData, error) {
	var out service.AuthData
	if err := c.do(ctx, http.MethodPost, "/auth/register", req, &out); err != nil {
		return service.AuthData{}, err
	}
	return out, nil
}

// ListTasks implements service.TaskService.
func (c *Client) ListTasks(ctx context.Context) (service.TaskList, error) {
	var out service.TaskList
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &out); err != nil {
		return service.TaskList{}, err
	}
	return out, nil
}

// CreateTask implements service.TaskService.
func (c *Client) CreateTask(ctx context.Context, req service.CreateTaskRequest) (service.Task, error) {
	var out service.Task
	if err := c.do(ctx, http.MethodPost, "/tasks", req, &out); err != nil {
		return service.Task{}, err
	}
	return out, nil
}

// UpdateTask implements service.TaskService.
func (c *Client) UpdateTask(ctx context.Context, id int, req service.UpdateTaskRequest) (service.Task, error) {
	var out service.Task
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/tasks/%d", id), req, &out); err != nil {
		return service.Task{}, err
	}
	return out, nil
}

// DeleteTask implements service.TaskService.
func (c *Client) DeleteTask(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/tasks/%d", id), nil, nil)
}

// do sends one request and decodes the envelope's data into out.
// Errors are always one of the service remote error types.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	url := c.baseURL + path

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)

	logger := c.logger.With("method", method, "url", url, "request_id", requestID)
	logger.DebugContext(ctx, "api request")
	start := time.Now()

	resp, err := c.httpClient().Do(req)
	if err != nil {
		logger.DebugContext(ctx, "api unreachable", "error", err)
		return &service.NetworkError{Err: err}
	}
	defer googleapi.CloseBody(resp)

	logger.DebugContext(ctx, "api response", "status", resp.StatusCode, "duration", time.Since(start))

	if err := googleapi.CheckResponse(resp); err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return failure(apiErr.Code, []byte(apiErr.Body))
		}
		return &service.DecodeError{Status: resp.StatusCode, Err: err}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &service.NetworkError{Err: err}
	}
	return decode(resp.StatusCode, data, out)
}

// httpClient returns the base client, wrapped to attach the bearer token
// when the credentials currently hold one.
func (c *Client) httpClient() *http.Client {
	token := ""
	if c.creds != nil {
		token = c.creds.BearerToken()
	}
	if token == "" {
		return c.base
	}
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   c.base.Transport,
		},
		CheckRedirect: c.base.CheckRedirect,
		Jar:           c.base.Jar,
		Timeout:       c.base.Timeout,
	}
}

// envelope mirrors service.Envelope with the data left raw and success
// optional so a missing field can be told apart from false.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func parseEnvelope(status int, body []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return envelope{}, &service.DecodeError{Status: status, Snippet: snippet(body), Err: err}
	}
	if env.Success == nil {
		return envelope{}, &service.DecodeError{
			Status:  status,
			Snippet: snippet(body),
			Err:     errors.New("missing success field"),
		}
	}
	return env, nil
}

// failure turns a non-2xx body into an ApplicationError, or a DecodeError
// when the body is not an envelope (an HTML error page, for example).
func failure(status int, body []byte) error {
	env, err := parseEnvelope(status, body)
	if err != nil {
		return err
	}
	return &service.ApplicationError{Status: status, Message: message(env)}
}

func decode(status int, body []byte, out any) error {
	env, err := parseEnvelope(status, body)
	if err != nil {
		return err
	}
	if !*env.Success {
		return &service.ApplicationError{Status: status, Message: message(env)}
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &service.DecodeError{Status: status, Snippet: snippet(env.Data), Err: err}
	}
	return nil
}

func message(env envelope) string {
	if env.Message != "" {
		return env.Message
	}
	return env.Error
}

func snippet(body []byte) string {
	if len(body) <= snippetLen {
		return string(body)
	}
	return string(body[:snippetLen]) + "..."
}
