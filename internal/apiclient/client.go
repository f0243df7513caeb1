// Package apiclient is the single HTTP client every service talks to the
// backend through. It injects the bearer token, decodes the response
// envelope strictly, classifies failures and raises one toast per failure.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/coinvest/coinvest/internal/notification"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "coinvest-go/1.0"
	maxBodyBytes     = 8 << 20

	// HeaderRequestID carries a per-request correlation id.
	HeaderRequestID = "X-Request-ID"
)

// Credentials is the token source and the thing wiped on 401.
type Credentials interface {
	Token(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

// AuthStateNotifier is told when the session stops (or starts) being valid.
type AuthStateNotifier interface {
	AuthStateChanged(ctx context.Context, authenticated bool)
}

// Config holds the connection settings.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client. Its Timeout is left as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithNotifier sets the toast sink.
func WithNotifier(n notification.Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

// WithAuthNotifier sets who is told about 401 logouts.
func WithAuthNotifier(n AuthStateNotifier) Option {
	return func(c *Client) { c.auth = n }
}

// WithMetrics records request counts and latency.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// Client performs single-attempt JSON requests against the backend.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	creds     Credentials
	auth      AuthStateNotifier
	notifier  notification.Notifier
	logger    *slog.Logger
	metrics   *Metrics
}

// New builds a client. creds may be nil for anonymous use.
func New(cfg Config, creds Credentials, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: ua,
		http:      &http.Client{Timeout: timeout},
		creds:     creds,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get issues a GET and decodes the envelope data into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST with a JSON body and decodes the envelope data into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// FilePart is the file section of a multipart upload.
type FilePart struct {
	Field    string
	Filename string
	Content  io.Reader
}

// PostMultipart uploads fields and one file as multipart/form-data.
func (c *Client) PostMultipart(ctx context.Context, path string, fields map[string]string, file FilePart, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return fmt.Errorf("write field %s: %w", k, err)
		}
	}
	fw, err := mw.CreateFormFile(file.Field, file.Filename)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(fw, file.Content); err != nil {
		return fmt.Errorf("copy file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close multipart: %w", err)
	}
	return c.send(ctx, http.MethodPost, path, &buf, mw.FormDataContentType(), out)
}

// Do sends a JSON request. body may be nil. When out is nil the envelope
// is still validated but its data is ignored.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	contentType := ""
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
		contentType = "application/json"
	}
	return c.send(ctx, method, path, reader, contentType, out)
}

func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	start := time.Now()
	err := c.roundTrip(ctx, method, path, body, contentType, out)
	c.metrics.observe(method, path, err, time.Since(start))
	if err != nil {
		c.handleFailure(ctx, method, path, err)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	reqID, ok := RequestIDFrom(ctx)
	if !ok {
		reqID = uuid.NewString()
	}
	req.Header.Set(HeaderRequestID, reqID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.creds != nil {
		token, err := c.creds.Token(ctx)
		if err != nil {
			return fmt.Errorf("read token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &Error{Kind: KindNetwork, Message: networkMessage, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &Error{Kind: KindNetwork, Status: resp.StatusCode, Message: networkMessage, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classify(resp.StatusCode, raw)
	}
	return decodeEnvelope(resp.StatusCode, raw, out)
}

func (c *Client) handleFailure(ctx context.Context, method, path string, err error) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return
	}
	c.logger.Warn("api request failed",
		"method", method,
		"path", path,
		"status", apiErr.Status,
		"kind", string(apiErr.Kind),
		"error", err,
	)

	if apiErr.Kind == KindUnauthorized {
		if c.creds != nil {
			if cerr := c.creds.Clear(ctx); cerr != nil {
				c.logger.Error("clear credentials", "error", cerr)
			}
		}
		if c.auth != nil {
			c.auth.AuthStateChanged(ctx, false)
		}
	}

	if c.notifier != nil {
		if nerr := c.notifier.Send(ctx, notification.Error(apiErr.Message)); nerr != nil {
			c.logger.Error("send toast", "error", nerr)
		}
	}
}
