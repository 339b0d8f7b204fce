// Package backend is the typed HTTP client for the tree plantation backend.
// Every call forwards the browser's session cookies, so the backend sees the
// same identity the browser would have presented itself.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const maxResponseBytes = 10 << 20

// Client calls the backend over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a backend client. baseURL has no trailing slash, e.g. http://localhost:8000.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type rawResponse struct {
	status  int
	header  http.Header
	body    []byte
	cookies []*http.Cookie
}

func (c *Client) send(ctx context.Context, op, method, path string, creds []*http.Cookie, body Body) (*rawResponse, error) {
	var (
		reader      io.Reader
		contentType string
	)
	if body != nil {
		var err error
		reader, contentType, err = body.Encode()
		if err != nil {
			return nil, &Error{Op: op, Kind: KindTransport, Err: err}
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindTransport, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, ck := range creds {
		req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("backend request failed", zap.String("op", op), zap.String("path", path), zap.Error(err))
		return nil, &Error{Op: op, Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &Error{Op: op, Kind: KindTransport, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	c.logger.Debug("backend request",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	out := &rawResponse{status: resp.StatusCode, header: resp.Header, body: raw, cookies: resp.Cookies()}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return out, statusError(op, resp.StatusCode, raw)
	}
	return out, nil
}

func statusError(op string, status int, raw []byte) *Error {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return &Error{Op: op, Kind: KindUnparseable, StatusCode: status, Err: err}
	}
	return &Error{Op: op, Kind: KindStatus, StatusCode: status, Message: body.Message}
}

// call sends a request and decodes a 2xx JSON body into out (if non-nil).
func (c *Client) call(ctx context.Context, op, method, path string, creds []*http.Cookie, body Body, out interface{}) error {
	resp, err := c.send(ctx, op, method, path, creds, body)
	if err != nil {
		return err
	}
	return decode(op, resp, out)
}

func decode(op string, resp *rawResponse, out interface{}) error {
	if out == nil || len(resp.body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return &Error{Op: op, Kind: KindDecode, StatusCode: resp.status, Err: err}
	}
	return nil
}

func escape(s string) string { return url.PathEscape(s) }
