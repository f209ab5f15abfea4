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
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/gatelog/internal/common"
	"github.com/dmitrijs2005/gatelog/internal/logging"
)

const maxErrorBody = 64 << 10

// HTTPClient talks to the gate-log REST API rooted at baseURL
// (e.g. http://localhost:5000/api).
type HTTPClient struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
	logger  logging.Logger

	mu    sync.RWMutex
	creds Credentials
}

// NewHTTPClient builds a client. timeout bounds ordinary requests; uploads
// and export downloads run under the caller's context only.
func NewHTTPClient(baseURL string, timeout time.Duration, logger logging.Logger) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url %q: scheme must be http or https", baseURL)
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &HTTPClient{
		base:    u,
		http:    &http.Client{},
		timeout: timeout,
		logger:  logger.With("component", "http_client"),
	}, nil
}

// SetCredentials attaches the session. It is set after construction because
// the session store itself verifies tokens through this client.
func (c *HTTPClient) SetCredentials(creds Credentials) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creds = creds
}

func (c *HTTPClient) credentials() Credentials {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.creds
}

type call struct {
	method string
	path   string
	route  string
	query  url.Values

	body        io.Reader
	contentType string
	length      int64

	// token overrides the session token and bypasses Invalidate.
	token string
	// anonymous requests never carry a bearer token.
	anonymous bool
	// untimed requests are bounded by the caller's context only.
	untimed bool
}

func (c *HTTPClient) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + path
	u.RawPath = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// send performs cl and returns a response with a 2xx status. The returned
// cancel func must be called once the body has been consumed.
func (c *HTTPClient) send(ctx context.Context, cl call) (*http.Response, context.CancelFunc, error) {
	parent := ctx
	cancel := context.CancelFunc(func() {})
	if c.timeout > 0 && !cl.untimed {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.endpoint(cl.path, cl.query), cl.body)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("build %s %s: %w", cl.method, cl.route, err)
	}
	if cl.length > 0 {
		req.ContentLength = cl.length
	}
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", common.UserAgent)

	requestID := uuid.NewString()
	req.Header.Set(common.RequestIDHeader, requestID)

	token, usedSession := cl.token, false
	if token == "" && !cl.anonymous {
		if creds := c.credentials(); creds != nil {
			token, usedSession = creds.Token(), true
		}
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeader, common.BearerPrefix+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		cancel()
		requestDuration.WithLabelValues(cl.method, cl.route, "error").Observe(elapsed.Seconds())
		if parent.Err() != nil {
			return nil, nil, parent.Err()
		}
		c.logger.Warn(ctx, "request failed", "method", cl.method, "route", cl.route, "request_id", requestID, "error", err)
		return nil, nil, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, cl.method, cl.route, err)
	}

	requestDuration.WithLabelValues(cl.method, cl.route, strconv.Itoa(resp.StatusCode)).Observe(elapsed.Seconds())
	c.logger.Debug(ctx, "request",
		"method", cl.method, "route", cl.route, "status", resp.StatusCode,
		"request_id", requestID, "duration", elapsed)

	if resp.StatusCode >= 400 {
		defer cancel()
		defer resp.Body.Close()
		statusErr := statusError(resp)
		if errors.Is(statusErr, ErrUnauthorized) && usedSession && token != "" {
			c.credentials().Invalidate(parent, token)
		}
		return nil, nil, statusErr
	}
	return resp, cancel, nil
}

// doJSON sends cl and decodes a JSON response into out (nil discards it).
func (c *HTTPClient) doJSON(ctx context.Context, cl call, out any) error {
	resp, cancel, err := c.send(ctx, cl)
	if err != nil {
		return err
	}
	defer cancel()
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: decode %s %s: %v", ErrUnavailable, cl.method, cl.route, err)
	}
	return nil
}

// doRaw sends cl and returns the whole response body.
func (c *HTTPClient) doRaw(ctx context.Context, cl call) ([]byte, error) {
	resp, cancel, err := c.send(ctx, cl)
	if err != nil {
		return nil, err
	}
	defer cancel()
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrUnavailable, cl.route, err)
	}
	return b, nil
}

func jsonBody(v any) (io.Reader, int64, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, 0, err
	}
	return bytes.NewReader(b), int64(len(b)), nil
}

// statusError maps a non-2xx response onto the error taxonomy.
func statusError(resp *http.Response) error {
	msg := serverMessage(resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		if msg != "" {
			return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
		}
		return ErrUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		if msg != "" {
			return fmt.Errorf("%w: %s", ErrForbidden, msg)
		}
		return ErrForbidden
	case resp.StatusCode == http.StatusNotFound:
		if msg != "" {
			return fmt.Errorf("%w: %s", ErrNotFound, msg)
		}
		return ErrNotFound
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	default:
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &ValidationError{Status: resp.StatusCode, Message: msg}
	}
}

// serverMessage extracts {"message": "..."} (or {"error": "..."}) from an
// error body, falling back to short plain text.
func serverMessage(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return ""
	}

	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(b, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		return body.Error
	}
	if b[0] == '<' || len(b) > 512 {
		return ""
	}
	return string(b)
}

// MediaURL resolves a stored reference such as "/uploads/a.jpg" against the
// server origin (scheme and host, without the API path).
func (c *HTTPClient) MediaURL(ref string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	origin := url.URL{Scheme: c.base.Scheme, Host: c.base.Host}
	return origin.String() + "/" + strings.TrimLeft(ref, "/")
}
