package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const defaultCookieName = "session_id"

// Client talks to the pihole-cluster-admin REST API. The session credential is
// a cookie; the client keeps the current token and replays it on every
// request. Safe for concurrent use.
type Client struct {
	baseURL    string
	cookieName string
	httpClient *http.Client
	logger     zerolog.Logger

	mu              sync.RWMutex
	sessionToken    string
	onSessionChange func(token string)
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithCookieName(name string) Option {
	return func(c *Client) { c.cookieName = name }
}

// WithSessionToken seeds the client with a previously saved session token.
func WithSessionToken(token string) Option {
	return func(c *Client) { c.sessionToken = token }
}

// WithSessionChangeFunc registers a callback invoked whenever the server
// rotates or clears the session cookie. Callers use it to persist the token
// across invocations.
func WithSessionChangeFunc(fn func(token string)) Option {
	return func(c *Client) { c.onSessionChange = fn }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		cookieName: defaultCookieName,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// SessionToken returns the current session cookie value, or "" when logged out.
func (c *Client) SessionToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionToken
}

// EventsURL builds the SSE endpoint URL carrying the full topic list as a
// query parameter. Topic interest is declared at connect time.
func (c *Client) EventsURL(topics []string) string {
	qs := ""
	if len(topics) > 0 {
		qs = "?topics=" + url.QueryEscape(strings.Join(topics, ","))
	}
	return c.baseURL + "/api/events" + qs
}

// NewEventsRequest creates a GET request against the SSE endpoint with the
// session cookie attached.
func (c *Client) NewEventsRequest(ctx context.Context, topics []string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.EventsURL(topics), nil)
	if err != nil {
		return nil, fmt.Errorf("creating events request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	c.attachSession(req)
	return req, nil
}

// Do performs an HTTP request against the SSE endpoint or any other request
// built by the client, using the client's transport.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

func (c *Client) attachSession(req *http.Request) {
	c.mu.RLock()
	token := c.sessionToken
	c.mu.RUnlock()
	if token != "" {
		req.AddCookie(&http.Cookie{Name: c.cookieName, Value: token})
	}
}

func (c *Client) captureSession(resp *http.Response) {
	for _, cookie := range resp.Cookies() {
		if cookie.Name != c.cookieName {
			continue
		}
		token := cookie.Value
		if !cookie.Expires.IsZero() && cookie.Expires.Before(time.Now()) {
			token = ""
		}
		c.setSessionToken(token)
	}
}

func (c *Client) setSessionToken(token string) {
	c.mu.Lock()
	changed := token != c.sessionToken
	c.sessionToken = token
	fn := c.onSessionChange
	c.mu.Unlock()
	if changed && fn != nil {
		fn(token)
	}
}

// ClearSession drops the local session token without calling the server.
func (c *Client) ClearSession() {
	c.setSessionToken("")
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api"+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.attachSession(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	observeRequest(method, path, start, err)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.captureSession(resp)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	c.logger.Trace().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeError(resp.StatusCode, respBody)
	}
	return respBody, nil
}

// decodeError turns a non-2xx response into a typed Error. Bodies follow the
// {"error": "..."} convention but {"message": "..."} and plain text appear too.
func decodeError(statusCode int, body []byte) error {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	apiErr := &Error{StatusCode: statusCode}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Error != "":
			apiErr.Message = payload.Error
		case payload.Message != "":
			apiErr.Message = payload.Message
		}
	} else if msg := strings.TrimSpace(string(body)); msg != "" {
		apiErr.Message = msg
	}
	return apiErr
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	data, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}
