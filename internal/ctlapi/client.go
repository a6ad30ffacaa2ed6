package ctlapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/plexsphere/wgsession/internal/notify"
)

// Client talks to the control socket.
type Client struct {
	httpClient *http.Client
	socketPath string
}

// NewClient returns a Client dialing socketPath.
func NewClient(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		httpClient: &http.Client{
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					var d net.Dialer
					return d.DialContext(ctx, "unix", socketPath)
				},
			},
		},
	}
}

// SocketPath returns the socket the client dials.
func (c *Client) SocketPath() string { return c.socketPath }

// Close releases idle connections.
func (c *Client) Close() { c.httpClient.CloseIdleConnections() }

// Session fetches the current session status.
func (c *Client) Session(ctx context.Context) (*SessionStatus, error) {
	var out SessionStatus
	if err := c.do(ctx, http.MethodGet, "/v1/session", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Start queues a start request. With wait set, the reply carries the outcome.
func (c *Client) Start(ctx context.Context, req StartRequest, wait bool) (*OpResponse, error) {
	return c.lifecycle(ctx, "/v1/session/start", req, wait)
}

// Reconfigure queues a stop-then-start request.
func (c *Client) Reconfigure(ctx context.Context, req StartRequest, wait bool) (*OpResponse, error) {
	return c.lifecycle(ctx, "/v1/session/reconfigure", req, wait)
}

// Stop queues a stop request.
func (c *Client) Stop(ctx context.Context, wait bool) (*OpResponse, error) {
	return c.lifecycle(ctx, "/v1/session/stop", nil, wait)
}

func (c *Client) lifecycle(ctx context.Context, path string, body any, wait bool) (*OpResponse, error) {
	q := url.Values{}
	if wait {
		q.Set("wait", "true")
	}
	var out OpResponse
	if err := c.do(ctx, http.MethodPost, path, q, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Readiness reports whether the platform is ready.
func (c *Client) Readiness(ctx context.Context) (*ReadinessStatus, error) {
	var out ReadinessStatus
	if err := c.do(ctx, http.MethodGet, "/v1/readiness", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestReadiness asks the daemon to satisfy the platform prerequisites.
func (c *Client) RequestReadiness(ctx context.Context) (*ReadinessStatus, error) {
	var out ReadinessStatus
	if err := c.do(ctx, http.MethodPost, "/v1/readiness", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TriggerAction runs an indicator action such as notify.ActionDisconnect.
func (c *Client) TriggerAction(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/v1/indicator/actions/"+url.PathEscape(id), nil, nil, nil)
}

// Events streams status events to fn until ctx is cancelled or fn returns
// an error. When the daemon closes the stream, Events reconnects after the
// announced retry interval and resumes after the last event seen. It
// returns nil once the daemon can no longer be reached.
func (c *Client) Events(ctx context.Context, fn func(notify.Event) error) error {
	var lastID string
	retry := retryInterval
	for resumed := false; ; resumed = true {
		resp, err := c.openEvents(ctx, lastID)
		if err != nil {
			var apiErr *APIError
			if resumed && ctx.Err() == nil && !errors.As(err, &apiErr) {
				return nil
			}
			return err
		}

		parser := NewSSEParser(resp.Body)
		err = consumeEvents(parser, fn)
		resp.Body.Close()
		if id := parser.LastEventID(); id != "" {
			lastID = id
		}
		if r := parser.Retry(); r > 0 {
			retry = r
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retry):
		}
	}
}

func (c *Client) openEvents(ctx context.Context, lastID string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, socketURL("/v1/events", nil), nil)
	if err != nil {
		return nil, fmt.Errorf("ctlapi: events: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	if lastID != "" {
		req.Header.Set("Last-Event-ID", lastID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.dialError(err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, errorFromResponse(resp)
	}
	return resp, nil
}

// consumeEvents hands every status event to fn until the stream ends.
func consumeEvents(parser *SSEParser, fn func(notify.Event) error) error {
	for {
		evt, ok := parser.Next()
		if !ok {
			if err := parser.Err(); err != nil {
				return fmt.Errorf("ctlapi: events: %w", err)
			}
			return nil
		}
		if evt.Type != notify.Topic {
			continue
		}
		var e notify.Event
		if err := json.Unmarshal([]byte(evt.Data), &e); err != nil {
			return fmt.Errorf("ctlapi: events: decode: %w", err)
		}
		if err := fn(e); err != nil {
			return err
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("ctlapi: encode request: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, socketURL(path, q), &buf)
	if err != nil {
		return fmt.Errorf("ctlapi: %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.dialError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromResponse(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ctlapi: decode response: %w", err)
	}
	return nil
}

func (c *Client) dialError(err error) error {
	return fmt.Errorf("ctlapi: daemon not running or socket unavailable at %s: %w", c.socketPath, err)
}

// socketURL returns a URL for the given path using the Unix socket.
func socketURL(path string, q url.Values) string {
	u := "http://localhost" + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}
