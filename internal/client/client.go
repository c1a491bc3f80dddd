// Package client talks to the chat backend's reply endpoint.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"moodchat/internal/models"
)

const (
	ReplyPath       = "/get"
	RequestIDHeader = "X-Request-ID"
)

// ErrDecode is returned when the reply body is not JSON.
var ErrDecode = errors.New("decode reply")

type Option func(*Client)

// WithHTTPClient replaces the default http.Client. This is the only place a
// timeout can come from; the client sets none of its own.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client posts user messages to <base>/get and returns the reply text.
type Client struct {
	endpoint string
	http     *http.Client
	logger   zerolog.Logger
}

// New builds a Client for the backend rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimRight(baseURL, "/") + ReplyPath,
		http:     &http.Client{},
		logger:   log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Reply sends the raw text and returns the "response" field. The status code
// is not inspected; any JSON body is accepted and a missing field reads as "".
func (c *Client) Reply(ctx context.Context, text string) (string, error) {
	payload, err := json.Marshal(models.ReplyRequest{Message: text})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RequestIDHeader, requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("post %s: %w", c.endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read reply: %w", err)
	}
	var out struct {
		Response json.RawMessage `json:"response"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	c.logger.Debug().
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Msg("reply received")

	var reply string
	if len(out.Response) > 0 {
		// a non-string response field renders as empty, like a missing one
		_ = json.Unmarshal(out.Response, &reply)
	}
	return reply, nil
}
