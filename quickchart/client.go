// Package quickchart is a small client for the QuickChart chart rendering service.
package quickchart

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// DefaultBaseURL is the public QuickChart endpoint.
const DefaultBaseURL = "https://quickchart.io"

const (
	// maxResponseBody caps how much of any response is read
	maxResponseBody = 1 << 20

	// maxErrorBody caps how much of an error response ends up in an error message
	maxErrorBody = 512
)

// Request is the payload QuickChart renders. Nil fields are left out so the
// service applies its own defaults.
type Request struct {
	Chart            any      `json:"chart"`
	Width            *int     `json:"width,omitempty"`
	Height           *int     `json:"height,omitempty"`
	Format           *string  `json:"format,omitempty"`
	BackgroundColor  *string  `json:"backgroundColor,omitempty"`
	DevicePixelRatio *float64 `json:"devicePixelRatio,omitempty"`
	Version          *string  `json:"version,omitempty"`
}

// APIError is returned when QuickChart answers with a non-success response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("quickchart: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("quickchart: HTTP %d: %s", e.StatusCode, e.Message)
}

type Config struct {
	// base URL of the service, without the /chart path
	BaseURL *url.URL

	// timeout for a single request
	Timeout time.Duration

	// custom transport for the http client
	Transport http.RoundTripper

	// sent as the User-Agent header
	UserAgent string
}

// Client talks to a QuickChart instance. It holds no per-call state and is
// safe for concurrent use.
type Client struct {
	config *Config
	client *http.Client
}

// DefaultConfig returns a Config pointing at the public service.
func DefaultConfig() *Config {
	base, _ := url.Parse(DefaultBaseURL)
	return &Config{
		BaseURL: base,
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			MaxIdleConnsPerHost:   10,
		},
		UserAgent: "chartmcp",
	}
}

// New creates a client, filling unset fields from DefaultConfig.
func New(config *Config) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	defaults := DefaultConfig()

	if config.BaseURL == nil {
		config.BaseURL = defaults.BaseURL
	}
	if !config.BaseURL.IsAbs() || config.BaseURL.Host == "" {
		return nil, fmt.Errorf("base URL must be absolute, got %q", config.BaseURL.String())
	}

	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}

	if config.Transport == nil {
		config.Transport = defaults.Transport
	}

	if config.UserAgent == "" {
		config.UserAgent = defaults.UserAgent
	}

	return &Client{
		config: config,
		client: &http.Client{
			Transport: config.Transport,
			Timeout:   config.Timeout,
		},
	}, nil
}

// NewWithBaseURL creates a client with default configuration against baseURL.
func NewWithBaseURL(baseURL string) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	config := DefaultConfig()
	config.BaseURL = base

	return New(config)
}

// BaseURL returns the service base the client talks to.
func (c *Client) BaseURL() *url.URL {
	u := *c.config.BaseURL
	return &u
}

// ShortURL asks the service to store the chart and returns the short URL it issues.
func (c *Client) ShortURL(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	endpoint := c.config.BaseURL.JoinPath("chart", "create")
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &APIError{StatusCode: resp.StatusCode, Message: errorMessage(resp.Header, raw)}
	}

	return parseCreateResponse(raw)
}

// DirectURL builds a render URL that encodes the whole chart in its query
// string. Nothing is sent to the service.
func (c *Client) DirectURL(req Request) (string, error) {
	chart, err := encodeChart(req.Chart)
	if err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("c", chart)
	if req.Width != nil {
		q.Set("w", strconv.Itoa(*req.Width))
	}
	if req.Height != nil {
		q.Set("h", strconv.Itoa(*req.Height))
	}
	if req.Format != nil {
		q.Set("f", *req.Format)
	}
	if req.BackgroundColor != nil {
		q.Set("bkg", *req.BackgroundColor)
	}
	if req.DevicePixelRatio != nil {
		q.Set("devicePixelRatio", strconv.FormatFloat(*req.DevicePixelRatio, 'f', -1, 64))
	}
	if req.Version != nil {
		q.Set("v", *req.Version)
	}

	u := c.config.BaseURL.JoinPath("chart")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func encodeChart(chart any) (string, error) {
	switch v := chart.(type) {
	case nil:
		return "", errors.New("chart is required")
	case string:
		return v, nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("encode chart: %w", err)
		}
		return string(b), nil
	}
}

func parseCreateResponse(raw []byte) (string, error) {
	if !gjson.ValidBytes(raw) {
		return "", fmt.Errorf("decode response: invalid JSON: %s", truncate(string(raw)))
	}

	res := gjson.ParseBytes(raw)
	if ok := res.Get("success"); ok.Exists() && !ok.Bool() {
		msg := res.Get("error").String()
		if msg == "" {
			msg = "service reported failure"
		}
		return "", fmt.Errorf("chart not created: %s", msg)
	}

	shortURL := res.Get("url").String()
	if shortURL == "" {
		return "", errors.New(`response has no "url"`)
	}
	u, err := url.Parse(shortURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("response url is not an absolute http(s) URL: %q", shortURL)
	}
	return shortURL, nil
}

func errorMessage(h http.Header, body []byte) string {
	if msg := h.Get("X-quickchart-error"); msg != "" {
		return msg
	}
	if gjson.ValidBytes(body) {
		if msg := gjson.GetBytes(body, "error").String(); msg != "" {
			return msg
		}
	}
	return truncate(strings.TrimSpace(string(body)))
}

// truncate shortens s to at most maxErrorBody bytes without splitting a rune.
func truncate(s string) string {
	if len(s) <= maxErrorBody {
		return s
	}
	cut := maxErrorBody
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
