package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Option configures the Client.
type Option func(*Client)

// Client provides typed access to the scorekeeper HTTP API.
type Client struct {
	baseURL    string
	prefix     string
	httpClient *http.Client
	headers    http.Header
}

// NewClient constructs a new SDK client targeting the server root (e.g., http://localhost:3000).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("baseURL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		prefix:     "/api",
		httpClient: http.DefaultClient,
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithPathPrefix changes the API prefix (default "/api").
func WithPathPrefix(p string) Option {
	return func(c *Client) {
		p = strings.TrimSuffix(p, "/")
		if p != "" && p[0] != '/' {
			p = "/" + p
		}
		c.prefix = p
	}
}

// WithHeader sets an arbitrary header applied to every call.
func WithHeader(k, v string) Option {
	return func(c *Client) {
		if k != "" {
			c.headers.Set(k, v)
		}
	}
}

func (c *Client) scoresURL(suffix string) string {
	return c.baseURL + c.prefix + "/scores-math" + suffix
}

func (c *Client) do(ctx context.Context, method, u string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	for k, vals := range c.headers {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.httpClient.Do(req)
}

// Submit stores a score and returns the id the server assigned.
func (c *Client) Submit(ctx context.Context, sub ScoreSubmission) (int64, error) {
	payload, err := json.Marshal(sub)
	if err != nil {
		return 0, err
	}
	resp, err := c.do(ctx, http.MethodPost, c.scoresURL(""), bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		ID      int64  `json:"id"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return 0, err
	}
	if !body.Success {
		return 0, errors.New(body.Message)
	}
	return body.ID, nil
}

// Top fetches the ranked list; limit <= 0 uses the server default.
func (c *Client) Top(ctx context.Context, limit int) ([]RankedScore, error) {
	u := c.scoresURL("")
	if limit > 0 {
		u += "?limit=" + strconv.Itoa(limit)
	}
	resp, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out []RankedScore
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Export downloads the ranking in format (json, csv, text, xlsx); lang is
// an optional BCP 47 tag such as "en-US".
func (c *Client) Export(ctx context.Context, format, lang string) (ExportDocument, error) {
	if strings.TrimSpace(format) == "" {
		return ExportDocument{}, ErrEmptyFormat
	}
	u := c.scoresURL("/export/" + url.PathEscape(format))
	if lang != "" {
		u += "?lang=" + url.QueryEscape(lang)
	}
	resp, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return ExportDocument{}, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return ExportDocument{}, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return ExportDocument{}, err
	}
	doc := ExportDocument{ContentType: resp.Header.Get("Content-Type"), Data: data}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		doc.Filename = params["filename"]
	}
	return doc, nil
}

// Health probes /health. A 503 is returned as an *APIError.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	resp, err := c.do(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return HealthStatus{}, err
	}
	defer resp.Body.Close()

	var hs HealthStatus
	if err := decodeJSON(resp, &hs); err != nil {
		return HealthStatus{}, err
	}
	return hs, nil
}
