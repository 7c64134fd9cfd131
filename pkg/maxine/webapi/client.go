// Package webapi wraps the public web services Maxine's commands call:
// image APIs, Urban Dictionary, Bing's time card, page fetching for TLDRs
// and an optional SearxNG instance.
package webapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrNoResult is returned when a service answered but had nothing to offer.
var ErrNoResult = errors.New("webapi: no result")

// BrowserUserAgent is sent where services serve different markup to bots.
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

const (
	defaultUserAgent = "Maxine/1.0 (+https://github.com/maxinebot/maxine)"
	maxBodyBytes     = 4 << 20
)

// Endpoints holds service base URLs. Zero values use the public services.
type Endpoints struct {
	Cat     string
	Dog     string
	Urban   string
	Bing    string
	SearxNG string
}

// DefaultEndpoints returns the public service URLs.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Cat:   "https://api.thecatapi.com/v1/images/search",
		Dog:   "https://dog.ceo/api/breeds/image/random",
		Urban: "https://api.urbandictionary.com/v0/define",
		Bing:  "https://www.bing.com/search",
	}
}

// Client calls the web services over one shared http.Client.
type Client struct {
	http      *http.Client
	endpoints Endpoints
}

// New creates a Client. A nil httpClient gets a 30 second timeout.
func New(httpClient *http.Client, endpoints Endpoints) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	def := DefaultEndpoints()
	if endpoints.Cat == "" {
		endpoints.Cat = def.Cat
	}
	if endpoints.Dog == "" {
		endpoints.Dog = def.Dog
	}
	if endpoints.Urban == "" {
		endpoints.Urban = def.Urban
	}
	if endpoints.Bing == "" {
		endpoints.Bing = def.Bing
	}
	return &Client{http: httpClient, endpoints: endpoints}
}

// SearchEnabled reports whether a SearxNG instance is configured.
func (c *Client) SearchEnabled() bool {
	return c.endpoints.SearxNG != ""
}

// get fetches rawURL and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, rawURL, userAgent string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("webapi: build request: %w", err)
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webapi: GET %s: %w", req.URL.Host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("webapi: GET %s: status %d: %s", req.URL.Host, resp.StatusCode,
			bytes.TrimSpace(bytes.ToValidUTF8(snippet, []byte("?"))))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("webapi: read %s: %w", req.URL.Host, err)
	}
	return body, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, v any) error {
	body, err := c.get(ctx, rawURL, "")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("webapi: decode response: %w", err)
	}
	return nil
}
