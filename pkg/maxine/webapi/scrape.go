package webapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// LocalTime is Bing's answer to "time in <location>".
type LocalTime struct {
	Label string
	Time  string
}

// TimeIn scrapes the current time for location from Bing's clock card.
// It returns ErrNoResult when the page has no clock.
func (c *Client) TimeIn(ctx context.Context, location string) (*LocalTime, error) {
	u, err := url.Parse(c.endpoints.Bing)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("q", "time in "+location)
	u.RawQuery = q.Encode()

	body, err := c.get(ctx, u.String(), BrowserUserAgent)
	if err != nil {
		return nil, err
	}
	return parseBingTime(body)
}

func parseBingTime(body []byte) (*LocalTime, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("webapi: parse time page: %w", err)
	}

	var result LocalTime
	if n := findNested(root, withClass("baselClock"), withClass("b_focusLabel")); n != nil {
		result.Label = textContent(n, "")
	}
	if n := findFirst(root, withID("digit_time")); n != nil {
		result.Time = textContent(n, "")
	}
	if result.Time == "" {
		return nil, ErrNoResult
	}
	return &result, nil
}

// PageText fetches rawURL and returns its readable text: the first
// <article>, else <body>, else the raw response.
func (c *Client) PageText(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", errors.New("webapi: not an http(s) URL")
	}
	body, err := c.get(ctx, u.String(), BrowserUserAgent)
	if err != nil {
		return "", err
	}
	return extractText(body), nil
}

func extractText(body []byte) string {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return strings.TrimSpace(string(body))
	}
	if n := findFirst(root, isElement("article")); n != nil {
		if text := textContent(n, " "); text != "" {
			return text
		}
	}
	if n := findFirst(root, isElement("body")); n != nil {
		if text := textContent(n, " "); text != "" {
			return text
		}
	}
	return strings.TrimSpace(string(body))
}
