package webapi

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

// SearchResult is one SearxNG hit.
type SearchResult struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

// Search queries the configured SearxNG instance and returns at most limit
// results (all when limit <= 0).
func (c *Client) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if !c.SearchEnabled() {
		return nil, errors.New("webapi: search is not configured")
	}
	u, err := url.Parse(strings.TrimRight(c.endpoints.SearxNG, "/") + "/search")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	var resp struct {
		Results []SearchResult `json:"results"`
	}
	if err := c.getJSON(ctx, u.String(), &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, ErrNoResult
	}
	if limit > 0 && len(resp.Results) > limit {
		resp.Results = resp.Results[:limit]
	}
	return resp.Results, nil
}
