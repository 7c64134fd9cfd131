package webapi

import (
	"context"
	"net/url"
)

// Definition is one Urban Dictionary entry.
type Definition struct {
	Word       string `json:"word"`
	Definition string `json:"definition"`
	Example    string `json:"example"`
	Permalink  string `json:"permalink"`
}

// Define returns the top Urban Dictionary definition for term, or
// ErrNoResult.
func (c *Client) Define(ctx context.Context, term string) (*Definition, error) {
	u, err := url.Parse(c.endpoints.Urban)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("term", term)
	u.RawQuery = q.Encode()

	var resp struct {
		List []Definition `json:"list"`
	}
	if err := c.getJSON(ctx, u.String(), &resp); err != nil {
		return nil, err
	}
	if len(resp.List) == 0 {
		return nil, ErrNoResult
	}
	return &resp.List[0], nil
}
