package webapi

import (
	"context"
	"strings"
)

// RandomCat returns the URL of a random cat picture.
func (c *Client) RandomCat(ctx context.Context) (string, error) {
	var cats []struct {
		URL string `json:"url"`
	}
	if err := c.getJSON(ctx, c.endpoints.Cat, &cats); err != nil {
		return "", err
	}
	if len(cats) == 0 || strings.TrimSpace(cats[0].URL) == "" {
		return "", ErrNoResult
	}
	return cats[0].URL, nil
}

// RandomDog returns the URL of a random dog picture.
func (c *Client) RandomDog(ctx context.Context) (string, error) {
	var dog struct {
		Message string `json:"message"`
	}
	if err := c.getJSON(ctx, c.endpoints.Dog, &dog); err != nil {
		return "", err
	}
	if strings.TrimSpace(dog.Message) == "" {
		return "", ErrNoResult
	}
	return dog.Message, nil
}
