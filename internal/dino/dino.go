// Package dino fetches dinosaur facts from the public dinosaur-facts API.
package dino

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Fact struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Period      string    `json:"period"`
	Diet        string    `json:"diet"`
	Length      string    `json:"length"`
	Weight      string    `json:"weight"`
	Timestamp   time.Time `json:"timestamp"`
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
	Now     func() time.Time
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		Now:     time.Now,
	}
}

// Fetch queries /dinosaurs by name and description. The body may be a
// single object or a list; the entry whose name matches wins, else the first.
func (c *Client) Fetch(ctx context.Context, name, description string) (map[string]any, error) {
	q := url.Values{}
	q.Set("Name", name)
	q.Set("Description", description)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/dinosaurs?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dinosaur request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read dinosaur response: %w", err)
	}
	body = bytes.TrimSpace(body)

	if len(body) > 0 && body[0] == '[' {
		var list []map[string]any
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, fmt.Errorf("failed to decode dinosaur response: %w", err)
		}
		if len(list) == 0 {
			return nil, fmt.Errorf("no dinosaur matched %q", name)
		}
		for _, d := range list {
			if n, _ := d["name"].(string); strings.EqualFold(n, name) {
				return d, nil
			}
		}
		return list[0], nil
	}

	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode dinosaur response: %w", err)
	}
	return doc, nil
}

// Parse fills every field, substituting "Unknown ..." text for absent keys.
func Parse(doc map[string]any, now time.Time) *Fact {
	get := func(key, def string) string {
		switch v := doc[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%g", v)
		}
		return def
	}
	return &Fact{
		Name:        get("name", "Unknown"),
		Description: get("description", "No description available"),
		Period:      get("period", "Unknown period"),
		Diet:        get("diet", "Unknown diet"),
		Length:      get("length", "Unknown length"),
		Weight:      get("weight", "Unknown weight"),
		Timestamp:   now,
	}
}

// Lookup is Fetch followed by Parse.
func (c *Client) Lookup(ctx context.Context, name, description string) (*Fact, error) {
	doc, err := c.Fetch(ctx, name, description)
	if err != nil {
		return nil, err
	}
	return Parse(doc, c.Now()), nil
}
