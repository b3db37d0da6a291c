// Package weather fetches current conditions from OpenWeatherMap and
// provides the deterministic mock source used by the planner.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Conditions is the fixed-format record the reporters work with.
type Conditions struct {
	City        string    `json:"city"`
	Country     string    `json:"country"`
	Temperature float64   `json:"temperature"`
	FeelsLike   float64   `json:"feels_like"`
	Humidity    float64   `json:"humidity"`
	Pressure    float64   `json:"pressure"`
	Description string    `json:"description"`
	WindSpeed   float64   `json:"wind_speed"`
	Forecast    []Day     `json:"forecast,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

type Day struct {
	Day       string  `json:"day"`
	Temp      float64 `json:"temp"`
	Condition string  `json:"condition"`
}

// Source yields current conditions for a location.
type Source interface {
	Current(ctx context.Context, city string) (*Conditions, error)
}

var ErrMissingField = errors.New("missing field in weather response")

type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
	Now     func() time.Time

	cache *expirable.LRU[string, Conditions]
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: timeout},
		Now:     time.Now,
	}
}

// WithCache keeps successful lookups for ttl, keyed by lower-cased city.
func (c *Client) WithCache(size int, ttl time.Duration) *Client {
	c.cache = expirable.NewLRU[string, Conditions](size, nil, ttl)
	return c
}

// Current fetches and parses current conditions. A failed request or a
// response missing any expected key is an error; nothing is retried.
func (c *Client) Current(ctx context.Context, city string) (*Conditions, error) {
	key := strings.ToLower(strings.TrimSpace(city))
	if c.cache != nil {
		if cond, ok := c.cache.Get(key); ok {
			return &cond, nil
		}
	}

	raw, err := c.Fetch(ctx, city)
	if err != nil {
		return nil, err
	}
	cond, err := Parse(raw, c.Now())
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.cache.Add(key, *cond)
	}
	return cond, nil
}

// Fetch returns the raw JSON document for city in metric units.
func (c *Client) Fetch(ctx context.Context, city string) (map[string]any, error) {
	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", c.APIKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/data/2.5/weather?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d", resp.StatusCode)
	}

	var doc map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode weather response: %w", err)
	}
	return doc, nil
}

// Parse maps the OpenWeatherMap document onto Conditions by fixed keys.
func Parse(doc map[string]any, now time.Time) (*Conditions, error) {
	var err error
	str := func(path ...string) string {
		v, e := lookup(doc, path...)
		if e != nil {
			err = errors.Join(err, e)
			return ""
		}
		s, ok := v.(string)
		if !ok {
			err = errors.Join(err, fmt.Errorf("%w: %s is not a string", ErrMissingField, strings.Join(path, ".")))
		}
		return s
	}
	num := func(path ...string) float64 {
		v, e := lookup(doc, path...)
		if e != nil {
			err = errors.Join(err, e)
			return 0
		}
		f, ok := v.(float64)
		if !ok {
			err = errors.Join(err, fmt.Errorf("%w: %s is not a number", ErrMissingField, strings.Join(path, ".")))
		}
		return f
	}

	cond := &Conditions{
		City:        str("name"),
		Country:     str("sys", "country"),
		Temperature: num("main", "temp"),
		FeelsLike:   num("main", "feels_like"),
		Humidity:    num("main", "humidity"),
		Pressure:    num("main", "pressure"),
		Description: str("weather", "0", "description"),
		WindSpeed:   num("wind", "speed"),
		Timestamp:   now,
	}
	if err != nil {
		return nil, err
	}
	return cond, nil
}

func lookup(doc map[string]any, path ...string) (any, error) {
	var cur any = doc
	for _, p := range path {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[p]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrMissingField, strings.Join(path, "."))
			}
			cur = v
		case []any:
			var i int
			if _, err := fmt.Sscanf(p, "%d", &i); err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("%w: %s", ErrMissingField, strings.Join(path, "."))
			}
			cur = node[i]
		default:
			return nil, fmt.Errorf("%w: %s", ErrMissingField, strings.Join(path, "."))
		}
	}
	return cur, nil
}
