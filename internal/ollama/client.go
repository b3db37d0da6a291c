// Package ollama is a small client for a locally hosted Ollama server: text
// generation, model listing and pulling, and server lifecycle checks.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rahul/agentladder/internal/llm"
)

// ErrorType categorizes client errors.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeNotRunning
	ErrTypeTimeout
	ErrTypeModelNotFound
	ErrTypeStatus
	ErrTypeInvalidResponse
)

// ClientError is returned by every Client method.
type ClientError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Cause      error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error { return e.Cause }

// Is matches on Type so the sentinels below work with errors.Is.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	return ok && t.Type == e.Type
}

var (
	ErrNotRunning    = &ClientError{Type: ErrTypeNotRunning, Message: "Ollama is not running"}
	ErrTimeout       = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrModelNotFound = &ClientError{Type: ErrTypeModelNotFound, Message: "model not found"}
)

type Config struct {
	BaseURL     string
	Model       string
	Timeout     time.Duration
	KeepAlive   string
	Temperature float64
	TopP        float64
	NumPredict  int
}

type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *Client) Model() string   { return c.cfg.Model }
func (c *Client) BaseURL() string { return c.cfg.BaseURL }

// Generate implements llm.Generator against /api/generate, non-streaming.
func (c *Client) Generate(ctx context.Context, req llm.Request) (string, error) {
	body := GenerateRequest{
		Model:     c.cfg.Model,
		Prompt:    req.Prompt,
		Stream:    false,
		System:    req.System,
		KeepAlive: c.cfg.KeepAlive,
		Options: &Options{
			Temperature: pick(req.Temperature, c.cfg.Temperature),
			TopP:        pick(req.TopP, c.cfg.TopP),
			NumPredict:  int(pick(float64(req.MaxTokens), float64(c.cfg.NumPredict))),
		},
	}
	var out GenerateResponse
	if err := c.do(ctx, c.http, http.MethodPost, "/api/generate", body, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

// ListModels returns the locally available models (/api/tags).
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	var out ListModelsResponse
	if err := c.do(ctx, c.http, http.MethodGet, "/api/tags", nil, &out); err != nil {
		return nil, err
	}
	return out.Models, nil
}

// CheckRunning reports whether the server answers /api/tags.
func (c *Client) CheckRunning(ctx context.Context) error {
	_, err := c.ListModels(ctx)
	return err
}

func (c *Client) Version(ctx context.Context) (string, error) {
	var out VersionResponse
	if err := c.do(ctx, c.http, http.MethodGet, "/api/version", nil, &out); err != nil {
		return "", err
	}
	return out.Version, nil
}

// HasModel reports whether name (or name:latest) is installed.
func (c *Client) HasModel(ctx context.Context, name string) (bool, []string, error) {
	models, err := c.ListModels(ctx)
	if err != nil {
		return false, nil, err
	}
	names := make([]string, 0, len(models))
	found := false
	for _, m := range models {
		names = append(names, m.Name)
		if m.Name == name || m.Name == name+":latest" {
			found = true
		}
	}
	return found, names, nil
}

// Pull downloads a model. Downloads are slow, so the per-call timeout does
// not apply; ctx bounds the call instead.
func (c *Client) Pull(ctx context.Context, name string) error {
	var out PullResponse
	long := &http.Client{}
	if err := c.do(ctx, long, http.MethodPost, "/api/pull", PullRequest{Model: name, Stream: false}, &out); err != nil {
		return err
	}
	if out.Status != "" && out.Status != "success" {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "pull finished with status " + out.Status}
	}
	return nil
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &ClientError{Type: ErrTypeUnknown, Message: "failed to marshal request", Cause: err}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return &ClientError{Type: ErrTypeUnknown, Message: "failed to create request", Cause: err}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(req)
	if err != nil {
		return classify(err, c.cfg.BaseURL)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to read response", Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(data))
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		typ := ErrTypeStatus
		if resp.StatusCode == http.StatusNotFound && strings.Contains(msg, "not found") {
			typ = ErrTypeModelNotFound
		}
		return &ClientError{
			Type:       typ,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Ollama API error: %d - %s", resp.StatusCode, msg),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	return nil
}

func classify(err error, baseURL string) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &ClientError{
			Type:    ErrTypeTimeout,
			Message: "Ollama request timed out; the model might be too slow or not loaded",
			Cause:   err,
		}
	}
	return &ClientError{
		Type:    ErrTypeNotRunning,
		Message: "cannot connect to Ollama at " + baseURL,
		Cause:   err,
	}
}

func pick(v, fallback float64) float64 {
	if v != 0 {
		return v
	}
	return fallback
}
