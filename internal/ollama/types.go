package ollama

import "time"

// Options are the sampling parameters sent with /api/generate.
type Options struct {
	Temperature float64 `json:"temperature,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type GenerateRequest struct {
	Model     string   `json:"model"`
	Prompt    string   `json:"prompt"`
	Stream    bool     `json:"stream"`
	System    string   `json:"system,omitempty"`
	KeepAlive string   `json:"keep_alive,omitempty"`
	Options   *Options `json:"options,omitempty"`
}

type GenerateResponse struct {
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
	Response  string    `json:"response"`
	Done      bool      `json:"done"`
	EvalCount int       `json:"eval_count,omitempty"`
}

type ModelInfo struct {
	Name       string    `json:"name"`
	ModifiedAt time.Time `json:"modified_at"`
	Size       int64     `json:"size"`
	Digest     string    `json:"digest"`
}

type ListModelsResponse struct {
	Models []ModelInfo `json:"models"`
}

type VersionResponse struct {
	Version string `json:"version"`
}

type PullRequest struct {
	Model  string `json:"model"`
	Stream bool   `json:"stream"`
}

type PullResponse struct {
	Status string `json:"status"`
}

type apiError struct {
	Error string `json:"error"`
}
