// Package llm defines the text-generation abstraction shared by every agent
// rung, the tagged Ok/Fallback result used wherever a default is substituted
// for a failed call, and best-effort JSON extraction from model output.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// Request is a single prompt sent to a text-generation service.
type Request struct {
	Prompt      string
	System      string
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// Generator turns a prompt into free text.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Defaults fills sampling parameters left at zero.
type Defaults struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
}

func (d Defaults) Apply(req Request) Request {
	if req.Temperature == 0 {
		req.Temperature = d.Temperature
	}
	if req.TopP == 0 {
		req.TopP = d.TopP
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = d.MaxTokens
	}
	return req
}

// LangChain is a Generator backed by any langchaingo model (Ollama, OpenAI,
// OpenRouter...).
type LangChain struct {
	Model    llms.Model
	Defaults Defaults
}

func NewLangChain(model llms.Model, defaults Defaults) *LangChain {
	return &LangChain{Model: model, Defaults: defaults}
}

func (l *LangChain) Generate(ctx context.Context, req Request) (string, error) {
	req = l.Defaults.Apply(req)

	var messages []llms.MessageContent
	if req.System != "" {
		messages = append(messages, llms.MessageContent{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(req.System)},
		})
	}
	messages = append(messages, llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextPart(req.Prompt)},
	})

	var opts []llms.CallOption
	if req.Temperature > 0 {
		opts = append(opts, llms.WithTemperature(req.Temperature))
	}
	if req.TopP > 0 {
		opts = append(opts, llms.WithTopP(req.TopP))
	}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}

	resp, err := l.Model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("generate content: empty choice list")
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}
