package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/tmc/langchaingo/llms"
	lcollama "github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/rahul/agentladder/internal/agent"
	"github.com/rahul/agentladder/internal/llm"
	"github.com/rahul/agentladder/internal/observability"
	"github.com/rahul/agentladder/internal/ollama"
	"github.com/rahul/agentladder/internal/report"
	"github.com/rahul/agentladder/internal/weather"
	"github.com/rahul/agentladder/pkg/config"
)

// app is the wiring shared by every command.
type app struct {
	cfg       *config.Config
	logger    *observability.Logger
	metrics   *observability.Metrics
	prompts   *agent.PromptManager
	ollama    *ollama.Client
	generator llm.Generator
	provider  string
	writer    *report.Writer
}

func newApp(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	logger := observability.NewLogger(cfg.App.LogDir)
	if opts.verbose {
		logger.SetEcho(os.Stdout)
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: observability.NewMetrics(),
		prompts: agent.NewPromptManager(cfg.App.PromptsDir),
		ollama: ollama.NewClient(ollama.Config{
			BaseURL:     cfg.Ollama.BaseURL,
			Model:       cfg.Ollama.Model,
			Timeout:     cfg.Ollama.Timeout.Std(),
			KeepAlive:   cfg.Ollama.KeepAlive,
			Temperature: cfg.Ollama.Temperature,
			TopP:        cfg.Ollama.TopP,
			NumPredict:  cfg.Ollama.NumPredict,
		}),
		writer: report.NewWriter(cfg.App.OutputDir),
	}

	a.provider, a.generator, err = a.selectGenerator()
	if err != nil {
		return nil, err
	}

	if cfg.Metrics.Addr != "" {
		go func() {
			if err := a.metrics.Serve(ctx, cfg.Metrics.Addr); err != nil {
				log.Printf("Metrics server stopped: %v", err)
			}
		}()
	}
	return a, nil
}

// selectGenerator uses the first enabled provider from config, or the
// native Ollama client when none is enabled.
func (a *app) selectGenerator() (string, llm.Generator, error) {
	name, p := a.cfg.GetDefaultProvider()
	defaults := llm.Defaults{
		Temperature: a.cfg.Ollama.Temperature,
		TopP:        a.cfg.Ollama.TopP,
		MaxTokens:   a.cfg.Ollama.NumPredict,
	}

	var model llms.Model
	var err error
	switch name {
	case "":
		return "ollama (native)", a.ollama, nil
	case "ollama":
		opts := []lcollama.Option{
			lcollama.WithModel(orDefault(p.Model, a.cfg.Ollama.Model)),
			lcollama.WithServerURL(orDefault(p.BaseURL, a.cfg.Ollama.BaseURL)),
		}
		if a.cfg.Ollama.KeepAlive != "" {
			opts = append(opts, lcollama.WithKeepAlive(a.cfg.Ollama.KeepAlive))
		}
		model, err = lcollama.New(opts...)
	case "openai", "openrouter":
		opts := []openai.Option{
			openai.WithToken(p.APIKey),
			openai.WithModel(p.Model),
		}
		if p.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(p.BaseURL))
		}
		model, err = openai.New(opts...)
	default:
		return "", nil, fmt.Errorf("provider %s not supported", name)
	}
	if err != nil {
		return "", nil, fmt.Errorf("provider %s: %w", name, err)
	}
	return name, llm.NewLangChain(model, defaults), nil
}

func (a *app) weatherClient() *weather.Client {
	return weather.NewClient(a.cfg.Weather.BaseURL, a.cfg.Weather.APIKey, a.cfg.Ollama.Timeout.Std()).
		WithCache(a.cfg.Weather.CacheSize, a.cfg.Weather.CacheTTL.Std())
}

var (
	okLine   = color.New(color.FgGreen)
	warnLine = color.New(color.FgYellow)
	failLine = color.New(color.FgRed)
	headLine = color.New(color.FgCyan, color.Bold)
)

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
