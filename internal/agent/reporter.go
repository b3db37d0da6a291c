package agent

import (
	"context"
	"fmt"
	"log"

	"github.com/rahul/agentladder/internal/dino"
	"github.com/rahul/agentladder/internal/llm"
	"github.com/rahul/agentladder/internal/observability"
	"github.com/rahul/agentladder/internal/report"
	"github.com/rahul/agentladder/internal/weather"
)

// Document is fetched data that can be summarised and rendered.
type Document interface {
	Prompt() string
	Render(aiSummary string) string
}

// Collector fetches and parses one document. Any error aborts the run.
type Collector interface {
	Kind() string
	Collect(ctx context.Context) (Document, error)
}

// Reporter is the fixed automation rung: fetch, parse, render, save.
// Only the optional summary call may fail without aborting.
type Reporter struct {
	Collector Collector
	Generator llm.Generator
	System    string
	Writer    *report.Writer
	Logger    *observability.Logger
	Metrics   *observability.Metrics
}

func NewReporter(c Collector, gen llm.Generator, system string, w *report.Writer) *Reporter {
	return &Reporter{Collector: c, Generator: gen, System: system, Writer: w}
}

func (r *Reporter) Name() string { return r.Collector.Kind() }

// Run produces one report and returns the path it was saved to.
func (r *Reporter) Run(ctx context.Context) (string, error) {
	kind := r.Collector.Kind()
	defer observability.Track(observability.RoleReporter, kind+" report")()

	log.Printf("[Reporter] Fetching %s data...", kind)
	doc, err := r.Collector.Collect(ctx)
	if err != nil {
		return "", fmt.Errorf("%s report aborted: %w", kind, err)
	}

	summary := r.summarise(ctx, kind, doc)
	text := doc.Render(summary)

	path, err := r.Writer.Save(kind, text)
	if err != nil {
		return "", fmt.Errorf("%s report aborted: %w", kind, err)
	}
	r.Logger.LogReport(kind, path)
	r.Metrics.IncReport(kind)
	log.Printf("[Reporter] Report saved to %s", path)
	return path, nil
}

func (r *Reporter) summarise(ctx context.Context, kind string, doc Document) string {
	if r.Generator == nil {
		return ""
	}
	component := kind + "_summary"
	req := llm.Request{Prompt: doc.Prompt(), System: r.System}
	out, err := r.Generator.Generate(ctx, req)
	r.Metrics.IncGeneration(component, err)
	if err != nil {
		log.Printf("[Reporter] AI summary unavailable, writing basic report: %v", err)
		r.Logger.LogFallback("", "", component, err.Error())
		r.Metrics.IncFallback(component)
		return ""
	}
	r.Logger.LogLLM("", "", component, req.Prompt, out)
	return out
}

// WeatherCollector reads current conditions for one city without caching.
type WeatherCollector struct {
	Client *weather.Client
	City   string
}

func (WeatherCollector) Kind() string { return "weather" }

func (c WeatherCollector) Collect(ctx context.Context) (Document, error) {
	raw, err := c.Client.Fetch(ctx, c.City)
	if err != nil {
		return nil, err
	}
	cond, err := weather.Parse(raw, c.Client.Now())
	if err != nil {
		return nil, err
	}
	return weatherDoc{cond}, nil
}

type weatherDoc struct{ c *weather.Conditions }

func (d weatherDoc) Prompt() string               { return report.WeatherPrompt(d.c) }
func (d weatherDoc) Render(summary string) string { return report.Weather(d.c, summary) }

type DinoCollector struct {
	Client      *dino.Client
	Name        string
	Description string
}

func (DinoCollector) Kind() string { return "dinosaur" }

func (c DinoCollector) Collect(ctx context.Context) (Document, error) {
	fact, err := c.Client.Lookup(ctx, c.Name, c.Description)
	if err != nil {
		return nil, err
	}
	return dinoDoc{fact}, nil
}

type dinoDoc struct{ f *dino.Fact }

func (d dinoDoc) Prompt() string               { return report.DinoPrompt(d.f) }
func (d dinoDoc) Render(summary string) string { return report.Dino(d.f, summary) }
