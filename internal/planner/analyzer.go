package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/rahul/agentladder/internal/llm"
	"github.com/rahul/agentladder/internal/observability"
)

const (
	AnalystSystemPrompt   = "You are a weather planning analyst. Respond only with valid JSON."
	ReasoningSystemPrompt = "You are a strategic planning analyst. Respond only with valid JSON."
)

var errMissingTaskType = errors.New("analysis has no task_type")

// DefaultAnalysis is substituted whenever the analysis call fails or its
// response cannot be parsed.
func DefaultAnalysis(city string) Analysis {
	return Analysis{
		TaskType:            "general_weather_planning",
		WeatherRequirements: "moderate_conditions",
		TimeHorizon:         "3",
		Location:            llm.Text(city),
		Constraints:         "none",
		SuccessCriteria:     "successful_activity_completion",
		Confidence:          0.5,
	}
}

// DefaultReasoning is substituted for a failed reasoning call.
func DefaultReasoning() Reasoning {
	return Reasoning{
		CurrentStatus:    "planning_in_progress",
		IssuesIdentified: llm.List{},
		NextPriorities:   llm.List{"continue_planning"},
		Reasoning:        "Basic planning continuation",
		Confidence:       0.5,
	}
}

// caller performs one generation call and decodes its JSON payload.
type caller struct {
	Generator llm.Generator
	Logger    *observability.Logger
	Metrics   *observability.Metrics
}

func (c caller) ask(ctx context.Context, sessionID, component string, req llm.Request, v any) error {
	raw, err := c.Generator.Generate(ctx, req)
	c.Metrics.IncGeneration(component, err)
	if err != nil {
		return fmt.Errorf("%s call failed: %w", component, err)
	}
	c.Logger.LogLLM("", sessionID, component, req.Prompt, raw)
	if err := llm.ParseJSON(raw, v); err != nil {
		return fmt.Errorf("%s response unparseable: %w", component, err)
	}
	return nil
}

// Analyzer turns a free-text task into an Analysis with one generation call.
type Analyzer struct {
	caller
	System      string
	DefaultCity string
}

func NewAnalyzer(gen llm.Generator, system, defaultCity string) *Analyzer {
	if system == "" {
		system = AnalystSystemPrompt
	}
	return &Analyzer{caller: caller{Generator: gen}, System: system, DefaultCity: defaultCity}
}

func (a *Analyzer) Analyze(ctx context.Context, sessionID, task string) llm.Result[Analysis] {
	var out Analysis
	err := a.ask(ctx, sessionID, "analyzer", llm.Request{Prompt: analysisPrompt(task), System: a.System}, &out)
	if err == nil {
		err = a.validate(&out)
	}
	if err != nil {
		return llm.Fallback(DefaultAnalysis(a.DefaultCity), err)
	}
	return llm.Ok(out)
}

func (a *Analyzer) validate(an *Analysis) error {
	an.TaskType = snakeCase(an.TaskType)
	if an.TaskType == "" {
		return errMissingTaskType
	}
	an.Confidence = llm.Number(llm.Clamp01(float64(an.Confidence)))
	if strings.TrimSpace(an.Location.String()) == "" {
		an.Location = llm.Text(a.DefaultCity)
	}
	return nil
}

func analysisPrompt(task string) string {
	return fmt.Sprintf(`Analyze this weather planning task and extract the following information:

Task: "%s"

Please provide a JSON response with:
- task_type: Type of weather planning (outdoor_activity, travel_planning, daily_schedule, etc.)
- weather_requirements: What weather conditions are needed
- time_horizon: How far ahead to plan (days)
- location: Specific location if mentioned
- constraints: Any limitations or requirements
- success_criteria: How to measure success
- confidence: How confident you are in the analysis (0-1)

Respond only with valid JSON.`, task)
}

// Reasoner assesses the plan state once per iteration.
type Reasoner struct {
	caller
	System string
}

func NewReasoner(gen llm.Generator, system string) *Reasoner {
	if system == "" {
		system = ReasoningSystemPrompt
	}
	return &Reasoner{caller: caller{Generator: gen}, System: system}
}

func (r *Reasoner) Reason(ctx context.Context, sessionID string, plan *Plan, analysis Analysis) llm.Result[Reasoning] {
	prompt, err := reasoningPrompt(plan, analysis)
	if err != nil {
		return llm.Fallback(DefaultReasoning(), err)
	}
	var out Reasoning
	if err := r.ask(ctx, sessionID, "reasoning", llm.Request{Prompt: prompt, System: r.System}, &out); err != nil {
		return llm.Fallback(DefaultReasoning(), err)
	}
	out.Confidence = llm.Number(llm.Clamp01(float64(out.Confidence)))
	return llm.Ok(out)
}

func reasoningPrompt(plan *Plan, analysis Analysis) (string, error) {
	p, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode plan: %w", err)
	}
	a, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode analysis: %w", err)
	}
	return fmt.Sprintf(`Analyze the current planning state and provide reasoning:

Current Plan: %s
Task Analysis: %s

Provide a JSON response with:
- current_status: Current planning status
- issues_identified: Any problems or gaps
- next_priorities: What should be addressed next
- reasoning: Your reasoning process
- confidence: Confidence in current state (0-1)

Respond only with valid JSON.`, p, a), nil
}

// snakeCase lowercases s and joins its words with underscores.
func snakeCase(s string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		pending = true
	}
	return b.String()
}
