// Package agent holds the three rungs of the ladder: the fixed reporters,
// the boundary-checked weather assistant, and the scheduler that repeats
// fixed jobs. The planning rung lives in package planner.
package agent

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/rahul/agentladder/internal/governance"
	"github.com/rahul/agentladder/internal/llm"
	"github.com/rahul/agentladder/internal/observability"
	"github.com/rahul/agentladder/internal/store"
	"github.com/rahul/agentladder/internal/weather"
)

// Brain defines the core intelligence interface for the agent.
type Brain interface {
	Think(ctx context.Context, chatID string, input string) (string, error)
}

type HistoryStore interface {
	AddMessage(chatID string, role string, content string) error
	GetHistory(chatID string, limit int) ([]store.Message, error)
}

const (
	apologyResponse = "I'm sorry, I couldn't generate a response. Please try again."
	refusalResponse = "I can only provide weather-related information. Please ask about weather conditions."
)

// QueryAnalysis is the model's reading of a user query.
type QueryAnalysis struct {
	Intent      llm.Text   `json:"intent"`
	Location    llm.Text   `json:"location"`
	TimeFrame   llm.Text   `json:"time_frame"`
	WeatherType llm.Text   `json:"weather_type"`
	Confidence  llm.Number `json:"confidence"`
}

func DefaultQueryAnalysis() QueryAnalysis {
	return QueryAnalysis{
		Intent:      "unknown",
		TimeFrame:   "current",
		WeatherType: "general",
		Confidence:  0,
	}
}

// WeatherNeeds is what the response has to cover.
type WeatherNeeds struct {
	Location    string
	TimeFrame   string
	WeatherType string
	Intent      string
	Conditions  *weather.Conditions
}

type AssistantOptions struct {
	DefaultCity      string
	AllowedDomains   []string
	MinConfidence    float64
	MaxHistory       int
	MaxResponseChars int
}

// Assistant answers weather questions within fixed boundaries. Every
// generation failure degrades to a fixed default instead of an error.
type Assistant struct {
	Generator llm.Generator
	Prompts   *PromptManager
	Policy    governance.PolicyEngine
	History   HistoryStore
	Weather   weather.Source
	Options   AssistantOptions
	Logger    *observability.Logger
	Metrics   *observability.Metrics

	sanitizer *bluemonday.Policy
}

func NewAssistant(gen llm.Generator, prompts *PromptManager, policy governance.PolicyEngine, history HistoryStore, opts AssistantOptions) *Assistant {
	if opts.MaxHistory <= 0 {
		opts.MaxHistory = 10
	}
	if opts.MaxResponseChars <= 0 {
		opts.MaxResponseChars = 500
	}
	return &Assistant{
		Generator: gen,
		Prompts:   prompts,
		Policy:    policy,
		History:   history,
		Options:   opts,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

func (a *Assistant) Think(ctx context.Context, chatID string, input string) (string, error) {
	defer observability.Track(observability.RoleAssistant, input)()
	query := strings.TrimSpace(input)
	log.Printf("[Assistant] Processing query: %q", query)

	analysis := a.Analyze(ctx, chatID, query)
	if !a.Allowed(ctx, chatID, analysis.Value) {
		return BoundaryResponse(query), nil
	}

	needs := a.Needs(ctx, chatID, analysis.Value)
	response := a.Respond(ctx, chatID, query, needs)
	filtered := a.Filter(ctx, chatID, response.Value)

	if a.History != nil {
		if err := a.History.AddMessage(chatID, store.RoleHuman, query); err != nil {
			log.Printf("[Assistant] Failed to save history: %v", err)
		}
		if err := a.History.AddMessage(chatID, store.RoleAI, filtered); err != nil {
			log.Printf("[Assistant] Failed to save history: %v", err)
		}
	}
	return filtered, nil
}

// Analyze extracts intent, location, time frame and weather type.
func (a *Assistant) Analyze(ctx context.Context, chatID, query string) llm.Result[QueryAnalysis] {
	prompt := fmt.Sprintf(`Analyze this weather-related query and extract the following information:

Query: "%s"

Please provide a JSON response with:
- intent: What the user wants to know about weather
- location: Any specific location mentioned (if any)
- time_frame: When they want weather info (today, tomorrow, weekend, etc.)
- weather_type: What type of weather info (temperature, rain, wind, etc.)
- confidence: How confident you are in the analysis (0-1)

Respond only with valid JSON.`, query)

	raw, err := a.generate(ctx, chatID, "query_analyzer", llm.Request{Prompt: prompt, System: a.Prompts.MustGet(PromptQueryAnalyzer)})
	var out QueryAnalysis
	if err == nil {
		err = llm.ParseJSON(raw, &out)
	}
	if err != nil {
		a.fallback(chatID, "query_analyzer", err)
		return llm.Fallback(DefaultQueryAnalysis(), err)
	}
	out.Confidence = llm.Number(llm.Clamp01(float64(out.Confidence)))
	if strings.TrimSpace(out.Intent.String()) == "" {
		out.Intent = "unknown"
	}
	return llm.Ok(out)
}

// Allowed applies the boundary rules: a known intent, enough confidence,
// and no restricted topic in the intent.
func (a *Assistant) Allowed(ctx context.Context, chatID string, q QueryAnalysis) bool {
	intent := strings.TrimSpace(q.Intent.String())
	if strings.EqualFold(intent, "unknown") {
		return false
	}
	// Written so a NaN confidence is rejected.
	if !(float64(q.Confidence) >= a.Options.MinConfidence) {
		return false
	}
	if a.Policy == nil {
		return true
	}
	res, err := a.Policy.Evaluate(ctx, governance.Request{Kind: governance.KindIntent, Text: intent, ChatID: chatID})
	if err != nil {
		log.Printf("[Assistant] Policy check failed: %v", err)
		return false
	}
	if !res.Allowed() {
		log.Printf("[Assistant] Query rejected: %s", res.Reason)
	}
	return res.Allowed()
}

func (a *Assistant) Needs(ctx context.Context, chatID string, q QueryAnalysis) WeatherNeeds {
	needs := WeatherNeeds{
		Location:    strings.TrimSpace(q.Location.String()),
		TimeFrame:   orDefault(q.TimeFrame.String(), "current"),
		WeatherType: orDefault(q.WeatherType.String(), "general"),
		Intent:      orDefault(q.Intent.String(), "general_weather"),
	}
	if needs.Location == "" {
		needs.Location = a.Options.DefaultCity
	}
	if a.Weather != nil {
		cond, err := a.Weather.Current(ctx, needs.Location)
		if err != nil {
			a.fallback(chatID, "weather", err)
		} else {
			needs.Conditions = cond
		}
	}
	return needs
}

// Respond generates the conversational answer.
func (a *Assistant) Respond(ctx context.Context, chatID, query string, needs WeatherNeeds) llm.Result[string] {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a helpful weather assistant. The user asked: %q\n\n", query)
	b.WriteString("Based on their query, they want:\n")
	fmt.Fprintf(&b, "- Location: %s\n", needs.Location)
	fmt.Fprintf(&b, "- Time frame: %s\n", needs.TimeFrame)
	fmt.Fprintf(&b, "- Weather type: %s\n", needs.WeatherType)
	fmt.Fprintf(&b, "- Intent: %s\n", needs.Intent)
	if len(a.Options.AllowedDomains) > 0 {
		fmt.Fprintf(&b, "- Allowed topics: %s\n", strings.Join(a.Options.AllowedDomains, ", "))
	}
	if c := needs.Conditions; c != nil {
		fmt.Fprintf(&b, "\nCurrent conditions in %s: %g°C (feels like %g°C), %s, humidity %g%%, wind %g m/s\n",
			c.City, c.Temperature, c.FeelsLike, c.Description, c.Humidity, c.WindSpeed)
	}
	if turns := a.recent(chatID); len(turns) > 0 {
		b.WriteString("\nRecent conversation:\n")
		for _, m := range turns {
			fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
		}
	}
	b.WriteString(`
Generate a helpful, contextual response that:
1. Acknowledges their specific question
2. Provides relevant weather information
3. Uses natural, conversational language
4. Stays within weather-related topics only

Keep the response concise and helpful.`)

	raw, err := a.generate(ctx, chatID, "responder", llm.Request{Prompt: b.String(), System: a.Prompts.MustGet(PromptResponder)})
	if err == nil && strings.TrimSpace(raw) == "" {
		err = fmt.Errorf("empty response")
	}
	if err != nil {
		a.fallback(chatID, "responder", err)
		return llm.Fallback(apologyResponse, err)
	}
	return llm.Ok(strings.TrimSpace(raw))
}

// Filter strips markup, refuses responses touching restricted topics and
// truncates long answers.
func (a *Assistant) Filter(ctx context.Context, chatID, response string) string {
	clean := strings.TrimSpace(html.UnescapeString(a.sanitizer.Sanitize(response)))

	if a.Policy != nil {
		res, err := a.Policy.Evaluate(ctx, governance.Request{Kind: governance.KindResponse, Text: clean, ChatID: chatID})
		if err != nil || !res.Allowed() {
			return refusalResponse
		}
	}

	if r := []rune(clean); len(r) > a.Options.MaxResponseChars {
		clean = string(r[:a.Options.MaxResponseChars]) + "..."
	}
	return clean
}

// BoundaryResponse is returned for queries outside the weather domain.
func BoundaryResponse(query string) string {
	return fmt.Sprintf("I can only help with weather-related questions. Your query '%s' seems to be outside my area of expertise. Please ask about weather conditions, temperatures, or weather forecasts.", query)
}

func (a *Assistant) recent(chatID string) []store.Message {
	if a.History == nil {
		return nil
	}
	// Each turn is stored as a human and an ai message.
	msgs, err := a.History.GetHistory(chatID, 2*a.Options.MaxHistory)
	if err != nil {
		log.Printf("[Assistant] Failed to load history: %v", err)
		return nil
	}
	return msgs
}

func (a *Assistant) generate(ctx context.Context, chatID, component string, req llm.Request) (string, error) {
	raw, err := a.Generator.Generate(ctx, req)
	a.Metrics.IncGeneration(component, err)
	if err != nil {
		return "", err
	}
	a.Logger.LogLLM(chatID, "", component, req.Prompt, raw)
	return raw, nil
}

func (a *Assistant) fallback(chatID, component string, err error) {
	log.Printf("[Assistant] %s fell back to defaults: %v", component, err)
	a.Logger.LogFallback(chatID, "", component, err.Error())
	a.Metrics.IncFallback(component)
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
