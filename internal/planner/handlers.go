package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/rahul/agentladder/internal/weather"
)

const (
	KindWeather     = "weather"
	KindActivity    = "activity"
	KindContingency = "contingency"
	KindGeneral     = "general"
)

// StepHandler executes one kind of plan step. Handlers read the plan but
// never mutate it; the engine folds the result back in.
type StepHandler interface {
	Kind() string
	Execute(ctx context.Context, step string, plan *Plan, analysis Analysis) StepResult
}

// Registry manages the step handlers by kind.
type Registry struct {
	Handlers map[string]StepHandler
}

func NewRegistry() *Registry {
	return &Registry{
		Handlers: make(map[string]StepHandler),
	}
}

// DefaultRegistry wires the four built-in handlers. src provides the
// conditions for weather steps.
func DefaultRegistry(src weather.Source, defaultCity, windUnit string) *Registry {
	r := NewRegistry()
	r.Register(&WeatherStep{Source: src, DefaultCity: defaultCity, WindUnit: windUnit})
	r.Register(ActivityStep{})
	r.Register(ContingencyStep{})
	r.Register(GeneralStep{})
	return r
}

func (r *Registry) Register(h StepHandler) {
	r.Handlers[h.Kind()] = h
}

func (r *Registry) Get(kind string) StepHandler {
	return r.Handlers[kind]
}

// Dispatch picks the handler for a step name by case-insensitive
// substring, checked in the order weather, activity, contingency.
func (r *Registry) Dispatch(step string) StepHandler {
	name := strings.ToLower(step)
	for _, kind := range []string{KindWeather, KindActivity, KindContingency} {
		if strings.Contains(name, kind) {
			if h := r.Get(kind); h != nil {
				return h
			}
		}
	}
	return r.Get(KindGeneral)
}

type WeatherStep struct {
	Source      weather.Source
	DefaultCity string
	WindUnit    string
}

func (WeatherStep) Kind() string { return KindWeather }

func (h *WeatherStep) Execute(ctx context.Context, step string, plan *Plan, analysis Analysis) StepResult {
	location := strings.TrimSpace(analysis.Location.String())
	if location == "" {
		location = h.DefaultCity
	}
	cond, err := h.Source.Current(ctx, location)
	if err != nil {
		return StepResult{
			Success: false,
			Message: "Weather data unavailable",
			Error:   err.Error(),
		}
	}
	return StepResult{
		Success:  true,
		Message:  "Weather conditions analyzed successfully",
		Weather:  cond,
		Analysis: AnalyzeConditions(cond, h.WindUnit),
	}
}

// AnalyzeConditions reduces raw conditions to the planning summary stored
// on the plan.
func AnalyzeConditions(c *weather.Conditions, windUnit string) map[string]string {
	if windUnit == "" {
		windUnit = "km/h"
	}
	overall := c.Description
	if overall == "" {
		overall = "unknown"
	}
	recommendation := "consider_indoor_alternatives"
	if c.Temperature > 15 {
		recommendation = "suitable_for_outdoor_activities"
	}
	return map[string]string{
		"overall_condition":       overall,
		"temperature_range":       fmt.Sprintf("%g°C", c.Temperature),
		"humidity":                fmt.Sprintf("%g%%", c.Humidity),
		"wind_conditions":         fmt.Sprintf("%g %s", c.WindSpeed, windUnit),
		"planning_recommendation": recommendation,
	}
}

type ActivityStep struct{}

func (ActivityStep) Kind() string { return KindActivity }

func (ActivityStep) Execute(ctx context.Context, step string, plan *Plan, analysis Analysis) StepResult {
	activities := []string{"indoor_museum", "cooking", "reading", "indoor_exercise"}
	if strings.Contains(plan.WeatherConditions["planning_recommendation"], "outdoor") {
		activities = []string{"hiking", "picnic", "outdoor_photography", "gardening"}
	}
	return StepResult{
		Success:      true,
		Message:      "Activities planned successfully",
		Activities:   activities,
		WeatherBased: len(plan.WeatherConditions) > 0,
	}
}

type ContingencyStep struct{}

func (ContingencyStep) Kind() string { return KindContingency }

func (ContingencyStep) Execute(ctx context.Context, step string, plan *Plan, analysis Analysis) StepResult {
	return StepResult{
		Success: true,
		Message: "Contingency plans created successfully",
		Contingencies: []string{
			"Indoor alternative activities",
			"Weather-appropriate clothing recommendations",
			"Flexible timing for outdoor activities",
			"Emergency weather response plan",
		},
	}
}

type GeneralStep struct{}

func (GeneralStep) Kind() string { return KindGeneral }

func (GeneralStep) Execute(ctx context.Context, step string, plan *Plan, analysis Analysis) StepResult {
	return StepResult{
		Success: true,
		Message: fmt.Sprintf("Step '%s' completed successfully", step),
	}
}
