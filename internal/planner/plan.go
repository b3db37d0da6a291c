// Package planner implements the bounded plan refinement loop: a task is
// analysed once, turned into a plan from a fixed step template, and then
// refined for at most a fixed number of reason/act cycles.
package planner

import (
	"maps"
	"slices"
	"time"

	"github.com/rahul/agentladder/internal/llm"
	"github.com/rahul/agentladder/internal/weather"
)

type Status string

const (
	StatusPlanning  Status = "planning"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

const (
	ActionExecuteStep  = "execute_step"
	ActionFinalizePlan = "finalize_plan"
)

// Plan tracks one planning session's steps, gathered conditions and
// confidence. Steps is fixed when the plan is built; CurrentStep only
// moves forward; Confidence stays within [0,1].
type Plan struct {
	TaskType          string            `json:"task_type"`
	Status            Status            `json:"status"`
	Steps             []string          `json:"steps"`
	CurrentStep       int               `json:"current_step"`
	CompletedSteps    []CompletedStep   `json:"completed_steps"`
	WeatherConditions map[string]string `json:"weather_conditions"`
	Activities        []string          `json:"activities"`
	ContingencyPlans  []string          `json:"contingency_plans"`
	Confidence        float64           `json:"confidence"`
	CreatedAt         time.Time         `json:"created_at"`
	CompletedAt       *time.Time        `json:"completed_at,omitempty"`
	Summary           string            `json:"summary,omitempty"`
}

type CompletedStep struct {
	Step        string     `json:"step"`
	StepIndex   int        `json:"step_index"`
	Result      StepResult `json:"result"`
	CompletedAt time.Time  `json:"completed_at"`
}

// StepResult is what a step handler reports back. Only the fields relevant
// to the handler kind are set.
type StepResult struct {
	Success       bool                `json:"success"`
	Message       string              `json:"message,omitempty"`
	Error         string              `json:"error,omitempty"`
	Weather       *weather.Conditions `json:"weather_data,omitempty"`
	Analysis      map[string]string   `json:"analysis,omitempty"`
	Activities    []string            `json:"activities,omitempty"`
	WeatherBased  bool                `json:"weather_based,omitempty"`
	Contingencies []string            `json:"contingency_plans,omitempty"`
}

// ActionResult is the outcome of one iteration's action.
type ActionResult struct {
	Action    string     `json:"action"`
	Step      string     `json:"step,omitempty"`
	StepIndex int        `json:"step_index"`
	Success   bool       `json:"success"`
	Result    StepResult `json:"result"`
}

// HistoryEntry is one append-only audit record per iteration.
type HistoryEntry struct {
	Iteration int          `json:"iteration"`
	Reasoning Reasoning    `json:"reasoning"`
	Action    ActionResult `json:"action_result"`
	Plan      *Plan        `json:"plan_state"`
	Timestamp time.Time    `json:"timestamp"`
}

// Analysis is the structured reading of a free-text task.
type Analysis struct {
	TaskType            string     `json:"task_type"`
	WeatherRequirements llm.Text   `json:"weather_requirements"`
	TimeHorizon         llm.Text   `json:"time_horizon"`
	Location            llm.Text   `json:"location"`
	Constraints         llm.Text   `json:"constraints"`
	SuccessCriteria     llm.Text   `json:"success_criteria"`
	Confidence          llm.Number `json:"confidence"`
}

// Reasoning is the per-iteration assessment of the plan state. It is
// recorded in history and does not steer the action choice.
type Reasoning struct {
	CurrentStatus    llm.Text   `json:"current_status"`
	IssuesIdentified llm.List   `json:"issues_identified"`
	NextPriorities   llm.List   `json:"next_priorities"`
	Reasoning        llm.Text   `json:"reasoning"`
	Confidence       llm.Number `json:"confidence"`
}

// Degradation records a generation call whose result was replaced by a
// default.
type Degradation struct {
	Component string `json:"component"`
	Iteration int    `json:"iteration"`
	Reason    string `json:"reason"`
}

// Session is everything one Run produced.
type Session struct {
	ID         string         `json:"id"`
	Task       string         `json:"task"`
	Analysis   Analysis       `json:"analysis"`
	Plan       *Plan          `json:"plan"`
	History    []HistoryEntry `json:"history"`
	Degraded   []Degradation  `json:"degraded,omitempty"`
	Iterations int            `json:"iterations"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

// Success reports whether the session ended with a completed plan.
func (s *Session) Success() bool {
	return s.Plan != nil && s.Plan.Status == StatusCompleted
}

// NextStep returns the first unfinished step.
func (p *Plan) NextStep() (string, int, bool) {
	if p.CurrentStep >= len(p.Steps) {
		return "", p.CurrentStep, false
	}
	return p.Steps[p.CurrentStep], p.CurrentStep, true
}

// IsComplete reports the early-exit condition: every step done, confidence
// at or above threshold, and conditions, activities and contingencies all
// gathered.
func (p *Plan) IsComplete(threshold float64) bool {
	return p.CurrentStep >= len(p.Steps) &&
		p.Confidence >= threshold &&
		len(p.WeatherConditions) > 0 &&
		len(p.Activities) > 0 &&
		len(p.ContingencyPlans) > 0
}

func (p *Plan) adjustConfidence(delta float64) {
	p.Confidence = llm.Clamp01(p.Confidence + delta)
}

// Clone returns a deep copy safe to keep as a history snapshot.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	c := *p
	c.Steps = slices.Clone(p.Steps)
	c.WeatherConditions = maps.Clone(p.WeatherConditions)
	c.Activities = slices.Clone(p.Activities)
	c.ContingencyPlans = slices.Clone(p.ContingencyPlans)
	if p.CompletedAt != nil {
		t := *p.CompletedAt
		c.CompletedAt = &t
	}
	if p.CompletedSteps != nil {
		c.CompletedSteps = make([]CompletedStep, len(p.CompletedSteps))
		for i, s := range p.CompletedSteps {
			s.Result = s.Result.clone()
			c.CompletedSteps[i] = s
		}
	}
	return &c
}

func (r StepResult) clone() StepResult {
	c := r
	if r.Weather != nil {
		w := *r.Weather
		w.Forecast = slices.Clone(r.Weather.Forecast)
		c.Weather = &w
	}
	c.Analysis = maps.Clone(r.Analysis)
	c.Activities = slices.Clone(r.Activities)
	c.Contingencies = slices.Clone(r.Contingencies)
	return c
}
