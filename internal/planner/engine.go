package planner

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/rahul/agentladder/internal/llm"
	"github.com/rahul/agentladder/internal/observability"
)

type Config struct {
	MaxIterations       int
	ConfidenceThreshold float64
	DefaultCity         string
	AnalystPrompt       string
	ReasoningPrompt     string
}

// Engine runs planning sessions. It holds no per-session state, so one
// Engine can run several tasks one after another.
type Engine struct {
	Config   Config
	Analyzer *Analyzer
	Reasoner *Reasoner
	Handlers *Registry
	Logger   *observability.Logger
	Metrics  *observability.Metrics
	Now      func() time.Time
}

func NewEngine(cfg Config, gen llm.Generator, handlers *Registry, logger *observability.Logger, metrics *observability.Metrics) *Engine {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 5
	}
	if cfg.ConfidenceThreshold == 0 {
		cfg.ConfidenceThreshold = 0.7
	}
	analyzer := NewAnalyzer(gen, cfg.AnalystPrompt, cfg.DefaultCity)
	analyzer.Logger, analyzer.Metrics = logger, metrics
	reasoner := NewReasoner(gen, cfg.ReasoningPrompt)
	reasoner.Logger, reasoner.Metrics = logger, metrics

	return &Engine{
		Config:   cfg,
		Analyzer: analyzer,
		Reasoner: reasoner,
		Handlers: handlers,
		Logger:   logger,
		Metrics:  metrics,
		Now:      time.Now,
	}
}

// Build creates the initial plan for an analysis.
func Build(analysis Analysis, now time.Time) *Plan {
	return &Plan{
		TaskType:          analysis.TaskType,
		Status:            StatusPlanning,
		Steps:             Template(analysis.TaskType),
		CompletedSteps:    []CompletedStep{},
		WeatherConditions: map[string]string{},
		Activities:        []string{},
		ContingencyPlans:  []string{},
		Confidence:        llm.Clamp01(float64(analysis.Confidence)),
		CreatedAt:         now,
	}
}

// Run plans task. Generation failures never abort the session; they are
// replaced by defaults and listed in Session.Degraded.
func (e *Engine) Run(ctx context.Context, task string) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		Task:      task,
		StartedAt: e.now(),
	}
	log.Printf("[Planner] Session %s: %s", s.ID, task)
	defer observability.Track(observability.RolePlanner, task)()

	analysis := e.Analyzer.Analyze(ctx, s.ID, task)
	if analysis.IsFallback() {
		e.degrade(s, "analyzer", 0, analysis.Reason)
	}
	s.Analysis = analysis.Value
	e.Logger.LogAnalysis(s.ID, s.Analysis, analysis.IsFallback())

	plan := Build(s.Analysis, e.now())
	s.Plan = plan
	log.Printf("[Planner] Initial plan (%s) with %d steps", plan.TaskType, len(plan.Steps))

	for i := 1; i <= e.Config.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			log.Printf("[Planner] Stopping before iteration %d: %v", i, err)
			break
		}
		s.Iterations = i
		e.Metrics.IncIteration()

		reasoning := e.Reasoner.Reason(ctx, s.ID, plan, s.Analysis)
		if reasoning.IsFallback() {
			e.degrade(s, "reasoning", i, reasoning.Reason)
		}
		e.Logger.LogReasoning(s.ID, i, reasoning.Value)

		result := e.act(ctx, s, plan)
		e.apply(plan, result)
		log.Printf("[Planner] Iteration %d/%d: %s %q success=%t confidence=%.2f",
			i, e.Config.MaxIterations, result.Action, result.Step, result.Success, plan.Confidence)
		e.Logger.LogAction(s.ID, i, result.Action, result.Success)

		s.History = append(s.History, HistoryEntry{
			Iteration: i,
			Reasoning: reasoning.Value,
			Action:    result,
			Plan:      plan.Clone(),
			Timestamp: e.now(),
		})

		if plan.Status == StatusCompleted || plan.IsComplete(e.Config.ConfidenceThreshold) {
			break
		}
	}

	e.finalize(plan)
	s.FinishedAt = e.now()
	e.Metrics.IncPlan(string(plan.Status))
	log.Printf("[Planner] Session %s finished: %s after %d iterations", s.ID, plan.Status, s.Iterations)
	return s
}

// act executes the next unfinished step, or finalizes the plan when none
// remain.
func (e *Engine) act(ctx context.Context, s *Session, plan *Plan) ActionResult {
	step, index, ok := plan.NextStep()
	if !ok {
		e.markCompleted(plan)
		return ActionResult{
			Action:    ActionFinalizePlan,
			StepIndex: index,
			Success:   true,
			Result:    StepResult{Success: true, Message: "Plan finalized"},
		}
	}

	handler := e.Handlers.Dispatch(step)
	var res StepResult
	if handler == nil {
		res = StepResult{Success: false, Message: "No handler for step", Error: step}
	} else {
		res = handler.Execute(ctx, step, plan, s.Analysis)
	}
	e.Logger.LogStep(s.ID, step, index, res)

	plan.CompletedSteps = append(plan.CompletedSteps, CompletedStep{
		Step:        step,
		StepIndex:   index,
		Result:      res,
		CompletedAt: e.now(),
	})
	plan.CurrentStep = index + 1

	return ActionResult{
		Action:    ActionExecuteStep,
		Step:      step,
		StepIndex: index,
		Success:   res.Success,
		Result:    res,
	}
}

// apply folds an action result into the plan's gathered data, status and
// confidence.
func (e *Engine) apply(plan *Plan, r ActionResult) {
	if r.Result.Analysis != nil {
		plan.WeatherConditions = r.Result.Analysis
	}
	if r.Result.Activities != nil {
		plan.Activities = r.Result.Activities
	}
	if r.Result.Contingencies != nil {
		plan.ContingencyPlans = r.Result.Contingencies
	}

	if r.Success {
		plan.adjustConfidence(0.1)
		if plan.Status != StatusCompleted {
			plan.Status = StatusPlanning
		}
	} else {
		plan.adjustConfidence(-0.1)
		plan.Status = StatusFailed
	}
}

func (e *Engine) markCompleted(plan *Plan) {
	plan.Status = StatusCompleted
	if plan.CompletedAt == nil {
		t := e.now()
		plan.CompletedAt = &t
	}
}

// finalize closes the plan after the loop: it is completed unless the last
// action failed, and always gets a completion time and summary.
func (e *Engine) finalize(plan *Plan) {
	if plan.Status == StatusFailed {
		if plan.CompletedAt == nil {
			t := e.now()
			plan.CompletedAt = &t
		}
	} else {
		e.markCompleted(plan)
	}
	plan.Summary = Summary(plan)
}

func (e *Engine) degrade(s *Session, component string, iteration int, reason error) {
	msg := "unspecified failure"
	if reason != nil {
		msg = reason.Error()
	}
	s.Degraded = append(s.Degraded, Degradation{Component: component, Iteration: iteration, Reason: msg})
	e.Logger.LogFallback("", s.ID, component, msg)
	e.Metrics.IncFallback(component)
	log.Printf("[Planner] %s fell back to defaults: %s", component, msg)
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}
