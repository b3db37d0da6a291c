package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahul/agentladder/internal/llm"
	"github.com/rahul/agentladder/internal/weather"
)

const weekendTask = "Plan a weekend outdoor activity based on weather conditions"

// scripted answers analysis and reasoning prompts and counts calls.
type scripted struct {
	analysis string
	calls    int
}

func (s *scripted) Generate(ctx context.Context, req llm.Request) (string, error) {
	s.calls++
	if req.System == AnalystSystemPrompt {
		return s.analysis, nil
	}
	return "Here is my take:\n```json\n{\"current_status\": \"on track\", \"issues_identified\": \"none\", \"next_priorities\": [\"next step\"], \"reasoning\": \"fine\", \"confidence\": 0.8}\n```", nil
}

var down = llm.GeneratorFunc(func(ctx context.Context, req llm.Request) (string, error) {
	return "", errors.New("connection refused")
})

type failingSource struct{}

func (failingSource) Current(ctx context.Context, city string) (*weather.Conditions, error) {
	return nil, errors.New("API request failed with status 401")
}

type failingGeneral struct{}

func (failingGeneral) Kind() string { return KindGeneral }

func (failingGeneral) Execute(ctx context.Context, step string, plan *Plan, analysis Analysis) StepResult {
	return StepResult{Success: false, Message: "could not complete " + step}
}

func newEngine(gen llm.Generator, maxIter int, reg *Registry) *Engine {
	if reg == nil {
		reg = DefaultRegistry(weather.Mock{}, "London", "")
	}
	return NewEngine(Config{MaxIterations: maxIter, ConfidenceThreshold: 0.7, DefaultCity: "London"}, gen, reg, nil, nil)
}

func TestAnalyzerFallbackIsDeterministic(t *testing.T) {
	a := NewAnalyzer(down, "", "London")
	for i := 0; i < 3; i++ {
		res := a.Analyze(context.Background(), "s", weekendTask)
		require.True(t, res.IsFallback())
		assert.Equal(t, DefaultAnalysis("London"), res.Value)
		assert.ErrorContains(t, res.Reason, "connection refused")
	}
}

func TestAnalyzerValidates(t *testing.T) {
	gen := &scripted{analysis: `{"task_type": "Travel Planning", "confidence": 1.4, "location": null, "time_horizon": 2}`}
	res := NewAnalyzer(gen, "", "Paris").Analyze(context.Background(), "s", "trip")
	require.False(t, res.IsFallback())
	assert.Equal(t, TaskTravelPlanning, res.Value.TaskType)
	assert.Equal(t, llm.Number(1), res.Value.Confidence)
	assert.Equal(t, llm.Text("Paris"), res.Value.Location)
	assert.Equal(t, llm.Text("2"), res.Value.TimeHorizon)

	missing := &scripted{analysis: `{"confidence": 0.9}`}
	res = NewAnalyzer(missing, "", "Paris").Analyze(context.Background(), "s", "trip")
	assert.True(t, res.IsFallback())
	assert.ErrorIs(t, res.Reason, errMissingTaskType)

	prose := &scripted{analysis: "I think this is an outdoor activity."}
	res = NewAnalyzer(prose, "", "Paris").Analyze(context.Background(), "s", "trip")
	assert.True(t, res.IsFallback())
	assert.ErrorIs(t, res.Reason, llm.ErrNoJSON)
}

func TestWeekendTaskCompletesFiveSteps(t *testing.T) {
	e := newEngine(down, 5, nil)
	s := e.Run(context.Background(), weekendTask)

	assert.Equal(t, StatusCompleted, s.Plan.Status)
	assert.Len(t, s.Plan.CompletedSteps, 5)
	assert.Equal(t, 5, s.Plan.CurrentStep)
	assert.Equal(t, "general_weather_planning", s.Plan.TaskType)
	assert.Equal(t, Template(TaskOutdoorActivity), s.Plan.Steps)
	assert.InDelta(t, 1.0, s.Plan.Confidence, 1e-9)
	assert.NotNil(t, s.Plan.CompletedAt)
	assert.Contains(t, s.Plan.Summary, "Steps Completed: 5")

	// Analyzer plus one reasoning call per iteration, all degraded.
	require.Len(t, s.Degraded, 6)
	assert.Equal(t, "analyzer", s.Degraded[0].Component)
	assert.Equal(t, "reasoning", s.Degraded[5].Component)
	assert.Equal(t, 5, s.Degraded[5].Iteration)
}

func TestEarlyExitWhenComplete(t *testing.T) {
	gen := &scripted{analysis: `{"task_type": "outdoor_activity", "location": "Leeds", "confidence": 0.6}`}
	e := newEngine(gen, 10, nil)
	s := e.Run(context.Background(), weekendTask)

	assert.Equal(t, 5, s.Iterations)
	assert.Len(t, s.History, 5)
	assert.Equal(t, 6, gen.calls)
	assert.Equal(t, StatusCompleted, s.Plan.Status)
	assert.True(t, s.Success())
	assert.Empty(t, s.Degraded)
	assert.Equal(t, "suitable_for_outdoor_activities", s.Plan.WeatherConditions["planning_recommendation"])
	assert.Equal(t, []string{"hiking", "picnic", "outdoor_photography", "gardening"}, s.Plan.Activities)
	assert.Len(t, s.Plan.ContingencyPlans, 4)
	assert.Equal(t, "Leeds", s.Plan.CompletedSteps[0].Result.Weather.City)
}

func TestIterationBound(t *testing.T) {
	for _, n := range []int{1, 2, 3} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			gen := &scripted{analysis: `{"task_type": "daily_schedule", "confidence": 0.1}`}
			s := newEngine(gen, n, nil).Run(context.Background(), "Optimize my daily schedule")

			assert.Equal(t, n, s.Iterations)
			assert.Len(t, s.History, n)
			assert.LessOrEqual(t, gen.calls, n+1)
			assert.Equal(t, n, s.Plan.CurrentStep)
			assert.Equal(t, StatusCompleted, s.Plan.Status)
			assert.NotEmpty(t, s.Plan.Summary)
		})
	}
}

func TestConfidenceStaysClamped(t *testing.T) {
	reg := DefaultRegistry(failingSource{}, "London", "")
	reg.Register(failingGeneral{})
	gen := &scripted{analysis: `{"task_type": "travel_planning", "confidence": 0.05}`}
	s := newEngine(gen, 5, reg).Run(context.Background(), "Create a travel itinerary")

	for _, h := range s.History {
		assert.GreaterOrEqual(t, h.Plan.Confidence, 0.0)
		assert.LessOrEqual(t, h.Plan.Confidence, 1.0)
	}

	high := &scripted{analysis: `{"task_type": "outdoor_activity", "confidence": 0.95}`}
	s = newEngine(high, 5, nil).Run(context.Background(), weekendTask)
	for _, h := range s.History {
		assert.LessOrEqual(t, h.Plan.Confidence, 1.0)
	}
	assert.Equal(t, 1.0, s.Plan.Confidence)
}

func TestNonFiniteAnalysisConfidenceFallsBack(t *testing.T) {
	gen := &scripted{analysis: `{"task_type": "outdoor_activity", "confidence": "NaN"}`}
	s := newEngine(gen, 5, nil).Run(context.Background(), weekendTask)

	require.Len(t, s.Degraded, 1)
	assert.Equal(t, "analyzer", s.Degraded[0].Component)
	assert.Equal(t, DefaultAnalysis("London"), s.Analysis)
	for _, h := range s.History {
		assert.GreaterOrEqual(t, h.Plan.Confidence, 0.0)
		assert.LessOrEqual(t, h.Plan.Confidence, 1.0)
	}
	assert.True(t, s.Success())
	assert.NotContains(t, s.Plan.Summary, "NaN")

	_, err := json.Marshal(s)
	assert.NoError(t, err)
}

func TestFailedLastActionLeavesPlanFailed(t *testing.T) {
	reg := DefaultRegistry(weather.Mock{}, "London", "")
	reg.Register(failingGeneral{})
	gen := &scripted{analysis: `{"task_type": "travel_planning", "confidence": 0.5}`}
	s := newEngine(gen, 5, reg).Run(context.Background(), "Create a travel itinerary considering weather forecasts")

	// The last travel step is handled by the general handler.
	assert.Equal(t, "Create flexible itinerary", s.Plan.CompletedSteps[4].Step)
	assert.False(t, s.Plan.CompletedSteps[4].Result.Success)
	assert.Equal(t, StatusFailed, s.Plan.Status)
	assert.False(t, s.Success())
	assert.NotNil(t, s.Plan.CompletedAt)
	assert.Contains(t, s.Plan.Summary, "Status: failed")
}

func TestLiveWeatherFailureMarksStepUnsuccessful(t *testing.T) {
	reg := DefaultRegistry(failingSource{}, "London", "m/s")
	gen := &scripted{analysis: `{"task_type": "outdoor_activity", "confidence": 0.5}`}
	s := newEngine(gen, 5, reg).Run(context.Background(), weekendTask)

	first := s.History[0]
	assert.False(t, first.Action.Success)
	assert.Equal(t, StatusFailed, first.Plan.Status)
	assert.InDelta(t, 0.4, first.Plan.Confidence, 1e-9)
	assert.Contains(t, first.Action.Result.Error, "401")

	// Without conditions the activity step picks indoor options and the
	// plan never satisfies the completion check.
	assert.Empty(t, s.Plan.WeatherConditions)
	assert.Equal(t, []string{"indoor_museum", "cooking", "reading", "indoor_exercise"}, s.Plan.Activities)
	assert.Equal(t, 5, s.Iterations)
	assert.Equal(t, StatusCompleted, s.Plan.Status)
}

func TestHistorySnapshotsAreIndependent(t *testing.T) {
	gen := &scripted{analysis: `{"task_type": "outdoor_activity", "confidence": 0.5}`}
	s := newEngine(gen, 5, nil).Run(context.Background(), weekendTask)

	first := s.History[0].Plan
	assert.Equal(t, 1, first.CurrentStep)
	assert.Len(t, first.CompletedSteps, 1)
	assert.Empty(t, first.Activities)
	assert.Nil(t, first.CompletedAt)
	assert.NotSame(t, s.Plan, first)
}

func TestFinalizeActionWhenStepsExhausted(t *testing.T) {
	// Low confidence keeps the plan short of the threshold after every
	// step, so the sixth iteration finalizes.
	gen := &scripted{analysis: `{"task_type": "outdoor_activity", "confidence": 0.0}`}
	s := newEngine(gen, 8, nil).Run(context.Background(), weekendTask)

	require.Len(t, s.History, 6)
	last := s.History[5]
	assert.Equal(t, ActionFinalizePlan, last.Action.Action)
	assert.Equal(t, StatusCompleted, last.Plan.Status)
	assert.Len(t, s.Plan.CompletedSteps, 5)
}

func TestDispatch(t *testing.T) {
	reg := DefaultRegistry(weather.Mock{}, "London", "")
	cases := map[string]string{
		"Analyze Weather conditions":          KindWeather,
		"Plan weather-appropriate activities": KindWeather,
		"Identify suitable ACTIVITY":          KindActivity,
		"Prepare contingency plans":           KindContingency,
		"Pack appropriate clothing":           KindGeneral,
	}
	for step, kind := range cases {
		assert.Equal(t, kind, reg.Dispatch(step).Kind(), step)
	}
}

func TestTemplateFallbackAndCopy(t *testing.T) {
	assert.Equal(t, Template(TaskOutdoorActivity), Template("garden_project"))
	steps := Template(TaskDailySchedule)
	steps[0] = "changed"
	assert.Equal(t, "Check weather forecast", Template(TaskDailySchedule)[0])
}

func TestSnakeCase(t *testing.T) {
	assert.Equal(t, "outdoor_activity", snakeCase(" Outdoor-Activity "))
	assert.Equal(t, "daily_schedule", snakeCase("daily_schedule"))
	assert.Equal(t, "", snakeCase("  "))
}
