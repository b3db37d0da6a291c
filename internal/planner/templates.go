package planner

import "slices"

const (
	TaskOutdoorActivity = "outdoor_activity"
	TaskTravelPlanning  = "travel_planning"
	TaskDailySchedule   = "daily_schedule"
)

var templates = map[string][]string{
	TaskOutdoorActivity: {
		"Analyze weather conditions",
		"Identify suitable activities",
		"Plan activity timeline",
		"Prepare contingency plans",
		"Finalize activity plan",
	},
	TaskTravelPlanning: {
		"Research destination weather",
		"Plan weather-appropriate activities",
		"Pack appropriate clothing",
		"Plan indoor alternatives",
		"Create flexible itinerary",
	},
	TaskDailySchedule: {
		"Check weather forecast",
		"Optimize outdoor activities",
		"Schedule indoor alternatives",
		"Plan weather-dependent tasks",
		"Create flexible schedule",
	},
}

// Template returns a copy of the step list for taskType, falling back to
// the outdoor activity template for unknown types.
func Template(taskType string) []string {
	steps, ok := templates[taskType]
	if !ok {
		steps = templates[TaskOutdoorActivity]
	}
	return slices.Clone(steps)
}

// TaskTypes lists the task types that have their own template.
func TaskTypes() []string {
	return []string{TaskOutdoorActivity, TaskTravelPlanning, TaskDailySchedule}
}
