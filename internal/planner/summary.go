package planner

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Summary renders the human-readable plan summary.
func Summary(p *Plan) string {
	completed := "Unknown"
	if p.CompletedAt != nil {
		completed = p.CompletedAt.Format(time.RFC3339)
	}

	var b strings.Builder
	b.WriteString("Weather Planning Summary\n")
	b.WriteString("=======================\n")
	fmt.Fprintf(&b, "Task Type: %s\n", p.TaskType)
	fmt.Fprintf(&b, "Status: %s\n", p.Status)
	fmt.Fprintf(&b, "Confidence: %.1f%%\n", p.Confidence*100)
	fmt.Fprintf(&b, "Steps Completed: %d\n\n", len(p.CompletedSteps))
	fmt.Fprintf(&b, "Weather Conditions: %s\n", formatConditions(p.WeatherConditions))
	fmt.Fprintf(&b, "Planned Activities: %s\n", formatList(p.Activities))
	fmt.Fprintf(&b, "Contingency Plans: %s\n\n", formatList(p.ContingencyPlans))
	fmt.Fprintf(&b, "Plan created at: %s\n", p.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Plan completed at: %s", completed)
	return b.String()
}

func formatConditions(m map[string]string) string {
	if len(m) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + m[k]
	}
	return strings.Join(parts, ", ")
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
