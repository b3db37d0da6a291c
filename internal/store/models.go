package store

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	RoleHuman = "human"
	RoleAI    = "ai"
)

// Message is one assistant conversation turn.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// PlanRecord is a finished planning session as archived in the plans
// table.
type PlanRecord struct {
	ID         string          `json:"id"`
	Task       string          `json:"task"`
	Status     string          `json:"status"`
	Confidence float64         `json:"confidence"`
	Plan       json.RawMessage `json:"plan"`
	History    json.RawMessage `json:"history"`
	CreatedAt  time.Time       `json:"created_at"`
}

// NewPlanRecord encodes plan and history for archiving.
func NewPlanRecord(id, task, status string, confidence float64, plan, history any) (PlanRecord, error) {
	p, err := json.Marshal(plan)
	if err != nil {
		return PlanRecord{}, fmt.Errorf("encode plan: %w", err)
	}
	h, err := json.Marshal(history)
	if err != nil {
		return PlanRecord{}, fmt.Errorf("encode history: %w", err)
	}
	return PlanRecord{
		ID:         id,
		Task:       task,
		Status:     status,
		Confidence: confidence,
		Plan:       p,
		History:    h,
		CreatedAt:  time.Now(),
	}, nil
}
