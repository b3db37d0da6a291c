package agent

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/rahul/agentladder/internal/observability"
)

// Messenger delivers scheduler output to a chat.
type Messenger interface {
	Send(chatID string, text string) error
}

// Job is one repeatable unit of fixed automation.
type Job interface {
	Name() string
	Run(ctx context.Context) (string, error)
}

// Scheduler runs Job immediately and then every Interval until the context
// is cancelled. A failed run is logged and does not stop the schedule.
type Scheduler struct {
	Job      Job
	Interval time.Duration
	Gateway  Messenger
	ChatID   string
	Logger   *observability.Logger
}

func NewScheduler(job Job, interval time.Duration, gateway Messenger, chatID string) *Scheduler {
	return &Scheduler{
		Job:      job,
		Interval: interval,
		Gateway:  gateway,
		ChatID:   chatID,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	if s.Interval <= 0 {
		s.Interval = time.Hour
	}
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	log.Printf("Scheduler started: %s every %v", s.Job.Name(), s.Interval)
	s.execute(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Printf("Scheduler stopped: %s", s.Job.Name())
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			s.execute(ctx)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context) {
	s.Logger.LogHeartbeat()
	observability.Heartbeat()

	out, err := s.Job.Run(ctx)
	var text string
	if err != nil {
		log.Printf("Error executing scheduled %s job: %v", s.Job.Name(), err)
		text = fmt.Sprintf("⚠️ *Scheduled %s job failed*\n\n%v", s.Job.Name(), err)
	} else {
		text = fmt.Sprintf("⏰ *Scheduled %s job*\n\n%s", s.Job.Name(), out)
	}

	if s.Gateway != nil && s.ChatID != "" {
		if err := s.Gateway.Send(s.ChatID, text); err != nil {
			log.Printf("Error notifying chat %s: %v", s.ChatID, err)
		}
	}
}
