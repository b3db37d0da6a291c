package observability

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType defines the category of the log event.
type EventType string

const (
	EventTypeAnalysis  EventType = "analysis"
	EventTypeReasoning EventType = "reasoning"
	EventTypeAction    EventType = "action"
	EventTypeStep      EventType = "step"
	EventTypeFallback  EventType = "fallback"
	EventTypeLLM       EventType = "llm"
	EventTypeReport    EventType = "report"
	EventTypeHeartbeat EventType = "heartbeat"
)

// Event represents a structured log entry.
type Event struct {
	Type      EventType `json:"type"`
	ChatID    string    `json:"chat_id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Logger appends structured events to a JSONL file and, when an echo
// writer is set, mirrors each line there. A nil *Logger discards events.
type Logger struct {
	path    string
	maxSize int64
	echo    io.Writer
	mu      sync.Mutex
}

func NewLogger(dir string) *Logger {
	if dir == "" {
		dir = "logs"
	}
	return &Logger{
		path:    filepath.Join(dir, "events.jsonl"),
		maxSize: 10 * 1024 * 1024, // 10MB
	}
}

// SetEcho mirrors every event line to w (verbose mode).
func (l *Logger) SetEcho(w io.Writer) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.echo = w
	l.mu.Unlock()
}

// Path returns the JSONL file events are written to.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

func (l *Logger) Log(evt Event) {
	if l == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		log.Printf("failed to marshal %s event: %v", evt.Type, err)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.echo != nil {
		fmt.Fprintln(l.echo, string(data))
	}
	l.writeToFile(data)
}

func (l *Logger) writeToFile(data []byte) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		log.Printf("failed to create log directory: %v", err)
		return
	}

	info, err := os.Stat(l.path)
	if err == nil && info.Size() > l.maxSize {
		l.rotateLogs()
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("failed to open log file: %v", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		log.Printf("failed to write to log file: %v", err)
	}
}

// Keeps one .old file.
func (l *Logger) rotateLogs() {
	oldPath := l.path + ".old"
	_ = os.Remove(oldPath)
	_ = os.Rename(l.path, oldPath)
}

// Helper methods for common events

func (l *Logger) LogAnalysis(sessionID string, analysis any, degraded bool) {
	l.Log(Event{
		Type:      EventTypeAnalysis,
		SessionID: sessionID,
		Data: map[string]any{
			"analysis": analysis,
			"degraded": degraded,
		},
	})
}

func (l *Logger) LogReasoning(sessionID string, iteration int, reasoning any) {
	l.Log(Event{
		Type:      EventTypeReasoning,
		SessionID: sessionID,
		Data: map[string]any{
			"iteration": iteration,
			"reasoning": reasoning,
		},
	})
}

func (l *Logger) LogAction(sessionID string, iteration int, action string, success bool) {
	l.Log(Event{
		Type:      EventTypeAction,
		SessionID: sessionID,
		Data: map[string]any{
			"iteration": iteration,
			"action":    action,
			"success":   success,
		},
	})
}

func (l *Logger) LogStep(sessionID, step string, index int, result any) {
	l.Log(Event{
		Type:      EventTypeStep,
		SessionID: sessionID,
		Data: map[string]any{
			"step":       step,
			"step_index": index,
			"result":     result,
		},
	})
}

// LogFallback records a default value substituted for a failed call.
func (l *Logger) LogFallback(chatID, sessionID, component, reason string) {
	l.Log(Event{
		Type:      EventTypeFallback,
		ChatID:    chatID,
		SessionID: sessionID,
		Data: map[string]string{
			"component": component,
			"reason":    reason,
		},
	})
}

func (l *Logger) LogLLM(chatID, sessionID, component, prompt, response string) {
	l.Log(Event{
		Type:      EventTypeLLM,
		ChatID:    chatID,
		SessionID: sessionID,
		Data: map[string]string{
			"component": component,
			"prompt":    prompt,
			"response":  response,
		},
	})
}

func (l *Logger) LogReport(kind, path string) {
	l.Log(Event{
		Type: EventTypeReport,
		Data: map[string]string{"kind": kind, "path": path},
	})
}

func (l *Logger) LogHeartbeat() {
	l.Log(Event{
		Type: EventTypeHeartbeat,
		Data: map[string]string{"status": "alive"},
	})
}
