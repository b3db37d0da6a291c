package observability

import (
	"sync"
	"time"
)

// Role names the rung of the ladder that is currently working.
type Role string

const (
	RoleIdle      Role = "IDLE"
	RoleReporter  Role = "REPORTER"
	RoleAssistant Role = "ASSISTANT"
	RolePlanner   Role = "PLANNER"
	RoleSetup     Role = "SETUP"
)

// Status is a snapshot of process activity for the status line.
type Status struct {
	Role      Role
	Task      string
	Heartbeat time.Time
}

var (
	statusMu sync.RWMutex
	current  = Status{Role: RoleIdle, Heartbeat: time.Now()}
)

// SetStatus records the active role and task.
func SetStatus(role Role, task string) {
	statusMu.Lock()
	current.Role, current.Task = role, task
	statusMu.Unlock()
}

// Current returns a copy of the process status.
func Current() Status {
	statusMu.RLock()
	defer statusMu.RUnlock()
	return current
}

// Heartbeat marks the process as alive.
func Heartbeat() {
	statusMu.Lock()
	current.Heartbeat = time.Now()
	statusMu.Unlock()
}

// Track sets role and task until the returned func is called, which puts
// back whatever was active before. A report run from inside a scheduled
// job therefore hands the status back to the job's caller.
func Track(role Role, task string) func() {
	prev := Current()
	SetStatus(role, task)
	Heartbeat()
	return func() {
		SetStatus(prev.Role, prev.Task)
		Heartbeat()
	}
}
