package health

import (
	"context"
	"time"
)

type ComponentStatus struct {
	Name      string    `json:"name"`
	Ready     bool      `json:"ready"`
	StartedAt time.Time `json:"started_at"`
	ReadyAt   time.Time `json:"ready_at,omitzero"`
}

type ReadinessStatus struct {
	Ready      bool              `json:"ready"`
	Components []ComponentStatus `json:"components"`
	ReadyAt    time.Time         `json:"ready_at,omitzero"`
}

// ComponentManager registers components that must start before work begins.
type ComponentManager interface {
	// AddComponent registers name and returns the function that marks it ready.
	AddComponent(name string) func()
}

// ReadinessChecker reports readiness.
type ReadinessChecker interface {
	IsReady() bool
	GetStatus() ReadinessStatus
}

// ReadinessWaiter blocks until every registered component is ready.
type ReadinessWaiter interface {
	WaitReady(ctx context.Context) error
}
