package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

type component struct {
	ready     bool
	startedAt time.Time
	readyAt   time.Time
}

type readiness struct {
	mu         sync.RWMutex
	components map[string]*component
	readyChan  chan struct{}
	readyOnce  sync.Once
	readyAt    time.Time
	log        *zap.Logger
	now        func() time.Time
}

func newReadiness(log *zap.Logger) *readiness {
	return &readiness{
		components: make(map[string]*component),
		readyChan:  make(chan struct{}),
		log:        log,
		now:        time.Now,
	}
}

func (r *readiness) AddComponent(name string) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.components[name]; !exists {
		r.components[name] = &component{startedAt: r.now()}
	}
	return func() { r.markReady(name) }
}

func (r *readiness) markReady(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	comp, ok := r.components[name]
	if !ok || comp.ready {
		return
	}
	comp.ready = true
	comp.readyAt = r.now()
	r.log.Info("component ready", zap.String("component", name), zap.Duration("took", comp.readyAt.Sub(comp.startedAt)))

	for _, c := range r.components {
		if !c.ready {
			return
		}
	}
	r.closeReadyLocked()
}

// sealIfEmpty marks the service ready when no component registered.
func (r *readiness) sealIfEmpty() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.components) == 0 {
		r.closeReadyLocked()
	}
}

func (r *readiness) closeReadyLocked() {
	r.readyOnce.Do(func() {
		r.readyAt = r.now()
		close(r.readyChan)
		r.log.Info("all components are ready", zap.Int("component_count", len(r.components)))
	})
}

func (r *readiness) IsReady() bool {
	select {
	case <-r.readyChan:
		return true
	default:
		return false
	}
}

func (r *readiness) GetStatus() ReadinessStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status := ReadinessStatus{
		Ready:      r.IsReady(),
		Components: make([]ComponentStatus, 0, len(r.components)),
		ReadyAt:    r.readyAt,
	}
	for name, c := range r.components {
		status.Components = append(status.Components, ComponentStatus{
			Name:      name,
			Ready:     c.ready,
			StartedAt: c.startedAt,
			ReadyAt:   c.readyAt,
		})
	}
	sort.Slice(status.Components, func(i, j int) bool {
		return status.Components[i].Name < status.Components[j].Name
	})
	return status
}

func (r *readiness) WaitReady(ctx context.Context) error {
	select {
	case <-r.readyChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
