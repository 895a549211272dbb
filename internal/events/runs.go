package events

import (
	"sync"
	"time"

	"github.com/newthinker/folio/internal/core"
)

// RunStatus is the state of one event's handling.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Run tracks the functions started for one event.
type Run struct {
	ID        string    `json:"id"`
	Event     string    `json:"event"`
	Status    RunStatus `json:"status"`
	Functions []string  `json:"functions"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Runs keeps the most recent runs in memory, evicting the oldest beyond
// maxSize.
type Runs struct {
	runs    map[string]*Run
	order   []string // insertion order for eviction
	maxSize int
	mu      sync.RWMutex
	now     func() time.Time
}

// DefaultMaxRuns bounds Runs when no size is given.
const DefaultMaxRuns = 1000

// NewRuns creates a run store.
func NewRuns(maxSize int) *Runs {
	if maxSize <= 0 {
		maxSize = DefaultMaxRuns
	}
	return &Runs{
		runs:    make(map[string]*Run),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		now:     time.Now,
	}
}

func (s *Runs) create(evt Event, fns []Function) {
	ids := make([]string, len(fns))
	for i, fn := range fns {
		ids[i] = fn.ID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	if _, exists := s.runs[evt.ID]; !exists {
		if len(s.order) >= s.maxSize {
			delete(s.runs, s.order[0])
			s.order = s.order[1:]
		}
		s.order = append(s.order, evt.ID)
	}
	s.runs[evt.ID] = &Run{
		ID:        evt.ID,
		Event:     evt.Name,
		Status:    RunPending,
		Functions: ids,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Runs) update(id string, fn func(*Run)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[id]
	if !ok {
		return // evicted
	}
	fn(run)
	run.UpdatedAt = s.now().UTC()
}

func (s *Runs) finish(id string, err error) {
	s.update(id, func(r *Run) {
		if err != nil {
			r.Status = RunFailed
			r.Error = err.Error()
			return
		}
		r.Status = RunCompleted
	})
}

// Get returns a copy of the run for an event id.
func (s *Runs) Get(id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, core.ErrRunNotFound
	}
	cp := *run
	cp.Functions = append([]string(nil), run.Functions...)
	return &cp, nil
}

// List returns all tracked runs, oldest first.
func (s *Runs) List() []Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Run, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, *s.runs[id])
	}
	return result
}
