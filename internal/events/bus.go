package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/folio/internal/core"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// HandlerFunc handles one event. Work should be split into step.Run calls.
type HandlerFunc func(ctx context.Context, evt Event, step *Step) error

// Function subscribes a handler to one event name.
type Function struct {
	ID      string
	Event   string
	Handler HandlerFunc
}

// Recorder receives one observation per handled event.
type Recorder interface {
	RecordEvent(event, status string)
}

// Config holds step retry settings and how many runs to remember.
type Config struct {
	StepAttempts int
	StepBackoff  time.Duration
	MaxRuns      int
}

// Bus dispatches events to registered functions.
type Bus struct {
	mu        sync.RWMutex
	functions map[string][]Function
	ids       map[string]struct{}

	cfg      Config
	logger   *zap.Logger
	recorder Recorder
	runs     *Runs
	bg       conc.WaitGroup
}

// NewBus creates an empty bus. logger and rec may be nil.
func NewBus(cfg Config, logger *zap.Logger, rec Recorder) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		functions: make(map[string][]Function),
		ids:       make(map[string]struct{}),
		cfg:       cfg,
		logger:    logger.Named("events"),
		recorder:  rec,
		runs:      NewRuns(cfg.MaxRuns),
	}
}

// Runs returns the run history.
func (b *Bus) Runs() *Runs {
	return b.runs
}

// Register adds a function. Function ids are unique across the bus.
func (b *Bus) Register(fn Function) error {
	if fn.ID == "" || fn.Event == "" || fn.Handler == nil {
		return fmt.Errorf("function requires id, event and handler")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.ids[fn.ID]; exists {
		return fmt.Errorf("function %s already registered", fn.ID)
	}
	b.ids[fn.ID] = struct{}{}
	b.functions[fn.Event] = append(b.functions[fn.Event], fn)
	return nil
}

// Events returns the names that have at least one function.
func (b *Bus) Events() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.functions))
	for name := range b.functions {
		names = append(names, name)
	}
	return names
}

// Send runs every function registered for evt.Name concurrently and waits
// for them. The returned error joins the failures of all functions.
func (b *Bus) Send(ctx context.Context, evt Event) (string, error) {
	evt, fns, err := b.prepare(evt)
	if err != nil {
		return "", err
	}
	return evt.ID, b.dispatch(ctx, evt, fns)
}

// Publish starts the functions for evt in the background and returns the
// event id. Failures are logged. Call Wait to drain.
func (b *Bus) Publish(ctx context.Context, evt Event) (string, error) {
	evt, fns, err := b.prepare(evt)
	if err != nil {
		return "", err
	}

	ctx = context.WithoutCancel(ctx)
	b.bg.Go(func() {
		if err := b.dispatch(ctx, evt, fns); err != nil {
			b.logger.Error("event handling failed",
				zap.String("event", evt.Name),
				zap.String("event_id", evt.ID),
				zap.Error(err),
			)
		}
	})
	return evt.ID, nil
}

// Wait blocks until all published events are handled.
func (b *Bus) Wait() {
	b.bg.Wait()
}

func (b *Bus) prepare(evt Event) (Event, []Function, error) {
	b.mu.RLock()
	fns := append([]Function(nil), b.functions[evt.Name]...)
	b.mu.RUnlock()

	if len(fns) == 0 {
		return evt, nil, core.WrapError(core.ErrUnknownEvent, fmt.Errorf("event %q", evt.Name))
	}
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	if evt.Data == nil {
		evt.Data = map[string]any{}
	}
	b.runs.create(evt, fns)
	return evt, fns, nil
}

func (b *Bus) dispatch(ctx context.Context, evt Event, fns []Function) error {
	b.logger.Debug("dispatching event",
		zap.String("event", evt.Name),
		zap.String("event_id", evt.ID),
		zap.Int("functions", len(fns)),
	)

	b.runs.update(evt.ID, func(r *Run) { r.Status = RunRunning })

	p := pool.New().WithContext(ctx)
	for _, fn := range fns {
		p.Go(func(ctx context.Context) error {
			step := &Step{
				attempts: b.cfg.StepAttempts,
				initial:  b.cfg.StepBackoff,
				logger:   b.logger.With(zap.String("function", fn.ID), zap.String("event_id", evt.ID)),
			}
			if err := fn.Handler(ctx, evt, step); err != nil {
				return fmt.Errorf("function %s: %w", fn.ID, err)
			}
			return nil
		})
	}
	err := p.Wait()
	b.runs.finish(evt.ID, err)

	if b.recorder != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		b.recorder.RecordEvent(evt.Name, status)
	}
	return err
}
