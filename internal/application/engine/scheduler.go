package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/acalderon/weathertrader/internal/domain"
)

// Task is one fixed-interval loop.
type Task struct {
	Name  string
	Every time.Duration
	Run   func(ctx context.Context) error
}

// Scheduler runs tasks on independent tickers but serializes their bodies
// with one mutex, so no two loops ever mutate the store concurrently. A task
// error is logged and the loop continues, except domain.ErrUnitMismatch,
// which stops everything.
type Scheduler struct {
	tasks []Task
	log   *slog.Logger
	mu    sync.Mutex
}

// NewScheduler builds a Scheduler over the given tasks.
func NewScheduler(log *slog.Logger, tasks ...Task) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{tasks: tasks, log: log}
}

// Run executes every task once up front, then on its interval, until the
// context is cancelled or a fatal error surfaces.
func (s *Scheduler) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// First pass runs sequentially so the loops start from a settled state.
	for _, t := range s.tasks {
		if err := s.runOne(ctx, t); err != nil {
			return err
		}
	}

	fatal := make(chan error, len(s.tasks))
	var wg sync.WaitGroup
	for _, t := range s.tasks {
		wg.Add(1)
		go func(t Task) {
			defer wg.Done()
			ticker := time.NewTicker(t.Every)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := s.runOne(ctx, t); err != nil {
						fatal <- err
						cancel()
						return
					}
				}
			}
		}(t)
	}
	wg.Wait()

	select {
	case err := <-fatal:
		return err
	default:
		return ctx.Err()
	}
}

// runOne executes a task body under the mutex. Only a unit mismatch is
// returned as fatal; anything else is logged and swallowed.
func (s *Scheduler) runOne(ctx context.Context, t Task) error {
	if ctx.Err() != nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	err := t.Run(ctx)
	elapsed := time.Since(start).Round(time.Millisecond)
	switch {
	case err == nil:
		s.log.Debug("task finished", "task", t.Name, "took", elapsed)
	case errors.Is(err, domain.ErrUnitMismatch):
		s.log.Error("fatal unit mismatch, stopping", "task", t.Name, "err", err)
		return fmt.Errorf("scheduler: task %s: %w", t.Name, err)
	case errors.Is(err, context.Canceled):
	default:
		s.log.Warn("task failed", "task", t.Name, "took", elapsed, "err", err)
	}
	return nil
}

// Loop intervals for the three production tasks.
const (
	OrderPollInterval = 5 * time.Minute
	MonitorInterval   = 10 * time.Minute
	ScanInterval      = 2 * time.Hour
)

// Tasks wires the engine's three loops in their production cadence.
func (e *Engine) Tasks() []Task {
	return []Task{
		{Name: "order-poll", Every: OrderPollInterval, Run: func(ctx context.Context) error {
			_, err := e.PollOrders(ctx)
			return err
		}},
		{Name: "position-monitor", Every: MonitorInterval, Run: func(ctx context.Context) error {
			_, err := e.MonitorPositions(ctx)
			return err
		}},
		{Name: "entry-scan", Every: ScanInterval, Run: func(ctx context.Context) error {
			_, err := e.Scan(ctx)
			return err
		}},
	}
}

// RunOnce executes one full cycle of all three loops in order. Used by the
// -once flag for manual runs and smoke tests.
func (e *Engine) RunOnce(ctx context.Context) error {
	if _, err := e.PollOrders(ctx); err != nil {
		return err
	}
	if _, err := e.MonitorPositions(ctx); err != nil {
		return err
	}
	_, err := e.Scan(ctx)
	return err
}
