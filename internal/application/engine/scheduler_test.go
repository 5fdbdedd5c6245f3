package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acalderon/weathertrader/internal/domain"
)

func TestSchedulerRunsEveryTaskOnceUpFront(t *testing.T) {
	var mu sync.Mutex
	ran := map[string]int{}
	mark := func(name string) func(context.Context) error {
		return func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			ran[name]++
			return nil
		}
	}

	s := NewScheduler(nil,
		Task{Name: "a", Every: time.Hour, Run: mark("a")},
		Task{Name: "b", Every: time.Hour, Run: mark("b")},
	)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := s.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, ran["a"])
	assert.Equal(t, 1, ran["b"])
}

func TestSchedulerUnitMismatchIsFatal(t *testing.T) {
	s := NewScheduler(nil, Task{
		Name:  "boom",
		Every: time.Hour,
		Run: func(context.Context) error {
			return fmt.Errorf("tick: %w", domain.ErrUnitMismatch)
		},
	})
	err := s.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnitMismatch)
}

func TestSchedulerSwallowsTransientErrors(t *testing.T) {
	calls := 0
	s := NewScheduler(nil, Task{
		Name:  "flaky",
		Every: 5 * time.Millisecond,
		Run: func(context.Context) error {
			calls++
			return fmt.Errorf("exchange 503: %w", context.DeadlineExceeded)
		},
	})
	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()
	err := s.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, calls, 2, "loop survives task errors")
}

func TestSchedulerSerializesTaskBodies(t *testing.T) {
	var mu sync.Mutex
	active, maxActive := 0, 0
	body := func(context.Context) error {
		mu.Lock()
		active++
		if active > maxActive {
			maxActive = active
		}
		mu.Unlock()
		time.Sleep(3 * time.Millisecond)
		mu.Lock()
		active--
		mu.Unlock()
		return nil
	}

	s := NewScheduler(nil,
		Task{Name: "a", Every: 2 * time.Millisecond, Run: body},
		Task{Name: "b", Every: 2 * time.Millisecond, Run: body},
	)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	_ = s.Run(ctx)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, maxActive, "two task bodies must never overlap")
}
