package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/primar/console/internal/core/domain"
)

type recordingMaterializer struct {
	mu    sync.Mutex
	seen  []string
	block chan struct{}
	err   error
}

func (m *recordingMaterializer) Materialize(ctx context.Context, task *domain.Task) (*domain.Task, bool, error) {
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}
	m.mu.Lock()
	m.seen = append(m.seen, task.ID)
	m.mu.Unlock()
	return nil, m.err == nil, m.err
}

func (m *recordingMaterializer) processed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.seen...)
}

func TestDispatcher_ProcessesScheduledTasks(t *testing.T) {
	m := &recordingMaterializer{}
	d := NewDispatcher(2, m, zerolog.Nop())
	d.Start(context.Background())

	for _, id := range []string{"a", "b", "c"} {
		if err := d.Schedule(&domain.Task{ID: id}); err != nil {
			t.Fatalf("schedule %s: %v", id, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := d.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if got := m.processed(); len(got) != 3 {
		t.Errorf("expected 3 tasks processed, got %v", got)
	}
}

func TestDispatcher_SameTaskStaysInOrderOnOneWorker(t *testing.T) {
	d := NewDispatcher(8, &recordingMaterializer{}, zerolog.Nop())

	first := d.shardIndex("task-42")
	for i := 0; i < 10; i++ {
		if d.shardIndex("task-42") != first {
			t.Fatal("expected a stable shard for the same task id")
		}
	}
	if first < 0 || first >= 8 {
		t.Errorf("shard %d out of range", first)
	}
}

func TestDispatcher_ScheduleCopiesTask(t *testing.T) {
	m := &recordingMaterializer{}
	d := NewDispatcher(1, m, zerolog.Nop())
	task := &domain.Task{ID: "a"}

	if err := d.Schedule(task); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	task.ID = "mutated"

	d.Start(context.Background())
	if err := d.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if got := m.processed(); len(got) != 1 || got[0] != "a" {
		t.Errorf("expected the queued copy to be processed, got %v", got)
	}
}

func TestDispatcher_ScheduleAfterShutdown(t *testing.T) {
	d := NewDispatcher(1, &recordingMaterializer{}, zerolog.Nop())
	d.Start(context.Background())
	if err := d.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if err := d.Shutdown(context.Background()); err != nil {
		t.Fatalf("second shutdown: %v", err)
	}

	if err := d.Schedule(&domain.Task{ID: "late"}); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("expected ErrQueueClosed, got %v", err)
	}
}

func TestDispatcher_ScheduleWhenFull(t *testing.T) {
	d := NewDispatcher(1, &recordingMaterializer{}, zerolog.Nop())

	// Workers are not started, so the single shard fills up.
	for i := 0; i < channelBuffer; i++ {
		if err := d.Schedule(&domain.Task{ID: "same"}); err != nil {
			t.Fatalf("schedule %d: %v", i, err)
		}
	}
	if err := d.Schedule(&domain.Task{ID: "same"}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
}

func TestDispatcher_ShutdownHonoursDeadline(t *testing.T) {
	m := &recordingMaterializer{block: make(chan struct{})}
	defer close(m.block)
	d := NewDispatcher(1, m, zerolog.Nop())
	d.Start(context.Background())
	if err := d.Schedule(&domain.Task{ID: "slow"}); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := d.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}

func TestDispatcher_MaterializeErrorsDoNotStopWorkers(t *testing.T) {
	m := &recordingMaterializer{err: errors.New("mongo down")}
	d := NewDispatcher(1, m, zerolog.Nop())
	d.Start(context.Background())

	_ = d.Schedule(&domain.Task{ID: "a"})
	_ = d.Schedule(&domain.Task{ID: "b"})
	if err := d.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if got := m.processed(); len(got) != 2 {
		t.Errorf("expected both tasks attempted, got %v", got)
	}
}
