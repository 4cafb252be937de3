// Package board keeps a task cache grouped into status columns and applies
// drag-and-drop moves against the task service.
package board

import (
	"context"
	"fmt"
	"sync"

	"github.com/primar/console/internal/core/domain"
	"github.com/primar/console/internal/core/ports"
)

// TaskSource is the slice of the task service the board needs.
type TaskSource interface {
	List(ctx context.Context, actor domain.Principal, filter ports.TaskFilter) ([]*domain.Task, error)
	Update(ctx context.Context, actor domain.Principal, id string, patch domain.TaskPatch) (*domain.Task, error)
}

// DropEvent is the drag contract: the dragged card id and the column it was
// released over. OverID is empty when the card was dropped outside any column.
type DropEvent struct {
	ActiveID string `json:"active_id"`
	OverID   string `json:"over_id"`
}

// Move describes the outcome of a move. Moved is false for no-op moves.
type Move struct {
	TaskID string            `json:"task_id"`
	From   domain.TaskStatus `json:"from"`
	To     domain.TaskStatus `json:"to"`
	Moved  bool              `json:"moved"`
}

// Column is one board column.
type Column struct {
	Status domain.TaskStatus `json:"status"`
	Title  string            `json:"title"`
	Count  int               `json:"count"`
	Tasks  []*domain.Task    `json:"tasks"`
}

type Option func(*Board)

// WithStrictTransitions rejects moves outside the workflow map with
// domain.ErrInvalidTransition. By default any status may reach any other.
func WithStrictTransitions(strict bool) Option {
	return func(b *Board) { b.strict = strict }
}

// WithFilter scopes the tasks the board loads.
func WithFilter(filter ports.TaskFilter) Option {
	return func(b *Board) { b.filter = filter }
}

// Board is a task cache for one actor. It is rebuilt from the source after
// every write and never patched in place.
type Board struct {
	source TaskSource
	actor  domain.Principal
	strict bool
	filter ports.TaskFilter

	mu     sync.RWMutex
	tasks  []*domain.Task
	loaded bool
}

func New(source TaskSource, actor domain.Principal, opts ...Option) *Board {
	b := &Board{source: source, actor: actor}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Refresh reloads the cache from the source.
func (b *Board) Refresh(ctx context.Context) error {
	tasks, err := b.source.List(ctx, b.actor, b.filter)
	if err != nil {
		return fmt.Errorf("refresh board: %w", err)
	}
	b.mu.Lock()
	b.tasks = tasks
	b.loaded = true
	b.mu.Unlock()
	return nil
}

// Tasks returns the cached tasks in source order.
func (b *Board) Tasks() []*domain.Task {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return cloneTasks(b.tasks)
}

// Find returns a cached task by id.
func (b *Board) Find(id string) (*domain.Task, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, t := range b.tasks {
		if t.ID == id {
			clone := *t
			return &clone, true
		}
	}
	return nil, false
}

// FilterByStatus returns the cached tasks with status, keeping source order.
func (b *Board) FilterByStatus(status domain.TaskStatus) []*domain.Task {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*domain.Task, 0)
	for _, t := range b.tasks {
		if t.Status == status {
			clone := *t
			out = append(out, &clone)
		}
	}
	return out
}

// Columns groups the cache into the fixed status columns.
func (b *Board) Columns() []Column {
	cols := make([]Column, 0, len(domain.TaskStatuses))
	for _, status := range domain.TaskStatuses {
		tasks := b.FilterByStatus(status)
		cols = append(cols, Column{
			Status: status,
			Title:  status.Label(),
			Count:  len(tasks),
			Tasks:  tasks,
		})
	}
	return cols
}

// MoveTask sets the status of task id to target. Moving a task onto its own
// column writes nothing. A real move updates only the status field and then
// reloads the whole board.
func (b *Board) MoveTask(ctx context.Context, id string, target domain.TaskStatus) (Move, error) {
	if !target.Valid() {
		return Move{}, domain.NewValidationError("status", "unknown status %q", target)
	}

	task, ok := b.Find(id)
	if !ok {
		if err := b.Refresh(ctx); err != nil {
			return Move{}, err
		}
		if task, ok = b.Find(id); !ok {
			return Move{}, domain.ErrTaskNotFound
		}
	}

	move := Move{TaskID: id, From: task.Status, To: target}
	if task.Status == target {
		return move, nil
	}
	if b.strict && !task.Status.CanTransitionTo(target) {
		return move, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, task.Status, target)
	}

	if _, err := b.source.Update(ctx, b.actor, id, domain.TaskPatch{Status: &target}); err != nil {
		return move, err
	}
	move.Moved = true

	if err := b.Refresh(ctx); err != nil {
		return move, err
	}
	return move, nil
}

// Drop applies a drag gesture. A drop outside any column is ignored; a drop
// over something that is not a status column is rejected before any write.
func (b *Board) Drop(ctx context.Context, ev DropEvent) (Move, error) {
	if ev.OverID == "" {
		return Move{TaskID: ev.ActiveID}, nil
	}
	if ev.ActiveID == "" {
		return Move{}, domain.NewValidationError("active", "dragged task id is required")
	}
	target := domain.TaskStatus(ev.OverID)
	if !target.Valid() {
		return Move{TaskID: ev.ActiveID}, domain.NewValidationError("over", "%q is not a board column", ev.OverID)
	}
	return b.MoveTask(ctx, ev.ActiveID, target)
}

func cloneTasks(tasks []*domain.Task) []*domain.Task {
	out := make([]*domain.Task, len(tasks))
	for i, t := range tasks {
		clone := *t
		out[i] = &clone
	}
	return out
}
