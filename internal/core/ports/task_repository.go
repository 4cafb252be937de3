package ports

import (
	"context"
	"time"

	"github.com/primar/console/internal/core/domain"
)

// TaskFilter narrows a task listing. Zero values disable a criterion.
type TaskFilter struct {
	ClientID   string
	AssignedTo string
	Status     domain.TaskStatus
	DueFrom    time.Time
	DueTo      time.Time
}

// TaskRepository persists tasks.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	FindByID(ctx context.Context, id string) (*domain.Task, error)
	// List returns tasks newest first.
	List(ctx context.Context, filter TaskFilter) ([]*domain.Task, error)
	Update(ctx context.Context, id string, patch domain.TaskPatch, updatedAt time.Time) (*domain.Task, error)
	Delete(ctx context.Context, id string) error
}
