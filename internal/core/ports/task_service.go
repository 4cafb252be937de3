package ports

import (
	"context"
	"time"

	"github.com/primar/console/internal/core/domain"
)

// CreateTaskInput carries a new task. Empty enum fields take their defaults.
type CreateTaskInput struct {
	Title              string
	Description        string
	Status             domain.TaskStatus
	Priority           domain.Priority
	DueDate            *time.Time
	AssignedTo         string
	ClientID           string
	IsRecurring        bool
	RecurrenceType     domain.RecurrenceType
	RecurrenceInterval int
	IsBlocked          bool
	BlockedReason      string
	// CanAdminOverride defaults to true when nil.
	CanAdminOverride *bool
}

// TaskService defines task use cases on behalf of an actor.
type TaskService interface {
	List(ctx context.Context, actor domain.Principal, filter TaskFilter) ([]*domain.Task, error)
	Get(ctx context.Context, actor domain.Principal, id string) (*domain.Task, error)
	Create(ctx context.Context, actor domain.Principal, input CreateTaskInput) (*domain.Task, error)
	Update(ctx context.Context, actor domain.Principal, id string, patch domain.TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, actor domain.Principal, id string) error
	Unblock(ctx context.Context, actor domain.Principal, id string) (*domain.Task, error)
	Complete(ctx context.Context, actor domain.Principal, id string) (*domain.Task, error)
}
