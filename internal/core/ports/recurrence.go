package ports

import (
	"context"

	"github.com/primar/console/internal/core/domain"
)

// RecurrenceScheduler queues a completed recurring task for materialization.
type RecurrenceScheduler interface {
	Schedule(task *domain.Task) error
}

// RecurrenceGuard claims a materialization key once across instances.
type RecurrenceGuard interface {
	Claim(ctx context.Context, key string) (bool, error)
}
