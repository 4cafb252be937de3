package service

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/primar/console/internal/core/domain"
	"github.com/primar/console/internal/core/ports"
)

var recurrencesGeneratedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "primar",
	Name:      "recurrences_generated_total",
	Help:      "Follow-up tasks created for completed recurring tasks.",
}, []string{"recurrence_type"})

// RecurrenceService creates the next occurrence of completed recurring tasks.
type RecurrenceService struct {
	repo   ports.TaskRepository
	guard  ports.RecurrenceGuard
	logger zerolog.Logger
	now    func() time.Time
}

// NewRecurrenceService builds the service. A nil guard claims every key,
// which is only safe with a single instance.
func NewRecurrenceService(repo ports.TaskRepository, guard ports.RecurrenceGuard, logger zerolog.Logger) *RecurrenceService {
	return &RecurrenceService{
		repo:   repo,
		guard:  guard,
		logger: logger,
		now: domain.Now,
	}
}

// RecurrenceKey identifies one occurrence: the completed task and its due date.
func RecurrenceKey(task *domain.Task) string {
	var due int64
	if task.DueDate != nil {
		due = task.DueDate.Unix()
	}
	return fmt.Sprintf("%s:%d", task.ID, due)
}

// Materialize creates the follow-up of task once. created is false when the
// task is not a completed recurring task or the occurrence already exists.
func (s *RecurrenceService) Materialize(ctx context.Context, task *domain.Task) (next *domain.Task, created bool, err error) {
	if !task.IsRecurring || task.Status != domain.TaskCompleted {
		return nil, false, nil
	}

	key := RecurrenceKey(task)
	if s.guard != nil {
		claimed, err := s.guard.Claim(ctx, key)
		if err != nil {
			return nil, false, fmt.Errorf("claim recurrence %s: %w", key, err)
		}
		if !claimed {
			s.logger.Debug().Str("task_id", task.ID).Msg("recurrence already materialized")
			return nil, false, nil
		}
	}

	next = task.NextOccurrence(newID(), s.now())
	if err := s.repo.Create(ctx, next); err != nil {
		return nil, false, err
	}

	recurrencesGeneratedTotal.WithLabelValues(string(task.RecurrenceType)).Inc()
	ev := s.logger.Info().Str("task_id", next.ID).Str("parent_task_id", task.ID)
	if next.DueDate != nil {
		ev = ev.Time("due_date", *next.DueDate)
	}
	ev.Msg("recurring task materialized")
	return next, true, nil
}
