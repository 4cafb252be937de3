package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/primar/console/internal/core/domain"
	"github.com/primar/console/internal/core/ports"
)

// TaskService applies the task rules on behalf of an actor.
type TaskService struct {
	repo      ports.TaskRepository
	profiles  ports.ProfileRepository
	roles     ports.RoleRepository
	scheduler ports.RecurrenceScheduler
	logger    zerolog.Logger
	now       func() time.Time
}

type TaskOption func(*TaskService)

// WithScheduler hands completed recurring tasks to sched.
func WithScheduler(sched ports.RecurrenceScheduler) TaskOption {
	return func(s *TaskService) { s.scheduler = sched }
}

func NewTaskService(repo ports.TaskRepository, profiles ports.ProfileRepository, roles ports.RoleRepository, logger zerolog.Logger, opts ...TaskOption) *TaskService {
	s := &TaskService{
		repo:     repo,
		profiles: profiles,
		roles:    roles,
		logger:   logger,
		now: domain.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns tasks newest first. Clients only see tasks linked to their own profile.
func (s *TaskService) List(ctx context.Context, actor domain.Principal, filter ports.TaskFilter) ([]*domain.Task, error) {
	switch {
	case actor.Role.IsStaffOrAdmin():
	case actor.IsClient():
		if actor.ProfileID == "" {
			return []*domain.Task{}, nil
		}
		filter.ClientID = actor.ProfileID
	default:
		return nil, domain.ErrForbidden
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.NewValidationError("status", "unknown status %q", filter.Status)
	}
	return s.repo.List(ctx, filter)
}

func (s *TaskService) Get(ctx context.Context, actor domain.Principal, id string) (*domain.Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(actor, task) {
		return nil, domain.ErrTaskNotFound
	}
	return task, nil
}

func canView(actor domain.Principal, task *domain.Task) bool {
	if actor.Role.IsStaffOrAdmin() {
		return true
	}
	return actor.IsClient() && actor.ProfileID != "" && task.ClientID == actor.ProfileID
}

func canMutate(actor domain.Principal, task *domain.Task) bool {
	return actor.IsAdmin() || (actor.UserID != "" && (task.CreatedBy == actor.UserID || task.AssignedTo == actor.UserID))
}

// Create stores a new task. Only admins and staff create tasks.
func (s *TaskService) Create(ctx context.Context, actor domain.Principal, in ports.CreateTaskInput) (*domain.Task, error) {
	if !actor.Role.IsStaffOrAdmin() {
		return nil, domain.ErrForbidden
	}

	now := s.now()
	task := &domain.Task{
		ID:               newID(),
		Title:            strings.TrimSpace(in.Title),
		Description:      strings.TrimSpace(in.Description),
		Status:           in.Status,
		Priority:         in.Priority,
		DueDate:          timestampPtr(in.DueDate),
		CreatedBy:        actor.UserID,
		AssignedTo:       in.AssignedTo,
		ClientID:         in.ClientID,
		IsRecurring:      in.IsRecurring,
		IsBlocked:        in.IsBlocked,
		BlockedReason:    strings.TrimSpace(in.BlockedReason),
		CanAdminOverride: true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if task.Status == "" {
		task.Status = domain.TaskTodo
	}
	if task.Priority == "" {
		task.Priority = domain.PriorityMedium
	}
	if in.CanAdminOverride != nil {
		task.CanAdminOverride = *in.CanAdminOverride
	}
	if task.IsRecurring {
		task.RecurrenceType = in.RecurrenceType
		task.RecurrenceInterval = in.RecurrenceInterval
		if task.RecurrenceType == "" {
			task.RecurrenceType = domain.RecurrenceWeekly
		}
		if task.RecurrenceInterval == 0 {
			task.RecurrenceInterval = 1
		}
	}
	if !task.IsBlocked {
		task.BlockedReason = ""
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}
	if err := s.validateRefs(ctx, task.AssignedTo, task.ClientID); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, task); err != nil {
		s.logger.Error().Err(err).Msg("failed to create task")
		return nil, err
	}
	s.logger.Info().Str("task_id", task.ID).Str("actor", actor.UserID).Str("priority", string(task.Priority)).Msg("task created")
	return task, nil
}

// Update patches a task. Creator, assignee or admin may update; only admins
// clear a block; blocked tasks keep their status unless an admin may override.
func (s *TaskService) Update(ctx context.Context, actor domain.Principal, id string, patch domain.TaskPatch) (*domain.Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(actor, task) {
		return nil, domain.ErrTaskNotFound
	}
	if !canMutate(actor, task) {
		return nil, domain.ErrForbidden
	}

	patch.DueDate = timestampPtr(patch.DueDate)
	unblocking := task.IsBlocked && patch.IsBlocked != nil && !*patch.IsBlocked
	blocking := !task.IsBlocked && patch.IsBlocked != nil && *patch.IsBlocked
	if blocking && !actor.Role.IsStaffOrAdmin() {
		return nil, domain.ErrForbidden
	}
	if unblocking {
		if !actor.IsAdmin() {
			return nil, domain.ErrForbidden
		}
		patch.BlockedReason = strPtr("")
	}

	if task.IsBlocked && !unblocking && patch.Status != nil && *patch.Status != task.Status {
		if !actor.IsAdmin() || !task.CanAdminOverride {
			return nil, domain.ErrTaskBlocked
		}
	}

	if patch.Title != nil {
		patch.Title = strPtr(strings.TrimSpace(*patch.Title))
	}
	if patch.BlockedReason != nil {
		patch.BlockedReason = strPtr(strings.TrimSpace(*patch.BlockedReason))
	}

	merged := *task
	patch.Apply(&merged)
	if merged.IsRecurring {
		if merged.RecurrenceType == "" {
			t := domain.RecurrenceWeekly
			patch.RecurrenceType = &t
		}
		if merged.RecurrenceInterval == 0 {
			patch.RecurrenceInterval = intPtr(1)
		}
		patch.Apply(&merged)
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	var assignee, client string
	if patch.AssignedTo != nil {
		assignee = *patch.AssignedTo
	}
	if patch.ClientID != nil {
		client = *patch.ClientID
	}
	if err := s.validateRefs(ctx, assignee, client); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, patch, s.now())
	if err != nil {
		return nil, err
	}

	log := s.logger.Info().Str("task_id", id).Str("actor", actor.UserID)
	if task.Status != updated.Status {
		log = log.Str("from", string(task.Status)).Str("to", string(updated.Status))
	}
	log.Msg("task updated")

	if task.Status != domain.TaskCompleted && updated.Status == domain.TaskCompleted && updated.IsRecurring {
		s.scheduleRecurrence(updated)
	}
	return updated, nil
}

func (s *TaskService) scheduleRecurrence(task *domain.Task) {
	if s.scheduler == nil {
		return
	}
	if err := s.scheduler.Schedule(task); err != nil {
		s.logger.Warn().Err(err).Str("task_id", task.ID).Msg("recurrence not scheduled")
	}
}

// Delete removes a task for good. Creator or admin only.
func (s *TaskService) Delete(ctx context.Context, actor domain.Principal, id string) error {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !canView(actor, task) {
		return domain.ErrTaskNotFound
	}
	if !actor.IsAdmin() && task.CreatedBy != actor.UserID {
		return domain.ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("task_id", id).Str("actor", actor.UserID).Msg("task deleted")
	return nil
}

// Unblock clears the block flag and its reason. Admin only.
func (s *TaskService) Unblock(ctx context.Context, actor domain.Principal, id string) (*domain.Task, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return s.Update(ctx, actor, id, domain.TaskPatch{IsBlocked: boolPtr(false)})
}

// Complete moves a task straight to completed.
func (s *TaskService) Complete(ctx context.Context, actor domain.Principal, id string) (*domain.Task, error) {
	status := domain.TaskCompleted
	return s.Update(ctx, actor, id, domain.TaskPatch{Status: &status})
}

// validateRefs checks that the assignee works tasks and that the client
// profile belongs to a client. Empty ids are skipped.
func (s *TaskService) validateRefs(ctx context.Context, assignedTo, clientID string) error {
	if assignedTo != "" {
		role, err := s.roles.FindByUserID(ctx, assignedTo)
		switch {
		case errors.Is(err, domain.ErrRoleNotFound), err == nil && !role.IsStaffOrAdmin():
			return domain.NewValidationError("assigned_to", "must be an admin or staff member")
		case err != nil:
			return err
		}
	}
	if clientID != "" {
		profile, err := s.profiles.FindByID(ctx, clientID)
		if errors.Is(err, domain.ErrProfileNotFound) {
			return domain.NewValidationError("client_id", "unknown client")
		}
		if err != nil {
			return err
		}
		role, err := s.roles.FindByUserID(ctx, profile.UserID)
		switch {
		case errors.Is(err, domain.ErrRoleNotFound), err == nil && role != domain.RoleClient:
			return domain.NewValidationError("client_id", "profile is not a client")
		case err != nil:
			return err
		}
	}
	return nil
}
