package domain

import (
	"strings"
	"time"
)

// TaskStatus is the board column a task sits in.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskCancelled  TaskStatus = "cancelled"
)

// TaskStatuses is the fixed board column order.
var TaskStatuses = []TaskStatus{TaskTodo, TaskInProgress, TaskCompleted, TaskCancelled}

// taskTransitions is the strict workflow. The default board policy ignores it
// and allows any status to reach any other.
var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskTodo:       {TaskInProgress, TaskCancelled},
	TaskInProgress: {TaskTodo, TaskCompleted, TaskCancelled},
	TaskCompleted:  {TaskInProgress},
	TaskCancelled:  {TaskTodo},
}

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskCompleted, TaskCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the strict workflow allows s -> next.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	for _, allowed := range taskTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Label is the column title shown on the board.
func (s TaskStatus) Label() string {
	switch s {
	case TaskTodo:
		return "A Fazer"
	case TaskInProgress:
		return "Em Andamento"
	case TaskCompleted:
		return "Concluída"
	case TaskCancelled:
		return "Cancelada"
	}
	return string(s)
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type RecurrenceType string

const (
	RecurrenceDaily   RecurrenceType = "daily"
	RecurrenceWeekly  RecurrenceType = "weekly"
	RecurrenceMonthly RecurrenceType = "monthly"
	RecurrenceYearly  RecurrenceType = "yearly"
)

func (r RecurrenceType) Valid() bool {
	switch r {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly:
		return true
	}
	return false
}

// Advance moves t forward by interval periods of r.
func (r RecurrenceType) Advance(t time.Time, interval int) time.Time {
	switch r {
	case RecurrenceDaily:
		return t.AddDate(0, 0, interval)
	case RecurrenceWeekly:
		return t.AddDate(0, 0, 7*interval)
	case RecurrenceMonthly:
		return t.AddDate(0, interval, 0)
	case RecurrenceYearly:
		return t.AddDate(interval, 0, 0)
	}
	return t
}

// Task is a unit of work tracked on the board.
type Task struct {
	ID                 string         `json:"id" bson:"_id"`
	Title              string         `json:"title" bson:"title"`
	Description        string         `json:"description,omitempty" bson:"description,omitempty"`
	Status             TaskStatus     `json:"status" bson:"status"`
	Priority           Priority       `json:"priority" bson:"priority"`
	DueDate            *time.Time     `json:"due_date,omitempty" bson:"due_date,omitempty"`
	CreatedBy          string         `json:"created_by" bson:"created_by"`
	AssignedTo         string         `json:"assigned_to,omitempty" bson:"assigned_to,omitempty"`
	ClientID           string         `json:"client_id,omitempty" bson:"client_id,omitempty"`
	ParentTaskID       string         `json:"parent_task_id,omitempty" bson:"parent_task_id,omitempty"`
	IsRecurring        bool           `json:"is_recurring" bson:"is_recurring"`
	RecurrenceType     RecurrenceType `json:"recurrence_type,omitempty" bson:"recurrence_type,omitempty"`
	RecurrenceInterval int            `json:"recurrence_interval,omitempty" bson:"recurrence_interval,omitempty"`
	IsBlocked          bool           `json:"is_blocked" bson:"is_blocked"`
	BlockedReason      string         `json:"blocked_reason,omitempty" bson:"blocked_reason,omitempty"`
	CanAdminOverride   bool           `json:"can_admin_override" bson:"can_admin_override"`
	CreatedAt          time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at" bson:"updated_at"`
}

// Validate checks the task invariants that do not depend on the actor.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return NewValidationError("title", "is required")
	}
	if !t.Status.Valid() {
		return NewValidationError("status", "unknown status %q", t.Status)
	}
	if !t.Priority.Valid() {
		return NewValidationError("priority", "unknown priority %q", t.Priority)
	}
	if t.IsRecurring {
		if !t.RecurrenceType.Valid() {
			return NewValidationError("recurrence_type", "unknown recurrence type %q", t.RecurrenceType)
		}
		if t.RecurrenceInterval < 1 {
			return NewValidationError("recurrence_interval", "must be at least 1")
		}
	}
	if t.IsBlocked && strings.TrimSpace(t.BlockedReason) == "" {
		return NewValidationError("blocked_reason", "is required when the task is blocked")
	}
	return nil
}

// NextOccurrence builds the follow-up task of a completed recurring task.
// A task without a due date produces an occurrence without one.
func (t *Task) NextOccurrence(id string, now time.Time) *Task {
	next := *t
	next.ID = id
	next.Status = TaskTodo
	next.ParentTaskID = t.ID
	next.IsBlocked = false
	next.BlockedReason = ""
	next.CreatedAt = now
	next.UpdatedAt = now
	if t.DueDate != nil {
		due := t.RecurrenceType.Advance(*t.DueDate, t.RecurrenceInterval)
		next.DueDate = &due
	}
	return &next
}

// TaskPatch is a partial task update. Nil fields are left untouched.
type TaskPatch struct {
	Title              *string
	Description        *string
	Status             *TaskStatus
	Priority           *Priority
	DueDate            *time.Time
	ClearDueDate       bool
	AssignedTo         *string
	ClientID           *string
	IsRecurring        *bool
	RecurrenceType     *RecurrenceType
	RecurrenceInterval *int
	IsBlocked          *bool
	BlockedReason      *string
	CanAdminOverride   *bool
}

// StatusOnly reports whether the patch touches the status and nothing else.
func (p TaskPatch) StatusOnly() bool {
	return p.Status != nil && p.Title == nil && p.Description == nil && p.Priority == nil &&
		p.DueDate == nil && !p.ClearDueDate && p.AssignedTo == nil && p.ClientID == nil &&
		p.IsRecurring == nil && p.RecurrenceType == nil && p.RecurrenceInterval == nil &&
		p.IsBlocked == nil && p.BlockedReason == nil && p.CanAdminOverride == nil
}

// Apply copies the non-nil fields onto task.
func (p TaskPatch) Apply(task *Task) {
	if p.Title != nil {
		task.Title = *p.Title
	}
	if p.Description != nil {
		task.Description = *p.Description
	}
	if p.Status != nil {
		task.Status = *p.Status
	}
	if p.Priority != nil {
		task.Priority = *p.Priority
	}
	if p.ClearDueDate {
		task.DueDate = nil
	} else if p.DueDate != nil {
		due := *p.DueDate
		task.DueDate = &due
	}
	if p.AssignedTo != nil {
		task.AssignedTo = *p.AssignedTo
	}
	if p.ClientID != nil {
		task.ClientID = *p.ClientID
	}
	if p.IsRecurring != nil {
		task.IsRecurring = *p.IsRecurring
	}
	if p.RecurrenceType != nil {
		task.RecurrenceType = *p.RecurrenceType
	}
	if p.RecurrenceInterval != nil {
		task.RecurrenceInterval = *p.RecurrenceInterval
	}
	if p.IsBlocked != nil {
		task.IsBlocked = *p.IsBlocked
	}
	if p.BlockedReason != nil {
		task.BlockedReason = *p.BlockedReason
	}
	if p.CanAdminOverride != nil {
		task.CanAdminOverride = *p.CanAdminOverride
	}
}
