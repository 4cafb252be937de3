package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/primar/console/internal/core/domain"
)

func completedRecurring(due *time.Time) *domain.Task {
	return &domain.Task{
		ID:                 "t1",
		Title:              "DCTFWeb",
		Status:             domain.TaskCompleted,
		Priority:           domain.PriorityHigh,
		DueDate:            due,
		CreatedBy:          "u-staff",
		AssignedTo:         "u-staff",
		ClientID:           "p-client",
		IsRecurring:        true,
		RecurrenceType:     domain.RecurrenceMonthly,
		RecurrenceInterval: 1,
	}
}

func TestRecurrenceService_Materialize_CreatesNextOccurrence(t *testing.T) {
	repo := newStubTaskRepo()
	svc := NewRecurrenceService(repo, newStubGuard(), discardLogger)
	due := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	next, created, err := svc.Materialize(context.Background(), completedRecurring(&due))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatal("expected a new occurrence")
	}
	if next.ID == "t1" || next.ParentTaskID != "t1" {
		t.Errorf("expected fresh id with parent t1, got id=%s parent=%s", next.ID, next.ParentTaskID)
	}
	if next.Status != domain.TaskTodo {
		t.Errorf("expected todo, got %s", next.Status)
	}
	want := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
	if next.DueDate == nil || !next.DueDate.Equal(want) {
		t.Errorf("expected due %v, got %v", want, next.DueDate)
	}
	if next.AssignedTo != "u-staff" || next.ClientID != "p-client" {
		t.Errorf("expected assignment carried over, got %+v", next)
	}
	if repo.get(next.ID) == nil {
		t.Error("expected occurrence stored")
	}
}

func TestRecurrenceService_Materialize_OncePerOccurrence(t *testing.T) {
	repo := newStubTaskRepo()
	svc := NewRecurrenceService(repo, newStubGuard(), discardLogger)
	due := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if _, _, err := svc.Materialize(context.Background(), completedRecurring(&due)); err != nil {
			t.Fatalf("attempt %d: unexpected error: %v", i, err)
		}
	}
	if repo.count() != 1 {
		t.Errorf("expected one occurrence, got %d", repo.count())
	}
}

func TestRecurrenceService_Materialize_Skips(t *testing.T) {
	cases := []struct {
		name string
		edit func(*domain.Task)
	}{
		{"not recurring", func(t *domain.Task) { t.IsRecurring = false }},
		{"not completed", func(t *domain.Task) { t.Status = domain.TaskInProgress }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newStubTaskRepo()
			svc := NewRecurrenceService(repo, newStubGuard(), discardLogger)
			task := completedRecurring(nil)
			tc.edit(task)

			next, created, err := svc.Materialize(context.Background(), task)
			if err != nil || created || next != nil {
				t.Fatalf("expected no-op, got next=%v created=%v err=%v", next, created, err)
			}
		})
	}
}

func TestRecurrenceService_Materialize_WithoutDueDate(t *testing.T) {
	svc := NewRecurrenceService(newStubTaskRepo(), nil, discardLogger)

	next, created, err := svc.Materialize(context.Background(), completedRecurring(nil))
	if err != nil || !created {
		t.Fatalf("expected occurrence, got created=%v err=%v", created, err)
	}
	if next.DueDate != nil {
		t.Errorf("expected no due date, got %v", next.DueDate)
	}
}

func TestRecurrenceService_Materialize_GuardError(t *testing.T) {
	repo := newStubTaskRepo()
	guard := newStubGuard()
	guard.err = errors.New("redis down")
	svc := NewRecurrenceService(repo, guard, discardLogger)

	_, created, err := svc.Materialize(context.Background(), completedRecurring(nil))
	if err == nil || created {
		t.Fatalf("expected error, got created=%v err=%v", created, err)
	}
	if repo.count() != 0 {
		t.Error("expected nothing stored")
	}
}

func TestRecurrenceKey(t *testing.T) {
	due := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	a := RecurrenceKey(completedRecurring(&due))
	later := due.AddDate(0, 1, 0)
	b := RecurrenceKey(completedRecurring(&later))

	if a == b {
		t.Errorf("expected different keys per due date, got %q twice", a)
	}
	if RecurrenceKey(completedRecurring(nil)) != "t1:0" {
		t.Errorf("unexpected key for undated task: %q", RecurrenceKey(completedRecurring(nil)))
	}
}
