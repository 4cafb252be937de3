package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/primar/console/internal/core/domain"
)

func newID() string {
	return uuid.NewString()
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func intPtr(i int) *int { return &i }

func timestampPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	ts := domain.Timestamp(*t)
	return &ts
}
