package redis

import (
	"context"
	"fmt"
	"time"
)

const recurrenceClaimTTL = 30 * 24 * time.Hour

// RecurrenceGuard makes recurring-task materialization idempotent across
// instances. Key format: <namespace>:recur:<task_id>:<due_unix>
type RecurrenceGuard struct {
	store *Store
}

func NewRecurrenceGuard(store *Store) *RecurrenceGuard {
	return &RecurrenceGuard{store: store}
}

// Claim reports whether this caller is the first to claim key.
func (g *RecurrenceGuard) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := g.store.Client().SetNX(ctx, g.store.Key("recur", key), "1", recurrenceClaimTTL).Result()
	if err != nil {
		return false, fmt.Errorf("recurrence claim: %w", err)
	}
	return ok, nil
}
