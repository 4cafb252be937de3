package board

import (
	"sort"
	"time"

	"github.com/primar/console/internal/core/domain"
)

// TasksOn returns the cached tasks due on the calendar day of date, in the
// location of date.
func (b *Board) TasksOn(date time.Time) []*domain.Task {
	y, m, d := date.Date()
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*domain.Task, 0)
	for _, t := range b.tasks {
		if t.DueDate == nil {
			continue
		}
		ty, tm, td := t.DueDate.In(date.Location()).Date()
		if ty == y && tm == m && td == d {
			clone := *t
			out = append(out, &clone)
		}
	}
	return out
}

// DaysWithTasks returns the sorted days of month that have at least one due task.
func (b *Board) DaysWithTasks(year int, month time.Month, loc *time.Location) []int {
	if loc == nil {
		loc = time.UTC
	}
	seen := make(map[int]bool)
	b.mu.RLock()
	for _, t := range b.tasks {
		if t.DueDate == nil {
			continue
		}
		ty, tm, td := t.DueDate.In(loc).Date()
		if ty == year && tm == month {
			seen[td] = true
		}
	}
	b.mu.RUnlock()

	days := make([]int, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sort.Ints(days)
	return days
}
