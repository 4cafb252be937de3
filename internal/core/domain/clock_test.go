package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimestamp(t *testing.T) {
	sp := time.FixedZone("BRT", -3*60*60)
	in := time.Date(2026, 5, 20, 11, 30, 0, 123456789, sp)

	got := Timestamp(in)
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, 123000000, got.Nanosecond())
	assert.True(t, got.Equal(time.Date(2026, 5, 20, 14, 30, 0, 123000000, time.UTC)))
	assert.Zero(t, Now().Nanosecond()%int(time.Millisecond))
}
