package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock advances only when told to.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func TestScheduler_RunPending(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)}
	s := New(clock.Now)

	var runs int
	s.AddTask("refresh", time.Hour, func() { runs++ })

	// Due immediately after registration.
	assert.Equal(t, []string{"refresh"}, s.RunPending())
	assert.Equal(t, 1, runs)

	// Not due again until the interval elapses.
	clock.Advance(30 * time.Minute)
	assert.Empty(t, s.RunPending())
	assert.Equal(t, 1, runs)

	clock.Advance(30 * time.Minute)
	assert.Equal(t, []string{"refresh"}, s.RunPending())
	assert.Equal(t, 2, runs)
}

func TestScheduler_MultipleTasksRunInOrder(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)}
	s := New(clock.Now)

	var order []string
	s.AddTask("first", time.Minute, func() { order = append(order, "first") })
	s.AddTask("second", time.Minute, func() { order = append(order, "second") })

	assert.Equal(t, []string{"first", "second"}, s.RunPending())
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestScheduler_TimeUntilNext(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)}
	s := New(clock.Now)

	_, ok := s.TimeUntilNext()
	assert.False(t, ok)

	s.AddTask("export", 15*time.Minute, func() {})
	s.AddTask("refresh", time.Hour, func() {})

	// Both overdue before the first pass.
	wait, ok := s.TimeUntilNext()
	assert.True(t, ok)
	assert.Equal(t, time.Duration(0), wait)

	s.RunPending()
	clock.Advance(5 * time.Minute)
	wait, ok = s.TimeUntilNext()
	assert.True(t, ok)
	assert.Equal(t, 10*time.Minute, wait)
}
