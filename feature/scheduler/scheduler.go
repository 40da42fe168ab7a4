package scheduler

import "time"

type task struct {
	name     string
	interval time.Duration
	callback func()
	lastRun  time.Time
}

// Scheduler triggers low-frequency side tasks from the single-threaded
// run loop. The clock is injected so due-ness is testable without real
// sleeping. Tasks run cooperatively: RunPending executes due callbacks
// inline and never spawns goroutines.
type Scheduler struct {
	now   func() time.Time
	tasks []*task
}

// New creates a scheduler. A nil clock defaults to time.Now.
func New(now func() time.Time) *Scheduler {
	if now == nil {
		now = time.Now
	}
	return &Scheduler{now: now}
}

// AddTask registers a periodic task. Tasks are due immediately on the
// first RunPending after registration. Registration order is execution
// order when several tasks are due in the same pass.
func (s *Scheduler) AddTask(name string, interval time.Duration, callback func()) {
	s.tasks = append(s.tasks, &task{
		name:     name,
		interval: interval,
		callback: callback,
		lastRun:  s.now().Add(-interval),
	})
}

// RunPending executes every due task and returns their names.
func (s *Scheduler) RunPending() []string {
	now := s.now()
	var executed []string
	for _, t := range s.tasks {
		if now.Sub(t.lastRun) >= t.interval {
			t.callback()
			t.lastRun = now
			executed = append(executed, t.name)
		}
	}
	return executed
}

// TimeUntilNext returns the wait until the earliest task is due, and
// false if no tasks are registered.
func (s *Scheduler) TimeUntilNext() (time.Duration, bool) {
	if len(s.tasks) == 0 {
		return 0, false
	}
	now := s.now()
	min := time.Duration(-1)
	for _, t := range s.tasks {
		remaining := t.interval - now.Sub(t.lastRun)
		if remaining < 0 {
			remaining = 0
		}
		if min < 0 || remaining < min {
			min = remaining
		}
	}
	return min, true
}
