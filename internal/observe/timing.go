package observe

import "time"

// Timing records when a single keepalive query started and returned
type Timing struct {
	StartedAt   time.Time
	CompletedAt time.Time
}

// NewTiming creates timing with the given start time
func NewTiming(now time.Time) *Timing {
	return &Timing{StartedAt: now}
}

// Complete records completion time
func (t *Timing) Complete(now time.Time) {
	t.CompletedAt = now
}

// Duration returns how long the query ran.
// An incomplete timing reports zero; callers only record completed queries.
func (t *Timing) Duration() time.Duration {
	if t.CompletedAt.IsZero() {
		return 0
	}
	return t.CompletedAt.Sub(t.StartedAt)
}

// Gap returns the time between the start of prev and the start of t
func (t *Timing) Gap(prev *Timing) time.Duration {
	if prev == nil {
		return 0
	}
	return t.StartedAt.Sub(prev.StartedAt)
}
