package poll

import "time"

// ViewState describes what a Retained value can show.
type ViewState int

const (
	// Empty means nothing has been attempted yet.
	Empty ViewState = iota
	// Fresh means the last attempt succeeded.
	Fresh
	// Stale means there is a value but the last attempt failed.
	Stale
	// Failed means every attempt so far has failed. This is the only state
	// with nothing to show besides the error.
	Failed
)

func (s ViewState) String() string {
	switch s {
	case Empty:
		return "empty"
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Retained keeps the last good value of a polled resource next to the
// outcome of the latest attempt. A failure never clears the value.
// The zero value is Empty.
type Retained[T any] struct {
	value     T
	has       bool
	err       error
	updatedAt time.Time // last success
	triedAt   time.Time // last attempt
}

// Succeed replaces the value and clears the error.
func (r *Retained[T]) Succeed(v T, at time.Time) {
	r.value = v
	r.has = true
	r.err = nil
	r.updatedAt = at
	r.triedAt = at
}

// Fail records a failed attempt and keeps the previous value.
func (r *Retained[T]) Fail(err error, at time.Time) {
	r.err = err
	r.triedAt = at
}

// Reset forgets everything, e.g. when the subscription parameters change.
func (r *Retained[T]) Reset() {
	*r = Retained[T]{}
}

// Value returns the last good value.
func (r *Retained[T]) Value() (T, bool) {
	return r.value, r.has
}

// Err returns the error of the latest attempt, or nil if it succeeded.
func (r *Retained[T]) Err() error {
	return r.err
}

// UpdatedAt returns when the value was last replaced.
func (r *Retained[T]) UpdatedAt() time.Time {
	return r.updatedAt
}

// TriedAt returns when the latest attempt settled.
func (r *Retained[T]) TriedAt() time.Time {
	return r.triedAt
}

// State classifies the retained value.
func (r *Retained[T]) State() ViewState {
	switch {
	case r.has && r.err != nil:
		return Stale
	case r.has:
		return Fresh
	case r.err != nil:
		return Failed
	default:
		return Empty
	}
}
