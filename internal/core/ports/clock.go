package ports

import "time"

// Clock supplies the current instant. Expiry and due-date checks are pure
// functions of Now, which keeps them deterministic under test.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
