package lineage

import "time"

// TokenSource produces the uniqueness half of a lineage id.
type TokenSource interface {
	Next() int64
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() int64

func (f TokenFunc) Next() int64 { return f() }

// ClockTokens yields wall-clock nanoseconds, bumped by one whenever the clock
// has not advanced since the previous token, so every token it returns is
// strictly greater than the last.
type ClockTokens struct {
	now  func() time.Time
	last int64
}

func NewClockTokens() *ClockTokens {
	return &ClockTokens{now: time.Now}
}

func (c *ClockTokens) Next() int64 {
	t := c.now().UnixNano()
	if t <= c.last {
		t = c.last + 1
	}
	c.last = t
	return t
}
