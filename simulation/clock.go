package simulation

import "time"

// Clock reports monotonically increasing elapsed seconds
type Clock struct {
	start time.Time
	now   func() time.Time
}

func NewClock() *Clock {
	return &Clock{start: time.Now(), now: time.Now}
}

// Elapsed returns seconds since the clock was created
func (c *Clock) Elapsed() float64 {
	return c.now().Sub(c.start).Seconds()
}

// FixedClock advances by a constant step on every read, for headless
// rendering and tests
type FixedClock struct {
	Step    float64
	elapsed float64
}

func (c *FixedClock) Elapsed() float64 {
	c.elapsed += c.Step
	return c.elapsed
}

// TimeSource is anything that yields elapsed seconds
type TimeSource interface {
	Elapsed() float64
}
