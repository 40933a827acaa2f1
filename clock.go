package decs

import "time"

// Clock is the time resource maintained by a Runner. Systems declare
// Read[Clock]() to use it.
type Clock struct {
	// Tick is the number of the tick being dispatched, starting at 1.
	Tick uint64

	// Delta is the wall time since the previous tick started.
	Delta time.Duration

	// Elapsed is the wall time since the first tick started.
	Elapsed time.Duration
}

// DeltaSeconds returns Delta in seconds.
func (c *Clock) DeltaSeconds() float32 {
	return float32(c.Delta.Seconds())
}

func (c *Clock) advance(tick uint64, delta time.Duration) {
	c.Tick = tick
	c.Delta = delta
	c.Elapsed += delta
}
