package metrics

import "github.com/reactorlab/pwrsim/internal/core"

// TripCount counts reactor trips over the run, one per latch edge.
type TripCount struct {
	name    string
	tripped bool
	count   int
}

func NewTripCount() *TripCount {
	return &TripCount{name: "trip_count"}
}

func (c *TripCount) Name() string { return c.name }

func (c *TripCount) Observe(s core.Snapshot) {
	if s.Tripped && !c.tripped {
		c.count++
	}
	c.tripped = s.Tripped
}

func (c *TripCount) Value() float64 { return float64(c.count) }

func (c *TripCount) Reset() {
	c.count = 0
	c.tripped = false
}
