package metrics

import (
	"math"

	"github.com/reactorlab/pwrsim/internal/core"
	"github.com/reactorlab/pwrsim/internal/rods"
)

// RodTravel accumulates total bank motion in steps, the actuation cost
// of a maneuver.
type RodTravel struct {
	name   string
	prev   [rods.NumBanks]float64
	seeded bool
	total  float64
}

func NewRodTravel() *RodTravel {
	return &RodTravel{name: "rod_travel_steps"}
}

func (r *RodTravel) Name() string { return r.name }

func (r *RodTravel) Observe(s core.Snapshot) {
	if r.seeded {
		for i, p := range s.RodPositions {
			r.total += math.Abs(p - r.prev[i])
		}
	}
	r.prev = s.RodPositions
	r.seeded = true
}

func (r *RodTravel) Value() float64 { return r.total }

func (r *RodTravel) Reset() {
	r.total = 0
	r.seeded = false
}
