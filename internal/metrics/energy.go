package metrics

import "github.com/reactorlab/pwrsim/internal/core"

// Energy integrates thermal power over the run into produced MWh.
type Energy struct {
	name     string
	ratedMWt float64
	lastTime float64
	samples  int
	mwh      float64
}

func NewEnergy(ratedMWt float64) *Energy {
	return &Energy{
		name:     "energy_mwh",
		ratedMWt: ratedMWt,
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(s core.Snapshot) {
	if e.samples > 0 {
		dt := s.Time - e.lastTime
		if dt > 0 {
			e.mwh += s.ThermalPower * e.ratedMWt * dt / 3600.0
		}
	}
	e.lastTime = s.Time
	e.samples++
}

func (e *Energy) Value() float64 {
	return e.mwh
}

func (e *Energy) Reset() {
	e.mwh = 0
	e.lastTime = 0
	e.samples = 0
}
