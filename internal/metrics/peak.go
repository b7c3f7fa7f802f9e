package metrics

import (
	"math"

	"github.com/reactorlab/pwrsim/internal/core"
)

type PeakPower struct {
	name string
	peak float64
}

func NewPeakPower() *PeakPower {
	return &PeakPower{name: "peak_power"}
}

func (p *PeakPower) Name() string { return p.name }

func (p *PeakPower) Observe(s core.Snapshot) {
	if s.NeutronPower > p.peak {
		p.peak = s.NeutronPower
	}
}

func (p *PeakPower) Value() float64 { return p.peak }

func (p *PeakPower) Reset() { p.peak = 0 }

type MaxStartupRate struct {
	name string
	max  float64
}

func NewMaxStartupRate() *MaxStartupRate {
	return &MaxStartupRate{name: "max_sur_dpm"}
}

func (m *MaxStartupRate) Name() string { return m.name }

func (m *MaxStartupRate) Observe(s core.Snapshot) {
	if r := math.Abs(s.StartupRateDPM); r > m.max {
		m.max = r
	}
}

func (m *MaxStartupRate) Value() float64 { return m.max }

func (m *MaxStartupRate) Reset() { m.max = 0 }
