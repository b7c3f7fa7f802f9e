// Package xenon models iodine-135 and xenon-135 poisoning. Levels are
// normalized so equilibrium xenon at rated power reads exactly 1.0,
// which makes the reactivity worth a single configured scale factor.
package xenon

import "github.com/reactorlab/pwrsim/internal/config"

// Model integrates the two-isotope decay chain. Xenon arrives directly
// from fission and from iodine decay, and leaves by its own decay and
// by neutron burnout proportional to power.
type Model struct {
	cfg config.Xenon

	// Normalized production yields, split so total production at rated
	// power equals total removal at a xenon level of 1.0.
	yieldIodine float64
	yieldXenon  float64

	iodine float64
	xenon  float64
}

func New(cfg config.Xenon) *Model {
	removal := cfg.XenonDecay + cfg.BurnoutAtRated
	return &Model{
		cfg:         cfg,
		yieldIodine: (1 - cfg.DirectYield) * removal,
		yieldXenon:  cfg.DirectYield * removal,
	}
}

func (m *Model) Level() float64       { return m.xenon }
func (m *Model) IodineLevel() float64 { return m.iodine }

// derive returns (dI/dt, dX/dt) at the given levels and power fraction.
func (m *Model) derive(iodine, xen, power float64) (float64, float64) {
	di := m.yieldIodine*power - m.cfg.IodineDecay*iodine
	dx := m.yieldXenon*power + m.cfg.IodineDecay*iodine -
		m.cfg.XenonDecay*xen - m.cfg.BurnoutAtRated*power*xen
	return di, dx
}

// Advance integrates one step of dt seconds at the given power
// fraction. A single RK4 step; the chain's time constants run to hours,
// so any simulation tick is far inside the stable region.
func (m *Model) Advance(power, dt float64) {
	if dt <= 0 {
		return
	}

	i1, x1 := m.derive(m.iodine, m.xenon, power)
	i2, x2 := m.derive(m.iodine+0.5*dt*i1, m.xenon+0.5*dt*x1, power)
	i3, x3 := m.derive(m.iodine+0.5*dt*i2, m.xenon+0.5*dt*x2, power)
	i4, x4 := m.derive(m.iodine+dt*i3, m.xenon+dt*x3, power)

	dt6 := dt / 6.0
	m.iodine += dt6 * (i1 + 2*i2 + 2*i3 + i4)
	m.xenon += dt6 * (x1 + 2*x2 + 2*x3 + x4)

	if m.iodine < 0 {
		m.iodine = 0
	}
	if m.xenon < 0 {
		m.xenon = 0
	}
}

// ReactivityPcm returns the xenon contribution to core reactivity,
// clamped between the configured floor and zero.
func (m *Model) ReactivityPcm() float64 {
	rho := m.cfg.EquilibriumPcm * m.xenon
	if rho < m.cfg.FloorPcm {
		return m.cfg.FloorPcm
	}
	if rho > 0 {
		return 0
	}
	return rho
}

// SetEquilibrium places both isotopes at their steady levels for the
// given power fraction.
func (m *Model) SetEquilibrium(power float64) {
	if power < 0 {
		power = 0
	}
	m.iodine = m.yieldIodine * power / m.cfg.IodineDecay
	m.xenon = power * (m.yieldIodine + m.yieldXenon) /
		(m.cfg.XenonDecay + m.cfg.BurnoutAtRated*power)
}

// Reset clears both isotopes, as in a clean core.
func (m *Model) Reset() {
	m.iodine = 0
	m.xenon = 0
}
