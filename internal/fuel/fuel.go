// Package fuel tracks fuel pellet temperatures. Heat moves from pellet
// to coolant on a single time constant, so each temperature is a first
// order lag behind a power-driven target.
package fuel

import "github.com/reactorlab/pwrsim/internal/config"

// Assembly carries three fuel temperatures: the worth-weighted
// effective temperature the Doppler feedback sees, the hot channel
// temperature, and the peak centerline temperature.
type Assembly struct {
	cfg config.Fuel

	effective  float64
	hotChannel float64
	centerline float64
}

// New returns an assembly isothermal with the given coolant
// temperature, as in a shutdown core.
func New(cfg config.Fuel, coolantF float64) *Assembly {
	a := &Assembly{cfg: cfg}
	a.ResetToCold(coolantF)
	return a
}

func (a *Assembly) EffectiveFuelTempF() float64 { return a.effective }
func (a *Assembly) HotChannelTempF() float64    { return a.hotChannel }
func (a *Assembly) CenterlineTempF() float64    { return a.centerline }

// Update advances the temperatures one step of dt seconds toward their
// targets at the given power fraction, coolant temperature, and coolant
// flow fraction. The film share of the pellet-to-coolant rise scales
// inversely with flow, so the extra rise is zero at rated flow.
func (a *Assembly) Update(power, coolantF, flow, dt float64) {
	if power < 0 {
		power = 0
	}
	if flow < 0.03 {
		flow = 0.03
	}
	g := lagGain(dt, a.cfg.TimeConstantS)
	film := a.cfg.FilmShare * a.cfg.RiseAtRatedF * power * (1/flow - 1)

	a.effective += g * (coolantF + a.cfg.RiseAtRatedF*power + film - a.effective)
	a.hotChannel += g * (coolantF + a.cfg.RiseAtRatedF*a.cfg.HotChannelFactor*power + film - a.hotChannel)
	a.centerline += g * (coolantF + a.cfg.CenterlineRiseF*power + film - a.centerline)
}

// ResetToCold makes the pellet isothermal with the coolant. Used when
// lining up an initial condition.
func (a *Assembly) ResetToCold(coolantF float64) {
	a.effective = coolantF
	a.hotChannel = coolantF
	a.centerline = coolantF
}

// HighTempAlarm reports whether the centerline temperature exceeds the
// configured alarm setpoint.
func (a *Assembly) HighTempAlarm() bool {
	return a.centerline > a.cfg.HighTempAlarmF
}

func lagGain(dt, tau float64) float64 {
	if tau <= 0 || dt >= tau {
		return 1
	}
	return dt / tau
}
