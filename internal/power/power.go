// Package power converts raw neutron population into the three power
// signals the plant actually sees: prompt neutron power, lagged thermal
// power, and the indicated power a detector channel reports.
package power

import (
	"math"

	"github.com/reactorlab/pwrsim/internal/config"
)

// Converter tracks the three power rails and their smoothed rates.
// All powers are fractions of rated; rates are percent per second.
type Converter struct {
	thermal config.Thermal
	limits  config.Trips

	neutron   float64
	thermalP  float64
	indicated float64

	neutronRate   float64
	thermalRate   float64
	indicatedRate float64
}

// New returns a converter with every rail settled at the initial power,
// as a plant that has been steady for a long time would read.
func New(thermal config.Thermal, limits config.Trips, initial float64) *Converter {
	return &Converter{
		thermal:   thermal,
		limits:    limits,
		neutron:   initial,
		thermalP:  initial,
		indicated: initial,
	}
}

// lagGain is the first order update fraction for one step of dt against
// time constant tau. Saturates at 1 so coarse steps settle instead of
// overshooting.
func lagGain(dt, tau float64) float64 {
	if tau <= 0 || dt >= tau {
		return 1
	}
	return dt / tau
}

// Update feeds one kinetics step into the rails. The neutron rail is
// prompt, thermal power lags it through the fuel heat capacity, and the
// indicated channel reads the thermal rail through the detector lag.
// Rates are smoothed through the rate filter so a single step change
// does not slam the rate meters.
func (c *Converter) Update(neutron, dt float64) {
	if dt <= 0 {
		c.neutron = neutron
		return
	}

	prevNeutron := c.neutron
	prevThermal := c.thermalP
	prevIndicated := c.indicated

	c.neutron = neutron
	c.thermalP += lagGain(dt, c.thermal.ThermalLagS) * (neutron - c.thermalP)
	c.indicated += lagGain(dt, c.thermal.DetectorLagS) * (c.thermalP - c.indicated)

	g := lagGain(dt, c.thermal.RateLagS)
	c.neutronRate += g * (100*(c.neutron-prevNeutron)/dt - c.neutronRate)
	c.thermalRate += g * (100*(c.thermalP-prevThermal)/dt - c.thermalRate)
	c.indicatedRate += g * (100*(c.indicated-prevIndicated)/dt - c.indicatedRate)
}

// SetPower settles every rail at p and zeroes the rate filters.
// Used when jumping to an initial condition.
func (c *Converter) SetPower(p float64) {
	c.neutron = p
	c.thermalP = p
	c.indicated = p
	c.neutronRate = 0
	c.thermalRate = 0
	c.indicatedRate = 0
}

func (c *Converter) NeutronPower() float64   { return c.neutron }
func (c *Converter) ThermalPower() float64   { return c.thermalP }
func (c *Converter) IndicatedPower() float64 { return c.indicated }

// RatePctPerS returns the smoothed indicated power rate in percent of
// rated per second. This is the rate the control board meters show.
func (c *Converter) RatePctPerS() float64 { return c.indicatedRate }

func (c *Converter) NeutronRatePctPerS() float64 { return c.neutronRate }
func (c *Converter) ThermalRatePctPerS() float64 { return c.thermalRate }

// StartupRateDPM returns the startup rate in decades per minute,
// derived from the smoothed neutron rail rate.
func (c *Converter) StartupRateDPM() float64 {
	if c.neutron <= 0 {
		return 0
	}
	return 60 * (c.neutronRate / 100) / (c.neutron * math.Ln10)
}

// Period returns the reactor period in seconds. The second return is
// false when the rate is below measurement noise, meaning an
// effectively infinite period.
func (c *Converter) Period() (float64, bool) {
	if math.Abs(c.neutronRate) < 1e-9 || c.neutron <= 0 {
		return 0, false
	}
	return 100 * c.neutron / c.neutronRate, true
}

// SourceRangeValid reports whether the source range channel is on
// scale. It saturates once flux climbs past its ceiling.
func (c *Converter) SourceRangeValid() bool {
	return c.neutron < c.thermal.SourceRangeMax
}

func (c *Converter) IntermediateRangeValid() bool {
	return c.neutron >= c.thermal.IntermediateRangeMin && c.neutron <= c.thermal.IntermediateRangeMax
}

// PowerRangeValid reports whether the power range channels read above
// their minimum usable indication.
func (c *Converter) PowerRangeValid() bool {
	return c.indicated >= c.thermal.PowerRangeMin
}

// OverpowerAlarm lights above the overpower setpoint on the indicated
// rail. Alarm only; the trip comparator lives with the trip logic.
func (c *Converter) OverpowerAlarm() bool {
	return c.indicated > c.limits.OverpowerAlarm
}

// HighRateAlarm lights when the indicated rate exceeds the high rate
// setpoint in either direction.
func (c *Converter) HighRateAlarm() bool {
	return math.Abs(c.indicatedRate) > c.limits.HighRatePctPerS
}
