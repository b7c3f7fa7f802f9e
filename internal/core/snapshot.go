package core

import (
	"github.com/reactorlab/pwrsim/internal/reactivity"
	"github.com/reactorlab/pwrsim/internal/rods"
)

// Snapshot is the full observable plant state after one tick.
// Powers are fractions of rated, temperatures degrees F, reactivity in
// pcm. PeriodS is +Inf when the core is steady.
type Snapshot struct {
	Time         float64
	TimeAtPowerS float64

	NeutronPower   float64
	ThermalPower   float64
	ThermalMWt     float64
	IndicatedPower float64

	NeutronRatePctPerS float64
	ThermalRatePctPerS float64
	RatePctPerS        float64

	StartupRateDPM float64
	PeriodS        float64
	Keff           float64

	TavgF           float64
	THotF           float64
	TColdF          float64
	FuelTempF       float64
	FuelHotF        float64
	FuelCenterlineF float64

	BoronPPM     float64
	FlowFraction float64
	XenonLevel   float64
	IodineLevel  float64

	Budget reactivity.Budget

	RodPositions [rods.NumBanks]float64
	RodsMoving   bool

	Tripped      bool
	TripCause    string
	TripTimeS    float64
	PreTripPower float64

	Critical          bool
	SourceRangeValid  bool
	IntermediateValid bool
	PowerRangeValid   bool
	OverpowerAlarm    bool
	HighRateAlarm     bool
	RodBottomAlarm    bool
	SequenceAlarm     bool
	FuelTempAlarm     bool
}

// TotalPcm returns net reactivity from the budget.
func (s Snapshot) TotalPcm() float64 { return s.Budget.TotalPcm() }

// Subcritical reports negative net reactivity outside the critical band.
func (s Snapshot) Subcritical() bool { return !s.Critical && s.Budget.TotalPcm() < 0 }

// Supercritical reports positive net reactivity outside the critical band.
func (s Snapshot) Supercritical() bool { return !s.Critical && s.Budget.TotalPcm() > 0 }

// Event marks a discrete plant occurrence with its simulation time.
type Event struct {
	Time float64 `json:"time"`
	Name string  `json:"name"`
}

// Event names, as they appear in logs and on the annunciator history.
const (
	EventCriticality  = "CRITICALITY"
	EventReactorTrip  = "REACTOR TRIP"
	EventTargetPower  = "TARGET POWER"
	EventHighPower    = "HIGH POWER"
	EventHighFuelTemp = "HIGH FUEL TEMP"
	EventRodBottom    = "ROD BOTTOM"
)

// Trip causes, latched at the moment of the trip.
const (
	TripManual     = "MANUAL"
	TripHighFlux   = "HIGH FLUX"
	TripLowFlow    = "LOW FLOW"
	TripOverTempDT = "OVERTEMP DT"
)
