package core

import (
	"fmt"
	"math"

	"github.com/reactorlab/pwrsim/internal/config"
	"github.com/reactorlab/pwrsim/internal/kinetics"
	"github.com/reactorlab/pwrsim/internal/power"
	"github.com/reactorlab/pwrsim/internal/reactivity"
	"github.com/reactorlab/pwrsim/internal/rods"
	"github.com/reactorlab/pwrsim/internal/xenon"
)

// Cold shutdown initial condition.
const (
	coldInletF       = 120.0
	coldBoronPPM     = 1500.0
	coldFlowFraction = 0.04
)

// hotZeroPowerFraction is where the flux sits after a hot startup
// lineup, inside the intermediate range.
const hotZeroPowerFraction = 1e-6

// hzpBankASteps is the control bank A position at hot zero power.
const hzpBankASteps = 160.0

// targetBand is how close indicated power must come to the target
// before the target power event fires.
const targetBand = 0.005

// atPowerThreshold is the thermal power fraction above which the plant
// counts as operating at power for the cumulative clock.
const atPowerThreshold = 0.01

// FuelModel supplies fuel temperatures to the Doppler feedback. Update
// takes the thermal power fraction, not flux: pellet heatup follows the
// heat actually deposited in the fuel.
type FuelModel interface {
	Update(power, coolantF, flow, dt float64)
	EffectiveFuelTempF() float64
	CenterlineTempF() float64
	ResetToCold(coolantF float64)
}

// HotChannelModel is an optional FuelModel capability reporting the hot
// channel temperature for display.
type HotChannelModel interface {
	HotChannelTempF() float64
}

// TempAlarmer is an optional FuelModel capability driving the high fuel
// temperature annunciator.
type TempAlarmer interface {
	HighTempAlarm() bool
}

// Input carries the boundary conditions for one tick.
type Input struct {
	InletTempF   float64
	FlowFraction float64
	Dt           float64
}

// Reactor couples kinetics, feedback, rods, xenon, fuel and the power
// rails into one plant. A new reactor sits in cold shutdown: rods in,
// heavy boron, flux at the source range floor.
type Reactor struct {
	cfg *config.Plant

	kin   *kinetics.Solver
	st    kinetics.State
	fb    *reactivity.Feedback
	banks *rods.Banks
	conv  *power.Converter
	xen   *xenon.Model
	fuel  FuelModel

	boronPPM float64
	inletF   float64
	lastFlow float64

	tavgF  float64
	thotF  float64
	tcoldF float64

	simTime      float64
	timeAtPowerS float64

	tripped      bool
	tripCause    string
	tripTimeS    float64
	preTripPower float64

	powerTarget float64
	hasTarget   bool

	events []Event
	prev   eventFlags
}

type eventFlags struct {
	critical  bool
	overpower bool
	highFuel  bool
	rodBottom bool
}

func NewReactor(cfg *config.Plant, fm FuelModel) (*Reactor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("core: nil plant config")
	}
	if fm == nil {
		return nil, ErrNilFuelModel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("core: invalid plant: %w", err)
	}

	r := &Reactor{
		cfg:      cfg,
		kin:      kinetics.NewSolver(cfg.Kinetics),
		fb:       reactivity.New(cfg.Feedback),
		banks:    rods.New(cfg.Rods),
		conv:     power.New(cfg.Thermal, cfg.Trips, cfg.Kinetics.PowerFloor),
		xen:      xenon.New(cfg.Xenon),
		fuel:     fm,
		boronPPM: coldBoronPPM,
		inletF:   coldInletF,
		lastFlow: coldFlowFraction,
	}
	r.st = r.kin.Equilibrium(r.kin.Floor())
	r.tavgF, r.thotF, r.tcoldF = coldInletF, coldInletF, coldInletF
	fm.ResetToCold(coldInletF)
	r.prev.rodBottom = true
	return r, nil
}

// Step advances the plant by in.Dt seconds and returns the resulting
// snapshot. Reactivity is evaluated once from start of tick state and
// held across the kinetics sub steps; rod motion, fuel heatup and
// xenon then advance on the full tick, and the published snapshot
// re-evaluates the budget against the end of tick state.
func (r *Reactor) Step(in Input) Snapshot {
	dt := in.Dt
	if dt <= 0 {
		return r.Snapshot()
	}
	flow := clampFlow(in.FlowFraction, r.cfg.Thermal.FlowFloor)
	r.lastFlow = flow
	r.inletF = in.InletTempF

	modF := r.inletF + r.deltaT(r.conv.ThermalPower(), flow)/2
	budget := r.fb.Evaluate(reactivity.Inputs{
		FuelTempF: r.fuel.EffectiveFuelTempF(),
		ModTempF:  modF,
		BoronPPM:  r.boronPPM,
		XenonPcm:  r.xen.ReactivityPcm(),
		RodsPcm:   r.banks.NetReactivityPcm(),
	})
	rho := budget.TotalPcm()

	// Point kinetics is stiff; split the tick to stay inside the
	// solver's stable step.
	n := int(math.Ceil(dt / r.kin.MaxStableStep()))
	if n < 1 {
		n = 1
	}
	sub := dt / float64(n)
	for i := 0; i < n; i++ {
		r.st = r.kin.Step(r.st, rho, sub)
		r.conv.Update(r.st.Power, sub)
	}

	dT := r.deltaT(r.conv.ThermalPower(), flow)
	r.tavgF = r.inletF + dT/2
	r.thotF = r.inletF + dT
	r.tcoldF = r.inletF
	r.fuel.Update(r.conv.ThermalPower(), r.tavgF, flow, dt)

	r.banks.Step(dt)
	r.xen.Advance(r.st.Power, dt)

	r.simTime += dt
	if r.conv.ThermalPower() > atPowerThreshold {
		r.timeAtPowerS += dt
	}
	r.checkTrips(flow)

	snap := r.Snapshot()
	r.emitEvents(snap)
	return snap
}

// deltaT is the algebraic core temperature rise: nominal full power
// rise scaled by thermal power over flow.
func (r *Reactor) deltaT(thermal, flow float64) float64 {
	return r.cfg.Thermal.FullPowerDeltaTF * thermal / flow
}

func clampFlow(flow, floor float64) float64 {
	if flow < floor {
		return floor
	}
	if flow > 1 {
		return 1
	}
	return flow
}

func (r *Reactor) checkTrips(flow float64) {
	if r.tripped {
		return
	}
	thermal := r.conv.ThermalPower()
	switch {
	case r.conv.IndicatedPower() > r.cfg.Trips.HighFluxFrac:
		r.trip(TripHighFlux)
	case flow < r.cfg.Trips.LowFlowFrac && thermal > r.cfg.Trips.LowFlowMinPower:
		r.trip(TripLowFlow)
	case thermal > r.cfg.Trips.OverTempMinPower &&
		r.deltaT(thermal, flow) > r.cfg.Trips.OverTempDTFactor*r.cfg.Thermal.FullPowerDeltaTF*thermal:
		r.trip(TripOverTempDT)
	}
}

func (r *Reactor) trip(cause string) {
	r.tripped = true
	r.tripCause = cause
	r.tripTimeS = r.simTime
	r.preTripPower = r.conv.IndicatedPower()
	r.banks.Trip()
	r.events = append(r.events, Event{Time: r.simTime, Name: EventReactorTrip})
}

// Snapshot returns the current observable state without advancing time.
func (r *Reactor) Snapshot() Snapshot {
	budget := r.fb.Evaluate(reactivity.Inputs{
		FuelTempF: r.fuel.EffectiveFuelTempF(),
		ModTempF:  r.tavgF,
		BoronPPM:  r.boronPPM,
		XenonPcm:  r.xen.ReactivityPcm(),
		RodsPcm:   r.banks.NetReactivityPcm(),
	})
	return r.buildSnapshot(budget)
}

func (r *Reactor) buildSnapshot(budget reactivity.Budget) Snapshot {
	total := budget.TotalPcm()
	keff, ok := reactivity.ReactivityToKeff(total)
	if !ok {
		keff = math.Inf(1)
	}
	period := math.Inf(1)
	if t, ok := r.conv.Period(); ok {
		period = t
	}

	fuelHot := r.fuel.EffectiveFuelTempF()
	if h, ok := r.fuel.(HotChannelModel); ok {
		fuelHot = h.HotChannelTempF()
	}
	fuelAlarm := false
	if a, ok := r.fuel.(TempAlarmer); ok {
		fuelAlarm = a.HighTempAlarm()
	}

	return Snapshot{
		Time:         r.simTime,
		TimeAtPowerS: r.timeAtPowerS,

		NeutronPower:   r.conv.NeutronPower(),
		ThermalPower:   r.conv.ThermalPower(),
		ThermalMWt:     r.conv.ThermalPower() * r.cfg.RatedMWt,
		IndicatedPower: r.conv.IndicatedPower(),

		NeutronRatePctPerS: r.conv.NeutronRatePctPerS(),
		ThermalRatePctPerS: r.conv.ThermalRatePctPerS(),
		RatePctPerS:        r.conv.RatePctPerS(),

		StartupRateDPM: r.conv.StartupRateDPM(),
		PeriodS:        period,
		Keff:           keff,

		TavgF:           r.tavgF,
		THotF:           r.thotF,
		TColdF:          r.tcoldF,
		FuelTempF:       r.fuel.EffectiveFuelTempF(),
		FuelHotF:        fuelHot,
		FuelCenterlineF: r.fuel.CenterlineTempF(),

		BoronPPM:     r.boronPPM,
		FlowFraction: r.lastFlow,
		XenonLevel:   r.xen.Level(),
		IodineLevel:  r.xen.IodineLevel(),

		Budget: budget,

		RodPositions: r.banks.Positions(),
		RodsMoving:   r.banks.Moving(),

		Tripped:      r.tripped,
		TripCause:    r.tripCause,
		TripTimeS:    r.tripTimeS,
		PreTripPower: r.preTripPower,

		Critical:          r.fb.IsCritical(total),
		SourceRangeValid:  r.conv.SourceRangeValid(),
		IntermediateValid: r.conv.IntermediateRangeValid(),
		PowerRangeValid:   r.conv.PowerRangeValid(),
		OverpowerAlarm:    r.conv.OverpowerAlarm(),
		HighRateAlarm:     r.conv.HighRateAlarm(),
		RodBottomAlarm:    r.banks.RodBottomAlarm(),
		SequenceAlarm:     r.banks.SequenceAlarm(),
		FuelTempAlarm:     fuelAlarm,
	}
}

func (r *Reactor) emitEvents(s Snapshot) {
	if s.Critical && !r.prev.critical && !r.tripped {
		r.events = append(r.events, Event{Time: r.simTime, Name: EventCriticality})
	}
	r.prev.critical = s.Critical

	if s.OverpowerAlarm && !r.prev.overpower {
		r.events = append(r.events, Event{Time: r.simTime, Name: EventHighPower})
	}
	r.prev.overpower = s.OverpowerAlarm

	if s.FuelTempAlarm && !r.prev.highFuel {
		r.events = append(r.events, Event{Time: r.simTime, Name: EventHighFuelTemp})
	}
	r.prev.highFuel = s.FuelTempAlarm

	if s.RodBottomAlarm && !r.prev.rodBottom && !r.tripped {
		r.events = append(r.events, Event{Time: r.simTime, Name: EventRodBottom})
	}
	r.prev.rodBottom = s.RodBottomAlarm

	if r.hasTarget && math.Abs(s.IndicatedPower-r.powerTarget) <= targetBand {
		r.events = append(r.events, Event{Time: r.simTime, Name: EventTargetPower})
		r.hasTarget = false
	}
}

// PollEvents drains and returns the events accumulated since the last
// call.
func (r *Reactor) PollEvents() []Event {
	ev := r.events
	r.events = nil
	return ev
}

// Rod commands delegate to the bank model, which rejects them while
// tripped or at the travel limits.

func (r *Reactor) WithdrawBank(b rods.Bank) bool { return r.banks.Withdraw(b) }
func (r *Reactor) InsertBank(b rods.Bank) bool   { return r.banks.Insert(b) }
func (r *Reactor) StopBank(b rods.Bank)          { r.banks.Stop(b) }
func (r *Reactor) WithdrawSequence() bool        { return r.banks.WithdrawSequence() }
func (r *Reactor) InsertSequence() bool          { return r.banks.InsertSequence() }
func (r *Reactor) StopRods()                     { r.banks.StopAll() }

// ManualTrip latches a trip with the manual cause. A no-op when the
// reactor already tripped.
func (r *Reactor) ManualTrip() {
	if r.tripped {
		return
	}
	r.trip(TripManual)
}

// ResetTrip rearms the plant after a trip: every bank at the bottom and
// flux back below the reset limit, otherwise an error says which
// interlock is blocking.
func (r *Reactor) ResetTrip() error {
	if !r.tripped {
		return ErrNotTripped
	}
	if !r.banks.AllIn() {
		return ErrRodsWithdrawn
	}
	if r.conv.NeutronPower() > r.cfg.Trips.ResetMaxPower {
		return ErrPowerTooHigh
	}
	r.banks.ResetTrip()
	r.tripped = false
	r.tripCause = ""
	r.tripTimeS = 0
	r.preTripPower = 0
	return nil
}

// SetBoron jumps the boron concentration, clamped non negative.
// Dilution and boration transients go through AddBoron.
func (r *Reactor) SetBoron(ppm float64) {
	if ppm < 0 {
		ppm = 0
	}
	r.boronPPM = ppm
}

func (r *Reactor) AddBoron(delta float64) { r.SetBoron(r.boronPPM + delta) }

// SetPowerTarget arms the target power event at the given fraction.
func (r *Reactor) SetPowerTarget(frac float64) {
	r.powerTarget = frac
	r.hasTarget = true
}

func (r *Reactor) ClearPowerTarget() { r.hasTarget = false }

func (r *Reactor) Tripped() bool         { return r.tripped }
func (r *Reactor) TripCause() string     { return r.tripCause }
func (r *Reactor) BoronPPM() float64     { return r.boronPPM }
func (r *Reactor) SimTime() float64      { return r.simTime }
func (r *Reactor) TimeAtPowerS() float64 { return r.timeAtPowerS }

// EstimateCriticalBoron runs the critical boron search at the current
// plant conditions without changing anything.
func (r *Reactor) EstimateCriticalBoron() reactivity.BoronEstimate {
	return r.fb.CriticalBoron(reactivity.Inputs{
		FuelTempF: r.fuel.EffectiveFuelTempF(),
		ModTempF:  r.tavgF,
		BoronPPM:  r.boronPPM,
		XenonPcm:  r.xen.ReactivityPcm(),
		RodsPcm:   r.banks.NetReactivityPcm(),
	}, r.cfg.Estimator)
}
