package core

import (
	"github.com/reactorlab/pwrsim/internal/reactivity"
	"github.com/reactorlab/pwrsim/internal/rods"
)

// fuelSettleS is a step far beyond any fuel time constant, used to land
// the fuel temperatures on their steady targets during initialization.
const fuelSettleS = 1e6

// InitializeCold returns the plant to the cold shutdown construction
// state: rods in, heavy boron, clean core, flux at the floor.
func (r *Reactor) InitializeCold() {
	r.banks = rods.New(r.cfg.Rods)
	r.xen.Reset()
	r.boronPPM = coldBoronPPM
	r.inletF = coldInletF
	r.lastFlow = coldFlowFraction
	r.tavgF, r.thotF, r.tcoldF = coldInletF, coldInletF, coldInletF
	r.fuel.ResetToCold(coldInletF)
	r.st = r.kin.Equilibrium(r.kin.Floor())
	r.conv.SetPower(r.kin.Floor())
	r.resetRun()
}

// InitializeHotZeroPower lines the plant up just critical at no load
// temperature: clean core, shutdown and lead control banks out, bank A
// at its insertion limit, boron solved to make up the difference.
func (r *Reactor) InitializeHotZeroPower() error {
	r.banks = rods.New(r.cfg.Rods)
	for k := 0; k < rods.NumBanks; k++ {
		r.banks.SetPosition(rods.Bank(k), r.cfg.Rods.TravelSteps)
	}
	r.banks.SetPosition(rods.BankA, hzpBankASteps)

	r.xen.Reset()
	r.inletF = r.cfg.Thermal.NoLoadTavgF
	r.lastFlow = 1.0
	r.tavgF, r.thotF, r.tcoldF = r.inletF, r.inletF, r.inletF
	r.fuel.ResetToCold(r.inletF)

	est := r.fb.CriticalBoron(reactivity.Inputs{
		FuelTempF: r.fuel.EffectiveFuelTempF(),
		ModTempF:  r.tavgF,
		BoronPPM:  r.boronPPM,
		RodsPcm:   r.banks.NetReactivityPcm(),
	}, r.cfg.Estimator)
	if !est.Converged {
		return &InitError{Condition: "hot zero power", Wrapped: ErrNoConvergence}
	}
	r.boronPPM = r.solveBoronExact(est, r.tavgF)

	r.st = r.kin.Equilibrium(hotZeroPowerFraction)
	r.conv.SetPower(hotZeroPowerFraction)
	r.resetRun()
	return nil
}

// InitializeToEquilibrium lines the plant up steady at the given power
// fraction: rods out, xenon and fuel temperatures at their equilibria,
// coolant on the Tavg program, boron critical.
func (r *Reactor) InitializeToEquilibrium(p float64) error {
	if p <= 0 || p > 1 {
		return &InitError{Condition: "equilibrium", Wrapped: ErrInvalidPower}
	}

	r.banks = rods.New(r.cfg.Rods)
	for k := 0; k < rods.NumBanks; k++ {
		r.banks.SetPosition(rods.Bank(k), r.cfg.Rods.TravelSteps)
	}
	r.xen.SetEquilibrium(p)

	tavg := r.cfg.Thermal.TavgProgram(p)
	dT := r.cfg.Thermal.FullPowerDeltaTF * p
	r.inletF = tavg - dT/2
	r.lastFlow = 1.0
	r.tavgF, r.thotF, r.tcoldF = tavg, r.inletF+dT, r.inletF

	r.fuel.ResetToCold(tavg)
	r.fuel.Update(p, tavg, 1.0, fuelSettleS)

	est := r.fb.CriticalBoron(reactivity.Inputs{
		FuelTempF: r.fuel.EffectiveFuelTempF(),
		ModTempF:  tavg,
		BoronPPM:  r.boronPPM,
		XenonPcm:  r.xen.ReactivityPcm(),
		RodsPcm:   r.banks.NetReactivityPcm(),
	}, r.cfg.Estimator)
	if !est.Converged {
		return &InitError{Condition: "equilibrium", Wrapped: ErrNoConvergence}
	}
	r.boronPPM = r.solveBoronExact(est, tavg)

	r.st = r.kin.Equilibrium(p)
	r.conv.SetPower(p)
	r.resetRun()
	return nil
}

// solveBoronExact removes the residual the fixed point search leaves.
// Every mechanism is linear in boron, so one slope solve lands on zero
// net reactivity to float precision and the plant holds truly steady.
func (r *Reactor) solveBoronExact(est reactivity.BoronEstimate, modF float64) float64 {
	slope := r.cfg.Feedback.BoronWorthPcm +
		r.cfg.Feedback.ModCoeffBoronPcm*(modF-r.cfg.Feedback.ModTempRefF)
	if slope == 0 {
		return est.PPM
	}
	b := est.PPM - est.ResidualPcm/slope
	if b < 0 {
		b = 0
	}
	return b
}

// resetRun clears time, events and trip state after an initial
// condition change, and seeds the edge detectors so standing conditions
// do not fire events on the first tick.
func (r *Reactor) resetRun() {
	r.tripped = false
	r.tripCause = ""
	r.tripTimeS = 0
	r.preTripPower = 0
	r.simTime = 0
	r.timeAtPowerS = 0
	r.events = nil
	r.hasTarget = false

	snap := r.Snapshot()
	r.prev = eventFlags{
		critical:  snap.Critical,
		overpower: snap.OverpowerAlarm,
		highFuel:  snap.FuelTempAlarm,
		rodBottom: snap.RodBottomAlarm,
	}
}
