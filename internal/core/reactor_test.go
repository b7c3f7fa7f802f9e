package core

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/reactorlab/pwrsim/internal/config"
	"github.com/reactorlab/pwrsim/internal/fuel"
	"github.com/reactorlab/pwrsim/internal/rods"
)

func newTestReactor() *Reactor {
	cfg := config.DefaultPlant()
	r, err := NewReactor(cfg, fuel.New(cfg.Fuel, 120))
	Expect(err).NotTo(HaveOccurred())
	return r
}

// advance runs the reactor for the given span at fixed boundary
// conditions and returns the last snapshot.
func advance(r *Reactor, inletF, flow, seconds float64) Snapshot {
	var s Snapshot
	ticks := int(seconds / 0.5)
	for i := 0; i < ticks; i++ {
		s = r.Step(Input{InletTempF: inletF, FlowFraction: flow, Dt: 0.5})
	}
	return s
}

func eventNames(events []Event) []string {
	names := make([]string, 0, len(events))
	for _, e := range events {
		names = append(names, e.Name)
	}
	return names
}

var _ = Describe("NewReactor", func() {
	It("rejects a nil fuel model", func() {
		_, err := NewReactor(config.DefaultPlant(), nil)
		Expect(err).To(MatchError(ErrNilFuelModel))
	})

	It("rejects a nil plant", func() {
		cfg := config.DefaultPlant()
		_, err := NewReactor(nil, fuel.New(cfg.Fuel, 120))
		Expect(err).To(HaveOccurred())
	})

	It("rejects an invalid plant", func() {
		cfg := config.DefaultPlant()
		cfg.Kinetics.GenerationTime = 0
		_, err := NewReactor(cfg, fuel.New(cfg.Fuel, 120))
		Expect(err).To(HaveOccurred())
	})

	It("starts in cold shutdown", func() {
		r := newTestReactor()
		s := r.Snapshot()

		Expect(s.Subcritical()).To(BeTrue())
		Expect(s.Tripped).To(BeFalse())
		Expect(s.BoronPPM).To(Equal(1500.0))
		Expect(s.RodPositions).To(Equal([rods.NumBanks]float64{}))
		Expect(s.RodBottomAlarm).To(BeTrue())
		Expect(s.SourceRangeValid).To(BeTrue())
		Expect(s.NeutronPower).To(BeNumerically("<=", 1e-8))
	})
})

var _ = Describe("Cold shutdown", func() {
	It("holds subcritical at the source range floor", func() {
		r := newTestReactor()
		s := advance(r, 120, 0.04, 120)

		Expect(s.Subcritical()).To(BeTrue())
		Expect(s.NeutronPower).To(BeNumerically("<=", 1e-8))
		Expect(s.Budget.TotalPcm()).To(BeNumerically("<", -5000))
		Expect(s.TimeAtPowerS).To(BeZero())
		Expect(r.PollEvents()).To(BeEmpty())
	})
})

var _ = Describe("Hot zero power", func() {
	var r *Reactor

	BeforeEach(func() {
		r = newTestReactor()
		Expect(r.InitializeHotZeroPower()).To(Succeed())
	})

	It("lines up exactly critical", func() {
		s := r.Snapshot()

		Expect(s.Critical).To(BeTrue())
		Expect(math.Abs(s.Budget.TotalPcm())).To(BeNumerically("<", 0.001))
		Expect(s.BoronPPM).To(BeNumerically("~", 1179.6, 2.0))
		Expect(s.TavgF).To(Equal(557.0))
		Expect(s.RodPositions[rods.BankA]).To(Equal(160.0))
		Expect(s.RodPositions[rods.BankD]).To(Equal(228.0))
		Expect(s.XenonLevel).To(BeZero())
	})

	It("holds flux steady while untouched", func() {
		s := advance(r, 557, 1.0, 120)

		Expect(s.NeutronPower).To(BeNumerically("~", 1e-6, 1e-8))
		Expect(s.Critical).To(BeTrue())
		Expect(math.Abs(s.StartupRateDPM)).To(BeNumerically("<", 0.001))
	})

	It("goes supercritical on rod withdrawal", func() {
		Expect(r.WithdrawBank(rods.BankA)).To(BeTrue())
		s := advance(r, 557, 1.0, 60)
		r.StopBank(rods.BankA)

		Expect(s.NeutronPower).To(BeNumerically(">", 2e-6))
		Expect(s.StartupRateDPM).To(BeNumerically(">", 0))
		Expect(s.PeriodS).To(BeNumerically(">", 0))
		Expect(math.IsInf(s.PeriodS, 1)).To(BeFalse())
		Expect(s.SequenceAlarm).To(BeFalse())
	})
})

var _ = Describe("Equilibrium at power", func() {
	var r *Reactor

	BeforeEach(func() {
		r = newTestReactor()
		Expect(r.InitializeToEquilibrium(1.0)).To(Succeed())
	})

	It("rejects power fractions outside the unit interval", func() {
		Expect(r.InitializeToEquilibrium(0)).To(MatchError(ErrInvalidPower))
		Expect(r.InitializeToEquilibrium(1.5)).To(MatchError(ErrInvalidPower))
	})

	It("sits on the temperature program with critical boron", func() {
		s := r.Snapshot()

		Expect(s.TavgF).To(BeNumerically("~", 588.0, 1e-9))
		Expect(s.THotF).To(BeNumerically("~", 619.0, 1e-9))
		Expect(s.TColdF).To(BeNumerically("~", 557.0, 1e-9))
		Expect(s.FuelTempF).To(BeNumerically("~", 1388.0, 1e-9))
		Expect(s.XenonLevel).To(BeNumerically("~", 1.0, 1e-9))
		Expect(s.BoronPPM).To(BeNumerically("~", 717.5, 2.0))
		Expect(math.Abs(s.Budget.TotalPcm())).To(BeNumerically("<", 1e-6))
		Expect(s.Keff).To(BeNumerically("~", 1.0, 1e-9))
	})

	It("holds full power without drifting", func() {
		s := advance(r, 557, 1.0, 300)

		Expect(s.NeutronPower).To(BeNumerically("~", 1.0, 1e-4))
		Expect(s.ThermalPower).To(BeNumerically("~", 1.0, 1e-4))
		Expect(s.Tripped).To(BeFalse())
		Expect(s.OverpowerAlarm).To(BeFalse())
		Expect(math.IsInf(s.PeriodS, 1)).To(BeTrue())
	})

	It("accumulates time at power tick by tick", func() {
		s := advance(r, 557, 1.0, 60)
		Expect(s.TimeAtPowerS).To(BeNumerically("~", 60.0, 1e-9))
	})

	It("reports its own boron as critical", func() {
		est := r.EstimateCriticalBoron()
		Expect(est.Converged).To(BeTrue())
		Expect(est.PPM).To(BeNumerically("~", r.BoronPPM(), 0.5))
	})
})

var _ = Describe("Manual trip", func() {
	var r *Reactor

	BeforeEach(func() {
		r = newTestReactor()
		Expect(r.InitializeToEquilibrium(1.0)).To(Succeed())
	})

	It("drops every bank and collapses power", func() {
		r.ManualTrip()
		Expect(r.Tripped()).To(BeTrue())
		Expect(r.TripCause()).To(Equal(TripManual))
		Expect(eventNames(r.PollEvents())).To(ContainElement(EventReactorTrip))

		s := advance(r, 557, 1.0, 2.5)
		for _, p := range s.RodPositions {
			Expect(p).To(BeZero())
		}
		Expect(s.NeutronPower).To(BeNumerically("<", 0.1))

		// Stored heat keeps thermal power above the collapsing flux.
		Expect(s.ThermalPower).To(BeNumerically(">", s.NeutronPower))
	})

	It("records the pre-trip power and trip time", func() {
		advance(r, 557, 1.0, 10)
		r.ManualTrip()

		s := advance(r, 557, 1.0, 5)
		Expect(s.TripTimeS).To(BeNumerically("~", 10.0, 1e-9))
		Expect(s.PreTripPower).To(BeNumerically("~", 1.0, 1e-3))

		// The record survives the power collapse after the trip.
		Expect(s.IndicatedPower).To(BeNumerically("<", s.PreTripPower))
	})

	It("rejects rod commands until reset", func() {
		r.ManualTrip()
		Expect(r.WithdrawBank(rods.BankA)).To(BeFalse())
		Expect(r.WithdrawSequence()).To(BeFalse())
	})

	It("gates the reset on rods and power", func() {
		r.ManualTrip()
		Expect(r.ResetTrip()).To(MatchError(ErrRodsWithdrawn))

		advance(r, 557, 1.0, 5)
		Expect(r.ResetTrip()).To(MatchError(ErrPowerTooHigh))

		advance(r, 557, 1.0, 600)
		Expect(r.ResetTrip()).To(Succeed())
		Expect(r.Tripped()).To(BeFalse())
		Expect(r.TripCause()).To(BeEmpty())
		Expect(r.WithdrawBank(rods.BankSA)).To(BeTrue())
	})

	It("returns an error when resetting an untripped plant", func() {
		Expect(r.ResetTrip()).To(MatchError(ErrNotTripped))
	})
})

var _ = Describe("Automatic trips", func() {
	var r *Reactor

	BeforeEach(func() {
		r = newTestReactor()
		Expect(r.InitializeToEquilibrium(1.0)).To(Succeed())
	})

	It("trips on high flux after a reactivity insertion", func() {
		// A 300 pcm step: the prompt jump nearly doubles neutron power
		// and the thermal rail carries the indicated channel past the
		// setpoint within a second.
		r.SetBoron(r.BoronPPM() - 37.5)
		s := advance(r, 557, 1.0, 2)

		Expect(s.Tripped).To(BeTrue())
		Expect(s.TripCause).To(Equal(TripHighFlux))
	})

	It("trips on low flow at power", func() {
		s := r.Step(Input{InletTempF: 557, FlowFraction: 0.80, Dt: 0.5})

		Expect(s.Tripped).To(BeTrue())
		Expect(s.TripCause).To(Equal(TripLowFlow))
	})

	It("does not trip on low flow at shutdown power", func() {
		rr := newTestReactor()
		s := rr.Step(Input{InletTempF: 120, FlowFraction: 0.04, Dt: 0.5})

		Expect(s.Tripped).To(BeFalse())
	})

	It("falls back to overtemperature delta T when the flow trip is fenced out", func() {
		cfg := config.DefaultPlant()
		cfg.Trips.LowFlowFrac = 0.70
		rr, err := NewReactor(cfg, fuel.New(cfg.Fuel, 120))
		Expect(err).NotTo(HaveOccurred())
		Expect(rr.InitializeToEquilibrium(1.0)).To(Succeed())

		s := rr.Step(Input{InletTempF: 557, FlowFraction: 0.78, Dt: 0.5})
		Expect(s.Tripped).To(BeTrue())
		Expect(s.TripCause).To(Equal(TripOverTempDT))
	})

	It("keeps the first cause once latched", func() {
		r.ManualTrip()
		advance(r, 557, 0.5, 10)
		Expect(r.TripCause()).To(Equal(TripManual))
	})
})

var _ = Describe("Events", func() {
	It("announces criticality once on the way up", func() {
		r := newTestReactor()
		Expect(r.InitializeHotZeroPower()).To(Succeed())

		// Borate well below critical, then dilute back through the band.
		r.AddBoron(40)
		advance(r, 557, 1.0, 5)
		r.PollEvents()

		r.AddBoron(-40)
		advance(r, 557, 1.0, 5)
		names := eventNames(r.PollEvents())
		Expect(names).To(ContainElement(EventCriticality))
	})

	It("fires the target power event exactly once", func() {
		r := newTestReactor()
		Expect(r.InitializeToEquilibrium(0.6)).To(Succeed())

		r.SetPowerTarget(0.6)
		advance(r, 557, 1.0, 2)
		first := eventNames(r.PollEvents())
		Expect(first).To(ContainElement(EventTargetPower))

		advance(r, 557, 1.0, 2)
		Expect(eventNames(r.PollEvents())).NotTo(ContainElement(EventTargetPower))
	})

	It("announces high power on the overpower alarm edge", func() {
		cfg := config.DefaultPlant()
		cfg.Trips.HighFluxFrac = 2.0 // fence out the trip to reach the alarm
		r, err := NewReactor(cfg, fuel.New(cfg.Fuel, 120))
		Expect(err).NotTo(HaveOccurred())
		Expect(r.InitializeToEquilibrium(1.0)).To(Succeed())

		r.SetBoron(r.BoronPPM() - 60)
		advance(r, 557, 1.0, 3)
		Expect(eventNames(r.PollEvents())).To(ContainElement(EventHighPower))
	})
})

var _ = Describe("Boron dilution transient", func() {
	It("settles at a higher power through temperature feedback", func() {
		r := newTestReactor()
		Expect(r.InitializeToEquilibrium(0.5)).To(Succeed())

		r.AddBoron(-50)
		mid := advance(r, 557, 1.0, 30)
		Expect(mid.NeutronPower).To(BeNumerically(">", 0.5))

		final := advance(r, 557, 1.0, 900)
		Expect(final.NeutronPower).To(BeNumerically(">", 0.6))
		Expect(final.NeutronPower).To(BeNumerically("<", 1.1))
		Expect(math.Abs(final.RatePctPerS)).To(BeNumerically("<", 0.05))
		Expect(final.Tripped).To(BeFalse())
	})
})
