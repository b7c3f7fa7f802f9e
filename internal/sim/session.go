package sim

import (
	"context"
	"fmt"

	"github.com/reactorlab/pwrsim/internal/config"
	"github.com/reactorlab/pwrsim/internal/control"
	"github.com/reactorlab/pwrsim/internal/core"
	"github.com/reactorlab/pwrsim/internal/fuel"
)

// Session owns a reactor plus everything the host side layers on top:
// boundary conditions, the scenario script, an optional rod controller,
// metric and observer hooks. The live panel drives it one frame at a
// time with Advance; the batch commands cover a fixed span with Run.
type Session struct {
	plant   *config.Plant
	reactor *core.Reactor

	tick   float64
	inletF float64
	flow   float64
	auto   bool

	controller control.Controller
	script     *Script
	metrics    []Metric
	observers  []Observer

	last core.Snapshot
}

// NewSession builds a session around a fresh reactor in cold shutdown
// with the default fuel assembly model.
func NewSession(plant *config.Plant) (*Session, error) {
	r, err := core.NewReactor(plant, fuel.New(plant.Fuel, plant.Thermal.NoLoadTavgF))
	if err != nil {
		return nil, err
	}
	s := &Session{
		plant:   plant,
		reactor: r,
		tick:    config.DefaultTick,
	}
	s.syncBoundary()
	return s, nil
}

func (s *Session) Reactor() *core.Reactor  { return s.reactor }
func (s *Session) Snapshot() core.Snapshot { return s.last }

func (s *Session) SetController(c control.Controller) { s.controller = c }
func (s *Session) SetScript(sc *Script)               { s.script = sc }
func (s *Session) AddMetric(m Metric)                 { s.metrics = append(s.metrics, m) }
func (s *Session) AddObserver(o Observer)             { s.observers = append(s.observers, o) }

// SetTick changes the core step used by Advance.
func (s *Session) SetTick(tick float64) {
	if tick > 0 {
		s.tick = tick
	}
}

// SetFlow sets the forced flow fraction, clamped to the plant range.
func (s *Session) SetFlow(f float64) {
	if f < s.plant.Thermal.FlowFloor {
		f = s.plant.Thermal.FlowFloor
	}
	if f > 1 {
		f = 1
	}
	s.flow = f
}

// SetInletTemp pins the cold leg temperature and releases the
// secondary side model.
func (s *Session) SetInletTemp(f float64) {
	s.inletF = f
	s.auto = false
}

// SetAutoInlet engages or releases the secondary side response: when
// on, the cold leg lags toward the temperature the steam side must
// hold for T_avg to sit on program.
func (s *Session) SetAutoInlet(on bool) { s.auto = on }

func (s *Session) Flow() float64       { return s.flow }
func (s *Session) InletTempF() float64 { return s.inletF }
func (s *Session) AutoInlet() bool     { return s.auto }

// InitCold returns the plant to cold shutdown with a pinned cold leg.
func (s *Session) InitCold() {
	s.reactor.InitializeCold()
	s.auto = false
	s.syncBoundary()
	s.rewind()
}

// InitHotZeroPower lines the plant up just critical at no load
// temperature with the secondary side engaged.
func (s *Session) InitHotZeroPower() error {
	if err := s.reactor.InitializeHotZeroPower(); err != nil {
		return err
	}
	s.auto = true
	s.syncBoundary()
	s.rewind()
	return nil
}

// InitAtPower lines the plant up steady at a power fraction with the
// secondary side engaged.
func (s *Session) InitAtPower(p float64) error {
	if err := s.reactor.InitializeToEquilibrium(p); err != nil {
		return err
	}
	s.auto = true
	s.syncBoundary()
	s.rewind()
	return nil
}

func (s *Session) syncBoundary() {
	s.last = s.reactor.Snapshot()
	s.inletF = s.last.TColdF
	s.flow = s.last.FlowFraction
}

func (s *Session) rewind() {
	if s.script != nil {
		s.script.Rewind()
	}
}

// Advance moves the plant forward by simSeconds in core ticks, the
// last one partial if needed, and returns the events raised along the
// way.
func (s *Session) Advance(simSeconds float64) []core.Event {
	var events []core.Event
	for remaining := simSeconds; remaining > 1e-12; remaining -= s.tick {
		dt := s.tick
		if remaining < dt {
			dt = remaining
		}
		s.step(dt)
		events = append(events, s.reactor.PollEvents()...)
	}
	return events
}

// Run covers cfg.Duration simulated seconds and collects the result.
// Metrics reset at the start; snapshots record every RecordEvery ticks
// after the initial state.
func (s *Session) Run(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.Compression == 0 {
		cfg.Compression = config.DefaultCompression
	}
	if cfg.RecordEvery == 0 {
		cfg.RecordEvery = 1
	}
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	steps := int(cfg.Duration/cfg.Tick + 0.5)
	result := &Result{
		Snapshots: make([]core.Snapshot, 0, steps/cfg.RecordEvery+1),
		Metrics:   make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	result.Snapshots = append(result.Snapshots, s.reactor.Snapshot())

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		s.step(cfg.Tick)
		result.Events = append(result.Events, s.reactor.PollEvents()...)
		result.Ticks++

		if result.Ticks%cfg.RecordEvery == 0 {
			result.Snapshots = append(result.Snapshots, s.last)
		}
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, nil
}

// step runs one core tick: script actions and the controller act on
// the state they can see, then the boundary conditions update and the
// reactor advances.
func (s *Session) step(dt float64) {
	s.applyScript()
	s.applyController()
	s.updateInlet(dt)

	s.last = s.reactor.Step(core.Input{
		InletTempF:   s.inletF,
		FlowFraction: s.flow,
		Dt:           dt,
	})

	for _, m := range s.metrics {
		m.Observe(s.last)
	}
	for _, o := range s.observers {
		o.OnTick(s.last)
	}
}

func (s *Session) applyScript() {
	if s.script == nil {
		return
	}
	for _, a := range s.script.Due(s.reactor.SimTime()) {
		s.applyAction(a)
	}
}

// applyAction maps a script op onto the reactor. Ops that cannot apply
// in the current state fall through silently, like a pressed button
// with the interlock closed.
func (s *Session) applyAction(a config.Action) {
	switch a.Op {
	case "trip":
		s.reactor.ManualTrip()
	case "reset":
		_ = s.reactor.ResetTrip()
	case "withdraw":
		s.reactor.WithdrawSequence()
	case "insert":
		s.reactor.InsertSequence()
	case "stop":
		s.reactor.StopRods()
	case "set_boron":
		s.reactor.SetBoron(a.Value)
	case "add_boron":
		s.reactor.AddBoron(a.Value)
	case "set_flow":
		s.SetFlow(a.Value)
	case "set_inlet":
		s.SetInletTemp(a.Value)
	case "set_target":
		s.reactor.SetPowerTarget(a.Value)
	}
}

func (s *Session) applyController() {
	if s.controller == nil {
		return
	}
	switch s.controller.Compute(s.last, s.reactor.SimTime()) {
	case control.WithdrawRods:
		s.reactor.WithdrawSequence()
	case control.InsertRods:
		s.reactor.InsertSequence()
	case control.HoldRods:
		s.reactor.StopRods()
	}
}

// updateInlet lags the cold leg toward the temperature the steam side
// holds when T_avg rides the program. On the reference program that
// target is the no load temperature at full flow for any power.
func (s *Session) updateInlet(dt float64) {
	if !s.auto {
		return
	}
	dT := s.plant.Thermal.FullPowerDeltaTF * s.last.ThermalPower / s.flow
	target := s.plant.Thermal.TavgProgram(s.last.ThermalPower) - dT/2

	g := dt / s.plant.Thermal.LoopLagS
	if g > 1 {
		g = 1
	}
	s.inletF += (target - s.inletF) * g
}

func (s *Session) validateConfig(cfg Config) error {
	if cfg.Tick <= 0 {
		return fmt.Errorf("sim: tick must be positive, got %f", cfg.Tick)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("sim: duration must be positive, got %f", cfg.Duration)
	}
	if cfg.Compression < 1 || cfg.Compression > config.MaxCompression {
		return fmt.Errorf("sim: compression must be in [1, %.0f], got %f", config.MaxCompression, cfg.Compression)
	}
	if cfg.RecordEvery < 1 {
		return fmt.Errorf("sim: record interval must be at least 1, got %d", cfg.RecordEvery)
	}
	return nil
}
