package kinetics

import (
	"github.com/reactorlab/pwrsim/internal/config"
)

const Groups = config.DelayedGroups

// minDenominator bounds the implicit power update when the inserted
// reactivity approaches prompt critical, keeping the response finite
// for any bounded input.
const minDenominator = 0.02

// State holds neutron power as a fraction of rated plus the six delayed
// precursor group concentrations, in units where equilibrium C_i equals
// beta_i*n/(lambda_i*genTime).
type State struct {
	Power      float64
	Precursors [Groups]float64
}

// Solver advances the point-kinetics equations one sub-step at a time.
// The semi-implicit update solves power against the start-of-step delayed
// source, then each precursor group against the new power. Equilibrium
// states are fixed points of the update. Every quantity stays positive
// and the step holds stable at the configured sub-step for any
// reactivity below prompt critical.
type Solver struct {
	betas   [Groups]float64
	lambdas [Groups]float64
	beta    float64
	genTime float64
	maxStep float64
	floor   float64
}

func NewSolver(cfg config.Kinetics) *Solver {
	s := &Solver{
		genTime: cfg.GenerationTime,
		maxStep: cfg.MaxSubStep,
		floor:   cfg.PowerFloor,
	}
	for i := 0; i < Groups && i < len(cfg.BetaFractions); i++ {
		s.betas[i] = cfg.BetaFractions[i]
		s.beta += cfg.BetaFractions[i]
	}
	for i := 0; i < Groups && i < len(cfg.DecayConstants); i++ {
		s.lambdas[i] = cfg.DecayConstants[i]
	}
	return s
}

// Beta returns the total delayed neutron fraction.
func (s *Solver) Beta() float64 { return s.beta }

// GenerationTime returns the prompt neutron generation time in seconds.
func (s *Solver) GenerationTime() float64 { return s.genTime }

// MaxStableStep is the largest sub-step the solver is tuned for. Callers
// integrating over longer intervals subdivide first.
func (s *Solver) MaxStableStep() float64 { return s.maxStep }

// Floor returns the minimum representable power fraction.
func (s *Solver) Floor() float64 { return s.floor }

// Step advances the state by dt seconds at the given reactivity in pcm.
// dt is expected to be at most MaxStableStep.
func (s *Solver) Step(st State, rhoPcm, dt float64) State {
	rho := rhoPcm * 1e-5

	n := st.Power
	if n < s.floor {
		n = s.floor
	}

	var delayed float64
	for i := 0; i < Groups; i++ {
		delayed += s.lambdas[i] * st.Precursors[i]
	}

	denom := 1 - dt*(rho-s.beta)/s.genTime
	if denom < minDenominator {
		denom = minDenominator
	}

	var next State
	next.Power = (n + dt*delayed) / denom
	if next.Power < s.floor {
		next.Power = s.floor
	}

	for i := 0; i < Groups; i++ {
		c := st.Precursors[i] + dt*s.betas[i]/s.genTime*next.Power
		next.Precursors[i] = c / (1 + dt*s.lambdas[i])
	}

	return next
}

// Equilibrium returns the steady state at the given power fraction and
// zero reactivity: C_i = beta_i*n/(genTime*lambda_i).
func (s *Solver) Equilibrium(power float64) State {
	if power < s.floor {
		power = s.floor
	}
	st := State{Power: power}
	for i := 0; i < Groups; i++ {
		st.Precursors[i] = s.betas[i] * power / (s.genTime * s.lambdas[i])
	}
	return st
}

// DelayedSource returns the summed precursor decay rate, the neutron
// production the delayed groups contribute this instant.
func (s *Solver) DelayedSource(st State) float64 {
	var src float64
	for i := 0; i < Groups; i++ {
		src += s.lambdas[i] * st.Precursors[i]
	}
	return src
}
