package reactivity

import (
	"math"

	"github.com/reactorlab/pwrsim/internal/config"
)

// BoronEstimate is the result of a critical boron search.
type BoronEstimate struct {
	PPM         float64
	ResidualPcm float64
	Iterations  int
	Converged   bool
}

// CriticalBoron searches for the boron concentration that zeroes net
// reactivity with the other inputs held fixed. Fixed point iteration on
// the boron worth; the moderator coefficient's weak boron dependence
// keeps the map strongly contracting, so a handful of iterations lands
// within tolerance. Boron never goes negative: if the core stays
// subcritical at zero ppm the estimate returns unconverged.
func (f *Feedback) CriticalBoron(in Inputs, est config.Estimator) BoronEstimate {
	worth := math.Abs(f.cfg.BoronWorthPcm)
	if worth == 0 {
		return BoronEstimate{PPM: in.BoronPPM, ResidualPcm: f.Evaluate(in).TotalPcm()}
	}

	b := in.BoronPPM
	if b < 0 {
		b = 0
	}
	var rho float64
	iters := 0
	for i := 0; i < est.BoronIterations; i++ {
		in.BoronPPM = b
		rho = f.Evaluate(in).TotalPcm()
		iters = i + 1
		if math.Abs(rho) <= est.BoronTolerancePcm {
			return BoronEstimate{PPM: b, ResidualPcm: rho, Iterations: iters, Converged: true}
		}
		b += rho / worth
		if b < 0 {
			b = 0
		}
	}
	in.BoronPPM = b
	rho = f.Evaluate(in).TotalPcm()
	return BoronEstimate{
		PPM:         b,
		ResidualPcm: rho,
		Iterations:  iters,
		Converged:   math.Abs(rho) <= est.BoronTolerancePcm,
	}
}
