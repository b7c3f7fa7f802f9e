package kinetics

import (
	"testing"

	"github.com/reactorlab/pwrsim/internal/config"
)

func BenchmarkStep(b *testing.B) {
	s := NewSolver(config.DefaultPlant().Kinetics)
	st := s.Equilibrium(1.0)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		st = s.Step(st, 50, 0.1)
	}
	_ = st
}

func BenchmarkStepSubdivided(b *testing.B) {
	s := NewSolver(config.DefaultPlant().Kinetics)
	st := s.Equilibrium(1.0)

	// A one second tick at the stability limit takes ten sub-steps.
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for k := 0; k < 10; k++ {
			st = s.Step(st, 50, 0.1)
		}
	}
	_ = st
}
