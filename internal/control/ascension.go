package control

import (
	"math"

	"github.com/reactorlab/pwrsim/internal/core"
)

// PowerAscension walks indicated power toward a target fraction using
// sequence withdrawal, holding whenever the startup rate exceeds the
// administrative limit. Once inside the deadband it stops commanding and
// only resumes after power drifts out past twice the band.
type PowerAscension struct {
	Target     float64
	Deadband   float64
	MaxRateDPM float64
	done       bool
}

func NewPowerAscension(target float64) *PowerAscension {
	return &PowerAscension{
		Target:     target,
		Deadband:   0.005,
		MaxRateDPM: 1.0,
	}
}

// Done reports whether the controller has parked inside the deadband.
func (p *PowerAscension) Done() bool { return p.done }

func (p *PowerAscension) Compute(s core.Snapshot, t float64) Command {
	if s.Tripped {
		p.done = false
		return NoCommand
	}

	err := p.Target - s.IndicatedPower

	if p.done {
		if math.Abs(err) > 2*p.Deadband {
			p.done = false
		}
		return NoCommand
	}
	if math.Abs(err) <= p.Deadband {
		p.done = true
		return HoldRods
	}

	if err > 0 {
		if s.StartupRateDPM > p.MaxRateDPM {
			return HoldRods
		}
		return WithdrawRods
	}
	if s.StartupRateDPM < -p.MaxRateDPM {
		return HoldRods
	}
	return InsertRods
}
