package control

import "github.com/reactorlab/pwrsim/internal/core"

// Command is a discrete rod-motion request issued at most once per tick.
type Command int

const (
	NoCommand Command = iota
	WithdrawRods
	InsertRods
	HoldRods
)

func (c Command) String() string {
	switch c {
	case WithdrawRods:
		return "WITHDRAW"
	case InsertRods:
		return "INSERT"
	case HoldRods:
		return "HOLD"
	}
	return "NONE"
}

// Controller picks a rod command from the current plant state.
type Controller interface {
	Compute(s core.Snapshot, t float64) Command
}

// None never moves the rods.
type None struct{}

func NewNone() *None {
	return &None{}
}

func (n *None) Compute(s core.Snapshot, t float64) Command {
	return NoCommand
}
