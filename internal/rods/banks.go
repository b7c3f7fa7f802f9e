package rods

import "github.com/reactorlab/pwrsim/internal/config"

// Banks holds the positions and drive state of all eight rod banks.
// Positions are in steps from 0 (fully inserted) to the configured
// travel (fully withdrawn). Movement only happens inside Step; command
// methods just latch intent.
type Banks struct {
	cfg config.Rods

	pos    [NumBanks]float64
	motion [NumBanks]Motion

	seqWithdraw bool
	seqInsert   bool

	tripped   bool
	dropTime  float64
	dropStart [NumBanks]float64
}

// New returns the rod system fully inserted, as in cold shutdown.
func New(cfg config.Rods) *Banks {
	return &Banks{cfg: cfg}
}

func (b *Banks) Position(bank Bank) float64 {
	return b.pos[bank]
}

func (b *Banks) Positions() [NumBanks]float64 {
	return b.pos
}

func (b *Banks) TravelSteps() float64 { return b.cfg.TravelSteps }

func (b *Banks) Tripped() bool { return b.tripped }

// Moving reports whether any bank is in commanded motion or dropping.
func (b *Banks) Moving() bool {
	if b.tripped {
		return !b.AllIn()
	}
	if b.seqWithdraw || b.seqInsert {
		return true
	}
	for i := range b.motion {
		if b.motion[i] != Stationary {
			return true
		}
	}
	return false
}

// SetPosition places a bank directly, clamped to travel. Used when
// lining up an initial condition, not during a transient.
func (b *Banks) SetPosition(bank Bank, steps float64) {
	b.pos[bank] = clamp(steps, 0, b.cfg.TravelSteps)
	b.motion[bank] = Stationary
}

// Withdraw latches outward motion on one bank. Returns false when the
// system is tripped or the bank already sits at the out limit. A manual
// command cancels sequence mode.
func (b *Banks) Withdraw(bank Bank) bool {
	if b.tripped || b.pos[bank] >= b.cfg.TravelSteps {
		return false
	}
	b.seqWithdraw, b.seqInsert = false, false
	b.motion[bank] = Withdrawing
	return true
}

// Insert latches inward motion on one bank. Returns false when the
// system is tripped or the bank already sits at the bottom.
func (b *Banks) Insert(bank Bank) bool {
	if b.tripped || b.pos[bank] <= 0 {
		return false
	}
	b.seqWithdraw, b.seqInsert = false, false
	b.motion[bank] = Inserting
	return true
}

func (b *Banks) Stop(bank Bank) {
	b.motion[bank] = Stationary
}

// StopAll halts every bank and leaves sequence mode.
func (b *Banks) StopAll() {
	b.seqWithdraw, b.seqInsert = false, false
	for i := range b.motion {
		b.motion[i] = Stationary
	}
}

// WithdrawSequence starts automatic bank withdrawal in the standard
// order. Each bank begins once its predecessor clears the overlap.
func (b *Banks) WithdrawSequence() bool {
	if b.tripped {
		return false
	}
	for i := range b.motion {
		b.motion[i] = Stationary
	}
	b.seqWithdraw, b.seqInsert = true, false
	return true
}

// InsertSequence starts automatic insertion, the mirror of withdrawal:
// bank A leads and each earlier bank follows once its successor is
// inside the overlap.
func (b *Banks) InsertSequence() bool {
	if b.tripped {
		return false
	}
	for i := range b.motion {
		b.motion[i] = Stationary
	}
	b.seqWithdraw, b.seqInsert = false, true
	return true
}

// Trip releases all banks for gravity drop. Drive commands are cleared
// and ignored until ResetTrip.
func (b *Banks) Trip() {
	if b.tripped {
		return
	}
	b.tripped = true
	b.dropTime = 0
	b.dropStart = b.pos
	b.seqWithdraw, b.seqInsert = false, false
	for i := range b.motion {
		b.motion[i] = Stationary
	}
}

// ResetTrip rearms the drives. Only allowed once every bank has reached
// the bottom; returns false otherwise.
func (b *Banks) ResetTrip() bool {
	if !b.tripped {
		return true
	}
	if !b.AllIn() {
		return false
	}
	b.tripped = false
	b.dropTime = 0
	return true
}

// Step advances rod motion by dt seconds.
func (b *Banks) Step(dt float64) {
	if dt <= 0 {
		return
	}
	if b.tripped {
		b.dropTime += dt
		for i := range b.pos {
			b.pos[i] = b.dropPosition(b.dropStart[i], b.dropTime)
		}
		return
	}

	switch {
	case b.seqWithdraw:
		// Eligibility from start of tick positions so a bank cannot
		// unlock its successor within the same tick.
		start := b.pos
		for k := 0; k < NumBanks; k++ {
			if k == 0 || start[k-1] >= b.cfg.OverlapSteps {
				b.pos[k] = clamp(b.pos[k]+b.cfg.SpeedStepsPerS*dt, 0, b.cfg.TravelSteps)
			}
		}
		if b.AllOut() {
			b.seqWithdraw = false
		}
	case b.seqInsert:
		start := b.pos
		handoff := b.cfg.TravelSteps - b.cfg.OverlapSteps
		for k := NumBanks - 1; k >= 0; k-- {
			if k == NumBanks-1 || start[k+1] <= handoff {
				b.pos[k] = clamp(b.pos[k]-b.cfg.SpeedStepsPerS*dt, 0, b.cfg.TravelSteps)
			}
		}
		if b.AllIn() {
			b.seqInsert = false
		}
	default:
		for i := range b.pos {
			switch b.motion[i] {
			case Withdrawing:
				b.pos[i] = clamp(b.pos[i]+b.cfg.SpeedStepsPerS*dt, 0, b.cfg.TravelSteps)
				if b.pos[i] >= b.cfg.TravelSteps {
					b.motion[i] = Stationary
				}
			case Inserting:
				b.pos[i] = clamp(b.pos[i]-b.cfg.SpeedStepsPerS*dt, 0, b.cfg.TravelSteps)
				if b.pos[i] <= 0 {
					b.motion[i] = Stationary
				}
			}
		}
	}
}

// dropPosition returns where a released bank sits t seconds after the
// trip, starting from p0 steps. Free fall runs to the dashpot entry,
// then the dashpot decelerates the bank to the bottom. Taking the min
// against p0 keeps banks that started below the dashpot from climbing.
func (b *Banks) dropPosition(p0, t float64) float64 {
	var traj float64
	switch {
	case t <= 0:
		traj = p0
	case t < b.cfg.DropToDashpotS:
		traj = p0 + (b.cfg.DashpotSteps-p0)*(t/b.cfg.DropToDashpotS)
	case t < b.cfg.DropTotalS:
		frac := (t - b.cfg.DropToDashpotS) / (b.cfg.DropTotalS - b.cfg.DropToDashpotS)
		traj = b.cfg.DashpotSteps * (1 - frac)
	default:
		traj = 0
	}
	if traj > p0 {
		traj = p0
	}
	return clamp(traj, 0, b.cfg.TravelSteps)
}

func (b *Banks) AllIn() bool {
	for _, p := range b.pos {
		if p > 0 {
			return false
		}
	}
	return true
}

func (b *Banks) AllOut() bool {
	for _, p := range b.pos {
		if p < b.cfg.TravelSteps {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
