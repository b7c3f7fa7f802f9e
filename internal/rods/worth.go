package rods

import "math"

// Worth returns the inserted-to-here worth in pcm of one bank at the
// given position: zero when fully inserted, the full bank worth when
// fully withdrawn, following a sin^2 shape that concentrates
// differential worth mid-travel.
func (b *Banks) Worth(bank Bank, steps float64) float64 {
	f := clamp(steps/b.cfg.TravelSteps, 0, 1)
	s := math.Sin(f * math.Pi / 2)
	return b.cfg.BankWorthsPcm[bank] * s * s
}

// DifferentialWorth returns the worth per step at the given position.
// Peaks at mid travel and vanishes at both ends.
func (b *Banks) DifferentialWorth(bank Bank, steps float64) float64 {
	f := clamp(steps/b.cfg.TravelSteps, 0, 1)
	return b.cfg.BankWorthsPcm[bank] * (math.Pi / (2 * b.cfg.TravelSteps)) * math.Sin(f*math.Pi)
}

// NetReactivityPcm returns the rod contribution to core reactivity:
// zero with every bank fully withdrawn, minus the total installed worth
// with every bank at the bottom.
func (b *Banks) NetReactivityPcm() float64 {
	var net float64
	for i := 0; i < NumBanks; i++ {
		net += b.Worth(Bank(i), b.pos[i]) - b.cfg.BankWorthsPcm[i]
	}
	return net
}

// TotalWorthPcm returns the installed worth of all banks.
func (b *Banks) TotalWorthPcm() float64 {
	var sum float64
	for _, w := range b.cfg.BankWorthsPcm {
		sum += w
	}
	return sum
}

// RodBottomAlarm reports whether any control bank sits fully inserted.
func (b *Banks) RodBottomAlarm() bool {
	for k := BankD; k <= BankA; k++ {
		if b.pos[k] <= 0 {
			return true
		}
	}
	return false
}

// SequenceAlarm reports a bank misalignment: some bank ahead of its
// predecessor in the withdrawal order by more than the overlap plus
// margin. Normal sequenced motion never trips it since later banks
// always trail earlier ones.
func (b *Banks) SequenceAlarm() bool {
	limit := b.cfg.OverlapSteps + b.cfg.SequenceMargin
	for k := 1; k < NumBanks; k++ {
		if b.pos[k]-b.pos[k-1] > limit {
			return true
		}
	}
	return false
}
