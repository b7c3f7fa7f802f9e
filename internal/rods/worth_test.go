package rods

import (
	"math"
	"testing"
)

func TestWorthEndpoints(t *testing.T) {
	b := newTestBanks()

	for k := 0; k < NumBanks; k++ {
		bank := Bank(k)
		if w := b.Worth(bank, 0); w != 0 {
			t.Errorf("bank %v worth at bottom = %f, want 0", bank, w)
		}
		full := b.cfg.BankWorthsPcm[k]
		if w := b.Worth(bank, b.cfg.TravelSteps); math.Abs(w-full) > 1e-9 {
			t.Errorf("bank %v worth at top = %f, want %f", bank, w, full)
		}
	}
}

func TestWorthMonotonic(t *testing.T) {
	b := newTestBanks()

	prev := -1.0
	for s := 0.0; s <= b.cfg.TravelSteps; s++ {
		w := b.Worth(BankD, s)
		if w < prev {
			t.Fatalf("worth decreased at %f steps: %f < %f", s, w, prev)
		}
		prev = w
	}
}

func TestDifferentialWorthPeaksMidTravel(t *testing.T) {
	b := newTestBanks()
	mid := b.cfg.TravelSteps / 2

	peak := b.DifferentialWorth(BankD, mid)
	for _, s := range []float64{0, 30, 80, 150, 200, b.cfg.TravelSteps} {
		if d := b.DifferentialWorth(BankD, s); d > peak {
			t.Errorf("differential worth at %f steps (%f) exceeds mid travel (%f)", s, d, peak)
		}
	}
	if d := b.DifferentialWorth(BankD, 0); math.Abs(d) > 1e-9 {
		t.Errorf("differential worth at bottom = %f, want 0", d)
	}
	if d := b.DifferentialWorth(BankD, b.cfg.TravelSteps); math.Abs(d) > 1e-9 {
		t.Errorf("differential worth at top = %f, want 0", d)
	}
}

func TestDifferentialMatchesSlope(t *testing.T) {
	b := newTestBanks()

	const h = 0.01
	for _, s := range []float64{40, 114, 180} {
		slope := (b.Worth(BankC, s+h) - b.Worth(BankC, s-h)) / (2 * h)
		diff := b.DifferentialWorth(BankC, s)
		if math.Abs(slope-diff) > 1e-3*math.Abs(diff) {
			t.Errorf("at %f steps: slope %f vs differential %f", s, slope, diff)
		}
	}
}

func TestNetReactivityEndpoints(t *testing.T) {
	b := newTestBanks()

	if net := b.NetReactivityPcm(); math.Abs(net-(-b.TotalWorthPcm())) > 1e-6 {
		t.Errorf("all in should read minus total worth, got %f", net)
	}

	b = allOutBanks()
	if net := b.NetReactivityPcm(); math.Abs(net) > 1e-6 {
		t.Errorf("all out should read zero, got %f", net)
	}
}

func TestNetReactivityPartialInsertion(t *testing.T) {
	b := allOutBanks()
	b.SetPosition(BankA, 160)

	// Only bank A contributes a deficit.
	want := b.Worth(BankA, 160) - b.cfg.BankWorthsPcm[BankA]
	if net := b.NetReactivityPcm(); math.Abs(net-want) > 1e-9 {
		t.Errorf("net %f, want %f", net, want)
	}
	if net := b.NetReactivityPcm(); net > -160 || net < -166 {
		t.Errorf("bank A at 160 steps should hold roughly -163 pcm, got %f", net)
	}
}

func TestTotalWorth(t *testing.T) {
	b := newTestBanks()
	if w := b.TotalWorthPcm(); w != 8600 {
		t.Errorf("total worth %f, want 8600", w)
	}
}

func TestRodBottomAlarm(t *testing.T) {
	b := newTestBanks()
	if !b.RodBottomAlarm() {
		t.Error("all banks in should light the rod bottom alarm")
	}

	b = allOutBanks()
	if b.RodBottomAlarm() {
		t.Error("all banks out should not light the alarm")
	}

	// Shutdown banks at the bottom alone do not count.
	for k := BankSA; k <= BankSD; k++ {
		b.SetPosition(k, 0)
	}
	if b.RodBottomAlarm() {
		t.Error("shutdown banks should not light the rod bottom alarm")
	}

	b.SetPosition(BankD, 0)
	if !b.RodBottomAlarm() {
		t.Error("control bank at the bottom should light the alarm")
	}
}

func TestSequenceAlarm(t *testing.T) {
	b := newTestBanks()
	if b.SequenceAlarm() {
		t.Error("all in should not alarm")
	}

	b = allOutBanks()
	if b.SequenceAlarm() {
		t.Error("all out should not alarm")
	}

	// Bank A driven out alone while B sits at the bottom.
	b = newTestBanks()
	b.SetPosition(BankA, 150)
	if !b.SequenceAlarm() {
		t.Error("misaligned bank should alarm")
	}

	// Within overlap plus margin is still acceptable.
	b = newTestBanks()
	b.SetPosition(BankA, b.cfg.OverlapSteps+b.cfg.SequenceMargin)
	if b.SequenceAlarm() {
		t.Error("separation at the limit should not alarm")
	}
}
