package rods

import (
	"math"
	"testing"

	"github.com/reactorlab/pwrsim/internal/config"
)

func newTestBanks() *Banks {
	return New(config.DefaultPlant().Rods)
}

func allOutBanks() *Banks {
	b := newTestBanks()
	for k := 0; k < NumBanks; k++ {
		b.SetPosition(Bank(k), b.cfg.TravelSteps)
	}
	return b
}

func TestNewStartsFullyInserted(t *testing.T) {
	b := newTestBanks()
	if !b.AllIn() {
		t.Error("new rod system should be fully inserted")
	}
	if b.Tripped() {
		t.Error("new rod system should not be tripped")
	}
}

func TestManualWithdrawAndLimits(t *testing.T) {
	b := newTestBanks()

	if !b.Withdraw(BankSA) {
		t.Fatal("withdraw from bottom should be accepted")
	}
	b.Step(10)
	if p := b.Position(BankSA); math.Abs(p-12.0) > 1e-9 {
		t.Errorf("expected 12 steps after 10s, got %f", p)
	}

	// Run well past the out limit; position clamps and motion stops.
	for i := 0; i < 300; i++ {
		b.Step(1.0)
	}
	if p := b.Position(BankSA); p != b.cfg.TravelSteps {
		t.Errorf("expected out limit, got %f", p)
	}
	if b.Withdraw(BankSA) {
		t.Error("withdraw at the out limit should be rejected")
	}
	if b.Moving() {
		t.Error("bank should stop at the limit")
	}
}

func TestManualInsertAndLimits(t *testing.T) {
	b := newTestBanks()

	if b.Insert(BankA) {
		t.Error("insert at the bottom should be rejected")
	}

	b.SetPosition(BankA, 50)
	if !b.Insert(BankA) {
		t.Fatal("insert should be accepted")
	}
	for i := 0; i < 100; i++ {
		b.Step(1.0)
	}
	if p := b.Position(BankA); p != 0 {
		t.Errorf("expected bottom, got %f", p)
	}
}

func TestStopHaltsMotion(t *testing.T) {
	b := newTestBanks()
	b.Withdraw(BankD)
	b.Step(5)
	p := b.Position(BankD)

	b.Stop(BankD)
	b.Step(5)
	if b.Position(BankD) != p {
		t.Error("bank moved after stop")
	}
}

func TestWithdrawSequenceOverlap(t *testing.T) {
	b := newTestBanks()
	if !b.WithdrawSequence() {
		t.Fatal("sequence start rejected")
	}

	// A later bank may only be off the bottom once its predecessor has
	// cleared the overlap, at every instant of the withdrawal.
	for i := 0; i < 1700; i++ {
		b.Step(0.5)
		for k := 1; k < NumBanks; k++ {
			if b.pos[k] > 0 && b.pos[k-1] < b.cfg.OverlapSteps {
				t.Fatalf("bank %v moved before %v cleared overlap: %f vs %f",
					Bank(k), Bank(k-1), b.pos[k], b.pos[k-1])
			}
		}
		if b.SequenceAlarm() {
			t.Fatal("sequence alarm during normal withdrawal")
		}
	}
	if !b.AllOut() {
		t.Errorf("sequence did not complete: %v", b.pos)
	}
}

func TestInsertSequenceMirrorsWithdrawal(t *testing.T) {
	b := allOutBanks()
	if !b.InsertSequence() {
		t.Fatal("sequence start rejected")
	}

	handoff := b.cfg.TravelSteps - b.cfg.OverlapSteps
	for i := 0; i < 1700; i++ {
		b.Step(0.5)
		for k := 0; k < NumBanks-1; k++ {
			if b.pos[k] < b.cfg.TravelSteps && b.pos[k+1] > handoff {
				t.Fatalf("bank %v left the top before %v entered the overlap",
					Bank(k), Bank(k+1))
			}
		}
		if b.SequenceAlarm() {
			t.Fatal("sequence alarm during normal insertion")
		}
	}
	if !b.AllIn() {
		t.Errorf("sequence did not complete: %v", b.pos)
	}
}

func TestManualCommandCancelsSequence(t *testing.T) {
	b := newTestBanks()
	b.WithdrawSequence()
	b.Step(10)

	b.SetPosition(BankD, 50)
	b.Withdraw(BankD)
	sa := b.Position(BankSA)
	b.Step(5)

	if b.Position(BankSA) != sa {
		t.Error("sequence kept driving after a manual command")
	}
	if b.Position(BankD) <= 50 {
		t.Error("manual command did not drive the bank")
	}
}

func TestTripDropProfile(t *testing.T) {
	b := allOutBanks()
	b.Trip()

	if !b.Tripped() {
		t.Fatal("trip did not latch")
	}

	// Monotonic fall, through the dashpot entry, to exactly bottom at
	// the configured total drop time.
	prev := b.Positions()
	for i := 0; i < 12; i++ {
		b.Step(0.1)
		cur := b.Positions()
		for k := range cur {
			if cur[k] > prev[k]+1e-9 {
				t.Fatalf("bank %v climbed during drop", Bank(k))
			}
		}
		prev = cur
	}
	if p := b.Position(BankA); math.Abs(p-b.cfg.DashpotSteps) > 1e-6 {
		t.Errorf("expected dashpot entry at %f, got %f", b.cfg.DashpotSteps, p)
	}

	for i := 0; i < 8; i++ {
		b.Step(0.1)
	}
	if !b.AllIn() {
		t.Errorf("banks not fully inserted after total drop time: %v", b.pos)
	}
}

func TestTripFromMidTravel(t *testing.T) {
	b := allOutBanks()
	b.SetPosition(BankA, 20) // below the dashpot entry
	b.SetPosition(BankB, 150)
	b.Trip()

	for i := 0; i < 25; i++ {
		b.Step(0.1)
		if p := b.Position(BankA); p > 20+1e-9 {
			t.Fatalf("bank below the dashpot climbed to %f", p)
		}
	}
	if !b.AllIn() {
		t.Errorf("drop incomplete: %v", b.pos)
	}
}

func TestCommandsRejectedWhileTripped(t *testing.T) {
	b := allOutBanks()
	b.Trip()

	if b.Withdraw(BankA) || b.Insert(BankA) {
		t.Error("manual commands should be rejected while tripped")
	}
	if b.WithdrawSequence() || b.InsertSequence() {
		t.Error("sequence commands should be rejected while tripped")
	}
}

func TestResetTripRequiresAllIn(t *testing.T) {
	b := allOutBanks()
	b.Trip()
	b.Step(0.5)

	if b.ResetTrip() {
		t.Error("reset allowed while banks still falling")
	}

	for i := 0; i < 20; i++ {
		b.Step(0.1)
	}
	if !b.ResetTrip() {
		t.Fatal("reset rejected with all banks in")
	}
	if b.Tripped() {
		t.Error("trip still latched after reset")
	}
	if !b.Withdraw(BankSA) {
		t.Error("withdraw should work after reset")
	}
}

func TestTripDuringSequence(t *testing.T) {
	b := newTestBanks()
	b.WithdrawSequence()
	for i := 0; i < 200; i++ {
		b.Step(1.0)
	}
	if b.AllIn() {
		t.Fatal("withdrawal made no progress")
	}

	b.Trip()
	for i := 0; i < 20; i++ {
		b.Step(0.1)
	}
	if !b.AllIn() {
		t.Errorf("trip during sequence did not complete: %v", b.pos)
	}
}
