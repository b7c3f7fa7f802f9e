package control

import (
	"testing"

	"github.com/reactorlab/pwrsim/internal/core"
)

func TestNone(t *testing.T) {
	ctrl := NewNone()
	cmd := ctrl.Compute(core.Snapshot{IndicatedPower: 0.5}, 0.0)

	if cmd != NoCommand {
		t.Errorf("expected no command, got %v", cmd)
	}
}

func TestAscensionWithdrawsBelowTarget(t *testing.T) {
	ctrl := NewPowerAscension(0.9)
	cmd := ctrl.Compute(core.Snapshot{IndicatedPower: 0.2, StartupRateDPM: 0.3}, 0.0)

	if cmd != WithdrawRods {
		t.Errorf("expected withdraw below target, got %v", cmd)
	}
}

func TestAscensionHoldsOnHighRate(t *testing.T) {
	ctrl := NewPowerAscension(0.9)
	cmd := ctrl.Compute(core.Snapshot{IndicatedPower: 0.2, StartupRateDPM: 2.5}, 0.0)

	if cmd != HoldRods {
		t.Errorf("expected hold above rate limit, got %v", cmd)
	}
}

func TestAscensionInsertsAboveTarget(t *testing.T) {
	ctrl := NewPowerAscension(0.9)
	cmd := ctrl.Compute(core.Snapshot{IndicatedPower: 0.97, StartupRateDPM: -0.2}, 0.0)

	if cmd != InsertRods {
		t.Errorf("expected insert above target, got %v", cmd)
	}
}

func TestAscensionDeadbandHysteresis(t *testing.T) {
	ctrl := NewPowerAscension(0.9)

	cmd := ctrl.Compute(core.Snapshot{IndicatedPower: 0.898}, 10.0)
	if cmd != HoldRods {
		t.Fatalf("expected hold on entering deadband, got %v", cmd)
	}
	if !ctrl.Done() {
		t.Fatal("controller should report done inside deadband")
	}

	cmd = ctrl.Compute(core.Snapshot{IndicatedPower: 0.904}, 11.0)
	if cmd != NoCommand {
		t.Errorf("small drift inside hysteresis band should stay quiet, got %v", cmd)
	}

	cmd = ctrl.Compute(core.Snapshot{IndicatedPower: 0.92}, 12.0)
	if cmd != NoCommand {
		t.Errorf("leaving the band should release first, got %v", cmd)
	}
	cmd = ctrl.Compute(core.Snapshot{IndicatedPower: 0.92, StartupRateDPM: 0.1}, 12.5)
	if cmd != InsertRods {
		t.Errorf("expected insert after drifting high, got %v", cmd)
	}
}

func TestAscensionIgnoresTrippedPlant(t *testing.T) {
	ctrl := NewPowerAscension(0.9)
	cmd := ctrl.Compute(core.Snapshot{IndicatedPower: 0.2, Tripped: true}, 0.0)

	if cmd != NoCommand {
		t.Errorf("expected no command while tripped, got %v", cmd)
	}
}
