package sim

import (
	"testing"

	"github.com/reactorlab/pwrsim/internal/config"
)

func TestScriptFiresInTimeOrder(t *testing.T) {
	script, err := NewScript([]config.Action{
		{At: 5, Op: "stop"},
		{At: 1, Op: "withdraw"},
		{At: 3, Op: "add_boron", Value: 10},
	})
	if err != nil {
		t.Fatalf("script: %v", err)
	}

	due := script.Due(10)
	if len(due) != 3 {
		t.Fatalf("expected 3 actions due, got %d", len(due))
	}
	if due[0].Op != "withdraw" || due[1].Op != "add_boron" || due[2].Op != "stop" {
		t.Errorf("actions out of time order: %v", due)
	}
	if len(script.Due(20)) != 0 {
		t.Error("actions should fire once")
	}
}

func TestScriptDueRespectsClock(t *testing.T) {
	script, err := NewScript([]config.Action{
		{At: 1, Op: "withdraw"},
		{At: 5, Op: "stop"},
	})
	if err != nil {
		t.Fatalf("script: %v", err)
	}

	if got := len(script.Due(0.5)); got != 0 {
		t.Errorf("nothing due before first timestamp, got %d", got)
	}
	if got := len(script.Due(1.0)); got != 1 {
		t.Errorf("expected exactly the t=1 action, got %d", got)
	}
	if script.Remaining() != 1 {
		t.Errorf("expected 1 remaining, got %d", script.Remaining())
	}
}

func TestScriptRewind(t *testing.T) {
	script, err := NewScript([]config.Action{{At: 1, Op: "trip"}})
	if err != nil {
		t.Fatalf("script: %v", err)
	}

	script.Due(10)
	if script.Remaining() != 0 {
		t.Fatal("expected script exhausted")
	}
	script.Rewind()
	if script.Remaining() != 1 {
		t.Error("rewind should re-arm the script")
	}
}

func TestScriptRejectsUnknownOp(t *testing.T) {
	if _, err := NewScript([]config.Action{{At: 1, Op: "scram_harder"}}); err == nil {
		t.Error("expected error for unknown op")
	}
}

func TestPresetScenarioScriptsParse(t *testing.T) {
	for _, name := range config.ListScenarios() {
		sc := config.GetScenario(name)
		if sc == nil {
			t.Fatalf("preset %q missing", name)
		}
		if _, err := NewScript(sc.Actions); err != nil {
			t.Errorf("preset %q has a bad script: %v", name, err)
		}
	}
}
