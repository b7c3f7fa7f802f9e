package sim

import (
	"fmt"
	"sort"

	"github.com/reactorlab/pwrsim/internal/config"
)

// Script replays timed operator actions against a session. Each action
// fires once, in time order, on the first tick at or past its
// timestamp.
type Script struct {
	actions []config.Action
	next    int
}

var scriptOps = map[string]bool{
	"trip":       true,
	"reset":      true,
	"withdraw":   true,
	"insert":     true,
	"stop":       true,
	"set_boron":  true,
	"add_boron":  true,
	"set_flow":   true,
	"set_inlet":  true,
	"set_target": true,
}

func NewScript(actions []config.Action) (*Script, error) {
	for _, a := range actions {
		if !scriptOps[a.Op] {
			return nil, fmt.Errorf("sim: unknown script op %q", a.Op)
		}
	}
	sorted := make([]config.Action, len(actions))
	copy(sorted, actions)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].At < sorted[j].At })
	return &Script{actions: sorted}, nil
}

// Due returns the actions firing at or before t and marks them done.
func (sc *Script) Due(t float64) []config.Action {
	start := sc.next
	for sc.next < len(sc.actions) && sc.actions[sc.next].At <= t {
		sc.next++
	}
	return sc.actions[start:sc.next]
}

// Remaining counts actions not yet fired.
func (sc *Script) Remaining() int { return len(sc.actions) - sc.next }

// Rewind arms every action again for another run.
func (sc *Script) Rewind() { sc.next = 0 }
