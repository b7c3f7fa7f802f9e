package sim

import (
	"github.com/reactorlab/pwrsim/internal/config"
	"github.com/reactorlab/pwrsim/internal/core"
)

// Config shapes one batch run. Tick is the core step in simulated
// seconds and Duration the span to cover. Compression is the
// real-to-simulated time ratio used by the live loop; batch runs
// validate it so scenario files fail early instead of at the console.
type Config struct {
	Tick        float64
	Duration    float64
	Compression float64
	RecordEvery int
}

func DefaultConfig() Config {
	return Config{
		Tick:        config.DefaultTick,
		Duration:    600.0,
		Compression: config.DefaultCompression,
		RecordEvery: 1,
	}
}

// Metric accumulates one summary number over a run.
type Metric interface {
	Name() string
	Observe(s core.Snapshot)
	Value() float64
	Reset()
}

// Observer sees every tick as it happens.
type Observer interface {
	OnTick(s core.Snapshot)
}

// Result is the record of a completed run.
type Result struct {
	Snapshots []core.Snapshot
	Events    []core.Event
	Metrics   map[string]float64
	Ticks     int
}

// Final returns the last recorded snapshot.
func (r *Result) Final() core.Snapshot {
	if len(r.Snapshots) == 0 {
		return core.Snapshot{}
	}
	return r.Snapshots[len(r.Snapshots)-1]
}

// Column extracts one snapshot field as a series for plotting and
// spectrum analysis.
func (r *Result) Column(f func(core.Snapshot) float64) []float64 {
	out := make([]float64, len(r.Snapshots))
	for i, s := range r.Snapshots {
		out[i] = f(s)
	}
	return out
}
