package storage

import (
	"encoding/json"
	"io"
	"math"
	"os"

	"github.com/reactorlab/pwrsim/internal/core"
	"github.com/reactorlab/pwrsim/internal/sim"
)

// ExportData is the JSON shape of one run.
type ExportData struct {
	Scenario string             `json:"scenario"`
	Plant    string             `json:"plant"`
	Tick     float64            `json:"tick"`
	Duration float64            `json:"duration"`
	Ticks    int                `json:"ticks"`
	Header   []string           `json:"header"`
	Times    []float64          `json:"times"`
	Rows     [][]float64        `json:"rows"`
	Events   []core.Event       `json:"events"`
	Metrics  map[string]float64 `json:"metrics"`
}

// jsonSafe bounds non finite values, which encoding/json refuses.
func jsonSafe(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case math.IsInf(v, 1):
		return 1e9
	case math.IsInf(v, -1):
		return -1e9
	}
	return v
}

func buildExport(scenario, plant string, cfg sim.Config, result *sim.Result) ExportData {
	data := ExportData{
		Scenario: scenario,
		Plant:    plant,
		Tick:     cfg.Tick,
		Duration: cfg.Duration,
		Ticks:    result.Ticks,
		Header:   csvHeader()[1:],
		Times:    make([]float64, len(result.Snapshots)),
		Rows:     make([][]float64, len(result.Snapshots)),
		Events:   result.Events,
		Metrics:  result.Metrics,
	}

	for i, snap := range result.Snapshots {
		vals := snapshotValues(snap)
		data.Times[i] = vals[0]
		row := make([]float64, len(vals)-1)
		for j, v := range vals[1:] {
			row[j] = jsonSafe(v)
		}
		data.Rows[i] = row
	}
	return data
}

func exportTo(w io.Writer, scenario, plant string, cfg sim.Config, result *sim.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(buildExport(scenario, plant, cfg, result))
}

func ExportJSON(path, scenario, plant string, cfg sim.Config, result *sim.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return exportTo(file, scenario, plant, cfg, result)
}

func ExportJSONStdout(scenario, plant string, cfg sim.Config, result *sim.Result) error {
	return exportTo(os.Stdout, scenario, plant, cfg, result)
}
