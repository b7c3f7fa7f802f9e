package storage

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/reactorlab/pwrsim/internal/core"
	"github.com/reactorlab/pwrsim/internal/sim"
)

func sampleResult() *sim.Result {
	first := core.Snapshot{
		Time:         0.0,
		NeutronPower: 1.0,
		ThermalPower: 1.0,
		BoronPPM:     717.5,
		PeriodS:      math.Inf(1),
	}
	first.RodPositions[7] = 228

	second := first
	second.Time = 0.5
	second.NeutronPower = 0.9
	second.Tripped = true

	return &sim.Result{
		Snapshots: []core.Snapshot{first, second},
		Events:    []core.Event{{Time: 0.5, Name: core.EventReactorTrip}},
		Metrics:   map[string]float64{"energy_mwh": 1.5},
		Ticks:     1,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save("test", "reference-4loop", sim.Config{Tick: 0.5, Duration: 1}, sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(runID, "test_") {
		t.Errorf("expected scenario-prefixed run id, got %q", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Scenario != "test" {
		t.Errorf("expected scenario 'test', got %q", meta.Scenario)
	}
	if meta.Metrics["energy_mwh"] != 1.5 {
		t.Errorf("expected energy 1.5, got %f", meta.Metrics["energy_mwh"])
	}
	if len(meta.Events) != 1 || meta.Events[0].Name != core.EventReactorTrip {
		t.Errorf("events did not round trip: %v", meta.Events)
	}
}

func TestLoadSeriesColumns(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save("test", "reference-4loop", sim.Config{Tick: 0.5, Duration: 1}, sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	series, err := st.LoadSeries(runID)
	if err != nil {
		t.Fatalf("load series failed: %v", err)
	}

	if len(series.Times) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(series.Times))
	}

	neutron, ok := series.Column("neutron")
	if !ok {
		t.Fatal("neutron column missing")
	}
	if math.Abs(neutron[0]-1.0) > 1e-6 || math.Abs(neutron[1]-0.9) > 1e-6 {
		t.Errorf("neutron column did not round trip: %v", neutron)
	}

	period, ok := series.Column("period_s")
	if !ok {
		t.Fatal("period column missing")
	}
	if !math.IsInf(period[0], 1) {
		t.Errorf("infinite period should survive csv, got %f", period[0])
	}

	bankA, ok := series.Column("bank_a")
	if !ok {
		t.Fatal("bank_a column missing")
	}
	if math.Abs(bankA[0]-228.0) > 1e-6 {
		t.Errorf("expected bank A at 228, got %f", bankA[0])
	}

	tripped, ok := series.Column("tripped")
	if !ok || tripped[0] != 0 || tripped[1] != 1 {
		t.Errorf("tripped column wrong: %v", tripped)
	}

	if _, ok := series.Column("no_such_column"); ok {
		t.Error("unknown column should not resolve")
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	if _, err := st.Save("test", "reference-4loop", sim.Config{Tick: 0.5, Duration: 1}, sampleResult()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save("test", "reference-4loop", sim.Config{Tick: 0.5, Duration: 1}, sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(tmpDir, runID)
	if _, err := os.Stat(filepath.Join(runDir, "metadata.json")); os.IsNotExist(err) {
		t.Error("metadata.json not created")
	}
	if _, err := os.Stat(filepath.Join(runDir, "states.csv")); os.IsNotExist(err) {
		t.Error("states.csv not created")
	}
}

func TestExportJSONSanitizesNonFinite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")

	if err := ExportJSON(path, "test", "reference-4loop", sim.Config{Tick: 0.5, Duration: 1}, sampleResult()); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("exported json does not parse: %v", err)
	}

	idx := -1
	for i, h := range data.Header {
		if h == "period_s" {
			idx = i
		}
	}
	if idx < 0 {
		t.Fatal("period_s missing from export header")
	}
	if got := data.Rows[0][idx]; got != 1e9 {
		t.Errorf("infinite period should export as 1e9, got %f", got)
	}
}
