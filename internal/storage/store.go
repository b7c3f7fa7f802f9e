package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/reactorlab/pwrsim/internal/core"
	"github.com/reactorlab/pwrsim/internal/rods"
	"github.com/reactorlab/pwrsim/internal/sim"
)

// Store keeps completed runs on disk, one directory per run holding
// metadata.json and states.csv.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Scenario  string             `json:"scenario"`
	Plant     string             `json:"plant"`
	Timestamp time.Time          `json:"timestamp"`
	Tick      float64            `json:"tick"`
	Duration  float64            `json:"duration"`
	Ticks     int                `json:"ticks"`
	Events    []core.Event       `json:"events"`
	Metrics   map[string]float64 `json:"metrics"`
}

func csvHeader() []string {
	h := []string{
		"time",
		"neutron", "thermal", "thermal_mwt", "indicated",
		"rate_neutron", "rate_thermal", "rate_pct_s",
		"sur_dpm", "period_s",
		"tavg_f", "thot_f", "tcold_f", "fuel_f",
		"boron_ppm",
		"rho_total", "rho_doppler", "rho_moderator", "rho_boron", "rho_xenon", "rho_rods",
		"flow", "tripped",
	}
	for k := 0; k < rods.NumBanks; k++ {
		h = append(h, "bank_"+strings.ToLower(rods.Bank(k).String()))
	}
	return h
}

// snapshotValues flattens a snapshot in csvHeader order.
func snapshotValues(s core.Snapshot) []float64 {
	tripped := 0.0
	if s.Tripped {
		tripped = 1.0
	}
	v := []float64{
		s.Time,
		s.NeutronPower, s.ThermalPower, s.ThermalMWt, s.IndicatedPower,
		s.NeutronRatePctPerS, s.ThermalRatePctPerS, s.RatePctPerS,
		s.StartupRateDPM, s.PeriodS,
		s.TavgF, s.THotF, s.TColdF, s.FuelTempF,
		s.BoronPPM,
		s.Budget.TotalPcm(), s.Budget.DopplerPcm, s.Budget.ModeratorPcm,
		s.Budget.BoronPcm, s.Budget.XenonPcm, s.Budget.RodsPcm,
		s.FlowFraction, tripped,
	}
	for _, p := range s.RodPositions {
		v = append(v, p)
	}
	return v
}

// Save writes one run to disk and returns its id.
func (s *Store) Save(scenario, plant string, cfg sim.Config, result *sim.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", scenario, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Scenario:  scenario,
		Plant:     plant,
		Timestamp: time.Now(),
		Tick:      cfg.Tick,
		Duration:  cfg.Duration,
		Ticks:     result.Ticks,
		Events:    result.Events,
		Metrics:   result.Metrics,
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "states.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write(csvHeader()); err != nil {
		return "", err
	}

	for _, snap := range result.Snapshots {
		vals := snapshotValues(snap)
		row := make([]string, len(vals))
		for i, val := range vals {
			row[i] = strconv.FormatFloat(val, 'f', 6, 64)
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}

		runs = append(runs, meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// Series is a loaded states.csv: named columns over a time base.
type Series struct {
	Header []string
	Times  []float64
	Rows   [][]float64
}

// Column returns the series for one header name.
func (s *Series) Column(name string) ([]float64, bool) {
	idx := -1
	for i, h := range s.Header {
		if h == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	out := make([]float64, len(s.Rows))
	for i, row := range s.Rows {
		if idx < len(row) {
			out[i] = row[idx]
		}
	}
	return out, true
}

// LoadSeries reads a run's states.csv back into columns. The time
// column feeds Times; everything else lands in Rows under Header.
func (s *Store) LoadSeries(runID string) (*Series, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "states.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("storage: run %s has an empty states.csv", runID)
	}

	series := &Series{
		Header: records[0][1:],
		Times:  make([]float64, 0, len(records)-1),
		Rows:   make([][]float64, 0, len(records)-1),
	}

	for _, record := range records[1:] {
		if len(record) < 2 {
			continue
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}

		row := make([]float64, 0, len(record)-1)
		for _, field := range record[1:] {
			val, err := strconv.ParseFloat(field, 64)
			if err != nil {
				val = 0
			}
			row = append(row, val)
		}

		series.Times = append(series.Times, t)
		series.Rows = append(series.Rows, row)
	}

	return series, nil
}
