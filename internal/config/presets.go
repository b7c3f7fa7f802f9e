package config

import (
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario is a canned transient: an initial condition plus a timed
// action script. Scenarios load from yaml files too, so operators can
// write their own.
type Scenario struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Init        string   `yaml:"init"` // cold, hzp, power
	InitPower   float64  `yaml:"init_power"`
	Duration    float64  `yaml:"duration"`
	Tick        float64  `yaml:"tick"`
	Compression float64  `yaml:"compression"`
	Controller  string   `yaml:"controller"` // none, ascension
	Target      float64  `yaml:"target"`
	Actions     []Action `yaml:"actions"`
}

// Action fires once when simulation time reaches At.
type Action struct {
	At    float64 `yaml:"at"`
	Op    string  `yaml:"op"`
	Value float64 `yaml:"value"`
}

var Scenarios = map[string]*Scenario{
	"startup": {
		Name:        "startup",
		Description: "hot zero power to 30% with sequenced rod withdrawal",
		Init:        "hzp",
		Duration:    2400,
		Tick:        0.5,
		Compression: 30,
		Controller:  "ascension",
		Target:      0.30,
	},
	"full-power": {
		Name:        "full-power",
		Description: "steady state at rated power",
		Init:        "power",
		InitPower:   1.0,
		Duration:    600,
		Tick:        0.5,
		Compression: 10,
		Controller:  "none",
	},
	"trip": {
		Name:        "trip",
		Description: "manual reactor trip from rated power",
		Init:        "power",
		InitPower:   1.0,
		Duration:    300,
		Tick:        0.2,
		Compression: 5,
		Controller:  "none",
		Actions:     []Action{{At: 10, Op: "trip"}},
	},
	"xenon-transient": {
		Name:        "xenon-transient",
		Description: "24h post-trip xenon buildup and decay",
		Init:        "power",
		InitPower:   1.0,
		Duration:    86400,
		Tick:        1.0,
		Compression: 10000,
		Controller:  "none",
		Actions:     []Action{{At: 60, Op: "trip"}},
	},
	"power-maneuver": {
		Name:        "power-maneuver",
		Description: "rated power down to 50% on control rods",
		Init:        "power",
		InitPower:   1.0,
		Duration:    7200,
		Tick:        0.5,
		Compression: 60,
		Controller:  "ascension",
		Target:      0.50,
	},
	"cold-shutdown": {
		Name:        "cold-shutdown",
		Description: "refueling boron, all rods in, natural circulation",
		Init:        "cold",
		Duration:    120,
		Tick:        0.5,
		Compression: 1,
		Controller:  "none",
	},
	"low-flow": {
		Name:        "low-flow",
		Description: "partial loss of forced flow at rated power",
		Init:        "power",
		InitPower:   1.0,
		Duration:    120,
		Tick:        0.2,
		Compression: 2,
		Controller:  "none",
		Actions:     []Action{{At: 20, Op: "set_flow", Value: 0.80}},
	},
	"dilution": {
		Name:        "dilution",
		Description: "uncontrolled boron dilution at 50% power",
		Init:        "power",
		InitPower:   0.5,
		Duration:    600,
		Tick:        0.5,
		Compression: 10,
		Controller:  "none",
		Actions:     []Action{{At: 30, Op: "add_boron", Value: -120}},
	},
}

// GetScenario returns a copy of a built-in scenario, so callers can
// adjust it without touching the canned set.
func GetScenario(name string) *Scenario {
	sc, ok := Scenarios[name]
	if !ok {
		return nil
	}
	out := *sc
	out.Actions = append([]Action(nil), sc.Actions...)
	return &out
}

func ListScenarios() []string {
	names := make([]string, 0, len(Scenarios))
	for name := range Scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadScenario reads a scenario script from a yaml file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc := &Scenario{
		Init:        "hzp",
		Tick:        DefaultTick,
		Compression: DefaultCompression,
		Controller:  "none",
	}
	if err := yaml.Unmarshal(data, sc); err != nil {
		return nil, err
	}
	return sc, nil
}
