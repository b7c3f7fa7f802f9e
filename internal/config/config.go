package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DelayedGroups = 6
	RodBankCount  = 8

	DefaultTick        = 0.5
	DefaultCompression = 1.0
	MaxCompression     = 10000.0
)

// Plant bundles every physical constant of the simulated unit. Downstream
// packages take their slice of this structure at construction, so an
// alternate core loading is a yaml file away.
type Plant struct {
	Name      string    `yaml:"name"`
	RatedMWt  float64   `yaml:"rated_mwt"`
	Kinetics  Kinetics  `yaml:"kinetics"`
	Feedback  Feedback  `yaml:"feedback"`
	Rods      Rods      `yaml:"rods"`
	Thermal   Thermal   `yaml:"thermal"`
	Fuel      Fuel      `yaml:"fuel"`
	Xenon     Xenon     `yaml:"xenon"`
	Trips     Trips     `yaml:"trips"`
	Estimator Estimator `yaml:"estimator"`
}

type Kinetics struct {
	BetaFractions  []float64 `yaml:"beta_fractions"`
	DecayConstants []float64 `yaml:"decay_constants"`
	GenerationTime float64   `yaml:"generation_time"`
	MaxSubStep     float64   `yaml:"max_sub_step"`
	PowerFloor     float64   `yaml:"power_floor"`
}

type Feedback struct {
	FuelTempRefF     float64 `yaml:"fuel_temp_ref_f"`
	ModTempRefF      float64 `yaml:"mod_temp_ref_f"`
	BoronRefPPM      float64 `yaml:"boron_ref_ppm"`
	DopplerCoeffPcm  float64 `yaml:"doppler_coeff_pcm"`
	ModCoeffBasePcm  float64 `yaml:"mod_coeff_base_pcm"`
	ModCoeffBoronPcm float64 `yaml:"mod_coeff_boron_pcm"`
	BoronWorthPcm    float64 `yaml:"boron_worth_pcm"`
	CriticalBandPcm  float64 `yaml:"critical_band_pcm"`
}

type Rods struct {
	TravelSteps    float64   `yaml:"travel_steps"`
	SpeedStepsPerS float64   `yaml:"speed_steps_per_s"`
	OverlapSteps   float64   `yaml:"overlap_steps"`
	SequenceMargin float64   `yaml:"sequence_margin"`
	DashpotSteps   float64   `yaml:"dashpot_steps"`
	DropToDashpotS float64   `yaml:"drop_to_dashpot_s"`
	DropTotalS     float64   `yaml:"drop_total_s"`
	BankWorthsPcm  []float64 `yaml:"bank_worths_pcm"`
}

type Thermal struct {
	ThermalLagS          float64 `yaml:"thermal_lag_s"`
	DetectorLagS         float64 `yaml:"detector_lag_s"`
	RateLagS             float64 `yaml:"rate_lag_s"`
	NoLoadTavgF          float64 `yaml:"no_load_tavg_f"`
	FullPowerTavgF       float64 `yaml:"full_power_tavg_f"`
	FullPowerDeltaTF     float64 `yaml:"full_power_delta_t_f"`
	FlowFloor            float64 `yaml:"flow_floor"`
	LoopLagS             float64 `yaml:"loop_lag_s"`
	SourceRangeMax       float64 `yaml:"source_range_max"`
	IntermediateRangeMin float64 `yaml:"intermediate_range_min"`
	IntermediateRangeMax float64 `yaml:"intermediate_range_max"`
	PowerRangeMin        float64 `yaml:"power_range_min"`
}

type Fuel struct {
	RiseAtRatedF     float64 `yaml:"rise_at_rated_f"`
	CenterlineRiseF  float64 `yaml:"centerline_rise_f"`
	HotChannelFactor float64 `yaml:"hot_channel_factor"`
	FilmShare        float64 `yaml:"film_share"`
	TimeConstantS    float64 `yaml:"time_constant_s"`
	HighTempAlarmF   float64 `yaml:"high_temp_alarm_f"`
}

type Xenon struct {
	IodineDecay    float64 `yaml:"iodine_decay"`
	XenonDecay     float64 `yaml:"xenon_decay"`
	BurnoutAtRated float64 `yaml:"burnout_at_rated"`
	DirectYield    float64 `yaml:"direct_yield"`
	EquilibriumPcm float64 `yaml:"equilibrium_pcm"`
	FloorPcm       float64 `yaml:"floor_pcm"`
}

type Trips struct {
	HighFluxFrac     float64 `yaml:"high_flux_frac"`
	OverTempDTFactor float64 `yaml:"overtemp_dt_factor"`
	OverTempMinPower float64 `yaml:"overtemp_min_power"`
	LowFlowFrac      float64 `yaml:"low_flow_frac"`
	LowFlowMinPower  float64 `yaml:"low_flow_min_power"`
	OverpowerAlarm   float64 `yaml:"overpower_alarm"`
	HighRatePctPerS  float64 `yaml:"high_rate_pct_per_s"`
	ResetMaxPower    float64 `yaml:"reset_max_power"`
}

type Estimator struct {
	BoronIterations   int     `yaml:"boron_iterations"`
	BoronTolerancePcm float64 `yaml:"boron_tolerance_pcm"`
}

// DefaultPlant returns the reference four-loop unit.
func DefaultPlant() *Plant {
	return &Plant{
		Name:     "reference-4loop",
		RatedMWt: 3411.0,
		Kinetics: Kinetics{
			BetaFractions:  []float64{0.000215, 0.001424, 0.001274, 0.002568, 0.000748, 0.000273},
			DecayConstants: []float64{0.0124, 0.0305, 0.111, 0.301, 1.14, 3.01},
			GenerationTime: 2.0e-5,
			MaxSubStep:     0.1,
			PowerFloor:     1e-9,
		},
		Feedback: Feedback{
			FuelTempRefF:     557.0,
			ModTempRefF:      557.0,
			BoronRefPPM:      1200.0,
			DopplerCoeffPcm:  -72.0,
			ModCoeffBasePcm:  -10.0,
			ModCoeffBoronPcm: 0.006,
			BoronWorthPcm:    -8.0,
			CriticalBandPcm:  50.0,
		},
		Rods: Rods{
			TravelSteps:    228.0,
			SpeedStepsPerS: 1.2,
			OverlapSteps:   100.0,
			SequenceMargin: 12.0,
			DashpotSteps:   34.0,
			DropToDashpotS: 1.2,
			DropTotalS:     2.0,
			BankWorthsPcm:  []float64{1250, 1250, 1250, 1250, 900, 1000, 900, 800},
		},
		Thermal: Thermal{
			ThermalLagS:          7.0,
			DetectorLagS:         0.5,
			RateLagS:             2.0,
			NoLoadTavgF:          557.0,
			FullPowerTavgF:       588.0,
			FullPowerDeltaTF:     62.0,
			FlowFloor:            0.03,
			LoopLagS:             12.0,
			SourceRangeMax:       1e-5,
			IntermediateRangeMin: 1e-8,
			IntermediateRangeMax: 0.2,
			PowerRangeMin:        0.005,
		},
		Fuel: Fuel{
			RiseAtRatedF:     800.0,
			CenterlineRiseF:  2000.0,
			HotChannelFactor: 1.55,
			FilmShare:        0.15,
			TimeConstantS:    5.0,
			HighTempAlarmF:   4000.0,
		},
		Xenon: Xenon{
			IodineDecay:    2.87e-5,
			XenonDecay:     2.09e-5,
			BurnoutAtRated: 3.5e-5,
			DirectYield:    0.0382,
			EquilibriumPcm: -2700.0,
			FloorPcm:       -5000.0,
		},
		Trips: Trips{
			HighFluxFrac:     1.09,
			OverTempDTFactor: 1.2,
			OverTempMinPower: 0.25,
			LowFlowFrac:      0.87,
			LowFlowMinPower:  0.10,
			OverpowerAlarm:   1.18,
			HighRatePctPerS:  5.0,
			ResetMaxPower:    0.01,
		},
		Estimator: Estimator{
			BoronIterations:   5,
			BoronTolerancePcm: 1.0,
		},
	}
}

func Load(path string) (*Plant, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p := DefaultPlant()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func Save(path string, p *Plant) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (p *Plant) Validate() error {
	if p.RatedMWt <= 0 {
		return fmt.Errorf("rated power must be positive, got %f", p.RatedMWt)
	}
	if len(p.Kinetics.BetaFractions) != DelayedGroups {
		return fmt.Errorf("expected %d delayed group fractions, got %d", DelayedGroups, len(p.Kinetics.BetaFractions))
	}
	if len(p.Kinetics.DecayConstants) != DelayedGroups {
		return fmt.Errorf("expected %d decay constants, got %d", DelayedGroups, len(p.Kinetics.DecayConstants))
	}
	for i, l := range p.Kinetics.DecayConstants {
		if l <= 0 {
			return fmt.Errorf("decay constant %d must be positive, got %f", i, l)
		}
	}
	if p.Kinetics.GenerationTime <= 0 {
		return fmt.Errorf("generation time must be positive, got %g", p.Kinetics.GenerationTime)
	}
	if p.Kinetics.MaxSubStep <= 0 {
		return fmt.Errorf("kinetics sub-step must be positive, got %f", p.Kinetics.MaxSubStep)
	}
	if len(p.Rods.BankWorthsPcm) != RodBankCount {
		return fmt.Errorf("expected %d bank worths, got %d", RodBankCount, len(p.Rods.BankWorthsPcm))
	}
	if p.Rods.TravelSteps <= 0 || p.Rods.SpeedStepsPerS <= 0 {
		return fmt.Errorf("rod travel and speed must be positive")
	}
	if p.Rods.OverlapSteps <= 0 || p.Rods.OverlapSteps >= p.Rods.TravelSteps {
		return fmt.Errorf("rod overlap must be inside bank travel, got %f", p.Rods.OverlapSteps)
	}
	if p.Rods.DropToDashpotS <= 0 || p.Rods.DropTotalS <= p.Rods.DropToDashpotS {
		return fmt.Errorf("rod drop phases out of order: %f then %f", p.Rods.DropToDashpotS, p.Rods.DropTotalS)
	}
	if p.Thermal.FullPowerTavgF <= p.Thermal.NoLoadTavgF {
		return fmt.Errorf("temperature program must rise with power")
	}
	if p.Thermal.FlowFloor <= 0 || p.Thermal.FlowFloor >= 1 {
		return fmt.Errorf("flow floor must be in (0,1), got %f", p.Thermal.FlowFloor)
	}
	if p.Xenon.IodineDecay <= 0 || p.Xenon.XenonDecay <= 0 {
		return fmt.Errorf("xenon chain decay constants must be positive")
	}
	if p.Xenon.EquilibriumPcm > 0 || p.Xenon.FloorPcm > 0 {
		return fmt.Errorf("xenon worths must be non-positive")
	}
	if p.Estimator.BoronIterations < 1 {
		return fmt.Errorf("boron estimator needs at least one iteration, got %d", p.Estimator.BoronIterations)
	}
	if p.Estimator.BoronTolerancePcm <= 0 {
		return fmt.Errorf("boron tolerance must be positive, got %f", p.Estimator.BoronTolerancePcm)
	}
	return nil
}

// TavgProgram returns the programmed average coolant temperature for a
// thermal power fraction.
func (t *Thermal) TavgProgram(power float64) float64 {
	if power < 0 {
		power = 0
	}
	if power > 1 {
		power = 1
	}
	return t.NoLoadTavgF + (t.FullPowerTavgF-t.NoLoadTavgF)*power
}
