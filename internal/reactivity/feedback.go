// Package reactivity evaluates the feedback mechanisms that drive core
// reactivity: Doppler broadening in the fuel, moderator density, soluble
// boron, xenon poisoning, and control rod position.
package reactivity

import (
	"math"

	"github.com/reactorlab/pwrsim/internal/config"
)

// Budget splits net reactivity into its contributing mechanisms.
// All entries are in pcm; negative values oppose a power increase.
type Budget struct {
	DopplerPcm   float64
	ModeratorPcm float64
	BoronPcm     float64
	XenonPcm     float64
	RodsPcm      float64
}

// FeedbackPcm returns the inherent portion of the budget, everything
// except rods.
func (b Budget) FeedbackPcm() float64 {
	return b.DopplerPcm + b.ModeratorPcm + b.BoronPcm + b.XenonPcm
}

// TotalPcm returns net core reactivity.
func (b Budget) TotalPcm() float64 {
	return b.FeedbackPcm() + b.RodsPcm
}

// Inputs carries the plant state a budget evaluation depends on.
type Inputs struct {
	FuelTempF float64
	ModTempF  float64
	BoronPPM  float64
	XenonPcm  float64
	RodsPcm   float64
}

// Feedback evaluates the mechanisms against a fixed reference condition:
// hot zero power temperatures, all rods out, boron at the configured
// reference concentration. At exactly that condition every mechanism
// reads zero.
type Feedback struct {
	cfg config.Feedback
}

func New(cfg config.Feedback) *Feedback {
	return &Feedback{cfg: cfg}
}

// Doppler returns fuel temperature reactivity. Worth follows the square
// root of fuel temperature, so the coefficient weakens as the fuel
// heats up.
func (f *Feedback) Doppler(fuelTempF float64) float64 {
	if fuelTempF < 0 {
		fuelTempF = 0
	}
	return f.cfg.DopplerCoeffPcm * (math.Sqrt(fuelTempF) - math.Sqrt(f.cfg.FuelTempRefF))
}

// ModeratorCoeff returns the moderator temperature coefficient in
// pcm/degF at the given boron concentration. Boron pulls the
// coefficient toward zero.
func (f *Feedback) ModeratorCoeff(boronPPM float64) float64 {
	return f.cfg.ModCoeffBasePcm + f.cfg.ModCoeffBoronPcm*boronPPM
}

func (f *Feedback) Moderator(modTempF, boronPPM float64) float64 {
	return f.ModeratorCoeff(boronPPM) * (modTempF - f.cfg.ModTempRefF)
}

// Boron returns soluble boron reactivity relative to the reference
// concentration.
func (f *Feedback) Boron(boronPPM float64) float64 {
	return f.cfg.BoronWorthPcm * (boronPPM - f.cfg.BoronRefPPM)
}

// Evaluate fills a Budget from the given inputs. Two calls with equal
// inputs return equal budgets; no state is carried between calls.
func (f *Feedback) Evaluate(in Inputs) Budget {
	return Budget{
		DopplerPcm:   f.Doppler(in.FuelTempF),
		ModeratorPcm: f.Moderator(in.ModTempF, in.BoronPPM),
		BoronPcm:     f.Boron(in.BoronPPM),
		XenonPcm:     in.XenonPcm,
		RodsPcm:      in.RodsPcm,
	}
}

// PowerDefect returns the temperature part of the budget at the given
// conditions: Doppler plus moderator. Negative at power, it is the
// reactivity rods and boron must cover during an ascension.
func (f *Feedback) PowerDefect(fuelTempF, modTempF, boronPPM float64) float64 {
	return f.Doppler(fuelTempF) + f.Moderator(modTempF, boronPPM)
}

// IsCritical reports whether net reactivity sits inside the critical
// annunciator band.
func (f *Feedback) IsCritical(totalPcm float64) bool {
	return math.Abs(totalPcm) <= f.cfg.CriticalBandPcm
}

func (f *Feedback) CriticalBandPcm() float64 { return f.cfg.CriticalBandPcm }
