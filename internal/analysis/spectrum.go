// Package analysis detects slow oscillations in recorded runs, the
// kind xenon and temperature feedback can set up over hours.
package analysis

import (
	"math"
	"math/cmplx"
)

// PowerSpectrum returns the single sided amplitude spectrum of an
// evenly sampled series. The series is detrended, Hann windowed and
// zero padded to a power of two; bin k of the result corresponds to a
// period of n*dt/k where n is twice the returned length.
func PowerSpectrum(data []float64) []float64 {
	n := nextPow2(len(data))

	x := make([]complex128, n)
	for i, v := range hann(detrend(data)) {
		x[i] = complex(v, 0)
	}

	spec := fft(x)
	ps := make([]float64, n/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spec[i])
	}
	return ps
}

// DominantPeriod picks the strongest oscillation period in seconds
// from a series sampled every dt seconds. The second return is false
// when the series is too short or carries no oscillation above the
// detrended noise floor.
func DominantPeriod(data []float64, dt float64) (float64, bool) {
	if len(data) < 8 || dt <= 0 {
		return 0, false
	}

	lo, hi := data[0], data[0]
	for _, v := range data {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		return 0, false
	}

	ps := PowerSpectrum(data)
	peak := 1
	for k := 2; k < len(ps); k++ {
		if ps[k] > ps[peak] {
			peak = k
		}
	}
	if ps[peak] <= 1e-9*span*float64(len(ps)) {
		return 0, false
	}

	n := 2 * len(ps)
	return float64(n) * dt / float64(peak), true
}

// detrend removes the least squares line so the window edges and the
// DC bin do not swamp the spectrum.
func detrend(data []float64) []float64 {
	n := float64(len(data))
	var sx, sy, sxx, sxy float64
	for i, y := range data {
		x := float64(i)
		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
	}

	var slope float64
	if den := n*sxx - sx*sx; den != 0 {
		slope = (n*sxy - sx*sy) / den
	}
	intercept := (sy - slope*sx) / n

	out := make([]float64, len(data))
	for i, y := range data {
		out[i] = y - (intercept + slope*float64(i))
	}
	return out
}

func hann(data []float64) []float64 {
	n := len(data)
	if n < 2 {
		return data
	}
	out := make([]float64, n)
	for i, v := range data {
		out[i] = v * 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return out
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func fft(x []complex128) []complex128 {
	n := len(x)
	if n == 1 {
		return []complex128{x[0]}
	}

	even := make([]complex128, n/2)
	odd := make([]complex128, n/2)
	for i := 0; i < n/2; i++ {
		even[i] = x[2*i]
		odd[i] = x[2*i+1]
	}

	fe := fft(even)
	fo := fft(odd)

	out := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		out[k] = fe[k] + w*fo[k]
		out[k+n/2] = fe[k] - w*fo[k]
	}
	return out
}
