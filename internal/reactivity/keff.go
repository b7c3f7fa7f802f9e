package reactivity

// pcm is 1e-5 dk/k.
const pcmPerUnit = 1e5

// ReactivityToKeff converts reactivity in pcm to the effective
// multiplication factor. The conversion has a pole at +1e5 pcm; at or
// beyond it no finite keff exists and the second return is false.
func ReactivityToKeff(pcm float64) (float64, bool) {
	d := 1.0 - pcm/pcmPerUnit
	if d <= 0 {
		return 0, false
	}
	return 1.0 / d, true
}

// KeffToReactivity converts an effective multiplication factor to pcm.
func KeffToReactivity(keff float64) float64 {
	return (keff - 1.0) / keff * pcmPerUnit
}
