package power

// Integrate computes ∫(p − offset) dt over the sample span by the
// trapezoidal rule, in joules. Trapezoids are used instead of
// mean-power-times-duration because vendor logs sample at uneven
// intervals. Negative net power integrates negative; a bad baseline
// should be visible, not clamped away.
func Integrate(samples []Sample, offset float64) float64 {
	var energy float64
	for i := 1; i < len(samples); i++ {
		dt := samples[i].At.Sub(samples[i-1].At).Seconds()
		if dt <= 0 {
			continue
		}
		p0 := samples[i-1].Watts - offset
		p1 := samples[i].Watts - offset
		energy += (p0 + p1) / 2 * dt
	}
	return energy
}
