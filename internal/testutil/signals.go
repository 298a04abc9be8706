// Package testutil generates deterministic audio signals for tests.
package testutil

import "math"

// Sine returns n samples of a sine wave at freq Hz with the given
// amplitude, sampled at rate Hz
func Sine(n int, freq, amplitude float64, rate int) []float64 {
	samples := make([]float64, n)
	step := 2 * math.Pi * freq / float64(rate)
	for i := range samples {
		samples[i] = amplitude * math.Sin(step*float64(i))
	}
	return samples
}

// SineInt16 returns n signed 16-bit samples of a sine wave, amplitude as
// a fraction of full scale
func SineInt16(n int, freq, amplitude float64, rate int) []int16 {
	samples := make([]int16, n)
	step := 2 * math.Pi * freq / float64(rate)
	for i := range samples {
		samples[i] = int16(amplitude * 32767.0 * math.Sin(step*float64(i)))
	}
	return samples
}

// Silence returns n zero samples
func Silence(n int) []float64 {
	return make([]float64, n)
}

// Harmonic returns n samples of a tone built from the given partial
// amplitudes, partials[0] being the fundamental at f0
func Harmonic(n int, f0 float64, partials []float64, rate int) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		t := float64(i) / float64(rate)
		for h, amp := range partials {
			samples[i] += amp * math.Sin(2*math.Pi*f0*float64(h+1)*t)
		}
	}
	return samples
}
