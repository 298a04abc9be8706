package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT provides Fast Fourier Transform functionality
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute computes the Fast Fourier Transform using mjibson/go-dsp.
// Takes []float64 input and returns []complex128 output.
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}

	// mjibson/go-dsp handles all sizes efficiently, including non-power-of-2
	return fft.FFTReal(x)
}

// Magnitude returns the magnitude spectrum over the lower half of a complex
// spectrum. For real input the upper half mirrors the lower half, so only
// the first len(spectrum)/2 bins carry information.
func (f *FFT) Magnitude(spectrum []complex128) []float64 {
	magnitude := make([]float64, len(spectrum)/2)
	for i := range magnitude {
		magnitude[i] = cmplx.Abs(spectrum[i])
	}
	return magnitude
}
