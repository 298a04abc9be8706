package filters

import (
	"fmt"
	"math"
)

// DCBlocker strips the DC component from an audio stream with the
// one-pole high-pass from Julius O. Smith III, "Introduction to Digital
// Filters with Audio Applications":
//
//	y[n] = x[n] - x[n-1] + R*y[n-1]
//
// State carries across calls, so one instance follows one stream. Not
// safe for concurrent use.
type DCBlocker struct {
	pole float64

	x1 float64
	y1 float64
}

// NewDCBlocker creates a blocker with the given -3 dB cutoff. The pole
// follows the small-angle design R = 1 - 2*pi*fc/fs, which requires the
// cutoff to sit well below the sample rate.
func NewDCBlocker(sampleRate int, cutoffHz float64) (*DCBlocker, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("dc blocker sample rate must be positive, got %d", sampleRate)
	}
	if cutoffHz <= 0 {
		return nil, fmt.Errorf("dc blocker cutoff must be positive, got %.2f Hz", cutoffHz)
	}

	pole := 1.0 - 2.0*math.Pi*cutoffHz/float64(sampleRate)
	if pole <= 0 {
		return nil, fmt.Errorf("dc blocker cutoff %.1f Hz has no stable pole at %d Hz", cutoffHz, sampleRate)
	}

	return &DCBlocker{pole: pole}, nil
}

// Process filters a single sample
func (dc *DCBlocker) Process(sample float64) float64 {
	out := sample - dc.x1 + dc.pole*dc.y1
	dc.x1 = sample
	dc.y1 = out
	return out
}

// ProcessInPlace filters a buffer. Consecutive buffers are treated as one
// continuous stream.
func (dc *DCBlocker) ProcessInPlace(buf []float64) {
	for i, sample := range buf {
		buf[i] = dc.Process(sample)
	}
}

// Reset clears the filter state. Call it between discontinuous segments.
func (dc *DCBlocker) Reset() {
	dc.x1 = 0
	dc.y1 = 0
}

// GetCutoffFrequency returns the approximate -3 dB cutoff at the given
// sample rate, the inverse of the design formula: fc = (1-R)*fs/(2*pi)
func (dc *DCBlocker) GetCutoffFrequency(sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return (1.0 - dc.pole) * float64(sampleRate) / (2.0 * math.Pi)
}

// GetPoleLocation returns the R parameter
func (dc *DCBlocker) GetPoleLocation() float64 {
	return dc.pole
}
