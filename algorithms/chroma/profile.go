package chroma

import (
	"fmt"
	"math"
)

// pitchClassNames uses the sharps spelling, index 0 = C
var pitchClassNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// PitchClassName returns the sharps spelling for a pitch class (0=C ... 11=B)
func PitchClassName(class int) string {
	return pitchClassNames[((class%12)+12)%12]
}

// Profiler accumulates magnitude spectra into 12-bin pitch class profiles
type Profiler struct {
	sampleRate int
	fftSize    int
	minFreq    float64
	maxFreq    float64
}

// NewProfiler creates a pitch class profiler. fftSize is the full transform
// length the magnitude spectra were computed from.
func NewProfiler(sampleRate, fftSize int, minFreq, maxFreq float64) (*Profiler, error) {
	if sampleRate <= 0 || fftSize <= 0 {
		return nil, fmt.Errorf("chroma: sample rate and fft size must be positive, got %d and %d", sampleRate, fftSize)
	}
	if minFreq <= 0 || maxFreq <= minFreq {
		return nil, fmt.Errorf("chroma: frequency range [%g, %g] is not ordered", minFreq, maxFreq)
	}

	return &Profiler{
		sampleRate: sampleRate,
		fftSize:    fftSize,
		minFreq:    minFreq,
		maxFreq:    maxFreq,
	}, nil
}

// Compute builds a pitch class profile from a half-spectrum magnitude.
// Squared magnitude is accumulated per pitch class over the configured
// frequency band and the profile is normalized to sum 1. A spectrum with
// no energy in the band yields all zeros.
func (p *Profiler) Compute(magnitude []float64) [12]float64 {
	var profile [12]float64

	binWidth := float64(p.sampleRate) / float64(p.fftSize)
	for i := 1; i < len(magnitude); i++ {
		freq := float64(i) * binWidth
		if freq < p.minFreq {
			continue
		}
		if freq > p.maxFreq {
			break
		}

		// nearest MIDI note for this bin, A4 = 440 Hz = MIDI 69
		midi := int(math.Round(12.0*math.Log2(freq/440.0) + 69.0))
		class := ((midi % 12) + 12) % 12
		profile[class] += magnitude[i] * magnitude[i]
	}

	sum := 0.0
	for _, val := range profile {
		sum += val
	}
	if sum > 1e-10 {
		for i := range profile {
			profile[i] /= sum
		}
	}

	return profile
}
