package pitch

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/RyanBlaney/sonido-pitch/algorithms/common"
	"github.com/RyanBlaney/sonido-pitch/algorithms/spectral"
	"github.com/RyanBlaney/sonido-pitch/algorithms/windowing"
)

// supportRatio is the minimum share of the spectral maximum a bin's own
// magnitude must carry before its harmonic score may win the peak search.
// A subharmonic bin inherits the full fundamental magnitude through its
// h=2 term while holding only sidelobe energy itself; requiring spectral
// support at the bin keeps such bins from outscoring the true peak.
const supportRatio = 0.05

// HPS estimates pitch with a harmonic product spectrum.
//
// Each frame is Hann windowed, zero padded and transformed. Every candidate
// bin is scored by the product of the magnitudes at its integer harmonics
// plus a weighted harmonic sum, and the winning bin is refined against the
// raw magnitude lobe with parabolic interpolation.
//
// References:
//   - Noll, "Pitch determination of human speech by the harmonic product
//     spectrum, the harmonic sum spectrum, and a maximum likelihood
//     estimate" (1970)
type HPS struct {
	params    Params
	window    *windowing.Hann
	fft       *spectral.FFT
	paddedLen int
	minBin    int
	maxBin    int
	padded    []float64
}

// NewHPS creates a harmonic product spectrum estimator
func NewHPS(p Params) (*HPS, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("hps: %w", err)
	}

	window, err := windowing.NewHann(p.FrameSize)
	if err != nil {
		return nil, fmt.Errorf("hps: %w", err)
	}

	// Rounding the padded length up to a power of two keeps go-dsp on its
	// radix-2 path; the extra padding only densifies the interpolation grid.
	paddedLen := common.NextPowerOfTwo(p.FrameSize * p.ZeroPadFactor)
	half := paddedLen / 2

	binWidth := float64(p.SampleRate) / float64(paddedLen)
	minBin := int(p.MinFrequency/binWidth + 0.5)
	if minBin < 1 {
		minBin = 1
	}
	maxBin := int(p.MaxFrequency / binWidth)
	if maxBin > half-1 {
		maxBin = half - 1
	}
	if minBin >= maxBin {
		return nil, fmt.Errorf("hps: frequency range [%g, %g] spans no spectrum bins at sample rate %d",
			p.MinFrequency, p.MaxFrequency, p.SampleRate)
	}

	return &HPS{
		params:    p,
		window:    window,
		fft:       spectral.NewFFT(),
		paddedLen: paddedLen,
		minBin:    minBin,
		maxBin:    maxBin,
		padded:    make([]float64, paddedLen),
	}, nil
}

// Algorithm returns AlgorithmHPS
func (h *HPS) Algorithm() Algorithm {
	return AlgorithmHPS
}

// Estimate returns the fundamental frequency of one frame, or false when
// the frame is too quiet or holds no supported spectral peak
func (h *HPS) Estimate(frame []float64) (Estimate, bool) {
	if len(frame) != h.params.FrameSize {
		return Estimate{}, false
	}
	if common.AmplitudeToDB(common.RMS(frame)) < h.params.MinLevelDB {
		return Estimate{}, false
	}

	copy(h.padded, frame)
	for i := h.params.FrameSize; i < h.paddedLen; i++ {
		h.padded[i] = 0
	}
	if err := h.window.ApplyInPlace(h.padded[:h.params.FrameSize]); err != nil {
		return Estimate{}, false
	}

	spectrum := h.fft.Compute(h.padded)
	magnitude := h.fft.Magnitude(spectrum)
	half := len(magnitude)

	specMax := floats.Max(magnitude[1:])
	if specMax <= 0 {
		return Estimate{}, false
	}
	supportFloor := supportRatio * specMax

	// Harmonic reinforcement over the searchable band. Out-of-range
	// harmonics do not contribute; a bin with no harmonic in range keeps
	// its own magnitude.
	scores := make([]float64, h.maxBin+1)
	for i := h.minBin; i <= h.maxBin; i++ {
		product := magnitude[i]
		sum := 0.0
		for harmonic := 2; harmonic <= h.params.Harmonics; harmonic++ {
			idx := i * harmonic
			if idx >= half {
				break
			}
			product *= magnitude[idx]
			sum += magnitude[idx]
		}
		scores[i] = product + h.params.HarmonicSumWeight*sum
	}

	best := -1
	for i := h.minBin; i <= h.maxBin; i++ {
		if magnitude[i] < supportFloor {
			continue
		}
		if best < 0 || scores[i] > scores[best] {
			best = i
		}
	}
	if best < 0 {
		return Estimate{}, false
	}

	// The harmonic score can peak a bin or two off the magnitude lobe
	// apex, so snap to the local magnitude maximum before interpolating.
	peak := best
	for peak > 1 && magnitude[peak-1] > magnitude[peak] {
		peak--
	}
	for peak < half-1 && magnitude[peak+1] > magnitude[peak] {
		peak++
	}

	interpIdx := common.ParabolicPeak(magnitude, peak)
	freq := float64(h.params.SampleRate) * interpIdx / float64(h.paddedLen)
	if freq < h.params.MinFrequency || freq > h.params.MaxFrequency {
		return Estimate{}, false
	}

	confidence := 0.0
	if total := floats.Sum(scores[h.minBin:]); total > 1e-10 {
		confidence = common.Clamp(scores[best]/total, 0.0, 1.0)
	}

	return Estimate{Frequency: freq, Confidence: confidence}, true
}
