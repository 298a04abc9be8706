package pitch

import (
	"errors"
	"fmt"
)

// Algorithm identifies a pitch detection method
type Algorithm string

const (
	// AlgorithmHPS is the frequency-domain harmonic product spectrum method
	AlgorithmHPS Algorithm = "hps"
	// AlgorithmNSDF is the time-domain normalized square difference method
	AlgorithmNSDF Algorithm = "nsdf"
)

// Estimate is a single-frame pitch estimate
type Estimate struct {
	Frequency  float64 `json:"frequency"`
	Confidence float64 `json:"confidence"`
}

// Estimator detects the fundamental frequency of one analysis frame.
// The boolean result is false when the frame carries no usable pitch,
// which is a normal outcome for silence and unpitched noise.
type Estimator interface {
	Estimate(frame []float64) (Estimate, bool)
	Algorithm() Algorithm
}

// Params configures pitch estimation
type Params struct {
	SampleRate        int     `json:"sample_rate"`
	FrameSize         int     `json:"frame_size"`
	MinFrequency      float64 `json:"min_frequency"`
	MaxFrequency      float64 `json:"max_frequency"`
	MinLevelDB        float64 `json:"min_level_db"`
	ClarityThreshold  float64 `json:"clarity_threshold"`
	ZeroPadFactor     int     `json:"zero_pad_factor"`
	Harmonics         int     `json:"harmonics"`
	HarmonicSumWeight float64 `json:"harmonic_sum_weight"`
}

// DefaultParams returns estimation parameters suited for monophonic
// instruments roughly between E1 and D6
func DefaultParams(sampleRate, frameSize int) Params {
	return Params{
		SampleRate:        sampleRate,
		FrameSize:         frameSize,
		MinFrequency:      50.0,
		MaxFrequency:      1200.0,
		MinLevelDB:        -60.0,
		ClarityThreshold:  0.6,
		ZeroPadFactor:     4,
		Harmonics:         5,
		HarmonicSumWeight: 1.0,
	}
}

// Validate checks parameter consistency and reports every violation
func (p Params) Validate() error {
	var errs []error

	if p.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample rate must be positive, got %d", p.SampleRate))
	}
	if p.FrameSize < 32 {
		errs = append(errs, fmt.Errorf("frame size must be at least 32, got %d", p.FrameSize))
	}
	if p.MinFrequency <= 0 || p.MaxFrequency <= p.MinFrequency {
		errs = append(errs, fmt.Errorf("frequency range [%g, %g] is not ordered", p.MinFrequency, p.MaxFrequency))
	}
	if p.SampleRate > 0 && p.MaxFrequency > float64(p.SampleRate)/2 {
		errs = append(errs, fmt.Errorf("max frequency %g exceeds the Nyquist limit %g", p.MaxFrequency, float64(p.SampleRate)/2))
	}
	if p.ClarityThreshold <= 0 || p.ClarityThreshold > 1 {
		errs = append(errs, fmt.Errorf("clarity threshold must be in (0, 1], got %g", p.ClarityThreshold))
	}
	if p.ZeroPadFactor < 1 {
		errs = append(errs, fmt.Errorf("zero pad factor must be at least 1, got %d", p.ZeroPadFactor))
	}
	if p.Harmonics < 2 {
		errs = append(errs, fmt.Errorf("harmonics must be at least 2, got %d", p.Harmonics))
	}
	if p.HarmonicSumWeight < 0 {
		errs = append(errs, fmt.Errorf("harmonic sum weight must not be negative, got %g", p.HarmonicSumWeight))
	}

	return errors.Join(errs...)
}

// New creates the estimator implementing the named algorithm
func New(alg Algorithm, p Params) (Estimator, error) {
	switch alg {
	case AlgorithmHPS:
		return NewHPS(p)
	case AlgorithmNSDF:
		return NewNSDF(p)
	default:
		return nil, fmt.Errorf("unknown pitch algorithm %q", alg)
	}
}
