package pitch

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-pitch/algorithms/common"
)

// peakPickRatio selects the smallest-lag NSDF local maximum whose value
// reaches this share of the global maximum. A periodic signal repeats its
// correlation peak at every lag multiple, so the bare argmax can land an
// octave or more below the true pitch.
const peakPickRatio = 0.93

// NSDF estimates pitch with the normalized square difference function
//
//	nsdf(tau) = 2 * sum(x[i] * x[i+tau]) / sum(x[i]^2 + x[i+tau]^2)
//
// with both sums over the overlap region i in [0, N-tau). Values lie in
// [-1, 1] and a clearly periodic frame peaks near 1 at its period.
//
// References:
//   - McLeod, Wyvill, "A smarter way to find pitch" (2005)
type NSDF struct {
	params Params
	minLag int
	maxLag int
	nsdf   []float64
}

// NewNSDF creates a normalized square difference estimator
func NewNSDF(p Params) (*NSDF, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("nsdf: %w", err)
	}

	minLag := int(float64(p.SampleRate) / p.MaxFrequency)
	if minLag < 2 {
		minLag = 2
	}
	maxLag := int(math.Ceil(float64(p.SampleRate) / p.MinFrequency))
	if maxLag > p.FrameSize/2 {
		maxLag = p.FrameSize / 2
	}
	if minLag >= maxLag {
		return nil, fmt.Errorf("nsdf: lag range [%d, %d] is empty for frame size %d",
			minLag, maxLag, p.FrameSize)
	}

	return &NSDF{
		params: p,
		minLag: minLag,
		maxLag: maxLag,
		nsdf:   make([]float64, maxLag+2),
	}, nil
}

// Algorithm returns AlgorithmNSDF
func (n *NSDF) Algorithm() Algorithm {
	return AlgorithmNSDF
}

// Estimate returns the fundamental frequency of one frame, or false when
// the frame is too quiet or no lag clears the clarity threshold
func (n *NSDF) Estimate(frame []float64) (Estimate, bool) {
	if len(frame) != n.params.FrameSize {
		return Estimate{}, false
	}
	if common.AmplitudeToDB(common.RMS(frame)) < n.params.MinLevelDB {
		return Estimate{}, false
	}

	// One lag beyond each end so the band edges can form local maxima.
	for tau := n.minLag - 1; tau <= n.maxLag+1; tau++ {
		n.nsdf[tau] = normalizedCorrelation(frame, tau)
	}

	bestValue := math.Inf(-1)
	var candidates []int
	for tau := n.minLag; tau <= n.maxLag; tau++ {
		v := n.nsdf[tau]
		if v > n.nsdf[tau-1] && v > n.nsdf[tau+1] {
			candidates = append(candidates, tau)
			if v > bestValue {
				bestValue = v
			}
		}
	}
	if len(candidates) == 0 || bestValue < n.params.ClarityThreshold {
		return Estimate{}, false
	}

	chosen := candidates[0]
	for _, tau := range candidates {
		if n.nsdf[tau] >= peakPickRatio*bestValue {
			chosen = tau
			break
		}
	}

	interpLag := common.ParabolicPeak(n.nsdf, chosen)
	if interpLag <= 0 {
		return Estimate{}, false
	}
	freq := float64(n.params.SampleRate) / interpLag
	if freq < n.params.MinFrequency || freq > n.params.MaxFrequency {
		return Estimate{}, false
	}

	clarity := common.Clamp(n.nsdf[chosen], 0.0, 1.0)
	return Estimate{Frequency: freq, Confidence: clarity}, true
}

// normalizedCorrelation computes one NSDF lag over the overlap region
func normalizedCorrelation(frame []float64, tau int) float64 {
	var acf, norm float64
	overlap := len(frame) - tau
	for i := 0; i < overlap; i++ {
		a := frame[i]
		b := frame[i+tau]
		acf += a * b
		norm += a*a + b*b
	}

	if norm < 1e-12 {
		return 0.0
	}
	return 2.0 * acf / norm
}
