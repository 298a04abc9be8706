package capture

import (
	"fmt"
	"math"
	"time"
)

// SineSource generates an endless phase-continuous sine tone. It is used
// by tests and by the demo mode of the CLI, where exercising the full
// detection path without a microphone is useful.
type SineSource struct {
	// Frequency of the tone in Hz
	Frequency float64
	// Amplitude as a fraction of full scale, clamped to [0, 1]
	Amplitude float64
	// Realtime paces Read calls to wall clock time when set
	Realtime bool

	sampleRate int
	phase      float64
}

// NewSineSource creates a half-scale sine tone source
func NewSineSource(frequency float64) *SineSource {
	return &SineSource{
		Frequency: frequency,
		Amplitude: 0.5,
	}
}

// Open records the sample rate and resets the phase
func (s *SineSource) Open(sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	if s.Frequency <= 0 || s.Frequency >= float64(sampleRate)/2 {
		return fmt.Errorf("sine frequency %g is not representable at sample rate %d", s.Frequency, sampleRate)
	}

	s.sampleRate = sampleRate
	s.phase = 0
	return nil
}

// Read fills buf with the next chunk of the tone
func (s *SineSource) Read(buf []int16) (int, error) {
	if s.sampleRate == 0 {
		return 0, fmt.Errorf("sine source not open")
	}

	amp := s.Amplitude
	if amp < 0 {
		amp = 0
	}
	if amp > 1 {
		amp = 1
	}

	step := 2 * math.Pi * s.Frequency / float64(s.sampleRate)
	for i := range buf {
		buf[i] = int16(amp * math.Sin(s.phase) * 32767.0)
		s.phase += step
		if s.phase >= 2*math.Pi {
			s.phase -= 2 * math.Pi
		}
	}

	if s.Realtime {
		time.Sleep(time.Duration(len(buf)) * time.Second / time.Duration(s.sampleRate))
	}

	return len(buf), nil
}

// Close resets the source so it can be opened again
func (s *SineSource) Close() error {
	s.sampleRate = 0
	return nil
}
