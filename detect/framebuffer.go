// Package detect runs the real-time pitch detection pipeline: frame
// accumulation, estimation, stability gating and callback dispatch.
package detect

import (
	"fmt"
)

// int16Scale normalizes signed 16-bit samples to [-1, 1)
const int16Scale = 32768.0

// FrameBuffer accumulates raw int16 capture chunks into fixed-size float64
// analysis frames. It keeps a ring of the newest frameSize samples,
// shifting older samples out when a chunk overshoots the remaining
// capacity, and emits one frame for every frameSize samples accumulated
// since the last emission. Chunks larger than the frame are handled; only
// their newest frameSize samples survive.
type FrameBuffer struct {
	frameSize int
	samples   []float64
	fresh     int
}

// NewFrameBuffer creates a frame buffer emitting frames of frameSize samples
func NewFrameBuffer(frameSize int) (*FrameBuffer, error) {
	if frameSize <= 0 {
		return nil, fmt.Errorf("frame size must be positive, got %d", frameSize)
	}

	return &FrameBuffer{
		frameSize: frameSize,
		samples:   make([]float64, 0, frameSize),
	}, nil
}

// FrameSize returns the emitted frame length
func (fb *FrameBuffer) FrameSize() int {
	return fb.frameSize
}

// Push appends a chunk of raw samples, normalizing them to [-1, 1). It
// returns a frame and true once frameSize samples have accumulated since
// the last emitted frame. The returned slice is a copy owned by the
// caller; later pushes never mutate it.
func (fb *FrameBuffer) Push(chunk []int16) ([]float64, bool) {
	for _, raw := range chunk {
		val := float64(raw) / int16Scale
		if len(fb.samples) < fb.frameSize {
			fb.samples = append(fb.samples, val)
		} else {
			copy(fb.samples, fb.samples[1:])
			fb.samples[fb.frameSize-1] = val
		}
	}
	fb.fresh += len(chunk)

	if len(fb.samples) < fb.frameSize || fb.fresh < fb.frameSize {
		return nil, false
	}

	// Carry the overshoot so uneven chunk sizes do not drift the cadence.
	fb.fresh -= fb.frameSize

	frame := make([]float64, fb.frameSize)
	copy(frame, fb.samples)
	return frame, true
}

// Reset clears the ring and the accumulation counter
func (fb *FrameBuffer) Reset() {
	fb.samples = fb.samples[:0]
	fb.fresh = 0
}
