// Package capture provides mono audio sample sources for the detection
// engine.
package capture

// Source produces mono int16 samples at a negotiated sample rate. A source
// is owned by a single reader: Open, Read and Close are never called
// concurrently. Read blocks until the buffer is filled or the source
// fails, and returns io.EOF when the source is exhausted.
type Source interface {
	// Open prepares the source to deliver samples at the given rate
	Open(sampleRate int) error
	// Read fills buf and returns the number of samples written
	Read(buf []int16) (int, error)
	// Close releases the source; safe to call after a failed Open
	Close() error
}
