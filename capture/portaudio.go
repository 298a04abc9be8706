package capture

import (
	"errors"
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Microphone captures mono samples from the default input device using
// blocking PortAudio reads. The chunk size is fixed at construction and
// every Read must use a buffer of exactly that size.
type Microphone struct {
	chunkSize   int
	buf         []int16
	stream      *portaudio.Stream
	initialized bool
}

// NewMicrophone creates a microphone source reading chunkSize samples per
// Read call
func NewMicrophone(chunkSize int) (*Microphone, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("microphone chunk size must be positive, got %d", chunkSize)
	}

	return &Microphone{
		chunkSize: chunkSize,
		buf:       make([]int16, chunkSize),
	}, nil
}

// Open initializes PortAudio and starts the default input stream. A
// failure here usually means the device is missing or permission to
// record was denied.
func (m *Microphone) Open(sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	if m.stream != nil {
		return errors.New("microphone already open")
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio: initialize: %w", err)
	}
	m.initialized = true

	stream, err := portaudio.OpenDefaultStream(
		1, // input channels (mono)
		0, // output channels
		float64(sampleRate),
		m.chunkSize, // frames per buffer
		m.buf,
	)
	if err != nil {
		m.teardown()
		return fmt.Errorf("portaudio: open default stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		m.teardown()
		return fmt.Errorf("portaudio: start stream: %w", err)
	}

	m.stream = stream
	return nil
}

// Read blocks until one chunk of samples has been captured and copies it
// into buf
func (m *Microphone) Read(buf []int16) (int, error) {
	if m.stream == nil {
		return 0, errors.New("microphone not open")
	}
	if len(buf) != m.chunkSize {
		return 0, fmt.Errorf("read buffer length %d does not match chunk size %d", len(buf), m.chunkSize)
	}

	if err := m.stream.Read(); err != nil {
		return 0, fmt.Errorf("portaudio: read: %w", err)
	}

	copy(buf, m.buf)
	return m.chunkSize, nil
}

// Close stops the stream and terminates PortAudio
func (m *Microphone) Close() error {
	var errs []error

	if m.stream != nil {
		if err := m.stream.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("portaudio: stop stream: %w", err))
		}
		if err := m.stream.Close(); err != nil {
			errs = append(errs, fmt.Errorf("portaudio: close stream: %w", err))
		}
		m.stream = nil
	}

	if m.initialized {
		if err := portaudio.Terminate(); err != nil {
			errs = append(errs, fmt.Errorf("portaudio: terminate: %w", err))
		}
		m.initialized = false
	}

	return errors.Join(errs...)
}

// teardown releases PortAudio after a failed Open
func (m *Microphone) teardown() {
	if m.initialized {
		portaudio.Terminate()
		m.initialized = false
	}
}
