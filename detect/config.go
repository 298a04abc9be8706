package detect

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/sonido-pitch/algorithms/pitch"
)

// Config controls a detection session. All values are fixed for the
// lifetime of a session; the expected frequency range is the only knob
// that can change while a session runs (Engine.SetFrequencyRange).
type Config struct {
	SampleRate       int     `json:"sample_rate" yaml:"sample_rate"`
	FrameSize        int     `json:"frame_size" yaml:"frame_size"`
	HopSize          int     `json:"hop_size" yaml:"hop_size"`
	Algorithm        string  `json:"algorithm" yaml:"algorithm"`
	MinFrequency     float64 `json:"min_frequency" yaml:"min_frequency"`
	MaxFrequency     float64 `json:"max_frequency" yaml:"max_frequency"`
	MinLevelDB       float64 `json:"min_level_db" yaml:"min_level_db"`
	ClarityThreshold float64 `json:"clarity_threshold" yaml:"clarity_threshold"`
	StabilitySize    int     `json:"stability_size" yaml:"stability_size"`
	CentsTolerance   float64 `json:"cents_tolerance" yaml:"cents_tolerance"`
	DispatchBuffer   int     `json:"dispatch_buffer" yaml:"dispatch_buffer"`
	StopTimeoutMS    int     `json:"stop_timeout_ms" yaml:"stop_timeout_ms"`
}

// DefaultConfig returns a session configuration suited for tuner-style
// detection of instruments between E1 and D6
func DefaultConfig() Config {
	return Config{
		SampleRate:       44100,
		FrameSize:        2048,
		HopSize:          256,
		Algorithm:        string(pitch.AlgorithmHPS),
		MinFrequency:     50.0,
		MaxFrequency:     1200.0,
		MinLevelDB:       -60.0,
		ClarityThreshold: 0.6,
		StabilitySize:    3,
		CentsTolerance:   25.0,
		DispatchBuffer:   16,
		StopTimeoutMS:    500,
	}
}

// Validate checks the configuration and reports every violation
func (c Config) Validate() error {
	var errs []error

	if c.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample rate must be positive, got %d", c.SampleRate))
	}
	if c.FrameSize < 32 {
		errs = append(errs, fmt.Errorf("frame size must be at least 32, got %d", c.FrameSize))
	}
	if c.HopSize <= 0 || c.HopSize > c.FrameSize {
		errs = append(errs, fmt.Errorf("hop size must be in [1, frame size], got %d", c.HopSize))
	}
	switch pitch.Algorithm(c.Algorithm) {
	case pitch.AlgorithmHPS, pitch.AlgorithmNSDF:
	default:
		errs = append(errs, fmt.Errorf("unknown algorithm %q", c.Algorithm))
	}
	if c.MinFrequency <= 0 || c.MaxFrequency <= c.MinFrequency {
		errs = append(errs, fmt.Errorf("frequency range [%g, %g] is not ordered", c.MinFrequency, c.MaxFrequency))
	}
	if c.ClarityThreshold <= 0 || c.ClarityThreshold > 1 {
		errs = append(errs, fmt.Errorf("clarity threshold must be in (0, 1], got %g", c.ClarityThreshold))
	}
	if c.StabilitySize < 2 {
		errs = append(errs, fmt.Errorf("stability size must be at least 2, got %d", c.StabilitySize))
	}
	if c.CentsTolerance <= 0 {
		errs = append(errs, fmt.Errorf("cents tolerance must be positive, got %g", c.CentsTolerance))
	}
	if c.DispatchBuffer < 1 {
		errs = append(errs, fmt.Errorf("dispatch buffer must hold at least 1 event, got %d", c.DispatchBuffer))
	}
	if c.StopTimeoutMS < 1 {
		errs = append(errs, fmt.Errorf("stop timeout must be at least 1 ms, got %d", c.StopTimeoutMS))
	}

	return errors.Join(errs...)
}

// LoadConfig reads a YAML configuration file over the defaults
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	return LoadConfigReader(f)
}

// LoadConfigReader decodes YAML configuration over the defaults. Unknown
// keys are rejected; an empty document keeps the defaults.
func LoadConfigReader(r io.Reader) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// estimatorParams maps the session configuration onto pitch estimation
// parameters, keeping the estimator defaults for the knobs the session
// does not expose
func (c Config) estimatorParams() pitch.Params {
	p := pitch.DefaultParams(c.SampleRate, c.FrameSize)
	p.MinFrequency = c.MinFrequency
	p.MaxFrequency = c.MaxFrequency
	p.MinLevelDB = c.MinLevelDB
	p.ClarityThreshold = c.ClarityThreshold
	return p
}

func (c Config) stopTimeout() time.Duration {
	return time.Duration(c.StopTimeoutMS) * time.Millisecond
}
