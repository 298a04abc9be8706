package detect

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RyanBlaney/sonido-pitch/algorithms/common"
	"github.com/RyanBlaney/sonido-pitch/algorithms/filters"
	"github.com/RyanBlaney/sonido-pitch/algorithms/pitch"
	"github.com/RyanBlaney/sonido-pitch/capture"
	"github.com/RyanBlaney/sonido-pitch/logging"
	"github.com/RyanBlaney/sonido-pitch/music"
)

// Listener receives stable note events. Callbacks are delivered in
// detection order, one at a time, never from the audio loop itself.
type Listener interface {
	OnStableNote(name string, cents float64)
}

// PitchListener is an optional Listener extension that also receives the
// detected frequency
type PitchListener interface {
	OnStablePitch(name string, frequency, cents float64)
}

// PermissionListener is an optional Listener extension notified when the
// capture source cannot be acquired
type PermissionListener interface {
	OnPermissionDenied()
}

// FrequencyRange narrows accepted detections to an expected band
type FrequencyRange struct {
	Min float64
	Max float64
}

// event is one dispatched occurrence: a stable note, or a denied device
// acquisition
type event struct {
	denied    bool
	name      string
	frequency float64
	cents     float64
}

type sessionKind int

const (
	sessionCapture sessionKind = iota
	sessionFeed
)

// dcBlockerCutoffHz is the capture-path DC blocker cutoff. It sits well
// below E1, the bottom of the default detection band.
const dcBlockerCutoffHz = 20.0

// session is the per-run state. The worker goroutine owns the source, the
// frame buffer, the estimator and the stability filter; nothing else
// touches them.
type session struct {
	kind           sessionKind
	stop           chan struct{}
	stopOnce       sync.Once
	done           chan struct{}
	events         chan event
	dispatcherDone chan struct{}
}

func newSession(kind sessionKind, queueSize int) *session {
	return &session{
		kind:           kind,
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
		events:         make(chan event, queueSize),
		dispatcherDone: make(chan struct{}),
	}
}

func (s *session) requestStop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *session) stopped() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

func (s *session) finished() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Engine runs detection sessions. At most one session (live capture or
// synthetic feed) is active at a time.
type Engine struct {
	cfg      Config
	listener Listener
	log      logging.Logger

	mu      sync.Mutex
	current *session

	freqRange atomic.Pointer[FrequencyRange]
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger overrides the engine's logger
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// NewEngine creates a detection engine delivering stable notes to listener
func NewEngine(cfg Config, listener Listener, opts ...Option) (*Engine, error) {
	if listener == nil {
		return nil, errors.New("engine: listener must not be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	e := &Engine{
		cfg:      cfg,
		listener: listener,
		log:      logging.GetGlobalLogger().WithFields(logging.Fields{"component": "detect"}),
	}
	for _, opt := range opts {
		opt(e)
	}

	if !common.IsPowerOfTwo(cfg.FrameSize) {
		e.log.Warn("frame size is not a power of two, the transform takes a slower path",
			logging.Fields{"frame_size": cfg.FrameSize})
	}

	return e, nil
}

// StartCapture begins a live detection session reading from src. Starting
// while a capture session is already running is a no-op; a running
// synthetic feed is stopped first. The source is opened on the worker
// goroutine so a slow or denied device acquisition never blocks the
// caller; acquisition failure surfaces through PermissionListener.
//
// src must deliver the configured hop size per read.
func (e *Engine) StartCapture(src capture.Source) error {
	if src == nil {
		return errors.New("engine: capture source must not be nil")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current != nil && !e.current.finished() {
		if e.current.kind == sessionCapture {
			e.log.Debug("capture already running, ignoring start")
			return nil
		}
		if err := e.stopLocked(); err != nil {
			return err
		}
	}

	estimator, err := pitch.New(pitch.Algorithm(e.cfg.Algorithm), e.cfg.estimatorParams())
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	frames, err := NewFrameBuffer(e.cfg.FrameSize)
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	stability, err := NewStabilityFilter(e.cfg.StabilitySize, e.cfg.CentsTolerance)
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	dc, err := filters.NewDCBlocker(e.cfg.SampleRate, dcBlockerCutoffHz)
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	s := newSession(sessionCapture, e.cfg.DispatchBuffer)
	e.current = s
	go e.dispatch(s)
	go e.captureLoop(s, src, dc, estimator, frames, stability)
	return nil
}

// StartFeed replays a scripted sequence of note names through the normal
// dispatch path, one note per delay interval, then ends the session. It
// replaces any running session. Names are validated before anything is
// stopped, so a bad script leaves the current session untouched.
func (e *Engine) StartFeed(names []string, delay time.Duration) error {
	if len(names) == 0 {
		return errors.New("engine: feed requires at least one note name")
	}
	if delay < 0 {
		return errors.New("engine: feed delay must not be negative")
	}

	notes := make([]music.Note, len(names))
	for i, name := range names {
		note, err := music.Parse(name)
		if err != nil {
			return fmt.Errorf("engine: feed: %w", err)
		}
		notes[i] = note
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current != nil && !e.current.finished() {
		if err := e.stopLocked(); err != nil {
			return err
		}
	}

	s := newSession(sessionFeed, e.cfg.DispatchBuffer)
	e.current = s
	go e.dispatch(s)
	go e.feedLoop(s, notes, delay)
	return nil
}

// Stop ends the running session and joins the worker and dispatcher,
// bounded by the configured stop timeout. No callbacks fire after Stop
// returns nil. Stopping an idle engine is a no-op.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopLocked()
}

// Running reports whether a session is currently active
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current != nil && !e.current.finished()
}

// SetFrequencyRange narrows accepted detections to [min, max] Hz. The
// update is applied atomically and takes effect on the worker's next
// frame without restarting the session.
func (e *Engine) SetFrequencyRange(min, max float64) error {
	if min <= 0 || max <= min {
		return fmt.Errorf("engine: frequency range [%g, %g] is not ordered", min, max)
	}
	e.freqRange.Store(&FrequencyRange{Min: min, Max: max})
	return nil
}

// ClearFrequencyRange removes the expected band restriction
func (e *Engine) ClearFrequencyRange() {
	e.freqRange.Store(nil)
}

func (e *Engine) stopLocked() error {
	s := e.current
	if s == nil {
		return nil
	}
	e.current = nil

	s.requestStop()

	timer := time.NewTimer(e.cfg.stopTimeout())
	defer timer.Stop()

	select {
	case <-s.done:
	case <-timer.C:
		return fmt.Errorf("engine: worker did not stop within %s", e.cfg.stopTimeout())
	}

	select {
	case <-s.dispatcherDone:
	case <-timer.C:
		return fmt.Errorf("engine: dispatcher did not stop within %s", e.cfg.stopTimeout())
	}

	e.log.Info("session stopped")
	return nil
}

// captureLoop is the session worker: it owns the device and all per-frame
// state for the lifetime of the session
func (e *Engine) captureLoop(s *session, src capture.Source, dc *filters.DCBlocker, estimator pitch.Estimator, frames *FrameBuffer, stability *StabilityFilter) {
	defer close(s.done)
	defer close(s.events)

	if err := src.Open(e.cfg.SampleRate); err != nil {
		e.log.Error(err, "failed to open capture source")
		e.enqueue(s, event{denied: true})
		return
	}
	defer func() {
		if err := src.Close(); err != nil {
			e.log.Warn("error closing capture source", logging.Fields{"error": err.Error()})
		}
	}()

	e.log.Info("capture session started", logging.Fields{
		"sample_rate": e.cfg.SampleRate,
		"frame_size":  e.cfg.FrameSize,
		"hop_size":    e.cfg.HopSize,
		"algorithm":   e.cfg.Algorithm,
	})

	chunk := make([]int16, e.cfg.HopSize)
	for !s.stopped() {
		n, err := src.Read(chunk)
		if err != nil {
			if errors.Is(err, io.EOF) {
				e.log.Debug("capture source exhausted")
				return
			}
			e.log.Debug("transient capture read failure", logging.Fields{"error": err.Error()})
			time.Sleep(5 * time.Millisecond)
			continue
		}
		if n <= 0 {
			// no data this iteration
			continue
		}

		frame, ok := frames.Push(chunk[:n])
		if !ok {
			continue
		}
		dc.ProcessInPlace(frame)
		e.processFrame(s, estimator, stability, frame)
	}
}

// feedLoop replays parsed notes, pacing them by delay and honoring stop.
// Unlike the capture path it blocks on a full queue rather than dropping,
// so scripted sequences arrive complete.
func (e *Engine) feedLoop(s *session, notes []music.Note, delay time.Duration) {
	defer close(s.done)
	defer close(s.events)

	e.log.Info("synthetic feed started", logging.Fields{
		"notes": len(notes),
		"delay": delay.String(),
	})

	for _, note := range notes {
		select {
		case s.events <- event{name: note.Name, frequency: note.Frequency, cents: note.Cents}:
		case <-s.stop:
			return
		}

		select {
		case <-time.After(delay):
		case <-s.stop:
			return
		}
	}
}

// processFrame runs one frame through estimation, the optional frequency
// band gate and the stability filter
func (e *Engine) processFrame(s *session, estimator pitch.Estimator, stability *StabilityFilter, frame []float64) {
	detection := Detection{}
	if est, ok := estimator.Estimate(frame); ok && e.inRange(est.Frequency) {
		if note, err := music.FromFrequency(est.Frequency); err == nil {
			detection = Detection{Valid: true, Note: note}
		}
	}

	note, stable := stability.Push(detection)
	if !stable {
		return
	}
	e.enqueue(s, event{name: note.Name, frequency: note.Frequency, cents: note.Cents})
}

func (e *Engine) inRange(freq float64) bool {
	r := e.freqRange.Load()
	if r == nil {
		return true
	}
	return freq >= r.Min && freq <= r.Max
}

// enqueue hands an event to the dispatcher without blocking the audio
// loop. When the queue is full the event is dropped; a stale detection is
// worth less than stalled capture.
func (e *Engine) enqueue(s *session, ev event) {
	select {
	case s.events <- ev:
	default:
		e.log.Warn("event queue full, dropping detection", logging.Fields{"note": ev.name})
	}
}

// dispatch delivers events to the listener in capture order, one at a time
func (e *Engine) dispatch(s *session) {
	defer close(s.dispatcherDone)

	for ev := range s.events {
		if ev.denied {
			if pl, ok := e.listener.(PermissionListener); ok {
				pl.OnPermissionDenied()
			}
			continue
		}

		e.listener.OnStableNote(ev.name, ev.cents)
		if pl, ok := e.listener.(PitchListener); ok {
			pl.OnStablePitch(ev.name, ev.frequency, ev.cents)
		}
	}
}
