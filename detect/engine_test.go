package detect

import (
	"errors"
	"io"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/RyanBlaney/sonido-pitch/internal/testutil"
	"github.com/RyanBlaney/sonido-pitch/logging"
)

// fakeSource serves a prepared sample buffer and records its calls. With
// loop set it never runs dry, so the session only ends on Stop.
type fakeSource struct {
	mu         sync.Mutex
	samples    []int16
	loop       bool
	openErr    error
	pos        int
	openCalls  int
	closeCalls int
	rate       int
}

func newSineSource(seconds float64, loop bool) *fakeSource {
	n := int(seconds * 44100)
	return &fakeSource{
		samples: testutil.SineInt16(n, 440.0, 0.8, 44100),
		loop:    loop,
	}
}

func (f *fakeSource) Open(sampleRate int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.openCalls++
	f.rate = sampleRate
	if f.openErr != nil {
		return f.openErr
	}
	f.pos = 0
	return nil
}

func (f *fakeSource) Read(buf []int16) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pos >= len(f.samples) {
		if !f.loop {
			return 0, io.EOF
		}
		f.pos = 0
	}
	n := copy(buf, f.samples[f.pos:])
	f.pos += n
	return n, nil
}

func (f *fakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeCalls++
	return nil
}

func (f *fakeSource) opened() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.openCalls
}

func (f *fakeSource) closed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closeCalls
}

func (f *fakeSource) openedRate() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rate
}

// recordingListener implements every listener extension and signals once
// per fully dispatched event.
type recordingListener struct {
	mu     sync.Mutex
	notes  []string
	cents  []float64
	freqs  []float64
	denied int
	signal chan struct{}
}

func newRecordingListener() *recordingListener {
	return &recordingListener{signal: make(chan struct{}, 64)}
}

func (l *recordingListener) OnStableNote(name string, cents float64) {
	l.mu.Lock()
	l.notes = append(l.notes, name)
	l.cents = append(l.cents, cents)
	l.mu.Unlock()
}

func (l *recordingListener) OnStablePitch(name string, frequency, cents float64) {
	l.mu.Lock()
	l.freqs = append(l.freqs, frequency)
	l.mu.Unlock()
	l.signal <- struct{}{}
}

func (l *recordingListener) OnPermissionDenied() {
	l.mu.Lock()
	l.denied++
	l.mu.Unlock()
	l.signal <- struct{}{}
}

func (l *recordingListener) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-l.signal:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d of %d", i+1, n)
		}
	}
}

func (l *recordingListener) snapshot() (notes []string, cents, freqs []float64, denied int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.notes...),
		append([]float64(nil), l.cents...),
		append([]float64(nil), l.freqs...),
		l.denied
}

// basicListener implements only the required interface
type basicListener struct {
	mu     sync.Mutex
	notes  []string
	signal chan struct{}
}

func newBasicListener() *basicListener {
	return &basicListener{signal: make(chan struct{}, 64)}
}

func (l *basicListener) OnStableNote(name string, cents float64) {
	l.mu.Lock()
	l.notes = append(l.notes, name)
	l.mu.Unlock()
	l.signal <- struct{}{}
}

func newTestEngine(t *testing.T, listener Listener) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig(), listener, WithLogger(&logging.NoOpLogger{}))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestNewEngineRejectsBadInputs(t *testing.T) {
	if _, err := NewEngine(DefaultConfig(), nil); err == nil {
		t.Error("nil listener accepted")
	}

	cfg := DefaultConfig()
	cfg.SampleRate = 0
	if _, err := NewEngine(cfg, newRecordingListener()); err == nil {
		t.Error("invalid config accepted")
	}
}

func TestEngineCaptureEmitsStableNote(t *testing.T) {
	listener := newRecordingListener()
	e := newTestEngine(t, listener)
	src := newSineSource(2.0, true)

	if err := e.StartCapture(src); err != nil {
		t.Fatalf("StartCapture: %v", err)
	}
	if !e.Running() {
		t.Fatal("engine should report a running session")
	}

	listener.wait(t, 1)
	if err := e.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if e.Running() {
		t.Fatal("engine should be idle after Stop")
	}

	notes, cents, freqs, denied := listener.snapshot()
	if denied != 0 {
		t.Fatalf("denied = %d, want 0", denied)
	}
	if notes[0] != "A" {
		t.Fatalf("note = %q, want A", notes[0])
	}
	if math.Abs(cents[0]) > 10 {
		t.Fatalf("cents = %f, want near 0", cents[0])
	}
	if math.Abs(freqs[0]-440.0) > 5 {
		t.Fatalf("frequency = %f, want near 440", freqs[0])
	}

	if src.opened() != 1 {
		t.Fatalf("source opened %d times, want 1", src.opened())
	}
	if src.openedRate() != 44100 {
		t.Fatalf("source opened at %d Hz, want 44100", src.openedRate())
	}
	if src.closed() != 1 {
		t.Fatalf("source closed %d times, want 1", src.closed())
	}
}

func TestEngineCaptureStartIsIdempotent(t *testing.T) {
	listener := newRecordingListener()
	e := newTestEngine(t, listener)

	first := newSineSource(1.0, true)
	second := newSineSource(1.0, true)

	if err := e.StartCapture(first); err != nil {
		t.Fatalf("StartCapture: %v", err)
	}
	if err := e.StartCapture(second); err != nil {
		t.Fatalf("second StartCapture: %v", err)
	}
	if err := e.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if second.opened() != 0 {
		t.Fatalf("second source opened %d times, want 0", second.opened())
	}
}

func TestEngineCaptureRejectsNilSource(t *testing.T) {
	e := newTestEngine(t, newRecordingListener())
	if err := e.StartCapture(nil); err == nil {
		t.Fatal("nil source accepted")
	}
}

func TestEnginePermissionDenied(t *testing.T) {
	listener := newRecordingListener()
	e := newTestEngine(t, listener)
	src := newSineSource(0.1, false)
	src.openErr = errors.New("device busy")

	if err := e.StartCapture(src); err != nil {
		t.Fatalf("StartCapture: %v", err)
	}

	listener.wait(t, 1)
	notes, _, _, denied := listener.snapshot()
	if denied != 1 {
		t.Fatalf("denied = %d, want 1", denied)
	}
	if len(notes) != 0 {
		t.Fatalf("notes = %v, want none", notes)
	}
	if err := e.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestEngineFeedDeliversInOrder(t *testing.T) {
	listener := newRecordingListener()
	e := newTestEngine(t, listener)

	if err := e.StartFeed([]string{"E2", "A2", "D3"}, time.Millisecond); err != nil {
		t.Fatalf("StartFeed: %v", err)
	}

	listener.wait(t, 3)
	notes, cents, freqs, _ := listener.snapshot()

	wantNotes := []string{"E", "A", "D"}
	wantFreqs := []float64{82.4069, 110.0, 146.8324}
	for i := range wantNotes {
		if notes[i] != wantNotes[i] {
			t.Errorf("note %d = %q, want %q", i, notes[i], wantNotes[i])
		}
		if math.Abs(freqs[i]-wantFreqs[i]) > 0.01 {
			t.Errorf("frequency %d = %f, want %f", i, freqs[i], wantFreqs[i])
		}
		if cents[i] != 0 {
			t.Errorf("cents %d = %f, want 0 for a scripted note", i, cents[i])
		}
	}

	// the feed ends itself after the last note
	waitUntil(t, 2*time.Second, func() bool { return !e.Running() }, "feed session did not finish")
	if err := e.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestEngineFeedWithMinimalListener(t *testing.T) {
	listener := newBasicListener()
	e := newTestEngine(t, listener)

	if err := e.StartFeed([]string{"A4"}, 0); err != nil {
		t.Fatalf("StartFeed: %v", err)
	}

	select {
	case <-listener.signal:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the feed note")
	}

	listener.mu.Lock()
	note := listener.notes[0]
	listener.mu.Unlock()
	if note != "A" {
		t.Fatalf("note = %q, want A", note)
	}
	if err := e.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestEngineFeedValidation(t *testing.T) {
	e := newTestEngine(t, newRecordingListener())

	if err := e.StartFeed(nil, time.Millisecond); err == nil {
		t.Error("empty script accepted")
	}
	if err := e.StartFeed([]string{"A4"}, -time.Millisecond); err == nil {
		t.Error("negative delay accepted")
	}
	if err := e.StartFeed([]string{"H9"}, time.Millisecond); err == nil {
		t.Error("invalid note name accepted")
	}
}

func TestEngineFeedValidationLeavesSessionRunning(t *testing.T) {
	listener := newRecordingListener()
	e := newTestEngine(t, listener)

	if err := e.StartFeed([]string{"E2", "A2"}, 10*time.Second); err != nil {
		t.Fatalf("StartFeed: %v", err)
	}
	if err := e.StartFeed([]string{"H9"}, 0); err == nil {
		t.Fatal("invalid script accepted")
	}
	if !e.Running() {
		t.Fatal("a rejected script must leave the running session untouched")
	}
	if err := e.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestEngineFeedReplacesCapture(t *testing.T) {
	listener := newRecordingListener()
	e := newTestEngine(t, listener)
	src := newSineSource(1.0, true)

	if err := e.StartCapture(src); err != nil {
		t.Fatalf("StartCapture: %v", err)
	}
	if err := e.StartFeed([]string{"D3"}, time.Millisecond); err != nil {
		t.Fatalf("StartFeed: %v", err)
	}

	// the capture worker was joined before the feed started
	if src.closed() != 1 {
		t.Fatalf("capture source closed %d times, want 1", src.closed())
	}

	waitUntil(t, 2*time.Second, func() bool {
		notes, _, _, _ := listener.snapshot()
		for _, n := range notes {
			if n == "D" {
				return true
			}
		}
		return false
	}, "feed note never arrived")

	if err := e.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestEngineCaptureReplacesFeed(t *testing.T) {
	listener := newRecordingListener()
	e := newTestEngine(t, listener)

	if err := e.StartFeed([]string{"G3", "G3"}, 10*time.Second); err != nil {
		t.Fatalf("StartFeed: %v", err)
	}

	src := newSineSource(1.0, true)
	if err := e.StartCapture(src); err != nil {
		t.Fatalf("StartCapture: %v", err)
	}

	waitUntil(t, 2*time.Second, func() bool {
		notes, _, _, _ := listener.snapshot()
		for _, n := range notes {
			if n == "A" {
				return true
			}
		}
		return false
	}, "capture note never arrived after replacing the feed")

	if err := e.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	// the first scripted note may or may not have been dispatched before
	// the feed was stopped; the second was ten seconds away and must not
	// have been
	notes, _, _, _ := listener.snapshot()
	gCount := 0
	for _, n := range notes {
		if n == "G" {
			gCount++
		}
	}
	if gCount > 1 {
		t.Fatalf("replaced feed kept running: %d G notes", gCount)
	}
}

func TestEngineStopIdempotent(t *testing.T) {
	e := newTestEngine(t, newRecordingListener())

	if err := e.Stop(); err != nil {
		t.Fatalf("Stop on an idle engine: %v", err)
	}

	if err := e.StartFeed([]string{"A4"}, 10*time.Second); err != nil {
		t.Fatalf("StartFeed: %v", err)
	}
	if err := e.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := e.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}

func TestEngineFrequencyRangeValidation(t *testing.T) {
	e := newTestEngine(t, newRecordingListener())

	if err := e.SetFrequencyRange(0, 100); err == nil {
		t.Error("zero min accepted")
	}
	if err := e.SetFrequencyRange(200, 100); err == nil {
		t.Error("inverted range accepted")
	}
	if err := e.SetFrequencyRange(100, 200); err != nil {
		t.Errorf("valid range rejected: %v", err)
	}
}

func TestEngineInRange(t *testing.T) {
	e := newTestEngine(t, newRecordingListener())

	if !e.inRange(440) {
		t.Fatal("no range set, every frequency should pass")
	}

	if err := e.SetFrequencyRange(100, 200); err != nil {
		t.Fatalf("SetFrequencyRange: %v", err)
	}
	if e.inRange(440) {
		t.Fatal("440 should be gated by [100, 200]")
	}
	if !e.inRange(150) {
		t.Fatal("150 should pass [100, 200]")
	}

	e.ClearFrequencyRange()
	if !e.inRange(440) {
		t.Fatal("cleared range should pass everything")
	}
}

func TestEngineFrequencyRangeGatesDetections(t *testing.T) {
	listener := newRecordingListener()
	e := newTestEngine(t, listener)

	// finite source; the worker drains it and finishes on its own
	src := newSineSource(1.0, false)

	if err := e.SetFrequencyRange(600, 800); err != nil {
		t.Fatalf("SetFrequencyRange: %v", err)
	}
	if err := e.StartCapture(src); err != nil {
		t.Fatalf("StartCapture: %v", err)
	}

	waitUntil(t, 2*time.Second, func() bool { return !e.Running() }, "capture never drained the source")
	if err := e.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	notes, _, _, _ := listener.snapshot()
	if len(notes) != 0 {
		t.Fatalf("gated 440 Hz tone still confirmed notes: %v", notes)
	}

	// widening the band lets the same source confirm
	e.ClearFrequencyRange()
	if err := e.StartCapture(src); err != nil {
		t.Fatalf("second StartCapture: %v", err)
	}
	listener.wait(t, 1)
	if err := e.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}

	notes, _, _, _ = listener.snapshot()
	if len(notes) == 0 || notes[0] != "A" {
		t.Fatalf("notes = %v, want an A confirmation", notes)
	}
}
