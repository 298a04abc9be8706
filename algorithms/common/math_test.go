package common

import (
	"math"
	"testing"
)

func TestMean(t *testing.T) {
	if got := Mean([]float64{1, 2, 3}); math.Abs(got-2.0) > 1e-12 {
		t.Fatalf("Mean mismatch: got %f want 2", got)
	}
	if got := Mean(nil); got != 0 {
		t.Fatalf("Mean of empty slice: got %f want 0", got)
	}
}

func TestRMS(t *testing.T) {
	want := math.Sqrt(12.5)
	if got := RMS([]float64{3, 4}); math.Abs(got-want) > 1e-12 {
		t.Fatalf("RMS mismatch: got %f want %f", got, want)
	}
	if got := RMS([]float64{2, 2, 2}); math.Abs(got-2.0) > 1e-12 {
		t.Fatalf("RMS of constant signal: got %f want 2", got)
	}
	if got := RMS(nil); got != 0 {
		t.Fatalf("RMS of empty slice: got %f want 0", got)
	}
}

func TestAmplitudeToDB(t *testing.T) {
	if got := AmplitudeToDB(1.0); math.Abs(got) > 1e-12 {
		t.Fatalf("full scale: got %f want 0", got)
	}

	want := 20.0 * math.Log10(0.5)
	if got := AmplitudeToDB(0.5); math.Abs(got-want) > 1e-12 {
		t.Fatalf("half scale: got %f want %f", got, want)
	}

	if got := AmplitudeToDB(0.0); got != SilenceFloorDB {
		t.Fatalf("silence: got %f want %f", got, SilenceFloorDB)
	}
	if got := AmplitudeToDB(1e-11); got != SilenceFloorDB {
		t.Fatalf("near silence: got %f want %f", got, SilenceFloorDB)
	}

	// -120 dB clamps to the floor
	if got := AmplitudeToDB(1e-6); got != SilenceFloorDB {
		t.Fatalf("below floor: got %f want %f", got, SilenceFloorDB)
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(-1, 0, 1); got != 0 {
		t.Fatalf("below range: got %f want 0", got)
	}
	if got := Clamp(0.5, 0, 1); got != 0.5 {
		t.Fatalf("inside range: got %f want 0.5", got)
	}
	if got := Clamp(2, 0, 1); got != 1 {
		t.Fatalf("above range: got %f want 1", got)
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	for _, n := range []int{1, 2, 64, 1024} {
		if !IsPowerOfTwo(n) {
			t.Errorf("IsPowerOfTwo(%d) = false, want true", n)
		}
	}
	for _, n := range []int{0, -4, 3, 1023} {
		if IsPowerOfTwo(n) {
			t.Errorf("IsPowerOfTwo(%d) = true, want false", n)
		}
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	cases := []struct{ in, want int }{
		{0, 1},
		{1, 1},
		{2, 2},
		{3, 4},
		{1000, 1024},
		{1024, 1024},
		{1025, 2048},
	}
	for _, c := range cases {
		if got := NextPowerOfTwo(c.in); got != c.want {
			t.Errorf("NextPowerOfTwo(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}
