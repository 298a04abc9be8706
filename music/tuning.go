package music

import "math"

// Target is one tunable pitch with its acceptance band
type Target struct {
	Label    string  `json:"label"`
	MinHz    float64 `json:"min_hz"`
	TargetHz float64 `json:"target_hz"`
	MaxHz    float64 `json:"max_hz"`
}

// CentsOff returns how far freq sits from the target pitch, in cents
func (t Target) CentsOff(freq float64) float64 {
	return CentsBetween(freq, t.TargetHz)
}

// Contains reports whether freq falls inside the target's band
func (t Target) Contains(freq float64) bool {
	return freq >= t.MinHz && freq <= t.MaxHz
}

// Tuning is an ordered set of targets, low to high
type Tuning struct {
	Name    string   `json:"name"`
	Targets []Target `json:"targets"`
}

// Match returns the target whose band contains freq
func (t Tuning) Match(freq float64) (Target, bool) {
	for _, target := range t.Targets {
		if target.Contains(freq) {
			return target, true
		}
	}
	return Target{}, false
}

// Nearest returns the target closest to freq in cents
func (t Tuning) Nearest(freq float64) (Target, bool) {
	if len(t.Targets) == 0 || freq <= 0 {
		return Target{}, false
	}

	best := t.Targets[0]
	bestDist := math.Abs(best.CentsOff(freq))
	for _, target := range t.Targets[1:] {
		if dist := math.Abs(target.CentsOff(freq)); dist < bestDist {
			best = target
			bestDist = dist
		}
	}
	return best, true
}

// StandardGuitar returns the EADGBE tuning. Band edges sit at the geometric
// midpoints between neighboring strings, mirrored at the outer strings.
func StandardGuitar() Tuning {
	return Tuning{
		Name: "standard guitar",
		Targets: []Target{
			{Label: "E2", MinHz: 71.33, TargetHz: 82.41, MaxHz: 95.21},
			{Label: "A2", MinHz: 95.21, TargetHz: 110.00, MaxHz: 127.09},
			{Label: "D3", MinHz: 127.09, TargetHz: 146.83, MaxHz: 169.64},
			{Label: "G3", MinHz: 169.64, TargetHz: 196.00, MaxHz: 220.00},
			{Label: "B3", MinHz: 220.00, TargetHz: 246.94, MaxHz: 285.31},
			{Label: "E4", MinHz: 285.31, TargetHz: 329.63, MaxHz: 380.83},
		},
	}
}
