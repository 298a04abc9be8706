package detect

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-pitch/algorithms/common"
	"github.com/RyanBlaney/sonido-pitch/music"
)

// Detection is the per-frame outcome pushed into the stability filter.
// Invalid detections (silence, unclear pitch, out-of-band frequency) still
// occupy a history slot so that interrupted runs do not count as agreement.
type Detection struct {
	Valid bool
	Note  music.Note
}

// StabilityFilter confirms a note only after enough recent frames agree on
// it. Agreement means valid entries sharing a pitch class (enharmonic
// spellings equal, octaves ignored) within a cents tolerance of the newest
// valid entry. Confirmation clears the history, so a held note emits once
// and re-emits only after fresh agreement.
type StabilityFilter struct {
	size      int
	tolerance float64
	history   []Detection
}

// NewStabilityFilter creates a filter over a history of size entries with
// the given cents agreement tolerance
func NewStabilityFilter(size int, centsTolerance float64) (*StabilityFilter, error) {
	if size < 2 {
		return nil, fmt.Errorf("stability history must hold at least 2 entries, got %d", size)
	}
	if centsTolerance <= 0 {
		return nil, fmt.Errorf("cents tolerance must be positive, got %g", centsTolerance)
	}

	return &StabilityFilter{
		size:      size,
		tolerance: centsTolerance,
		history:   make([]Detection, 0, size),
	}, nil
}

// Push records one detection. It returns the confirmed note and true when
// the history reaches agreement; the note's Cents is the mean offset of
// the agreeing entries.
func (sf *StabilityFilter) Push(d Detection) (music.Note, bool) {
	if len(sf.history) < sf.size {
		sf.history = append(sf.history, d)
	} else {
		copy(sf.history, sf.history[1:])
		sf.history[sf.size-1] = d
	}

	ref, ok := sf.newestValid()
	if !ok {
		return music.Note{}, false
	}

	var cents []float64
	for _, entry := range sf.history {
		if !entry.Valid {
			continue
		}
		if !music.SamePitchClass(entry.Note.Name, ref.Name) {
			continue
		}
		if math.Abs(entry.Note.Cents-ref.Cents) > sf.tolerance {
			continue
		}
		cents = append(cents, entry.Note.Cents)
	}
	if len(cents) < 2 {
		return music.Note{}, false
	}

	stable := ref
	stable.Cents = common.Mean(cents)
	sf.history = sf.history[:0]
	return stable, true
}

// Reset discards the history
func (sf *StabilityFilter) Reset() {
	sf.history = sf.history[:0]
}

func (sf *StabilityFilter) newestValid() (music.Note, bool) {
	for i := len(sf.history) - 1; i >= 0; i-- {
		if sf.history[i].Valid {
			return sf.history[i].Note, true
		}
	}
	return music.Note{}, false
}
