// Package music maps frequencies to equal tempered note names and carries
// the static tuning tables used to label detections.
package music

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Standard pitch reference: A4 = 440 Hz = MIDI 69
const (
	ReferenceFrequency = 440.0
	ReferenceMIDI      = 69
)

// NoteNames is the sharps-based pitch class cycle starting at C
var NoteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// letterClasses maps natural note letters to their pitch class
var letterClasses = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

// Note is an equal tempered note. Frequency holds the frequency the note
// was derived from; for parsed names it is the nominal tempered frequency
// and Cents is zero, for measured frequencies Cents records the signed
// deviation from the nominal frequency of the named note.
type Note struct {
	Name      string  `json:"name"`
	Octave    int     `json:"octave"`
	MIDI      int     `json:"midi"`
	Frequency float64 `json:"frequency"`
	Cents     float64 `json:"cents"`
}

// String formats the note as name plus octave, e.g. "A4"
func (n Note) String() string {
	return fmt.Sprintf("%s%d", n.Name, n.Octave)
}

// MIDIFrequency returns the equal tempered frequency of a MIDI note number
func MIDIFrequency(midi int) float64 {
	return ReferenceFrequency * math.Pow(2.0, float64(midi-ReferenceMIDI)/12.0)
}

// FromFrequency maps a frequency to the nearest equal tempered note
func FromFrequency(freq float64) (Note, error) {
	if freq <= 0 {
		return Note{}, fmt.Errorf("frequency must be positive, got %g", freq)
	}

	semitones := int(math.Round(12.0 * math.Log2(freq/ReferenceFrequency)))
	midi := ReferenceMIDI + semitones
	if midi < 0 || midi > 127 {
		return Note{}, fmt.Errorf("frequency %.2f Hz is outside the MIDI note range", freq)
	}

	return Note{
		Name:      NoteNames[midi%12],
		Octave:    midi/12 - 1,
		MIDI:      midi,
		Frequency: freq,
		Cents:     CentsBetween(freq, MIDIFrequency(midi)),
	}, nil
}

// Parse converts a note name such as "A4", "C#3", "Bb2" or "G" into a Note.
// Flats normalize to the sharps spelling and a missing octave defaults to 4.
func Parse(s string) (Note, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Note{}, fmt.Errorf("empty note name")
	}

	letter := trimmed[0]
	if letter >= 'a' && letter <= 'z' {
		letter -= 'a' - 'A'
	}
	class, ok := letterClasses[letter]
	if !ok {
		return Note{}, fmt.Errorf("invalid note letter %q in %q", string(trimmed[0]), s)
	}

	rest := trimmed[1:]
	switch {
	case strings.HasPrefix(rest, "#"):
		class++
		rest = rest[1:]
	case strings.HasPrefix(rest, "b"):
		class--
		rest = rest[1:]
	}

	octave := 4
	if rest != "" {
		parsed, err := strconv.Atoi(rest)
		if err != nil {
			return Note{}, fmt.Errorf("invalid octave %q in %q", rest, s)
		}
		octave = parsed
	}

	// class may have left [0, 12) through an accidental; the MIDI number
	// absorbs it (Cb4 is B3, B#3 is C4)
	midi := 12*(octave+1) + class
	if midi < 0 || midi > 127 {
		return Note{}, fmt.Errorf("note %q is outside the MIDI range", s)
	}

	return Note{
		Name:      NoteNames[midi%12],
		Octave:    midi/12 - 1,
		MIDI:      midi,
		Frequency: MIDIFrequency(midi),
	}, nil
}

// Normalize reduces a note name to its sharps pitch class spelling with any
// octave dropped: "Bb3" and "A#" both normalize to "A#". Invalid names
// normalize to the empty string.
func Normalize(name string) string {
	note, err := Parse(name)
	if err != nil {
		return ""
	}
	return note.Name
}

// SamePitchClass reports whether two note names share a pitch class,
// treating enharmonic spellings as equal and ignoring octaves
func SamePitchClass(a, b string) bool {
	na := Normalize(a)
	nb := Normalize(b)
	return na != "" && na == nb
}

// CentsBetween returns the signed distance in cents from target to freq
func CentsBetween(freq, target float64) float64 {
	if freq <= 0 || target <= 0 {
		return 0.0
	}
	return 1200.0 * math.Log2(freq/target)
}
