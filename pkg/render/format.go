package render

import (
	"math"
	"strconv"
	"strings"
)

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName spells a MIDI note number with its octave; 60 is C4.
func NoteName(note uint8) string {
	return noteNames[note%12] + strconv.Itoa(int(note)/12-1)
}

// Frequency is the equal-tempered pitch of note in Hz, with A4 (69) at 440.
func Frequency(note uint8) float64 {
	return 440.0 * math.Pow(2.0, (float64(note)-69.0)/12.0)
}

// FormatDouble prints f in the notation the game and synth loaders parse:
// the shortest decimal that round-trips, always with a fractional digit,
// and d.dddE<exp> outside [1e-3, 1e7).
func FormatDouble(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}

	if abs := math.Abs(f); abs >= 1e-3 && abs < 1e7 {
		s := strconv.FormatFloat(f, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}

	mant, exp, _ := strings.Cut(strconv.FormatFloat(f, 'E', -1, 64), "E")
	if !strings.Contains(mant, ".") {
		mant += ".0"
	}
	n, _ := strconv.Atoi(exp)
	return mant + "E" + strconv.Itoa(n)
}

func hexBytes(parts ...[]byte) string {
	const digits = "0123456789ABCDEF"
	var sb strings.Builder
	for _, b := range parts {
		for _, c := range b {
			sb.WriteByte(digits[c>>4])
			sb.WriteByte(digits[c&0x0F])
		}
	}
	return sb.String()
}
