package midifile

import "fmt"

// AnomalyKind classifies a non-fatal irregularity found while parsing.
type AnomalyKind uint8

const (
	MissingEndOfTrack AnomalyKind = iota + 1
	EventsAfterEndOfTrack
	UnknownMetaType
	MalformedTempo
	AlienChunk
	TrailingBytes
	MalformedEndOfTrack
)

var anomalyNames = map[AnomalyKind]string{
	MissingEndOfTrack:     "missing end of track",
	EventsAfterEndOfTrack: "events after end of track",
	UnknownMetaType:       "unrecognized meta type",
	MalformedTempo:        "tempo event with length other than 3",
	AlienChunk:            "skipped unknown chunk",
	TrailingBytes:         "trailing bytes after last track",
	MalformedEndOfTrack:   "end of track with non-empty payload",
}

func (k AnomalyKind) String() string {
	if s, ok := anomalyNames[k]; ok {
		return s
	}
	return "anomaly"
}

// Anomaly is recorded on the Sequence and never aborts parsing. Track is
// 1-based, 0 when the anomaly is outside any track.
type Anomaly struct {
	Kind   AnomalyKind
	Track  int
	Offset int
	Detail string
}

func (a Anomaly) String() string {
	s := a.Kind.String()
	if a.Detail != "" {
		s += " (" + a.Detail + ")"
	}
	if a.Track > 0 {
		return fmt.Sprintf("track %d at offset 0x%X: %s", a.Track, a.Offset, s)
	}
	return fmt.Sprintf("offset 0x%X: %s", a.Offset, s)
}

// Structural reports whether the anomaly concerns file or track structure
// rather than an individual event's content.
func (a Anomaly) Structural() bool {
	return a.Kind != UnknownMetaType
}

// TrackAnomalies returns the anomalies recorded for the 1-based track n.
func (s *Sequence) TrackAnomalies(n int) []Anomaly {
	var out []Anomaly
	for _, a := range s.Anomalies {
		if a.Track == n {
			out = append(out, a)
		}
	}
	return out
}
