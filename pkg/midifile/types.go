// Package midifile decodes Standard MIDI Files into a tick-indexed timeline
// of typed events.
package midifile

// DefaultTempo is the tempo assumed before the first SetTempo event, in
// microseconds per quarter note (120 BPM).
const DefaultTempo = 500000

// Sequence is a fully decoded file. It is not modified after Parse returns.
type Sequence struct {
	Format     uint16 // 0, 1 or 2; informational only
	Resolution uint16 // ticks per quarter note
	Tracks     []Track
	Anomalies  []Anomaly
}

// Track holds the events of one MTrk chunk in file order.
type Track struct {
	Events []Event
}

// Event is a payload at an absolute tick counted from the start of its track.
type Event struct {
	Tick    uint64
	Payload Payload
}

// Payload is one of ChannelVoice, SystemExclusive or Meta.
type Payload interface {
	payload()
}

// Command identifies a channel voice message.
type Command uint8

const (
	CommandOther Command = iota
	NoteOff
	NoteOn
	PolyPressure
	ControlChange
	ProgramChange
	ChannelPressure
	PitchBend
)

var commandNames = [...]string{
	CommandOther:    "OTHER",
	NoteOff:         "NOTE OFF",
	NoteOn:          "NOTE ON",
	PolyPressure:    "POLY PRESSURE",
	ControlChange:   "CONTROL CHANGE",
	ProgramChange:   "PROGRAM CHANGE",
	ChannelPressure: "CHANNEL PRESSURE",
	PitchBend:       "PITCH BEND",
}

func (c Command) String() string {
	if int(c) < len(commandNames) {
		return commandNames[c]
	}
	return commandNames[CommandOther]
}

// Status returns the status nibble of c, or 0 for CommandOther.
func (c Command) Status() byte {
	switch c {
	case NoteOff:
		return 0x80
	case NoteOn:
		return 0x90
	case PolyPressure:
		return 0xA0
	case ControlChange:
		return 0xB0
	case ProgramChange:
		return 0xC0
	case ChannelPressure:
		return 0xD0
	case PitchBend:
		return 0xE0
	}
	return 0
}

// DataLen is the number of data bytes following the status byte.
func (c Command) DataLen() int {
	switch c {
	case ProgramChange, ChannelPressure:
		return 1
	case CommandOther:
		return 0
	}
	return 2
}

// ChannelVoice is a channel message. Data2 is zero for one-byte messages.
type ChannelVoice struct {
	Command Command
	Channel uint8
	Data1   uint8
	Data2   uint8
}

// IsNoteOn reports a NoteOn with non-zero velocity.
func (cv ChannelVoice) IsNoteOn() bool {
	return cv.Command == NoteOn && cv.Data2 > 0
}

// IsNoteOff reports a NoteOff, or a NoteOn with zero velocity.
func (cv ChannelVoice) IsNoteOff() bool {
	return cv.Command == NoteOff || (cv.Command == NoteOn && cv.Data2 == 0)
}

// SystemExclusive carries the bytes following the length, verbatim.
type SystemExclusive struct {
	Status byte // 0xF0 or 0xF7
	Raw    []byte
}

// MetaKind classifies a meta event.
type MetaKind uint8

const (
	MetaOther MetaKind = iota
	MetaEndOfTrack
	MetaSetTempo
	MetaTrackName
)

// Meta type bytes recognized by the decoder.
const (
	MetaTypeTrackName  = 0x03
	MetaTypeEndOfTrack = 0x2F
	MetaTypeSetTempo   = 0x51
)

// Meta is a meta event. Tempo is set for MetaSetTempo, Text for
// MetaTrackName; Data always holds the raw payload.
type Meta struct {
	Kind  MetaKind
	Type  byte
	Data  []byte
	Tempo uint32 // microseconds per quarter note
	Text  string
}

// BPM converts a tempo in microseconds per quarter note to beats per minute.
// A zero tempo gives +Inf.
func BPM(microsecondsPerQuarter uint32) float64 {
	return 60000000.0 / float64(microsecondsPerQuarter)
}

func (ChannelVoice) payload()    {}
func (SystemExclusive) payload() {}
func (Meta) payload()            {}

// Len returns the number of events in the track.
func (t Track) Len() int { return len(t.Events) }
