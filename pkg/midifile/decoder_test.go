package midifile

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
)

func TestDecodeRunningStatus(t *testing.T) {
	c := NewCursor([]byte{0x90, 60, 100, 61, 100})
	var running byte

	want := []ChannelVoice{
		{Command: NoteOn, Channel: 0, Data1: 60, Data2: 100},
		{Command: NoteOn, Channel: 0, Data1: 61, Data2: 100},
	}
	for i, w := range want {
		p, err := DecodeEvent(c, &running)
		if err != nil {
			t.Fatalf("event %d: DecodeEvent() error = %v", i, err)
		}
		if p != w {
			t.Errorf("event %d = %+v, want %+v", i, p, w)
		}
	}
	if !c.Done() {
		t.Errorf("%d bytes left after decoding", c.Remaining())
	}
	if running != 0x90 {
		t.Errorf("running status = 0x%02X, want 0x90", running)
	}
}

func TestDecodeChannelVoice(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want ChannelVoice
	}{
		{"note off", []byte{0x83, 64, 10}, ChannelVoice{NoteOff, 3, 64, 10}},
		{"poly pressure", []byte{0xA1, 60, 33}, ChannelVoice{PolyPressure, 1, 60, 33}},
		{"control change", []byte{0xBF, 7, 127}, ChannelVoice{ControlChange, 15, 7, 127}},
		{"program change", []byte{0xC9, 42}, ChannelVoice{ProgramChange, 9, 42, 0}},
		{"channel pressure", []byte{0xD2, 90}, ChannelVoice{ChannelPressure, 2, 90, 0}},
		{"pitch bend", []byte{0xE0, 0x00, 0x40}, ChannelVoice{PitchBend, 0, 0x00, 0x40}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var running byte
			c := NewCursor(tt.data)
			p, err := DecodeEvent(c, &running)
			if err != nil {
				t.Fatalf("DecodeEvent() error = %v", err)
			}
			if p != tt.want {
				t.Errorf("DecodeEvent() = %+v, want %+v", p, tt.want)
			}
			if !c.Done() {
				t.Errorf("%d bytes left", c.Remaining())
			}
		})
	}
}

func TestDecodeMeta(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		kind MetaKind
		want func(Meta) bool
	}{
		{"end of track", []byte{0xFF, 0x2F, 0x00}, MetaEndOfTrack, nil},
		{"tempo", []byte{0xFF, 0x51, 0x03, 0x0F, 0x42, 0x40}, MetaSetTempo,
			func(m Meta) bool { return m.Tempo == 1000000 }},
		{"track name", []byte{0xFF, 0x03, 0x05, 'D', 'r', 'u', 'm', 's'}, MetaTrackName,
			func(m Meta) bool { return m.Text == "Drums" }},
		{"time signature", []byte{0xFF, 0x58, 0x04, 4, 2, 24, 8}, MetaOther,
			func(m Meta) bool { return m.Type == 0x58 && bytes.Equal(m.Data, []byte{4, 2, 24, 8}) }},
		{"short tempo", []byte{0xFF, 0x51, 0x02, 0x07, 0xA1}, MetaOther,
			func(m Meta) bool { return m.Type == 0x51 && m.Tempo == 0 }},
		{"end of track with payload", []byte{0xFF, 0x2F, 0x02, 0x01, 0x02}, MetaOther,
			func(m Meta) bool { return m.Type == MetaTypeEndOfTrack && bytes.Equal(m.Data, []byte{1, 2}) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			running := byte(0x90)
			p, err := DecodeEvent(NewCursor(tt.data), &running)
			if err != nil {
				t.Fatalf("DecodeEvent() error = %v", err)
			}
			m, ok := p.(Meta)
			if !ok {
				t.Fatalf("DecodeEvent() = %T, want Meta", p)
			}
			if m.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", m.Kind, tt.kind)
			}
			if tt.want != nil && !tt.want(m) {
				t.Errorf("unexpected meta %+v", m)
			}
			if running != 0 {
				t.Error("meta event should clear running status")
			}
		})
	}
}

func TestDecodeSysEx(t *testing.T) {
	running := byte(0x91)
	c := NewCursor([]byte{0xF0, 0x05, 0x7E, 0x7F, 0x09, 0x01, 0xF7})
	p, err := DecodeEvent(c, &running)
	if err != nil {
		t.Fatalf("DecodeEvent() error = %v", err)
	}
	sx, ok := p.(SystemExclusive)
	if !ok {
		t.Fatalf("DecodeEvent() = %T, want SystemExclusive", p)
	}
	if sx.Status != 0xF0 || !bytes.Equal(sx.Raw, []byte{0x7E, 0x7F, 0x09, 0x01, 0xF7}) {
		t.Errorf("SystemExclusive = %+v", sx)
	}
	if running != 0 {
		t.Error("sysex should clear running status")
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		running byte
		want    error
	}{
		{"data byte without status", []byte{60, 100}, 0, ErrMissingStatus},
		{"system common", []byte{0xF2, 0x00, 0x00}, 0, ErrUnknownStatus},
		{"realtime", []byte{0xF8}, 0x90, ErrUnknownStatus},
		{"truncated note", []byte{0x90, 60}, 0, errShortBuffer},
		{"truncated meta", []byte{0xFF, 0x03, 0x04, 'a'}, 0, errShortBuffer},
		{"long sysex length", []byte{0xF0, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}, 0, ErrInvalidVLQ},
		{"status as velocity", []byte{0x90, 0x3C, 0x90}, 0, ErrBadDataByte},
		{"status as second running byte", []byte{0x3C, 0xB0}, 0x90, ErrBadDataByte},
		{"status as program", []byte{0xC0, 0x85}, 0, ErrBadDataByte},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			running := tt.running
			_, err := DecodeEvent(NewCursor(tt.data), &running)
			if !errors.Is(err, tt.want) {
				t.Errorf("DecodeEvent() error = %v, want %v", err, tt.want)
			}
			if errors.Cause(err) != tt.want {
				t.Errorf("errors.Cause() = %v, want %v", errors.Cause(err), tt.want)
			}
		})
	}
}

func TestNoteHelpers(t *testing.T) {
	on := ChannelVoice{Command: NoteOn, Data1: 60, Data2: 1}
	silent := ChannelVoice{Command: NoteOn, Data1: 60}
	off := ChannelVoice{Command: NoteOff, Data1: 60, Data2: 64}

	if !on.IsNoteOn() || on.IsNoteOff() {
		t.Error("velocity 1 note on misclassified")
	}
	if silent.IsNoteOn() || !silent.IsNoteOff() {
		t.Error("velocity 0 note on should count as note off")
	}
	if off.IsNoteOn() || !off.IsNoteOff() {
		t.Error("note off misclassified")
	}
}
