package render

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/james-see/midiretime/pkg/clock"
	"github.com/james-see/midiretime/pkg/config"
	"github.com/james-see/midiretime/pkg/midifile"
	"github.com/pkg/errors"
)

func on(tick uint64, ch, note, vel uint8) midifile.Event {
	return midifile.Event{Tick: tick, Payload: midifile.ChannelVoice{Command: midifile.NoteOn, Channel: ch, Data1: note, Data2: vel}}
}

func off(tick uint64, ch, note uint8) midifile.Event {
	return midifile.Event{Tick: tick, Payload: midifile.ChannelVoice{Command: midifile.NoteOff, Channel: ch, Data1: note, Data2: 64}}
}

func meta(tick uint64, m midifile.Meta) midifile.Event {
	return midifile.Event{Tick: tick, Payload: m}
}

var eot = midifile.Meta{Kind: midifile.MetaEndOfTrack, Type: 0x2F, Data: []byte{}}

// drumSequence has two tracks at 128 ticks per quarter and 120 BPM, so one
// tick is exactly 1/256 s. Notes 37 and 38 drive the beatmap; 36 and 40
// must be ignored.
func drumSequence() *midifile.Sequence {
	return &midifile.Sequence{
		Format:     1,
		Resolution: 128,
		Tracks: []midifile.Track{
			{Events: []midifile.Event{
				meta(0, midifile.Meta{Kind: midifile.MetaSetTempo, Type: 0x51, Tempo: 500000}),
				on(0, 0, 37, 100),
				off(64, 0, 37),
				on(128, 0, 38, 90),
				on(128, 0, 40, 90),
				on(256, 0, 38, 0),
				meta(256, eot),
			}},
			{Events: []midifile.Event{
				on(0, 1, 38, 80),
				off(128, 1, 38),
				on(256, 1, 37, 80),
				on(256, 1, 36, 80),
				meta(256, eot),
			}},
		},
	}
}

func render(t *testing.T, r Renderer, seq *midifile.Sequence) []string {
	t.Helper()
	lines, err := Lines(r, seq, clock.NewSequential(seq.Resolution))
	if err != nil {
		t.Fatalf("%s: Render() error = %v", r.Name(), err)
	}
	return lines
}

func compareLines(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(got), len(want), strings.Join(got, "\n"))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBeatmap(t *testing.T) {
	r, err := New("beatmap", config.Default())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	compareLines(t, render(t, r, drumSequence()), []string{
		"1 @ 0.0",
		"1 + 0.5",
		"1 - 1.0",
		"2 + 0.0",
		"2 - 0.5",
		"2 @ 1.0",
	})
}

func TestBeatmapCustomNotes(t *testing.T) {
	r := NewBeatmap(config.BeatmapConfig{TapNote: 36, HoldNote: 40})
	compareLines(t, render(t, r, drumSequence()), []string{
		"1 + 0.5",
		"2 @ 1.0",
	})
}

func TestSynthStream(t *testing.T) {
	seq := &midifile.Sequence{
		Resolution: 128,
		Tracks: []midifile.Track{{Events: []midifile.Event{
			on(0, 0, 69, 96),
			off(128, 0, 69),
			meta(128, eot),
		}}},
	}
	r, err := New("synth", config.Default())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	compareLines(t, render(t, r, seq), []string{
		"+ 4.0 169 SineEnv 0.25 440.0 0.0 0.0 0.0",
		"+ 0.0 99169 SineEnv 0.0 440.0 0.0 0.0 0.0",
		"- 4.5 169",
		"- 0.5 99169",
		"",
	})
}

func TestSynthStreamTracks(t *testing.T) {
	lines := render(t, NewSynthStream(config.Default().Synth), drumSequence())

	var begins, ends, blanks int
	for _, l := range lines {
		switch {
		case strings.HasPrefix(l, "+ "):
			begins++
		case strings.HasPrefix(l, "- "):
			ends++
		case l == "":
			blanks++
		}
	}
	// 6 note ons and 3 note offs (one as velocity 0), each written twice.
	if begins != 12 || ends != 6 || blanks != 2 {
		t.Errorf("begins, ends, blanks = %d, %d, %d, want 12, 6, 2", begins, ends, blanks)
	}
	// Amplitude scales with the track count: 100 / (128*2*3).
	if want := "+ 4.0 137 SineEnv " + FormatDouble(100.0/768.0) + " "; !strings.HasPrefix(lines[0], want) {
		t.Errorf("first line = %q, want prefix %q", lines[0], want)
	}
	if !strings.HasPrefix(lines[len(lines)-2], "+ 1.0 99236 SineEnv 0.0 ") {
		t.Errorf("last shadow line = %q", lines[len(lines)-2])
	}
}

func TestDump(t *testing.T) {
	seq := &midifile.Sequence{
		Resolution: 96,
		Tracks: []midifile.Track{{Events: []midifile.Event{
			meta(0, midifile.Meta{Kind: midifile.MetaTrackName, Type: 0x03, Data: []byte("Lead"), Text: "Lead"}),
			meta(0, midifile.Meta{Kind: midifile.MetaSetTempo, Type: 0x51, Data: []byte{0x07, 0xA1, 0x20}, Tempo: 500000}),
			{Tick: 0, Payload: midifile.ChannelVoice{Command: midifile.ProgramChange, Data1: 5}},
			{Tick: 0, Payload: midifile.ChannelVoice{Command: midifile.ControlChange, Data1: 7, Data2: 100}},
			{Tick: 0, Payload: midifile.ChannelVoice{Command: midifile.ControlChange, Data1: 74, Data2: 20}},
			on(96, 0, 60, 100),
			off(192, 1, 60),
			{Tick: 192, Payload: midifile.ChannelVoice{Command: midifile.PitchBend, Data1: 0, Data2: 64}},
			{Tick: 200, Payload: midifile.ChannelVoice{Command: midifile.ChannelPressure, Data1: 33}},
			{Tick: 200, Payload: midifile.SystemExclusive{Status: 0xF0, Raw: []byte{0x7E, 0x7F, 0x09, 0x01, 0xF7}}},
			meta(200, midifile.Meta{Kind: midifile.MetaOther, Type: 0x58, Data: []byte{4, 2, 24, 8}}),
		}}},
		Anomalies: []midifile.Anomaly{
			{Kind: midifile.UnknownMetaType, Track: 1, Offset: 80, Detail: "0x58"},
			{Kind: midifile.MissingEndOfTrack, Track: 1, Offset: 90},
			{Kind: midifile.TrailingBytes, Offset: 90},
		},
	}

	compareLines(t, render(t, Dump{}, seq), []string{
		"",
		"Track 1: size = 11",
		"",
		"@0\tTRACK NAME:\tLead",
		"@0\tTEMPO:\t120.0",
		"@0\tINSTRUMENT: 5",
		"@0\tCHANNEL VOLUME: 100",
		"@0\tCONTROL CHANGE\t74 20",
		"@96\tNOTE ON\tC4 velocity: 100",
		"@192\t0-NO MATCH-1 NOTE OFF\tC4 64",
		"@192\tPITCH BEND\t0 64",
		"@200\tCHANNEL PRESSURE\t33 0",
		"@200\tSYSEX MSG:\tF07E7F 0901F7",
		"@200\tMETA MSG:\tFF5804 04021808",
		"WARNING\ttrack 1 at offset 0x5A: missing end of track",
		"",
		"WARNING\toffset 0x5A: trailing bytes after last track",
	})
}

func TestDumpZeroTempo(t *testing.T) {
	seq := &midifile.Sequence{
		Resolution: 96,
		Tracks: []midifile.Track{{Events: []midifile.Event{
			meta(0, midifile.Meta{Kind: midifile.MetaSetTempo, Type: 0x51, Data: []byte{0, 0, 0}, Tempo: 0}),
			meta(0, eot),
		}}},
	}
	lines := render(t, Dump{}, seq)
	if lines[3] != "@0\tTEMPO:\tInfinity" {
		t.Errorf("tempo line = %q, want Infinity", lines[3])
	}
}

func TestDumpDoesNotNeedClock(t *testing.T) {
	var buf bytes.Buffer
	if err := (Dump{}).Render(&buf, drumSequence(), nil); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	for _, want := range []string{"@64\tNOTE OFF\tC#2 64", "Track 2: size = 5", "@256\tEND OF TRACK:\tFF2F00"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("dump is missing %q:\n%s", want, buf.String())
		}
	}
	if strings.Contains(buf.String(), "NO MATCH") {
		t.Error("channels match their tracks; no mismatch expected")
	}
}

func TestNewUnknown(t *testing.T) {
	if _, err := New("midi", config.Default()); !errors.Is(err, ErrUnknownRenderer) {
		t.Errorf("New(\"midi\") error = %v, want ErrUnknownRenderer", err)
	}
	names := Names()
	if strings.Join(names, ",") != "beatmap,dump,synth" {
		t.Errorf("Names() = %v", names)
	}
	for _, name := range names {
		r, err := New(strings.ToUpper(name), config.Default())
		if err != nil || r.Name() != name || r.Extension() == "" || r.Description() == "" {
			t.Errorf("New(%q) = %v, %v", name, r, err)
		}
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRenderWriteError(t *testing.T) {
	err := NewBeatmap(config.Default().Beatmap).Render(failingWriter{}, drumSequence(), clock.NewSequential(128))
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Render() error = %v, want write failure", err)
	}
}

func TestNoteName(t *testing.T) {
	tests := map[uint8]string{0: "C-1", 37: "C#2", 60: "C4", 69: "A4", 127: "G9"}
	for note, want := range tests {
		if got := NoteName(note); got != want {
			t.Errorf("NoteName(%d) = %q, want %q", note, got, want)
		}
	}
}

func TestFrequency(t *testing.T) {
	if f := Frequency(69); f != 440.0 {
		t.Errorf("Frequency(69) = %v, want 440", f)
	}
	if f := Frequency(81); math.Abs(f-880.0) > 1e-9 {
		t.Errorf("Frequency(81) = %v, want 880", f)
	}
	if f := Frequency(60); math.Abs(f-261.6255653005986) > 1e-9 {
		t.Errorf("Frequency(60) = %v", f)
	}
}

func TestFormatDouble(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.0"},
		{4, "4.0"},
		{0.5, "0.5"},
		{120, "120.0"},
		{-0.25, "-0.25"},
		{0.001, "0.001"},
		{1.0 / 3.0, "0.3333333333333333"},
		{1e-4, "1.0E-4"},
		{2.5e-5, "2.5E-5"},
		{1.5e7, "1.5E7"},
		{12345678.9, "1.23456789E7"},
		{9999999, "9999999.0"},
	}
	for _, tt := range tests {
		if got := FormatDouble(tt.in); got != tt.want {
			t.Errorf("FormatDouble(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
