package render

import (
	"io"
	"strconv"

	"github.com/james-see/midiretime/pkg/clock"
	"github.com/james-see/midiretime/pkg/config"
	"github.com/james-see/midiretime/pkg/midifile"
)

// SynthStream emits begin/end voice events for a synth sequencer. Each
// note is written twice: an audible copy delayed by Offset, and a silent
// shadow copy at the note's own time whose id carries ShadowPrefix. The
// note id is the track number followed by the note number, as digits.
type SynthStream struct {
	Offset       float64
	ShadowPrefix string
	Voice        string
}

func NewSynthStream(cfg config.SynthConfig) SynthStream {
	return SynthStream{
		Offset:       cfg.OffsetSeconds,
		ShadowPrefix: cfg.ShadowPrefix,
		Voice:        cfg.Voice,
	}
}

func (SynthStream) Name() string        { return "synth" }
func (SynthStream) Description() string { return "Synth sequencer voice events" }
func (SynthStream) Extension() string   { return ".synthSequence" }

func (s SynthStream) Render(w io.Writer, seq *midifile.Sequence, clk clock.Clock) error {
	lw := newLineWriter(w)
	tracks := float64(len(seq.Tracks))

	for i, tr := range seq.Tracks {
		clk.StartTrack(i + 1)
		for _, ev := range tr.Events {
			secs := clk.Advance(ev)
			cv, ok := ev.Payload.(midifile.ChannelVoice)
			if !ok {
				continue
			}

			id := strconv.Itoa(i+1) + strconv.Itoa(int(cv.Data1))
			shadow := s.ShadowPrefix + id
			switch {
			case cv.IsNoteOff():
				lw.line("- ", FormatDouble(secs+s.Offset), " ", id)
				lw.line("- ", FormatDouble(secs), " ", shadow)
			case cv.IsNoteOn():
				amp := float64(cv.Data2) / (128.0 * tracks * 3)
				freq := FormatDouble(Frequency(cv.Data1))
				lw.line("+ ", FormatDouble(secs+s.Offset), " ", id, " ", s.Voice, " ",
					FormatDouble(amp), " ", freq, " 0.0 0.0 0.0")
				lw.line("+ ", FormatDouble(secs), " ", shadow, " ", s.Voice, " 0.0 ",
					freq, " 0.0 0.0 0.0")
			}
		}
		lw.line()
	}
	return lw.flush()
}
