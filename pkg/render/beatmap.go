package render

import (
	"io"
	"strconv"

	"github.com/james-see/midiretime/pkg/clock"
	"github.com/james-see/midiretime/pkg/config"
	"github.com/james-see/midiretime/pkg/midifile"
)

// Beatmap extracts rhythm-game cues from two drum notes:
//
//	<track> @ <seconds>   tap note pressed
//	<track> + <seconds>   hold note pressed
//	<track> - <seconds>   hold note released
type Beatmap struct {
	TapNote  uint8
	HoldNote uint8
}

func NewBeatmap(cfg config.BeatmapConfig) Beatmap {
	return Beatmap{TapNote: cfg.TapNote, HoldNote: cfg.HoldNote}
}

func (Beatmap) Name() string        { return "beatmap" }
func (Beatmap) Description() string { return "Rhythm game timing cues" }
func (Beatmap) Extension() string   { return ".beatmap.txt" }

func (b Beatmap) Render(w io.Writer, seq *midifile.Sequence, clk clock.Clock) error {
	lw := newLineWriter(w)

	for i, tr := range seq.Tracks {
		n := strconv.Itoa(i + 1)
		clk.StartTrack(i + 1)
		for _, ev := range tr.Events {
			secs := clk.Advance(ev)
			cv, ok := ev.Payload.(midifile.ChannelVoice)
			if !ok {
				continue
			}
			switch {
			case cv.IsNoteOff():
				if cv.Data1 == b.HoldNote {
					lw.line(n, " - ", FormatDouble(secs))
				}
			case cv.IsNoteOn():
				switch cv.Data1 {
				case b.TapNote:
					lw.line(n, " @ ", FormatDouble(secs))
				case b.HoldNote:
					lw.line(n, " + ", FormatDouble(secs))
				}
			}
		}
	}
	return lw.flush()
}
