package render

import (
	"io"
	"strconv"

	"github.com/james-see/midiretime/pkg/clock"
	"github.com/james-see/midiretime/pkg/midifile"
)

// controllerNames covers the controllers the dump spells out by name.
var controllerNames = map[uint8]string{
	1:   "MODULATION",
	6:   "DATA ENTRY MSB",
	7:   "CHANNEL VOLUME",
	10:  "PAN",
	11:  "EXPRESSION",
	38:  "LSB",
	100: "REGISTERED LSB",
	101: "REGISTERED MSB",
}

// Dump is the diagnostic listing: every event of every track with its tick.
// A channel that differs from the track's index is flagged inline, and
// structural anomalies are listed after the track they belong to.
type Dump struct{}

func (Dump) Name() string        { return "dump" }
func (Dump) Description() string { return "Diagnostic listing of every event" }
func (Dump) Extension() string   { return ".dump.txt" }

func (Dump) Render(w io.Writer, seq *midifile.Sequence, clk clock.Clock) error {
	lw := newLineWriter(w)

	for i, tr := range seq.Tracks {
		n := i + 1
		if clk != nil {
			clk.StartTrack(n)
		}
		lw.line()
		lw.line("Track ", strconv.Itoa(n), ": size = ", strconv.Itoa(tr.Len()))
		lw.line()

		for _, ev := range tr.Events {
			if clk != nil {
				clk.Advance(ev)
			}
			lw.line("@", strconv.FormatUint(ev.Tick, 10), "\t", describe(n, ev.Payload))
		}
		for _, a := range seq.TrackAnomalies(n) {
			if a.Structural() {
				lw.line("WARNING\t", a.String())
			}
		}
		lw.line()
	}

	for _, a := range seq.TrackAnomalies(0) {
		lw.line("WARNING\t", a.String())
	}
	return lw.flush()
}

func describe(track int, p midifile.Payload) string {
	switch v := p.(type) {
	case midifile.ChannelVoice:
		return describeChannel(track, v)
	case midifile.SystemExclusive:
		msg := hexBytes([]byte{v.Status}, v.Raw)
		if len(msg) > 6 {
			msg = msg[:6] + " " + msg[6:]
		}
		return "SYSEX MSG:\t" + msg
	case midifile.Meta:
		return describeMeta(v)
	}
	return "UNKNOWN"
}

func describeChannel(track int, cv midifile.ChannelVoice) string {
	var s string
	if track-1 != int(cv.Channel) {
		s = strconv.Itoa(track-1) + "-NO MATCH-" + strconv.Itoa(int(cv.Channel)) + " "
	}

	d1 := strconv.Itoa(int(cv.Data1))
	d2 := strconv.Itoa(int(cv.Data2))
	cmd := cv.Command.String() + "\t"

	switch cv.Command {
	case midifile.NoteOn:
		return s + cmd + NoteName(cv.Data1) + " velocity: " + d2
	case midifile.NoteOff:
		return s + cmd + NoteName(cv.Data1) + " " + d2
	case midifile.ProgramChange:
		return s + "INSTRUMENT: " + d1
	case midifile.ControlChange:
		if name, ok := controllerNames[cv.Data1]; ok {
			return s + name + ": " + d2
		}
	}
	return s + cmd + d1 + " " + d2
}

func describeMeta(m midifile.Meta) string {
	switch m.Kind {
	case midifile.MetaEndOfTrack:
		return "END OF TRACK:\tFF2F00"
	case midifile.MetaSetTempo:
		return "TEMPO:\t" + FormatDouble(midifile.BPM(m.Tempo))
	case midifile.MetaTrackName:
		return "TRACK NAME:\t" + m.Text
	}
	head := midifile.AppendVLQ([]byte{0xFF, m.Type}, uint32(len(m.Data)))
	return "META MSG:\t" + hexBytes(head) + " " + hexBytes(m.Data)
}
