package midifile

import (
	"bytes"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// Encode writes seq back out as a Standard MIDI File. Each track ends with
// exactly one EndOfTrack at the tick of its last event. Events after an EndOfTrack are
// dropped.
func Encode(seq *Sequence) ([]byte, error) {
	if seq == nil {
		return nil, errors.New("nil sequence")
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(seq.Resolution)

	for i, t := range seq.Tracks {
		var (
			track smf.Track
			prev  uint64
		)
		for _, ev := range t.Events {
			if m, ok := ev.Payload.(Meta); ok && m.Kind == MetaEndOfTrack {
				break
			}
			track.Add(uint32(ev.Tick-prev), encodePayload(ev.Payload))
			prev = ev.Tick
		}

		var last uint64
		if n := len(t.Events); n > 0 {
			last = t.Events[n-1].Tick
		}
		if last < prev {
			last = prev
		}
		track.Close(uint32(last - prev))

		if err := s.Add(track); err != nil {
			return nil, errors.Wrapf(err, "add track %d", i+1)
		}
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, errors.Wrap(err, "write smf")
	}
	return buf.Bytes(), nil
}

func encodePayload(p Payload) []byte {
	switch v := p.(type) {
	case ChannelVoice:
		switch v.Command {
		case NoteOn:
			return midi.NoteOn(v.Channel, v.Data1, v.Data2)
		case NoteOff:
			return midi.NoteOffVelocity(v.Channel, v.Data1, v.Data2)
		case ControlChange:
			return midi.ControlChange(v.Channel, v.Data1, v.Data2)
		case ProgramChange:
			return midi.ProgramChange(v.Channel, v.Data1)
		case ChannelPressure:
			return midi.AfterTouch(v.Channel, v.Data1)
		case PolyPressure:
			return midi.PolyAfterTouch(v.Channel, v.Data1, v.Data2)
		}
		return []byte{v.Command.Status() | v.Channel, v.Data1, v.Data2}
	case SystemExclusive:
		return append([]byte{v.Status}, v.Raw...)
	case Meta:
		b := []byte{0xFF, v.Type}
		b = AppendVLQ(b, uint32(len(v.Data)))
		return append(b, v.Data...)
	}
	return nil
}
