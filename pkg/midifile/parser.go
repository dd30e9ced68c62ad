package midifile

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

const (
	headerMagic = "MThd"
	trackMagic  = "MTrk"
	headerLen   = 6
)

// ReadFile reads the whole file at path and parses it.
func ReadFile(path string) (*Sequence, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read midi file")
	}
	return Parse(b)
}

// Read reads r to EOF and parses the result.
func Read(r io.Reader) (*Sequence, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read midi data")
	}
	return Parse(b)
}

// Parse decodes a complete Standard MIDI File. It returns either a fully
// populated Sequence or a *FormatError, never both.
func Parse(b []byte) (*Sequence, error) {
	c := NewCursor(b)
	seq := &Sequence{}

	ntracks, err := parseHeader(c, seq)
	if err != nil {
		return nil, err
	}

	seq.Tracks = make([]Track, 0, ntracks)
	for len(seq.Tracks) < ntracks {
		chunkStart := c.Offset()
		if c.Remaining() < 8 {
			return nil, formatErr(ErrTruncatedFile, len(seq.Tracks)+1, chunkStart)
		}
		magic, _ := c.Next(4)
		length, _ := c.ReadUint32()

		if string(magic) != trackMagic {
			if !isChunkID(magic) {
				return nil, formatErr(ErrBadMagic, len(seq.Tracks)+1, chunkStart)
			}
			if _, err := c.Next(int(length)); err != nil {
				return nil, formatErr(ErrTruncatedFile, len(seq.Tracks)+1, chunkStart)
			}
			seq.Anomalies = append(seq.Anomalies, Anomaly{
				Kind:   AlienChunk,
				Offset: chunkStart,
				Detail: string(magic),
			})
			continue
		}

		n := len(seq.Tracks) + 1
		body, err := c.Sub(int(length))
		if err != nil {
			return nil, formatErr(ErrTruncatedTrack, n, chunkStart)
		}
		track, err := parseTrack(body, n, seq)
		if err != nil {
			return nil, err
		}
		seq.Tracks = append(seq.Tracks, track)
	}

	if !c.Done() {
		seq.Anomalies = append(seq.Anomalies, Anomaly{
			Kind:   TrailingBytes,
			Offset: c.Offset(),
		})
	}
	return seq, nil
}

func parseHeader(c *Cursor, seq *Sequence) (int, error) {
	if c.Remaining() < 8+headerLen {
		if c.Remaining() >= 4 && string(c.buf[:4]) != headerMagic {
			return 0, formatErr(ErrBadMagic, 0, 0)
		}
		return 0, formatErr(ErrTruncatedHeader, 0, 0)
	}

	magic, _ := c.Next(4)
	if string(magic) != headerMagic {
		return 0, formatErr(ErrBadMagic, 0, 0)
	}
	length, _ := c.ReadUint32()
	if length != headerLen {
		return 0, formatErr(ErrBadHeaderLength, 0, 4)
	}

	seq.Format, _ = c.ReadUint16()
	ntracks, _ := c.ReadUint16()
	division, _ := c.ReadUint16()
	if division&0x8000 != 0 || division == 0 {
		return 0, formatErr(ErrUnsupportedDivision, 0, 12)
	}
	seq.Resolution = division
	return int(ntracks), nil
}

func parseTrack(c *Cursor, n int, seq *Sequence) (Track, error) {
	var (
		track   Track
		tick    uint64
		running byte
		eotAt   = -1
	)

	for !c.Done() {
		start := c.Offset()

		delta, err := c.ReadVLQ()
		if err != nil {
			return Track{}, trackErr(err, n, start)
		}
		tick += uint64(delta)

		evStart := c.Offset()
		p, err := DecodeEvent(c, &running)
		if err != nil {
			return Track{}, trackErr(err, n, evStart)
		}

		if m, ok := p.(Meta); ok {
			switch {
			case m.Kind == MetaEndOfTrack && eotAt < 0:
				eotAt = len(track.Events)
			case m.Kind == MetaOther && m.Type == MetaTypeSetTempo:
				seq.Anomalies = append(seq.Anomalies, Anomaly{Kind: MalformedTempo, Track: n, Offset: evStart})
			case m.Kind == MetaOther && m.Type == MetaTypeEndOfTrack:
				seq.Anomalies = append(seq.Anomalies, Anomaly{Kind: MalformedEndOfTrack, Track: n, Offset: evStart})
			case m.Kind == MetaOther:
				seq.Anomalies = append(seq.Anomalies, Anomaly{
					Kind:   UnknownMetaType,
					Track:  n,
					Offset: evStart,
					Detail: hexByte(m.Type),
				})
			}
		}
		track.Events = append(track.Events, Event{Tick: tick, Payload: p})
	}

	switch {
	case eotAt < 0:
		seq.Anomalies = append(seq.Anomalies, Anomaly{Kind: MissingEndOfTrack, Track: n, Offset: c.Offset()})
	case eotAt != len(track.Events)-1:
		seq.Anomalies = append(seq.Anomalies, Anomaly{Kind: EventsAfterEndOfTrack, Track: n, Offset: c.Offset()})
	}
	return track, nil
}

// trackErr maps a cursor or decoder failure inside a track body to a
// FormatError. Running out of body bytes means the chunk length does not
// cover the last event.
func trackErr(err error, track, offset int) error {
	if errors.Is(err, errShortBuffer) {
		return formatErr(ErrTruncatedTrack, track, offset)
	}
	return formatErr(err, track, offset)
}

func isChunkID(b []byte) bool {
	for _, c := range b {
		if c < 0x20 || c > 0x7E {
			return false
		}
	}
	return true
}

func hexByte(b byte) string {
	const digits = "0123456789ABCDEF"
	return "0x" + string([]byte{digits[b>>4], digits[b&0x0F]})
}
