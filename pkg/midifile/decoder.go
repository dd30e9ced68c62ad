package midifile

import "github.com/pkg/errors"

// DecodeEvent decodes one event body (everything after the delta-time) and
// advances c past exactly the bytes it occupies.
//
// running is the track's running-status cell. A first byte below 0x80 is
// taken as the first data byte of a message with status *running. Channel
// messages store their status in the cell; SysEx and meta events clear it.
func DecodeEvent(c *Cursor, running *byte) (Payload, error) {
	b, err := c.PeekByte()
	if err != nil {
		return nil, err
	}

	status := b
	if b&0x80 == 0 {
		if *running == 0 {
			return nil, ErrMissingStatus
		}
		status = *running
	} else {
		c.pos++
	}

	switch {
	case status == 0xFF:
		*running = 0
		return decodeMeta(c)
	case status == 0xF0 || status == 0xF7:
		*running = 0
		n, err := c.ReadVLQ()
		if err != nil {
			return nil, err
		}
		raw, err := c.Next(int(n))
		if err != nil {
			return nil, err
		}
		return SystemExclusive{Status: status, Raw: raw}, nil
	}

	cmd := commandOf(status)
	if cmd == CommandOther {
		return nil, errors.Wrapf(ErrUnknownStatus, "0x%02X", status)
	}
	*running = status

	data, err := c.Next(cmd.DataLen())
	if err != nil {
		return nil, err
	}
	for _, d := range data {
		if d&0x80 != 0 {
			return nil, errors.Wrapf(ErrBadDataByte, "0x%02X after status 0x%02X", d, status)
		}
	}
	cv := ChannelVoice{Command: cmd, Channel: status & 0x0F, Data1: data[0]}
	if len(data) > 1 {
		cv.Data2 = data[1]
	}
	return cv, nil
}

func commandOf(status byte) Command {
	switch status & 0xF0 {
	case 0x80:
		return NoteOff
	case 0x90:
		return NoteOn
	case 0xA0:
		return PolyPressure
	case 0xB0:
		return ControlChange
	case 0xC0:
		return ProgramChange
	case 0xD0:
		return ChannelPressure
	case 0xE0:
		return PitchBend
	}
	return CommandOther
}

func decodeMeta(c *Cursor) (Payload, error) {
	typ, err := c.ReadByte()
	if err != nil {
		return nil, err
	}
	n, err := c.ReadVLQ()
	if err != nil {
		return nil, err
	}
	data, err := c.Next(int(n))
	if err != nil {
		return nil, err
	}

	m := Meta{Kind: MetaOther, Type: typ, Data: data}
	switch typ {
	case MetaTypeEndOfTrack:
		if len(data) == 0 {
			m.Kind = MetaEndOfTrack
		}
	case MetaTypeSetTempo:
		if len(data) == 3 {
			m.Kind = MetaSetTempo
			m.Tempo = uint32(data[0])<<16 | uint32(data[1])<<8 | uint32(data[2])
		}
	case MetaTypeTrackName:
		m.Kind = MetaTrackName
		m.Text = string(data)
	}
	return m, nil
}
