package midifile

import "encoding/binary"

// chunk frames body as a chunk with the given four-byte id.
func chunk(id string, body []byte) []byte {
	b := make([]byte, 8, 8+len(body))
	copy(b, id)
	binary.BigEndian.PutUint32(b[4:], uint32(len(body)))
	return append(b, body...)
}

func header(format, ntracks, division uint16) []byte {
	body := make([]byte, 6)
	binary.BigEndian.PutUint16(body[0:], format)
	binary.BigEndian.PutUint16(body[2:], ntracks)
	binary.BigEndian.PutUint16(body[4:], division)
	return chunk("MThd", body)
}

// smfFile builds a format 1 file with one MTrk chunk per body.
func smfFile(division uint16, bodies ...[]byte) []byte {
	b := header(1, uint16(len(bodies)), division)
	for _, body := range bodies {
		b = append(b, chunk("MTrk", body)...)
	}
	return b
}

func cat(parts ...[]byte) []byte {
	var b []byte
	for _, p := range parts {
		b = append(b, p...)
	}
	return b
}

var endOfTrack = []byte{0x00, 0xFF, 0x2F, 0x00}

// referenceFile is the four-track example from the SMF 1.0 document: a
// tempo track followed by three note tracks using running status.
var referenceFile = smfFile(96,
	[]byte{
		0x00, 0xFF, 0x58, 0x04, 0x04, 0x02, 0x18, 0x08, // time signature
		0x00, 0xFF, 0x51, 0x03, 0x07, 0xA1, 0x20, // tempo 500000
		0x83, 0x00, 0xFF, 0x2F, 0x00,
	},
	[]byte{
		0x00, 0xC0, 0x05,
		0x81, 0x40, 0x90, 0x4C, 0x20,
		0x81, 0x40, 0x4C, 0x00,
		0x00, 0xFF, 0x2F, 0x00,
	},
	[]byte{
		0x00, 0xC1, 0x2E,
		0x60, 0x91, 0x43, 0x40,
		0x82, 0x20, 0x43, 0x00,
		0x00, 0xFF, 0x2F, 0x00,
	},
	[]byte{
		0x00, 0xC2, 0x46,
		0x00, 0x92, 0x30, 0x60,
		0x00, 0x3C, 0x60,
		0x83, 0x00, 0x30, 0x00,
		0x00, 0x3C, 0x00,
		0x00, 0xFF, 0x2F, 0x00,
	},
)
