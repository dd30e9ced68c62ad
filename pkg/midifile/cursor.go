package midifile

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// MaxVLQ is the largest value a 4-byte variable-length quantity can hold.
const MaxVLQ = 1<<28 - 1

var errShortBuffer = errors.New("short buffer")

// Cursor is a sequential reader over an immutable byte buffer. Reads past
// the end fail without advancing.
type Cursor struct {
	buf  []byte
	pos  int
	base int // absolute offset of buf[0] in the file
}

// NewCursor returns a cursor positioned at the start of b.
func NewCursor(b []byte) *Cursor {
	return &Cursor{buf: b}
}

// Offset is the absolute position of the next byte to be read.
func (c *Cursor) Offset() int { return c.base + c.pos }

// Remaining is the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.buf) - c.pos }

// Done reports whether every byte has been read.
func (c *Cursor) Done() bool { return c.pos >= len(c.buf) }

// ReadByte reads one byte.
func (c *Cursor) ReadByte() (byte, error) {
	if c.pos >= len(c.buf) {
		return 0, errShortBuffer
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

// PeekByte returns the next byte without consuming it.
func (c *Cursor) PeekByte() (byte, error) {
	if c.pos >= len(c.buf) {
		return 0, errShortBuffer
	}
	return c.buf[c.pos], nil
}

// Next returns the next n bytes. The slice aliases the underlying buffer.
func (c *Cursor) Next(n int) ([]byte, error) {
	if n < 0 || n > c.Remaining() {
		return nil, errShortBuffer
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// ReadUint16 reads a big-endian 16-bit value.
func (c *Cursor) ReadUint16() (uint16, error) {
	b, err := c.Next(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// ReadUint32 reads a big-endian 32-bit value.
func (c *Cursor) ReadUint32() (uint32, error) {
	b, err := c.Next(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// ReadVLQ reads a variable-length quantity of at most 4 bytes. On failure
// the cursor is left where it was.
func (c *Cursor) ReadVLQ() (uint32, error) {
	var v uint32
	for i := 0; i < 4; i++ {
		if c.pos+i >= len(c.buf) {
			return 0, errShortBuffer
		}
		b := c.buf[c.pos+i]
		v = v<<7 | uint32(b&0x7F)
		if b&0x80 == 0 {
			c.pos += i + 1
			return v, nil
		}
	}
	return 0, ErrInvalidVLQ
}

// Sub splits off the next n bytes as an independent cursor that keeps
// reporting absolute offsets.
func (c *Cursor) Sub(n int) (*Cursor, error) {
	start := c.Offset()
	b, err := c.Next(n)
	if err != nil {
		return nil, err
	}
	return &Cursor{buf: b, base: start}, nil
}

// AppendVLQ appends the variable-length encoding of v to dst. Values above
// MaxVLQ are clamped.
func AppendVLQ(dst []byte, v uint32) []byte {
	if v > MaxVLQ {
		v = MaxVLQ
	}
	var tmp [4]byte
	i := len(tmp) - 1
	tmp[i] = byte(v & 0x7F)
	for v >>= 7; v > 0; v >>= 7 {
		i--
		tmp[i] = byte(v&0x7F) | 0x80
	}
	return append(dst, tmp[i:]...)
}
