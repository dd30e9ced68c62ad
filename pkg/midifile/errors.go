package midifile

import (
	"fmt"

	"github.com/pkg/errors"
)

// Format errors. Every error returned by Parse wraps one of these in a
// *FormatError, so callers can test with errors.Is.
var (
	ErrBadMagic            = errors.New("bad chunk magic")
	ErrBadHeaderLength     = errors.New("header length is not 6")
	ErrUnsupportedDivision = errors.New("unsupported division")
	ErrTruncatedHeader     = errors.New("truncated header")
	ErrTruncatedFile       = errors.New("missing track chunk")
	ErrTruncatedTrack      = errors.New("truncated track")
	ErrInvalidVLQ          = errors.New("variable-length quantity longer than 4 bytes")
	ErrUnknownStatus       = errors.New("unknown status byte")
	ErrMissingStatus       = errors.New("data byte without running status")
	ErrBadDataByte         = errors.New("status byte in data position")
)

// FormatError reports a malformed file. Track is 1-based, 0 for faults in
// the header or between chunks. Offset is the absolute byte offset of the fault.
type FormatError struct {
	Err    error
	Track  int
	Offset int
}

func (e *FormatError) Error() string {
	if e.Track > 0 {
		return fmt.Sprintf("midi: track %d at offset 0x%X: %v", e.Track, e.Offset, e.Err)
	}
	return fmt.Sprintf("midi: offset 0x%X: %v", e.Offset, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Cause lets errors.Cause reach the sentinel.
func (e *FormatError) Cause() error { return e.Err }

func formatErr(err error, track, offset int) *FormatError {
	return &FormatError{Err: err, Track: track, Offset: offset}
}

// IsFormatError reports whether err, or anything it wraps, is a *FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}
