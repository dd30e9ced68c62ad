package converter

import (
	"fmt"

	"github.com/james-see/midiretime/pkg/clock"
	"github.com/james-see/midiretime/pkg/midifile"
	"github.com/james-see/midiretime/pkg/render"
	"github.com/pkg/errors"
)

// Failure classifies why a run stopped. Its value is the process exit status.
type Failure int

const (
	FailureNone   Failure = 0
	FailureOutput Failure = 1 // output could not be created or written
	FailureFormat Failure = 2 // input is not a well-formed MIDI file
	FailureInput  Failure = 3 // input could not be read
	FailureUsage  Failure = 4 // bad arguments or configuration
)

func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "ok"
	case FailureOutput:
		return "output error"
	case FailureFormat:
		return "format error"
	case FailureInput:
		return "input error"
	case FailureUsage:
		return "usage error"
	}
	return fmt.Sprintf("failure(%d)", int(f))
}

// InputError wraps a failure to read the input.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string { return fmt.Sprintf("read %s: %v", e.Path, e.Err) }
func (e *InputError) Unwrap() error { return e.Err }

// OutputError wraps a failure to create or write the output.
type OutputError struct {
	Path string
	Err  error
}

func (e *OutputError) Error() string { return fmt.Sprintf("write %s: %v", e.Path, e.Err) }
func (e *OutputError) Unwrap() error { return e.Err }

// UsageError marks bad arguments or configuration.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }
func (e *UsageError) Unwrap() error { return e.Err }

// Classify maps an error returned by this package, or by the CLI around
// it, to a Failure. Format errors take precedence over I/O wrappers.
func Classify(err error) Failure {
	if err == nil {
		return FailureNone
	}
	var (
		in    *InputError
		out   *OutputError
		usage *UsageError
	)
	switch {
	case midifile.IsFormatError(err):
		return FailureFormat
	case errors.As(err, &in):
		return FailureInput
	case errors.As(err, &out):
		return FailureOutput
	case errors.As(err, &usage),
		errors.Is(err, render.ErrUnknownRenderer),
		errors.Is(err, clock.ErrUnknownStrategy):
		return FailureUsage
	}
	return FailureOutput
}

// ExitCode is Classify as a process exit status.
func ExitCode(err error) int {
	return int(Classify(err))
}
