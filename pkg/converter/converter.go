// Package converter runs a MIDI file through the decode, retime and render
// pipeline and classifies whatever goes wrong on the way.
package converter

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/james-see/midiretime/pkg/clock"
	"github.com/james-see/midiretime/pkg/config"
	"github.com/james-see/midiretime/pkg/midifile"
	"github.com/james-see/midiretime/pkg/render"
	"github.com/pkg/errors"
)

// Format represents a file format
type Format string

const (
	FormatMIDI    Format = "midi"
	FormatText    Format = "text"
	FormatUnknown Format = "unknown"
)

// DetectFormat detects the format of a file based on extension
func DetectFormat(filename string) Format {
	name := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(name, ".mid"), strings.HasSuffix(name, ".midi"), strings.HasSuffix(name, ".smf"):
		return FormatMIDI
	case strings.HasSuffix(name, ".txt"), strings.HasSuffix(name, ".synthsequence"):
		return FormatText
	default:
		return FormatUnknown
	}
}

// DetectFormatFromContent detects format from file content
func DetectFormatFromContent(data []byte) Format {
	if len(data) < 4 {
		return FormatUnknown
	}
	if bytes.HasPrefix(data, []byte("MThd")) {
		return FormatMIDI
	}
	return FormatUnknown
}

// Converter decodes MIDI data and hands it to one renderer with a fresh
// clock per run.
type Converter struct {
	renderer render.Renderer
	clock    string
	logger   *log.Logger
}

// Option configures a Converter.
type Option func(*Converter)

// WithClock selects the clock strategy; see clock.Strategies.
func WithClock(strategy string) Option {
	return func(c *Converter) { c.clock = strategy }
}

// WithLogger sets the logger anomalies and progress are reported to.
func WithLogger(l *log.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a new converter for the given renderer
func New(r render.Renderer, opts ...Option) *Converter {
	c := &Converter{
		renderer: r,
		clock:    clock.StrategySequential,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FromConfig builds the converter described by cfg. Unknown renderer or
// clock names are usage errors.
func FromConfig(cfg config.Config, logger *log.Logger) (*Converter, error) {
	r, err := render.New(cfg.Renderer, cfg)
	if err != nil {
		return nil, &UsageError{Err: err}
	}
	if _, err := clock.New(cfg.Clock, &midifile.Sequence{Resolution: 1}); err != nil {
		return nil, &UsageError{Err: err}
	}
	return New(r, WithClock(cfg.Clock), WithLogger(logger)), nil
}

// GetRenderer returns the current renderer
func (c *Converter) GetRenderer() render.Renderer {
	return c.renderer
}

// SetRenderer sets the renderer
func (c *Converter) SetRenderer(r render.Renderer) {
	c.renderer = r
}

// Decode parses data and reports header details and anomalies to the
// logger. Structural anomalies are warnings; unknown meta types are debug
// noise.
func (c *Converter) Decode(data []byte) (*midifile.Sequence, error) {
	seq, err := midifile.Parse(data)
	if err != nil {
		var fe *midifile.FormatError
		if errors.As(err, &fe) {
			c.logger.Error("malformed midi", "track", fe.Track, "offset", fe.Offset, "err", fe.Err)
		}
		return nil, err
	}

	c.logger.Debug("decoded", "format", seq.Format, "resolution", seq.Resolution, "tracks", len(seq.Tracks))
	for _, a := range seq.Anomalies {
		if a.Structural() {
			c.logger.Warn(a.Kind.String(), "track", a.Track, "offset", a.Offset, "detail", a.Detail)
		} else {
			c.logger.Debug(a.Kind.String(), "track", a.Track, "offset", a.Offset, "detail", a.Detail)
		}
	}
	return seq, nil
}

// RenderSequence writes an already decoded sequence to w.
func (c *Converter) RenderSequence(seq *midifile.Sequence, w io.Writer) error {
	clk, err := clock.New(c.clock, seq)
	if err != nil {
		return &UsageError{Err: err}
	}
	return c.renderer.Render(w, seq, clk)
}

// Render decodes data and writes the rendering to w. Nothing is written
// when data is malformed.
func (c *Converter) Render(data []byte, w io.Writer) error {
	seq, err := c.Decode(data)
	if err != nil {
		return err
	}
	return c.RenderSequence(seq, w)
}

// RenderBytes is Render into memory.
func (c *Converter) RenderBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Render(data, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ConvertFile renders inputPath into outputPath. The output file is only
// created once the input has decoded cleanly.
func (c *Converter) ConvertFile(inputPath, outputPath string) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return &InputError{Path: inputPath, Err: err}
	}
	if f := DetectFormatFromContent(data); f != FormatMIDI && DetectFormat(inputPath) != FormatMIDI {
		c.logger.Warn("input does not look like midi", "path", inputPath)
	}

	seq, err := c.Decode(data)
	if err != nil {
		return errors.Wrap(err, filepath.Base(inputPath))
	}

	if DetectFormat(outputPath) == FormatMIDI {
		c.logger.Warn("writing text to a midi file name", "renderer", c.renderer.Name(), "output", outputPath)
	}
	out, err := os.Create(outputPath)
	if err != nil {
		return &OutputError{Path: outputPath, Err: err}
	}
	if err := c.RenderSequence(seq, out); err != nil {
		out.Close()
		var usage *UsageError
		if errors.As(err, &usage) {
			return err
		}
		return &OutputError{Path: outputPath, Err: err}
	}
	if err := out.Close(); err != nil {
		return &OutputError{Path: outputPath, Err: err}
	}

	c.logger.Info("rendered", "renderer", c.renderer.Name(), "input", inputPath, "output", outputPath)
	return nil
}

// Export decodes data and writes it back as a Standard MIDI File with each
// track terminated by a single EndOfTrack.
func (c *Converter) Export(data []byte) ([]byte, error) {
	seq, err := c.Decode(data)
	if err != nil {
		return nil, err
	}
	return midifile.Encode(seq)
}

// ExportFile is Export between two paths.
func (c *Converter) ExportFile(inputPath, outputPath string) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return &InputError{Path: inputPath, Err: err}
	}
	if DetectFormat(outputPath) == FormatText {
		c.logger.Warn("writing midi to a text file name", "output", outputPath)
	}
	out, err := c.Export(data)
	if err != nil {
		if midifile.IsFormatError(err) {
			return errors.Wrap(err, filepath.Base(inputPath))
		}
		return errors.Wrap(err, "encode")
	}
	if err := os.WriteFile(outputPath, out, 0644); err != nil {
		return &OutputError{Path: outputPath, Err: err}
	}
	c.logger.Info("exported", "input", inputPath, "output", outputPath)
	return nil
}
