// Package render turns a decoded Sequence into the text formats consumed by
// the rhythm game, the synth sequencer, and humans.
package render

import (
	"bufio"
	"io"
	"sort"
	"strings"

	"github.com/james-see/midiretime/pkg/clock"
	"github.com/james-see/midiretime/pkg/config"
	"github.com/james-see/midiretime/pkg/midifile"
	"github.com/pkg/errors"
)

// Renderer writes one output document for a Sequence. A renderer makes a
// single forward pass, track by track and event by event, feeding every
// event to clk. It never modifies seq.
type Renderer interface {
	Name() string
	Description() string
	// Extension is the suffix appended to the input's base name when no
	// output path is given.
	Extension() string
	Render(w io.Writer, seq *midifile.Sequence, clk clock.Clock) error
}

var ErrUnknownRenderer = errors.New("unknown renderer")

type factory func(cfg config.Config) Renderer

var registry = map[string]factory{
	"dump":    func(config.Config) Renderer { return Dump{} },
	"beatmap": func(cfg config.Config) Renderer { return NewBeatmap(cfg.Beatmap) },
	"synth":   func(cfg config.Config) Renderer { return NewSynthStream(cfg.Synth) },
}

// Names lists the registered renderer names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New returns the renderer registered under name, configured from cfg.
func New(name string, cfg config.Config) (Renderer, error) {
	f, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownRenderer, "%q", name)
	}
	return f(cfg), nil
}

// Lines renders into memory and splits the result into lines.
func Lines(r Renderer, seq *midifile.Sequence, clk clock.Clock) ([]string, error) {
	var sb strings.Builder
	if err := r.Render(&sb, seq, clk); err != nil {
		return nil, err
	}
	out := strings.TrimSuffix(sb.String(), "\n")
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// lineWriter buffers lines and keeps the first write error.
type lineWriter struct {
	w   *bufio.Writer
	err error
}

func newLineWriter(w io.Writer) *lineWriter {
	return &lineWriter{w: bufio.NewWriter(w)}
}

func (lw *lineWriter) line(parts ...string) {
	if lw.err != nil {
		return
	}
	for _, p := range parts {
		if _, lw.err = lw.w.WriteString(p); lw.err != nil {
			return
		}
	}
	lw.err = lw.w.WriteByte('\n')
}

func (lw *lineWriter) flush() error {
	if lw.err != nil {
		return errors.Wrap(lw.err, "write output")
	}
	return errors.Wrap(lw.w.Flush(), "write output")
}
