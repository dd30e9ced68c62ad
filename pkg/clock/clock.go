// Package clock converts the tick positions of decoded MIDI events into
// elapsed seconds during a renderer's forward pass over a Sequence.
package clock

import (
	"sort"
	"strings"

	"github.com/james-see/midiretime/pkg/midifile"
	"github.com/pkg/errors"
)

// Clock is fed every event of a traversal, in traversal order.
type Clock interface {
	// StartTrack is called before the first event of each track. n is 1-based.
	StartTrack(n int)
	// Advance returns the elapsed seconds at ev, then applies the tempo
	// change ev carries, if any.
	Advance(ev midifile.Event) float64
	// Tempo is the tempo in effect after the last Advance, in microseconds
	// per quarter note.
	Tempo() uint32
}

const (
	StrategySequential   = "sequential"
	StrategySimultaneous = "simultaneous"
)

var ErrUnknownStrategy = errors.New("unknown clock strategy")

// Strategies lists the names accepted by New.
func Strategies() []string {
	return []string{StrategySequential, StrategySimultaneous}
}

// New returns a fresh clock for one traversal of seq. An empty strategy
// selects StrategySequential.
func New(strategy string, seq *midifile.Sequence) (Clock, error) {
	switch strings.ToLower(strategy) {
	case "", StrategySequential:
		return NewSequential(seq.Resolution), nil
	case StrategySimultaneous:
		return NewSimultaneous(seq), nil
	}
	return nil, errors.Wrapf(ErrUnknownStrategy, "%q", strategy)
}

func secondsPerTick(tempo uint32, ticksPerQuarter float64) float64 {
	return float64(tempo) / 1000000.0 / ticksPerQuarter
}

// Sequential keeps one running position across all tracks. It is never
// reset between tracks, so the first event of a track is timed against the
// last event of the previous one. With a single tempo this lands every
// track on the same timeline; across tempo changes the result depends on
// track order.
type Sequential struct {
	ticksPerQuarter float64
	tempo           uint32
	prevTick        uint64
	elapsed         float64
}

func NewSequential(resolution uint16) *Sequential {
	return &Sequential{
		ticksPerQuarter: float64(resolution),
		tempo:           midifile.DefaultTempo,
	}
}

func (s *Sequential) StartTrack(int) {}

func (s *Sequential) Advance(ev midifile.Event) float64 {
	// Signed: the delta is negative when a new track starts.
	delta := float64(int64(ev.Tick) - int64(s.prevTick))
	s.elapsed += secondsPerTick(s.tempo, s.ticksPerQuarter) * delta
	s.prevTick = ev.Tick

	if m, ok := ev.Payload.(midifile.Meta); ok && m.Kind == midifile.MetaSetTempo {
		s.tempo = m.Tempo
	}
	return s.elapsed
}

func (s *Sequential) Tempo() uint32 { return s.tempo }

// Simultaneous treats tracks as overlaid on one timeline. Tempo changes
// from every track form a single tempo map, so an event's time depends only
// on its tick.
type Simultaneous struct {
	ticksPerQuarter float64
	segments        []segment
	tempo           uint32
}

type segment struct {
	tick    uint64
	tempo   uint32
	seconds float64 // elapsed time at tick
}

func NewSimultaneous(seq *midifile.Sequence) *Simultaneous {
	type change struct {
		tick  uint64
		tempo uint32
	}
	var changes []change
	for _, t := range seq.Tracks {
		for _, ev := range t.Events {
			if m, ok := ev.Payload.(midifile.Meta); ok && m.Kind == midifile.MetaSetTempo {
				changes = append(changes, change{ev.Tick, m.Tempo})
			}
		}
	}
	// Stable keeps track order for changes on the same tick; the last wins.
	sort.SliceStable(changes, func(i, j int) bool { return changes[i].tick < changes[j].tick })

	tpq := float64(seq.Resolution)
	segs := []segment{{tempo: midifile.DefaultTempo}}
	for _, c := range changes {
		cur := &segs[len(segs)-1]
		if c.tick == cur.tick {
			cur.tempo = c.tempo
			continue
		}
		secs := cur.seconds + secondsPerTick(cur.tempo, tpq)*float64(c.tick-cur.tick)
		segs = append(segs, segment{tick: c.tick, tempo: c.tempo, seconds: secs})
	}

	return &Simultaneous{
		ticksPerQuarter: tpq,
		segments:        segs,
		tempo:           midifile.DefaultTempo,
	}
}

func (s *Simultaneous) StartTrack(int) {}

func (s *Simultaneous) Advance(ev midifile.Event) float64 {
	i := sort.Search(len(s.segments), func(i int) bool { return s.segments[i].tick > ev.Tick }) - 1
	seg := s.segments[i]
	s.tempo = seg.tempo
	return seg.seconds + secondsPerTick(seg.tempo, s.ticksPerQuarter)*float64(ev.Tick-seg.tick)
}

func (s *Simultaneous) Tempo() uint32 { return s.tempo }
