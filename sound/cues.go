// Package sound plays short audio cues for game events.
package sound

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/brensch/termsnake/engine"
)

const (
	sampleRate = beep.SampleRate(44100)
	// DefaultGain keeps cues well below clipping.
	DefaultGain = 0.3
)

// Cues is an engine.Observer that plays a sound when the snake eats, dies or
// fills the board.
type Cues struct {
	play   func(beep.Streamer)
	rate   beep.SampleRate
	gain   float64
	logger *slog.Logger

	mu     sync.Mutex
	played int
}

var speakerOnce struct {
	sync.Once
	err error
}

// New opens the default audio device. The speaker can only be initialised
// once per process; later calls reuse it.
func New(logger *slog.Logger) (*Cues, error) {
	speakerOnce.Do(func() {
		speakerOnce.err = speaker.Init(sampleRate, sampleRate.N(50*time.Millisecond))
	})
	if speakerOnce.err != nil {
		return nil, fmt.Errorf("init speaker: %w", speakerOnce.err)
	}
	return newCues(func(s beep.Streamer) { speaker.Play(s) }, sampleRate, DefaultGain, logger), nil
}

func newCues(play func(beep.Streamer), rate beep.SampleRate, gain float64, logger *slog.Logger) *Cues {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cues{play: play, rate: rate, gain: gain, logger: logger}
}

// OnTick picks at most one cue per tick. A win also counts as eating, so it
// takes precedence.
func (c *Cues) OnTick(ev engine.TickEvent) {
	var s beep.Streamer
	var name string
	switch {
	case ev.Outcome.Won:
		s, name = WinSound(c.rate, c.gain), "win"
	case ev.Outcome.Died:
		s, name = DeathSound(c.rate, c.gain), "death"
	case ev.Outcome.Ate:
		s, name = EatSound(c.rate, c.gain), "eat"
	default:
		return
	}

	c.mu.Lock()
	c.played++
	c.mu.Unlock()

	c.logger.Debug("sound cue", "cue", name, "turn", ev.Turn)
	c.play(s)
}

// Played reports how many cues have been started.
func (c *Cues) Played() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.played
}

// Close silences anything still playing.
func (c *Cues) Close() {
	speaker.Clear()
}
