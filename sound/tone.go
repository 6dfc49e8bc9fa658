package sound

import (
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// Wave is an oscillator shape.
type Wave int

const (
	Sine Wave = iota
	Square
)

// tone is a fixed frequency oscillator with a linear release over its last
// quarter, so notes end without a click.
type tone struct {
	freq     float64
	wave     Wave
	rate     beep.SampleRate
	phase    float64
	position int
	total    int
}

// Tone returns a streamer that plays freq for d and then ends.
func Tone(freq float64, d time.Duration, wave Wave, rate beep.SampleRate) beep.Streamer {
	return &tone{freq: freq, wave: wave, rate: rate, total: rate.N(d)}
}

func (t *tone) Stream(samples [][2]float64) (n int, ok bool) {
	release := t.total / 4
	for i := range samples {
		if t.position >= t.total {
			return i, i > 0
		}

		var val float64
		switch t.wave {
		case Sine:
			val = math.Sin(2 * math.Pi * t.phase)
		case Square:
			if t.phase < 0.5 {
				val = 1
			} else {
				val = -1
			}
		}

		if remaining := t.total - t.position; release > 0 && remaining < release {
			val *= float64(remaining) / float64(release)
		}

		samples[i][0] = val
		samples[i][1] = val

		t.phase += t.freq / float64(t.rate)
		t.phase -= math.Floor(t.phase)
		t.position++
	}
	return len(samples), true
}

func (t *tone) Err() error { return nil }

// volume scales s by a linear gain. Zero or less is silence.
func volume(s beep.Streamer, gain float64) beep.Streamer {
	if gain <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(gain)}
}

// note is one step of a melody.
type note struct {
	freq float64
	dur  time.Duration
}

func melody(rate beep.SampleRate, wave Wave, notes ...note) beep.Streamer {
	parts := make([]beep.Streamer, 0, len(notes))
	for _, n := range notes {
		parts = append(parts, Tone(n.freq, n.dur, wave, rate))
	}
	return beep.Seq(parts...)
}

// EatSound is a short high blip.
func EatSound(rate beep.SampleRate, gain float64) beep.Streamer {
	return volume(Tone(880, 60*time.Millisecond, Sine, rate), gain)
}

// DeathSound is a descending square womp.
func DeathSound(rate beep.SampleRate, gain float64) beep.Streamer {
	return volume(melody(rate, Square,
		note{220, 120 * time.Millisecond},
		note{165, 120 * time.Millisecond},
		note{110, 240 * time.Millisecond},
	), gain*0.5)
}

// WinSound is a rising C major arpeggio.
func WinSound(rate beep.SampleRate, gain float64) beep.Streamer {
	return volume(melody(rate, Sine,
		note{523.25, 90 * time.Millisecond},
		note{659.25, 90 * time.Millisecond},
		note{783.99, 90 * time.Millisecond},
		note{1046.5, 240 * time.Millisecond},
	), gain)
}
