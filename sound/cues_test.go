package sound

import (
	"testing"
	"time"

	"github.com/gopxl/beep"

	"github.com/brensch/termsnake/engine"
	"github.com/brensch/termsnake/rules"
)

// drain counts samples until the streamer ends, giving up after limit.
func drain(t *testing.T, s beep.Streamer, limit int) (int, float64) {
	t.Helper()
	buf := make([][2]float64, 512)
	total := 0
	peak := 0.0
	for total < limit {
		n, ok := s.Stream(buf)
		for i := 0; i < n; i++ {
			if v := buf[i][0]; v > peak {
				peak = v
			} else if -v > peak {
				peak = -v
			}
		}
		total += n
		if !ok {
			return total, peak
		}
	}
	t.Fatalf("streamer did not end within %d samples", limit)
	return 0, 0
}

func TestTone_LengthAndRange(t *testing.T) {
	rate := beep.SampleRate(8000)
	n, peak := drain(t, Tone(440, 100*time.Millisecond, Sine, rate), 10000)
	if want := rate.N(100 * time.Millisecond); n != want {
		t.Fatalf("samples=%d want %d", n, want)
	}
	if peak <= 0.5 || peak > 1 {
		t.Fatalf("peak=%f want in (0.5,1]", peak)
	}
}

func TestTone_SquareEndsAtZero(t *testing.T) {
	rate := beep.SampleRate(8000)
	s := Tone(200, 10*time.Millisecond, Square, rate)
	buf := make([][2]float64, rate.N(10*time.Millisecond))
	n, _ := s.Stream(buf)
	if n != len(buf) {
		t.Fatalf("n=%d want %d", n, len(buf))
	}
	if last := buf[n-1][0]; last > 0.1 || last < -0.1 {
		t.Fatalf("last sample %f should be released to near zero", last)
	}
	if n, ok := s.Stream(buf); n != 0 || ok {
		t.Fatalf("exhausted tone returned n=%d ok=%v", n, ok)
	}
}

func TestMelodies_End(t *testing.T) {
	rate := beep.SampleRate(8000)
	for name, s := range map[string]beep.Streamer{
		"eat":   EatSound(rate, DefaultGain),
		"death": DeathSound(rate, DefaultGain),
		"win":   WinSound(rate, DefaultGain),
	} {
		n, peak := drain(t, s, rate.N(2*time.Second))
		if n == 0 {
			t.Fatalf("%s produced no samples", name)
		}
		if peak > 1 {
			t.Fatalf("%s clips: peak=%f", name, peak)
		}
	}
	if _, peak := drain(t, EatSound(rate, 0), rate.N(time.Second)); peak != 0 {
		t.Fatalf("zero gain should be silent, peak=%f", peak)
	}
}

func TestCues_OnePerEvent(t *testing.T) {
	var got []beep.Streamer
	c := newCues(func(s beep.Streamer) { got = append(got, s) }, beep.SampleRate(8000), DefaultGain, nil)

	c.OnTick(engine.TickEvent{Turn: 1})
	if len(got) != 0 {
		t.Fatalf("plain move played %d cues", len(got))
	}
	c.OnTick(engine.TickEvent{Turn: 2, Outcome: rules.Outcome{Ate: true}})
	c.OnTick(engine.TickEvent{Turn: 3, Outcome: rules.Outcome{Died: true}})
	c.OnTick(engine.TickEvent{Turn: 4, Outcome: rules.Outcome{Ate: true, Won: true}})

	if len(got) != 3 || c.Played() != 3 {
		t.Fatalf("played=%d cues=%d want 3", c.Played(), len(got))
	}
}
