package tui

import (
	"log/slog"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/brensch/termsnake/game"
	"github.com/brensch/termsnake/input"
	"github.com/brensch/termsnake/render"
)

func TestKeyEvent_Mapping(t *testing.T) {
	cases := []struct {
		msg  tea.KeyMsg
		want input.KeyEvent
	}{
		{tea.KeyMsg{Type: tea.KeyUp}, input.KeyEvent{Key: input.KeyUp}},
		{tea.KeyMsg{Type: tea.KeyLeft}, input.KeyEvent{Key: input.KeyLeft}},
		{tea.KeyMsg{Type: tea.KeyEsc}, input.KeyEvent{Key: input.KeyEscape}},
		{tea.KeyMsg{Type: tea.KeyCtrlC}, input.KeyEvent{Key: input.KeyInterrupt}},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}}, input.KeyEvent{Key: input.KeyRune, Rune: 'd'}},
		{tea.KeyMsg{Type: tea.KeyTab}, input.KeyEvent{Key: input.KeyOther}},
	}
	for _, tc := range cases {
		if got := keyEvent(tc.msg); got != tc.want {
			t.Fatalf("keyEvent(%v)=%+v want %+v", tc.msg, got, tc.want)
		}
	}
	if input.Translate(keyEvent(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})) != game.Right {
		t.Fatalf("d should steer right")
	}
}

func TestModel_ForwardsKeysWithoutBlocking(t *testing.T) {
	keys := make(chan input.KeyEvent, 1)
	var m tea.Model = newModel(keys, slog.New(slog.DiscardHandler))

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	// Buffer is full now; the second key is dropped instead of blocking.
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})

	if got := <-keys; got.Key != input.KeyUp {
		t.Fatalf("got %+v want KeyUp", got)
	}
	select {
	case ev := <-keys:
		t.Fatalf("unexpected extra key %+v", ev)
	default:
	}
}

func TestModel_ViewShowsFrame(t *testing.T) {
	keys := make(chan input.KeyEvent, 1)
	var m tea.Model = newModel(keys, slog.New(slog.DiscardHandler))
	if !strings.Contains(m.View(), "starting") {
		t.Fatalf("empty model view=%q", m.View())
	}

	state := &game.GameState{
		Width:         5,
		Height:        3,
		InitialLength: 1,
		Snake:         []game.Point{{X: 2, Y: 2}, {X: 1, Y: 2}},
		Food:          game.Point{X: 4, Y: 2},
		Dead:          true,
	}
	m, _ = m.Update(frameMsg(render.NewFrame(state)))
	view := m.View()
	for _, want := range []string{"Score: 1", "&", "@", "$", render.DeathMessage, "press any key"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}
