package tui

import (
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/brensch/termsnake/input"
	"github.com/brensch/termsnake/render"
)

var (
	emptyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	bodyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))
	headStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true)
	foodStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	scoreStyle   = lipgloss.NewStyle().Bold(true)
	boardStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63"))
	messageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type model struct {
	keys   chan<- input.KeyEvent
	logger *slog.Logger
	frame  render.Frame
	have   bool
}

func newModel(keys chan<- input.KeyEvent, logger *slog.Logger) model {
	return model{keys: keys, logger: logger}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		ev := keyEvent(msg)
		// Never stall the Bubble Tea loop on a slow relay.
		select {
		case m.keys <- ev:
		default:
			m.logger.Warn("key dropped, relay is behind", "key", msg.String())
		}
	case frameMsg:
		m.frame = render.Frame(msg)
		m.have = true
	}
	return m, nil
}

func (m model) View() string {
	if !m.have || m.frame.Grid.Height() == 0 {
		return "starting...\n"
	}

	var sb strings.Builder
	sb.WriteString(scoreStyle.Render(fmt.Sprintf("Score: %d", m.frame.Score)))
	sb.WriteString("\n")
	sb.WriteString(boardStyle.Render(styledGrid(m.frame.Grid)))
	sb.WriteString("\n")
	if m.frame.Over() {
		sb.WriteString(messageStyle.Render(m.frame.Message))
		sb.WriteString("\n")
		sb.WriteString(helpStyle.Render("press any key to exit"))
	} else {
		sb.WriteString(helpStyle.Render("arrows/wasd to steer, q to quit"))
	}
	sb.WriteString("\n")
	return sb.String()
}

func styledGrid(g render.Grid) string {
	rows := make([]string, 0, g.Height())
	for _, row := range g {
		var sb strings.Builder
		for _, c := range row {
			sb.WriteString(glyphStyle(c).Render(string(rune(c))))
		}
		rows = append(rows, sb.String())
	}
	return strings.Join(rows, "\n")
}

func glyphStyle(c render.Glyph) lipgloss.Style {
	switch c {
	case render.Head:
		return headStyle
	case render.Body:
		return bodyStyle
	case render.Food:
		return foodStyle
	}
	return emptyStyle
}

// keyEvent maps a Bubble Tea key to the frontend independent form.
// Bubble Tea only reports presses.
func keyEvent(msg tea.KeyMsg) input.KeyEvent {
	ev := input.KeyEvent{Kind: input.Press}
	switch msg.Type {
	case tea.KeyUp:
		ev.Key = input.KeyUp
	case tea.KeyDown:
		ev.Key = input.KeyDown
	case tea.KeyLeft:
		ev.Key = input.KeyLeft
	case tea.KeyRight:
		ev.Key = input.KeyRight
	case tea.KeyEsc:
		ev.Key = input.KeyEscape
	case tea.KeyCtrlC:
		ev.Key = input.KeyInterrupt
	case tea.KeyRunes, tea.KeySpace:
		ev.Key = input.KeyRune
		if len(msg.Runes) > 0 {
			ev.Rune = msg.Runes[0]
		} else {
			ev.Rune = ' '
		}
	default:
		ev.Key = input.KeyOther
	}
	return ev
}
