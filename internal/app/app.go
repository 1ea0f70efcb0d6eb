// Package app is the interactive inspector for the pending scrobble
// cache: a small bubbletea program that lists what is waiting to be
// submitted and lets the user acknowledge or drop entries.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/scrobz/scrobz/internal/history"
	"github.com/scrobz/scrobz/internal/scrobble"
	"github.com/scrobz/scrobz/internal/scrobble/cache"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Padding(0, 1)
	cursorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
)

// Model is the TUI state. journal may be nil when the submission
// journal is disabled.
type Model struct {
	cache   *cache.Cache
	journal *history.Store
	log     *slog.Logger

	tracks    []scrobble.Track
	selection int
	status    string
	errorMsg  string
	width     int
	height    int
}

func New(c *cache.Cache, journal *history.Store, logger *slog.Logger) Model {
	return Model{
		cache:   c,
		journal: journal,
		log:     logger,
		tracks:  c.Tracks(),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "j", "down":
			if m.selection < len(m.tracks)-1 {
				m.selection++
			}
			return m, nil
		case "k", "up":
			if m.selection > 0 {
				m.selection--
			}
			return m, nil
		case "g":
			m.selection = 0
			return m, nil
		case "G":
			if len(m.tracks) > 0 {
				m.selection = len(m.tracks) - 1
			}
			return m, nil
		case "d":
			return m.ackSelected()
		case "r":
			m.cache.Reload()
			m.tracks = m.cache.Tracks()
			m.clampSelection()
			m.status = "reloaded from disk"
			m.errorMsg = ""
			return m, nil
		}
	}
	return m, nil
}

// ackSelected marks the selected scrobble as submitted: journaled when
// the journal is on, then removed from the cache. Removal is by value,
// so duplicates of the selected entry go with it.
func (m Model) ackSelected() (tea.Model, tea.Cmd) {
	if m.selection < 0 || m.selection >= len(m.tracks) {
		return m, nil
	}
	t := m.tracks[m.selection]

	if m.journal != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.journal.Record(ctx, []scrobble.Track{t}); err != nil {
			m.errorMsg = fmt.Sprintf("journal: %v", err)
			m.log.Error("journal submission", slog.String("err", err.Error()))
			return m, nil
		}
	}

	remaining, err := m.cache.Remove([]scrobble.Track{t})
	if err != nil {
		m.errorMsg = fmt.Sprintf("update cache: %v", err)
		m.log.Error("persist cache", slog.String("err", err.Error()))
	} else {
		m.errorMsg = ""
		m.status = fmt.Sprintf("acknowledged %q, %d pending", t.Title, remaining)
	}

	m.tracks = m.cache.Tracks()
	m.clampSelection()
	return m, nil
}

func (m *Model) clampSelection() {
	if m.selection >= len(m.tracks) {
		m.selection = len(m.tracks) - 1
	}
	if m.selection < 0 {
		m.selection = 0
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("scrobz · pending scrobbles · %s", m.cache.Username())))
	b.WriteString("\n\n")

	if len(m.tracks) == 0 {
		b.WriteString(dimStyle.Render("  nothing pending"))
		b.WriteString("\n")
	}
	for i, t := range m.tracks {
		line := fmt.Sprintf("%s - %s", t.Artist, t.Title)
		if !t.StartedAt.IsZero() {
			line += dimStyle.Render(fmt.Sprintf("  %s", t.StartedAt.Local().Format("Jan 02 15:04")))
		}
		if i == m.selection {
			b.WriteString(cursorStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.errorMsg != "" {
		b.WriteString(errorStyle.Render(m.errorMsg))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render("j/k move · d acknowledge · r reload · q quit"))
	b.WriteString("\n")

	return b.String()
}
