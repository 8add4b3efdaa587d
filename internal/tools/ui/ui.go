// Package ui renders operational tool progress with bubbletea. Tools
// run their work in the background and stream step lines into the view.
package ui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	stepStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	okStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	failStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

type stepMsg string

type doneMsg struct {
	details []string
	err     error
}

type model struct {
	title   string
	steps   []string
	done    bool
	err     error
	started time.Time
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stepMsg:
		m.steps = append(m.steps, string(msg))
		return m, nil
	case doneMsg:
		m.steps = append(m.steps, msg.details...)
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			m.done = true
			m.err = context.Canceled
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) View() string {
	out := titleStyle.Render(m.title) + "\n"
	for _, step := range m.steps {
		out += stepStyle.Render("  • "+step) + "\n"
	}
	if m.done {
		elapsed := time.Since(m.started).Round(time.Millisecond)
		if m.err != nil {
			out += failStyle.Render(fmt.Sprintf("FAIL (%s): %v", elapsed, m.err)) + "\n"
		} else {
			out += okStyle.Render(fmt.Sprintf("OK (%s)", elapsed)) + "\n"
		}
	}
	return out
}

// Run executes fn under a progress view and returns its detail lines.
func Run(title string, fn func(ctx context.Context) ([]string, error)) ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	p := tea.NewProgram(model{title: title, started: time.Now()})
	result := doneMsg{}
	go func() {
		details, err := fn(ctx)
		result = doneMsg{details: details, err: err}
		p.Send(result)
	}()
	if _, err := p.Run(); err != nil {
		return nil, err
	}
	return result.details, result.err
}
