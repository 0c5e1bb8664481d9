// Package tui provides the interactive chat interface for Nexus.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"nexus/pkg/models"
)

// Runner executes one query and returns its result. The chat app stays
// decoupled from the orchestrator through this function type.
type Runner func(ctx context.Context, query string) (*models.RunResult, error)

// runDoneMsg carries a finished run back into the update loop.
type runDoneMsg struct {
	result *models.RunResult
	err    error
}

type chatEntry struct {
	user   string
	answer string
	meta   string
	failed bool
}

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("75")).
			Bold(true)

	answerStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			PaddingLeft(2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			PaddingLeft(2)

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// ChatApp is the bubbletea model for the interactive chat loop. Queries
// run one at a time; input is disabled while a run is in flight.
type ChatApp struct {
	runner  Runner
	ctx     context.Context
	input   textinput.Model
	spin    spinner.Model
	entries []chatEntry
	running bool
	pending string
	width   int
	quit    bool
}

// NewChatApp creates a ChatApp that executes queries through runner.
func NewChatApp(ctx context.Context, runner Runner) *ChatApp {
	ti := textinput.New()
	ti.Placeholder = "Ask about production, logistics, or finance..."
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))

	return &ChatApp{
		runner: runner,
		ctx:    ctx,
		input:  ti,
		spin:   sp,
		width:  80,
	}
}

// Init implements tea.Model.
func (a *ChatApp) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (a *ChatApp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.input.Width = msg.Width - 6
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			a.quit = true
			return a, tea.Quit
		case "enter":
			if a.running {
				return a, nil
			}
			query := strings.TrimSpace(a.input.Value())
			if query == "" {
				return a, nil
			}
			a.input.Reset()
			a.running = true
			a.pending = query
			return a, tea.Batch(a.spin.Tick, a.runQuery(query))
		}

	case runDoneMsg:
		a.running = false
		a.entries = append(a.entries, a.entryFor(msg))
		a.pending = ""
		return a, nil

	case spinner.TickMsg:
		if !a.running {
			return a, nil
		}
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// runQuery executes the query off the update loop.
func (a *ChatApp) runQuery(query string) tea.Cmd {
	return func() tea.Msg {
		result, err := a.runner(a.ctx, query)
		return runDoneMsg{result: result, err: err}
	}
}

func (a *ChatApp) entryFor(msg runDoneMsg) chatEntry {
	entry := chatEntry{user: a.pending}
	if msg.err != nil && msg.result == nil {
		entry.answer = msg.err.Error()
		entry.failed = true
		return entry
	}

	res := msg.result
	entry.answer = res.FinalResponse
	entry.failed = res.Status == models.RunFailed

	names := make([]string, len(res.SpecialistsInvolved))
	for i, n := range res.SpecialistsInvolved {
		names[i] = string(n)
	}
	meta := fmt.Sprintf("routing=%s", res.RoutingDecision)
	if len(names) > 0 {
		meta += " specialists=" + strings.Join(names, ",")
	}
	if res.Degraded {
		meta += " (degraded)"
	}
	meta += fmt.Sprintf(" %s", res.Duration.Round(10*time.Millisecond))
	entry.meta = meta
	return entry
}

// View implements tea.Model.
func (a *ChatApp) View() string {
	if a.quit {
		return ""
	}

	var b strings.Builder
	b.WriteString(promptStyle.Render("Nexus") + " multi-specialist chat. Ctrl+C to quit.\n\n")

	for _, e := range a.entries {
		b.WriteString(userStyle.Render("you: ") + e.user + "\n")
		style := answerStyle
		if e.failed {
			style = errorStyle
		}
		b.WriteString(style.Render(e.answer) + "\n")
		if e.meta != "" {
			b.WriteString(metaStyle.Render(e.meta) + "\n")
		}
		b.WriteString("\n")
	}

	if a.running {
		b.WriteString(userStyle.Render("you: ") + a.pending + "\n")
		b.WriteString(answerStyle.Render(a.spin.View()+" thinking...") + "\n\n")
	}

	box := inputBoxStyle.Width(a.width - 2)
	b.WriteString(box.Render(promptStyle.Render("> ") + a.input.View()))
	return b.String()
}
