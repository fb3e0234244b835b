package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/S2BlueMoon01/send-media/internal/transfer"
	"github.com/S2BlueMoon01/send-media/internal/utils"
	"github.com/S2BlueMoon01/send-media/internal/viewmodel"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TickMsg drives a steady repaint so progress bar animations stay
// smooth between snapshot arrivals.
type TickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return TickMsg(t) })
}

type snapshotMsg viewmodel.Snapshot

// Session drives an interactive TUI off a viewmodel.Adapter's reactive
// output. It mirrors the teacher's runner.go shape — a buffered update
// channel feeding a bubbletea program's Update loop — generalized from
// per-file progress messages to whole view-model snapshots.
type Session struct {
	program *tea.Program
}

// NewSession subscribes to adapter and returns a Session ready to Run.
func NewSession(title string, adapter *viewmodel.Adapter) *Session {
	updates := make(chan viewmodel.Snapshot, 64)
	adapter.OnChange(func(s viewmodel.Snapshot) {
		select {
		case updates <- s:
		default:
		}
	})

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SpinnerStyle

	model := &sessionModel{
		title:   title,
		spinner: sp,
		updates: updates,
		bars:    make(map[string]progress.Model),
	}

	return &Session{program: tea.NewProgram(model)}
}

// Run blocks until the user quits (q/ctrl+c) or the program otherwise
// stops.
func (s *Session) Run() error {
	_, err := s.program.Run()
	return err
}

// Quit stops the program from outside its own Update loop.
func (s *Session) Quit() { s.program.Quit() }

type sessionModel struct {
	title    string
	spinner  spinner.Model
	updates  chan viewmodel.Snapshot
	bars     map[string]progress.Model
	order    []string
	snap     viewmodel.Snapshot
	quitting bool
}

func (m *sessionModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listen(), tickCmd())
}

func (m *sessionModel) listen() tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(<-m.updates)
	}
}

func (m *sessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case TickMsg:
		if !m.quitting {
			cmds = append(cmds, tickCmd())
		}

	case snapshotMsg:
		m.applySnapshot(viewmodel.Snapshot(msg))
		cmds = append(cmds, m.listen())

	case progress.FrameMsg:
		for id, bar := range m.bars {
			updated, cmd := bar.Update(msg)
			m.bars[id] = updated.(progress.Model)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *sessionModel) applySnapshot(s viewmodel.Snapshot) {
	m.snap = s
	for _, t := range s.Transfers {
		if _, ok := m.bars[t.ID]; !ok {
			m.order = append(m.order, t.ID)
			m.bars[t.ID] = progress.New(
				progress.WithGradient(ProgressStart, ProgressEnd),
				progress.WithWidth(25),
				progress.WithoutPercentage(),
			)
		}
	}
}

func (m *sessionModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n\n", TitleStyle.Render(m.title))
	fmt.Fprintf(&b, "%s state: %s", m.spinner.View(), BoldStyle.Render(string(m.snap.ConnectionState)))
	if m.snap.SignalStatus != "" {
		fmt.Fprintf(&b, " (%s)", m.snap.SignalStatus)
	}
	b.WriteString("\n")

	if m.snap.Error != "" {
		fmt.Fprintf(&b, "%s %s\n", IconError, ErrorStyle.Render(m.snap.Error))
	}
	if m.snap.Warning != "" {
		fmt.Fprintf(&b, "%s %s\n", IconWarning, WarningStyle.Render(m.snap.Warning))
	}

	byID := make(map[string]transfer.Transfer, len(m.snap.Transfers))
	for _, t := range m.snap.Transfers {
		byID[t.ID] = t
	}

	if len(m.order) > 0 {
		b.WriteString("\n")
	}
	for _, id := range m.order {
		t, ok := byID[id]
		if !ok {
			continue
		}
		b.WriteString(renderTransferLine(t, m.bars[id]))
	}

	if len(m.snap.Messages) > 0 {
		b.WriteString("\n" + MutedStyle.Render("Recent messages:") + "\n")
		start := 0
		if len(m.snap.Messages) > 5 {
			start = len(m.snap.Messages) - 5
		}
		for _, msg := range m.snap.Messages[start:] {
			who := "peer"
			if !msg.FromPeer {
				who = "me"
			}
			fmt.Fprintf(&b, "  %s %s: %s\n", IconChat, who, msg.Text)
		}
	}

	b.WriteString("\n" + MutedStyle.Render("Press q to disconnect and quit"))
	return b.String()
}

func renderTransferLine(t transfer.Transfer, bar progress.Model) string {
	var icon string
	var nameStyle lipgloss.Style
	switch t.Status {
	case transfer.StatusError, transfer.StatusCancelled:
		icon = IconError
		nameStyle = ErrorStyle
	case transfer.StatusCompleted:
		icon = IconSuccess
		nameStyle = SuccessStyle
	case transfer.StatusTransferring:
		icon = IconTransfer
		nameStyle = lipgloss.NewStyle()
	default:
		icon = "○"
		nameStyle = MutedStyle
	}

	dir := IconSend
	if t.Direction == transfer.DirectionReceive {
		dir = IconReceive
	}

	name := utils.TruncateString(t.Name, 24)
	line := fmt.Sprintf("  %s %s %s ", dir, icon, nameStyle.Width(26).Render(name))
	line += bar.ViewAs(float64(t.Progress) / 100)
	line += fmt.Sprintf(" %5d%%", t.Progress)
	if t.Status == transfer.StatusTransferring && t.Speed > 0 {
		line += MutedStyle.Render(" " + utils.FormatSpeed(t.Speed))
		if t.ETA != nil {
			line += MutedStyle.Render(" ETA: " + utils.FormatDuration(time.Duration(*t.ETA*float64(time.Second))))
		}
	}
	return line + "\n"
}
