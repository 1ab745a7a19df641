package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/wippyai/mcu-facade/ctype"
	"github.com/wippyai/mcu-facade/device"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	pathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	changedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

func cmdWatch(ctx context.Context, o *options, args []string) error {
	fs := subFlags("watch")
	interval := fs.DurationP("interval", "n", 500*time.Millisecond, "refresh interval")
	count := fs.Int("count", 0, "stop after this many refreshes (line mode)")
	plain := fs.Bool("plain", false, "line output even on a terminal")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withSession(o, func(s *session) error {
		paths := fs.Args()
		if len(paths) == 0 {
			paths = s.dev.Variables()
		}
		if len(paths) == 0 {
			return fmt.Errorf("nothing to watch: declare variables with --schema")
		}
		rows := make([]watchRow, len(paths))
		for i, p := range paths {
			v, err := s.dev.Lookup(p)
			if err != nil {
				return err
			}
			rows[i] = watchRow{path: p, value: v}
		}

		if *plain || !term.IsTerminal(int(os.Stdout.Fd())) {
			return watchLines(ctx, rows, *interval, *count)
		}
		p := tea.NewProgram(newWatchModel(ctx, s.dev, rows, *interval), tea.WithAltScreen(), tea.WithContext(ctx))
		_, err := p.Run()
		if err == tea.ErrProgramKilled && ctx.Err() != nil {
			return nil
		}
		return err
	})
}

func watchLines(ctx context.Context, rows []watchRow, interval time.Duration, count int) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for n := 0; count == 0 || n < count; n++ {
		for _, r := range rows {
			got, err := r.value.Read(ctx)
			if err != nil {
				fmt.Printf("%s %s: error: %v\n", time.Now().Format("15:04:05.000"), r.path, err)
				continue
			}
			fmt.Printf("%s %s = %s\n", time.Now().Format("15:04:05.000"), r.path, formatRead(got))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
	return nil
}

type watchRow struct {
	err     error
	value   ctype.Value
	path    string
	text    string
	changed bool
}

type watchState int

const (
	stateBrowse watchState = iota
	stateEdit
)

type watchModel struct {
	ctx      context.Context
	dev      *device.Device
	status   error
	rows     []watchRow
	input    textinput.Model
	interval time.Duration
	selected int
	state    watchState
	busy     bool
}

func newWatchModel(ctx context.Context, dev *device.Device, rows []watchRow, interval time.Duration) *watchModel {
	return &watchModel{ctx: ctx, dev: dev, rows: rows, interval: interval}
}

type tickMsg time.Time

type refreshedMsg struct {
	texts []string
	errs  []error
}

type writtenMsg struct {
	err error
}

func (m *watchModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *watchModel) Init() tea.Cmd {
	m.busy = true
	return tea.Batch(m.refresh, m.tick())
}

// refresh runs off the update loop; busy keeps it from overlapping a
// write, since bound values are not safe for concurrent use.
func (m *watchModel) refresh() tea.Msg {
	msg := refreshedMsg{texts: make([]string, len(m.rows)), errs: make([]error, len(m.rows))}
	for i, r := range m.rows {
		got, err := r.value.Read(m.ctx)
		if err != nil {
			msg.errs[i] = err
			continue
		}
		msg.texts[i] = formatRead(got)
	}
	return msg
}

func (m *watchModel) write(path, text string) tea.Cmd {
	return func() tea.Msg {
		return writtenMsg{err: writeValue(m.ctx, m.dev, path, text)}
	}
}

func (m *watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.state == stateEdit {
			switch msg.String() {
			case "enter":
				m.state = stateBrowse
				if m.busy {
					m.status = fmt.Errorf("device busy, try again")
					return m, nil
				}
				m.busy = true
				return m, m.write(m.rows[m.selected].path, m.input.Value())
			case "esc":
				m.state = stateBrowse
				return m, nil
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
		case "down", "j":
			if m.selected < len(m.rows)-1 {
				m.selected++
			}
		case "enter", "e":
			r := m.rows[m.selected]
			ti := textinput.New()
			ti.Prompt = r.path + " = "
			ti.Placeholder = r.value.Type().Name()
			ti.SetValue(r.text)
			ti.Width = 48
			ti.Focus()
			m.input = ti
			m.state = stateEdit
			m.status = nil
			return m, textinput.Blink
		case "r":
			if !m.busy {
				m.busy = true
				return m, m.refresh
			}
		}

	case tickMsg:
		if m.busy {
			return m, m.tick()
		}
		m.busy = true
		return m, tea.Batch(m.refresh, m.tick())

	case refreshedMsg:
		m.busy = false
		for i := range m.rows {
			r := &m.rows[i]
			r.err = msg.errs[i]
			if r.err == nil {
				r.changed = r.text != "" && r.text != msg.texts[i]
				r.text = msg.texts[i]
			}
		}

	case writtenMsg:
		m.busy = false
		m.status = msg.err
		if msg.err == nil {
			m.busy = true
			return m, m.refresh
		}
	}
	return m, nil
}

func (m *watchModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("MCU Facade"))
	b.WriteString(fmt.Sprintf(" %d variable(s), every %s\n\n", len(m.rows), m.interval))

	width := 0
	for _, r := range m.rows {
		width = max(width, len(r.path))
	}
	for i, r := range m.rows {
		line := fmt.Sprintf("%-*s  %s  ", width, r.path, typeStyle.Render(r.value.Type().Name()))
		switch {
		case r.err != nil:
			line += errorStyle.Render(r.err.Error())
		case r.changed:
			line += changedStyle.Render(r.text)
		default:
			line += r.text
		}
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> ") + pathStyle.Render(line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.state == stateEdit {
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter write • esc cancel"))
		return b.String()
	}
	if m.status != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.status)))
		b.WriteString("\n\n")
	}
	b.WriteString(helpStyle.Render("↑/↓ select • enter edit • r refresh • q quit"))
	return b.String()
}
