package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

const (
	maxHistory   = 50
	defaultWidth = 80
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	onlineStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	offlineStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	emotionStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("177"))
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type talker interface {
	StartTalking(ctx context.Context) error
	StopTalking(ctx context.Context) error
}

type (
	onlineMsg       bool
	chatStateMsg    bool
	transcriptMsg   string
	replyStartMsg   struct{}
	replySegmentMsg string
	replyEndMsg     string
	emotionMsg      struct{ name, text string }
	errMsg          struct{ err error }
	talkingMsg      struct {
		recording bool
		err       error
	}
)

type model struct {
	ctx    context.Context
	talker talker

	spinner spinner.Model
	width   int

	online    bool
	chatting  bool
	recording bool

	history []string
	reply   string
	emotion string
	err     error
}

func newModel(ctx context.Context, talker talker) model {
	return model{
		ctx:     ctx,
		talker:  talker,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(userStyle)),
		width:   defaultWidth,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "s":
			if m.recording {
				return m, nil
			}
			return m, m.startTalking
		case "p":
			if !m.recording {
				return m, nil
			}
			return m, m.stopTalking
		}

	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
		}

	case spinner.TickMsg:
		if !m.recording {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case talkingMsg:
		if msg.err != nil {
			m.err = msg.err
			m.recording = false
			return m, nil
		}
		m.err = nil
		m.recording = msg.recording
		if m.recording {
			return m, m.spinner.Tick
		}

	case onlineMsg:
		m.online = bool(msg)
	case chatStateMsg:
		m.chatting = bool(msg)
	case transcriptMsg:
		m.pushHistory(userStyle.Render("you: ") + string(msg))
	case replyStartMsg:
		m.flushReply()
		m.emotion = ""
	case replySegmentMsg:
		m.reply += string(msg)
	case replyEndMsg:
		m.reply += string(msg)
		m.flushReply()
	case emotionMsg:
		m.emotion = msg.name
	case errMsg:
		m.err = msg.err
	}

	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	status := offlineStyle.Render("offline")
	if m.online {
		status = onlineStyle.Render("online")
	}
	fmt.Fprintf(&b, "%s %s\n\n", titleStyle.Render("ema-link"), status)

	for _, line := range m.history {
		b.WriteString(wordwrap.String(line, m.wrapWidth()))
		b.WriteString("\n")
	}
	if m.reply != "" {
		b.WriteString(wordwrap.String(assistantStyle.Render("agent: "+m.reply), m.wrapWidth()))
		b.WriteString("\n")
	}
	if m.emotion != "" {
		b.WriteString(emotionStyle.Render("(" + m.emotion + ")"))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.recording {
		b.WriteString(m.spinner.View() + " listening")
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("s talk • p stop • q quit"))
	b.WriteString("\n")

	return b.String()
}

func (m model) startTalking() tea.Msg {
	if err := m.talker.StartTalking(m.ctx); err != nil {
		return talkingMsg{err: fmt.Errorf("failed to start talking: %w", err)}
	}
	return talkingMsg{recording: true}
}

func (m model) stopTalking() tea.Msg {
	if err := m.talker.StopTalking(m.ctx); err != nil {
		return talkingMsg{err: fmt.Errorf("failed to stop talking: %w", err)}
	}
	return talkingMsg{recording: false}
}

func (m *model) flushReply() {
	if m.reply == "" {
		return
	}
	m.pushHistory(assistantStyle.Render("agent: " + m.reply))
	m.reply = ""
}

func (m *model) pushHistory(line string) {
	m.history = append(m.history, line)
	if len(m.history) > maxHistory {
		m.history = m.history[len(m.history)-maxHistory:]
	}
}

func (m model) wrapWidth() int {
	if m.width > 2 {
		return m.width - 2
	}
	return defaultWidth
}
