package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/a-h/chatrelay/client"
	"github.com/a-h/chatrelay/models"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

type ChatCommand struct {
	RelayURL string `help:"The URL of the chat relay server." env:"RELAY_URL" default:"http://localhost:5000"`
}

func (c ChatCommand) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rsc := client.New(c.RelayURL)

	toRelay := make(chan string, 1)
	fromRelay := make(chan turn)
	errs := make(chan error)

	go func() {
		for {
			var msg string
			select {
			case msg = <-toRelay:
			case <-ctx.Done():
				return
			}
			resp, err := rsc.ChatPost(ctx, models.ChatPostRequest{Message: msg})
			if err != nil {
				select {
				case errs <- err:
				case <-ctx.Done():
					return
				}
				continue
			}
			select {
			case fromRelay <- turn{Role: roleAssistant, Content: resp.Reply}:
			case <-ctx.Done():
				return
			}
		}
	}()

	p := tea.NewProgram(newModel(ctx, toRelay, fromRelay, errs))
	if _, err = p.Run(); err != nil {
		return err
	}
	return nil
}

type role string

const (
	roleUser      role = "user"
	roleAssistant role = "assistant"
	roleError     role = "error"
)

type turn struct {
	Role    role
	Content string
}

// Dracula color scheme.
var (
	Background  = lipgloss.Color("#282a36")
	CurrentLine = lipgloss.Color("#44475a")
	Cyan        = lipgloss.Color("#8be9fd")
	Pink        = lipgloss.Color("#ff79c6")
	Purple      = lipgloss.Color("#bd93f9")
	Red         = lipgloss.Color("#ff5555")
)

var headerStyle = lipgloss.NewStyle().Background(CurrentLine).Foreground(Purple).Bold(true).Margin(1).Padding(1)

const header = "Growth. Send a message to start chatting."

type model struct {
	viewport viewport.Model
	textarea textarea.Model
	ctx      context.Context
	turns    []turn
	waiting  bool

	toRelay   chan<- string
	fromRelay <-chan turn
	errors    <-chan error
}

func newModel(ctx context.Context, toRelay chan<- string, fromRelay <-chan turn, errors <-chan error) model {
	ta := textarea.New()
	ta.Placeholder = "Send a message..."
	ta.Focus()

	ta.Prompt = "┃ "
	ta.CharLimit = 4000

	ta.SetHeight(3)

	// Remove cursor line styling
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()

	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false)

	vp := viewport.New(80, 20)
	vp.SetContent(headerStyle.Render(header))

	return model{
		ctx:       ctx,
		textarea:  ta,
		viewport:  vp,
		toRelay:   toRelay,
		fromRelay: fromRelay,
		errors:    errors,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.subscribeToReplies(),
		m.subscribeToErrors(),
	)
}

func (m model) subscribeToReplies() tea.Cmd {
	return func() tea.Msg {
		select {
		case x := <-m.fromRelay:
			return x
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m model) subscribeToErrors() tea.Cmd {
	return func() tea.Msg {
		select {
		case x := <-m.errors:
			return x
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m model) send(msg string) tea.Cmd {
	return func() tea.Msg {
		select {
		case m.toRelay <- msg:
		case <-m.ctx.Done():
		}
		return nil
	}
}

var roleToStyle = map[role]lipgloss.Style{
	roleUser:      lipgloss.NewStyle().Padding(1).Margin(1).MarginBottom(0).Background(Background).Foreground(Pink),
	roleAssistant: lipgloss.NewStyle().Padding(1).Margin(1).MarginBottom(0).Background(Background).Foreground(Cyan),
	roleError:     lipgloss.NewStyle().Padding(1).Margin(1).MarginBottom(0).Background(Background).Foreground(Red),
}

var roleToIcon = map[role]string{
	roleUser:      "🥷",
	roleAssistant: "✨",
	roleError:     "⚠️",
}

func formatTurn(t turn) string {
	style, ok := roleToStyle[t.Role]
	if !ok {
		return t.Content
	}
	icon, ok := roleToIcon[t.Role]
	if !ok {
		icon = "🤷"
	}
	wrapped := wordwrap.String(strings.TrimSpace(icon+" "+t.Content), 80)
	return style.Render(wrapped)
}

func (m model) render() string {
	var sb strings.Builder
	for _, t := range m.turns {
		sb.WriteString(formatTurn(t))
		sb.WriteString("\n")
	}
	if m.waiting {
		sb.WriteString(formatTurn(turn{Role: roleAssistant, Content: "..."}))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m model) appendTurn(t turn) model {
	m.turns = append(m.turns, t)
	m.viewport.SetContent(m.render())
	m.viewport.GotoBottom()
	return m
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case error:
		m.waiting = false
		m = m.appendTurn(turn{Role: roleError, Content: msg.Error()})
		return m, m.subscribeToErrors()
	case turn:
		m.waiting = false
		m = m.appendTurn(msg)
		return m, m.subscribeToReplies()
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - m.textarea.Height() - 3
		m.textarea.SetWidth(msg.Width)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+c":
			return m, tea.Quit
		case "enter":
			v := strings.TrimSpace(m.textarea.Value())
			if v == "" || m.waiting {
				return m, nil
			}
			m.textarea.Reset()
			m.waiting = true
			m = m.appendTurn(turn{Role: roleUser, Content: v})
			return m, m.send(v)
		default:
			var cmd tea.Cmd
			m.textarea, cmd = m.textarea.Update(msg)
			return m, cmd
		}

	case cursor.BlinkMsg:
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		return m, cmd

	default:
		return m, nil
	}
}

func (m model) View() string {
	return fmt.Sprintf("%s\n\n%s",
		m.viewport.View(),
		m.textarea.View(),
	) + "\n\n"
}
