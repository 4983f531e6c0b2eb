// Package console is a terminal chat with the bot dispatcher. It shows the
// conversation and lets the owner type messages and press the buttons of
// the latest reply, without a Telegram account.
package console

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/unowned-ai/readlater/pkg/bot"
)

// Dispatcher receives inbound events. *bot.Dispatcher implements it.
type Dispatcher interface {
	OnPlainMessage(ctx context.Context, owner int64, text string, att bot.Attachment) bot.Response
	OnChoice(ctx context.Context, owner int64, token string) bot.Response
	OnPageRequest(ctx context.Context, owner int64, token string) bot.Response
}

type speaker int

const (
	fromBot speaker = iota
	fromUser
	fromNotice
)

type line struct {
	from speaker
	text string
}

type model struct {
	dispatcher Dispatcher
	owner      int64

	transcript []line
	// keyboard holds the buttons of the latest reply that had any, and
	// keyboardAt the transcript index of that reply.
	keyboard   [][]bot.Button
	keyboardAt int
	menu       []string

	row, col      int
	buttonsFocus  bool
	input         textinput.Model
	viewport      viewport.Model
	width, height int
	ready         bool
}

func initModel(d Dispatcher, owner int64) model {
	in := textinput.New()
	in.Placeholder = "Send a link, some text or a /command"
	in.CharLimit = 4096
	in.Focus()

	return model{
		dispatcher: d,
		owner:      owner,
		keyboardAt: -1,
		input:      in,
		viewport:   viewport.New(0, 0),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, sendText(m.dispatcher, m.owner, "/start"))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = max(msg.Width-4, 10)
		m.ready = true
		m.refresh()
		return m, nil

	case responseMsg:
		m.apply(msg.resp)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyTab:
			if len(m.keyboard) > 0 {
				m.setButtonsFocus(!m.buttonsFocus)
			}
			return m, nil
		case tea.KeyEsc:
			if m.buttonsFocus {
				m.setButtonsFocus(false)
				return m, nil
			}
			return m, tea.Quit
		}

		if m.buttonsFocus {
			return m.updateButtons(msg)
		}
		if msg.Type == tea.KeyEnter {
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.input.Reset()
			m.transcript = append(m.transcript, line{from: fromUser, text: text})
			m.refresh()
			return m, sendText(m.dispatcher, m.owner, text)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) updateButtons(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.row > 0 {
			m.row--
		}
	case "down", "j":
		if m.row < len(m.keyboard)-1 {
			m.row++
		}
	case "left", "h":
		if m.col > 0 {
			m.col--
		}
	case "right", "l":
		if m.col < len(m.keyboard[m.row])-1 {
			m.col++
		}
	case "enter":
		b := m.keyboard[m.row][m.col]
		m.transcript = append(m.transcript, line{from: fromUser, text: "[" + b.Label + "]"})
		m.refresh()
		return m, pressButton(m.dispatcher, m.owner, b.Token)
	}
	m.col = min(m.col, len(m.keyboard[m.row])-1)
	return m, nil
}

func (m *model) setButtonsFocus(on bool) {
	m.buttonsFocus = on
	if on {
		m.input.Blur()
	} else {
		m.input.Focus()
	}
}

// apply appends the replies to the transcript. A reply asking to replace
// rewrites the message whose buttons were pressed.
func (m *model) apply(resp bot.Response) {
	if resp.Notice != "" {
		m.transcript = append(m.transcript, line{from: fromNotice, text: resp.Notice})
	}
	for _, r := range resp.Replies {
		if r.Text == "" {
			continue
		}
		at := len(m.transcript)
		if r.Replace && m.keyboardAt >= 0 {
			at = m.keyboardAt
			m.transcript[at] = line{from: fromBot, text: r.Text}
		} else {
			m.transcript = append(m.transcript, line{from: fromBot, text: r.Text})
		}

		switch {
		case len(r.Buttons) > 0:
			m.keyboard, m.keyboardAt = r.Buttons, at
		case r.Replace && at == m.keyboardAt:
			m.keyboard, m.keyboardAt = nil, -1
		}
		if len(r.Menu) > 0 {
			m.menu = r.Menu
		}
	}
	m.row, m.col = 0, 0
	if len(m.keyboard) == 0 {
		m.setButtonsFocus(false)
	}
}

// refresh re-renders the transcript into the viewport and scrolls to the end.
func (m *model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.Width = m.width
	m.viewport.Height = max(m.height-m.chromeHeight(), 3)

	rendered := make([]string, 0, len(m.transcript))
	for _, l := range m.transcript {
		rendered = append(rendered, renderLine(l, m.width))
	}
	m.viewport.SetContent(strings.Join(rendered, "\n\n"))
	m.viewport.GotoBottom()
}

// chromeHeight is the number of rows used by everything but the transcript.
func (m model) chromeHeight() int {
	return lipgloss.Height(m.keyboardView()) + 6
}

func (m model) keyboardView() string {
	if len(m.keyboard) == 0 {
		return ""
	}
	rows := make([]string, 0, len(m.keyboard))
	for i, row := range m.keyboard {
		cells := make([]string, 0, len(row))
		for j, b := range row {
			style := buttonStyle
			if m.buttonsFocus && i == m.row && j == m.col {
				style = selectedStyle
			}
			cells = append(cells, style.Render(b.Label))
		}
		rows = append(rows, strings.Join(cells, " "))
	}
	return strings.Join(rows, "\n")
}

func (m model) View() string {
	if !m.ready {
		return "Starting..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Width(m.width).Render("ReadLater console"))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	if kb := m.keyboardView(); kb != "" {
		b.WriteString(kb)
		b.WriteString("\n")
	}
	b.WriteString(m.input.View())
	b.WriteString("\n")

	help := "enter to send • tab to switch to buttons • esc to quit"
	if m.buttonsFocus {
		help = "arrows to move • enter to press • tab or esc to type"
	}
	if len(m.menu) > 0 {
		help += " • " + strings.Join(m.menu, " ")
	}
	b.WriteString(footerStyle.Width(m.width).Render(help))
	return b.String()
}

// Run starts the console for owner and blocks until the user quits.
func Run(d Dispatcher, owner int64) error {
	p := tea.NewProgram(initModel(d, owner), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
