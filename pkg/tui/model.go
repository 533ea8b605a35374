package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"github.com/papercomputeco/gemchat/pkg/chat"
	"github.com/papercomputeco/gemchat/pkg/media"
)

// replyMsg is delivered when a submission settles.
type replyMsg struct {
	message chat.Message
}

// stateChangedMsg is delivered after the controller's state changed.
type stateChangedMsg struct{}

// Model is the bubbletea model for the full screen chat.
type Model struct {
	ctx  context.Context
	chat *chat.Controller

	// changes holds at most one pending change notification.
	changes     chan struct{}
	unsubscribe func()

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model
	markdown *glamour.TermRenderer
	style    string

	confirming bool
	status     string
	ready      bool

	width  int
	height int
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithGlamourStyle sets the markdown style for replies ("dark", "light",
// "notty", ...). By default it follows the terminal background.
func WithGlamourStyle(style string) ModelOption {
	return func(m *Model) { m.style = style }
}

// NewModel creates the chat model. ctx is passed to every submission.
func NewModel(ctx context.Context, controller *chat.Controller, opts ...ModelOption) Model {
	ta := textarea.New()
	ta.Placeholder = "Type a message, or /help"
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(2)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = botStyle

	changes := make(chan struct{}, 1)
	unsubscribe := controller.Subscribe(func(chat.State) {
		select {
		case changes <- struct{}{}:
		default:
		}
	})

	m := Model{
		ctx:         ctx,
		chat:        controller,
		changes:     changes,
		unsubscribe: unsubscribe,
		textarea:    ta,
		spinner:     s,
	}
	for _, opt := range opts {
		opt(&m)
	}
	if m.style == "" {
		m.style = "light"
		if termenv.HasDarkBackground() {
			m.style = "dark"
		}
	}
	return m
}

// Run starts the full screen program and blocks until the user quits.
func Run(ctx context.Context, controller *chat.Controller) error {
	m := NewModel(ctx, controller)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Close stops listening for controller changes.
func (m Model) Close() {
	m.unsubscribe()
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, waitForChange(m.changes))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if m.confirming {
			return m.updateConfirm(msg), nil
		}
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submitLine()
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		if m.chat.Busy() {
			// Input is locked until the reply lands.
			return m, nil
		}

	case replyMsg:
		if m.chat.Pending().Text == "" {
			m.textarea.Reset()
		}
		m.status = ""
		m.refresh()
		return m, nil

	case stateChangedMsg:
		// Follow edits made through other front ends and the reset after a reply.
		if text := m.chat.Pending().Text; text != m.textarea.Value() {
			m.textarea.SetValue(text)
		}
		m.refresh()
		return m, waitForChange(m.changes)

	case spinner.TickMsg:
		if !m.chat.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	if value := m.textarea.Value(); value != m.chat.Pending().Text {
		m.chat.EditText(value)
	}
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) Model {
	if isYes(msg.String()) {
		m.chat.Clear()
		m.status = "conversation cleared"
	} else {
		m.status = "kept"
	}
	m.confirming = false
	m.refresh()
	return m
}

// submitLine handles Enter: a slash command or a message submission.
func (m Model) submitLine() (tea.Model, tea.Cmd) {
	line := m.textarea.Value()
	cmd, err := ParseCommand(line)
	if err != nil {
		m.status = err.Error()
		return m, nil
	}

	switch cmd.Kind {
	case CommandQuit:
		return m, tea.Quit

	case CommandHelp:
		m.status = strings.Join(strings.Fields(strings.ReplaceAll(HelpText, "\n", " · ")), " ")
		m.clearInput()

	case CommandImage:
		r, err := selectImageFile(m.chat, cmd.Arg)
		var oversized *media.OversizedError
		switch {
		case errors.As(err, &oversized):
			m.status = fmt.Sprintf("The image is too large (%s). Please select an image smaller than %s.",
				humanSize(oversized.Size), humanSize(oversized.Limit))
		case err != nil:
			m.status = err.Error()
		default:
			m.status = "attached " + describeImage(r.Name(), r.MediaType(), r.Size())
		}
		m.clearInput()

	case CommandRemoveImage:
		m.chat.RemoveImage()
		m.status = "image removed"
		m.clearInput()

	case CommandClear:
		m.clearInput()
		if len(m.chat.Messages()) == 0 {
			m.status = "nothing to clear"
			break
		}
		m.confirming = true

	case CommandSend:
		m.chat.EditText(line)
		done, err := m.chat.Submit(m.ctx)
		switch {
		case errors.Is(err, chat.ErrEmptyInput):
			return m, nil
		case err != nil:
			m.status = err.Error()
			return m, nil
		}
		m.status = ""
		m.refresh()
		return m, tea.Batch(waitForReply(done), m.spinner.Tick)
	}

	m.refresh()
	return m, nil
}

func (m *Model) clearInput() {
	m.textarea.Reset()
	m.chat.EditText("")
}

func waitForReply(done <-chan chat.Message) tea.Cmd {
	return func() tea.Msg {
		return replyMsg{message: <-done}
	}
}

func waitForChange(changes <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-changes
		return stateChangedMsg{}
	}
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height

	headerHeight := 2
	inputHeight := 4 // textarea plus attachment line
	statusHeight := 1
	vpHeight := max(height-headerHeight-inputHeight-statusHeight, 3)

	if !m.ready {
		m.viewport = viewport.New(width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = vpHeight
	}
	m.textarea.SetWidth(width)

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.style),
		glamour.WithWordWrap(max(width-4, 20)),
	)
	if err == nil {
		m.markdown = r
	}
	m.refresh()
}

// refresh re-renders the conversation into the viewport.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderMessages(m.chat.Messages()))
	m.viewport.GotoBottom()
}

func (m *Model) renderMessages(messages []chat.Message) string {
	if len(messages) == 0 {
		return dimStyle.Render("Send a message to start the conversation.")
	}

	body := lipgloss.NewStyle().Width(max(m.width-2, 10))
	var b strings.Builder
	for _, msg := range messages {
		switch msg.Sender {
		case chat.SenderUser:
			b.WriteString(userStyle.Render("You"))
			b.WriteString("\n")
			if msg.Text != "" {
				b.WriteString(body.Render(msg.Text))
				b.WriteString("\n")
			}
			if msg.Image != nil {
				b.WriteString(dimStyle.Render("[image] " + describeImage(msg.Image.Name, msg.Image.MediaType, msg.Image.Size)))
				b.WriteString("\n")
			}
		case chat.SenderBot:
			b.WriteString(botStyle.Render("Gemini"))
			b.WriteString("\n")
			b.WriteString(m.renderMarkdown(msg.Text, body))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderMarkdown(text string, fallback lipgloss.Style) string {
	if m.markdown != nil {
		if out, err := m.markdown.Render(text); err == nil {
			return strings.Trim(out, "\n") + "\n"
		}
	}
	return fallback.Render(text) + "\n"
}

func (m Model) View() string {
	if !m.ready {
		return "Starting..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Gemini chat"))
	b.WriteString(dimStyle.Render("  enter send · /help commands · ctrl+c quit"))
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if img := m.chat.Pending().Image; img != nil {
		b.WriteString(dimStyle.Render("attached: " + describeImage(img.Name(), img.MediaType(), img.Size()) + "  (/remove to drop)"))
	}
	b.WriteString("\n")

	if m.confirming {
		b.WriteString(confirmStyle.Render("Clear the conversation? (y/n)"))
	} else {
		b.WriteString(m.textarea.View())
	}
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	return b.String()
}

func (m Model) statusLine() string {
	var line string
	switch {
	case m.chat.Busy():
		line = m.spinner.View() + " waiting for reply..."
	case m.status != "":
		line = warnStyle.Render(m.status)
	}
	return ansi.Truncate(line, m.width, "…")
}
