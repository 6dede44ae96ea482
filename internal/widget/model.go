package widget

import (
	"context"
	"log/slog"
	"time"

	"LLMChatbot/internal/chatlog"

	bspinner "github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// Completer performs one completion request for a message history
type Completer interface {
	Complete(ctx context.Context, credential string, messages []chatlog.WireMessage) (string, error)
}

// Notifier receives every text the widget emits for the host
type Notifier func(text string)

// ConfigMsg delivers a host configuration update to the widget
type ConfigMsg Config

type completedMsg struct {
	exchange Exchange
	reply    string
	err      error
}

// Options configures a Model
type Options struct {
	Timeout time.Duration // bound on a single request, defaults to 30s
	Logger  *slog.Logger
	Notify  Notifier
	Width   int
	Height  int

	// MarkdownStyle names a glamour standard style for replies, such as
	// "dark" or "notty". Empty detects it from the terminal.
	MarkdownStyle string
}

// Model is the bubbletea model of the chat widget. All conversation state
// changes happen in Update; requests run as commands.
type Model struct {
	ctx     context.Context
	client  Completer
	conv    *Conversation
	timeout time.Duration
	logger  *slog.Logger
	notify  Notifier

	spinner  bspinner.Model
	viewport viewport.Model
	markdown *glamour.TermRenderer
	style    string
	shownLen int
}

// New creates a widget model. Requests are cancelled when ctx is done.
func New(ctx context.Context, client Completer, opts Options) Model {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Width <= 0 {
		opts.Width = 80
	}
	if opts.Height <= 0 {
		opts.Height = 20
	}

	sp := bspinner.New()
	sp.Spinner = bspinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)

	m := Model{
		ctx:      ctx,
		client:   client,
		conv:     NewConversation(),
		timeout:  opts.Timeout,
		logger:   opts.Logger,
		notify:   opts.Notify,
		spinner:  sp,
		viewport: viewport.New(opts.Width, opts.Height),
		markdown: newMarkdownRenderer(opts.Width, opts.MarkdownStyle),
		style:    opts.MarkdownStyle,
	}
	m.refresh()
	return m
}

// Conversation exposes the underlying state machine for inspection
func (m Model) Conversation() *Conversation {
	return m.conv
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch ev := msg.(type) {
	case ConfigMsg:
		ex, ok := m.conv.Observe(Config(ev))
		if !ok {
			if e, errored := m.conv.State().(Errored); errored {
				m.logger.Warn("message not sent", "error", e.Message)
			}
			m.refresh()
			return m, nil
		}
		m.refresh()
		return m, m.start(ex)

	case completedMsg:
		out, ok := m.conv.Complete(ev.exchange, ev.reply, ev.err)
		if !ok {
			m.logger.Debug("dropping stale completion", "exchange", ev.exchange.ID)
			return m, nil
		}
		if ev.err != nil {
			m.logger.Error("exchange failed", "exchange", ev.exchange.ID, "error", ev.err)
		} else {
			m.logger.Info("exchange completed", "exchange", ev.exchange.ID, "messages", m.conv.Len())
		}
		if m.notify != nil {
			m.notify(out)
		}

		next, ok := m.conv.Resume()
		m.refresh()
		if ok {
			return m, m.start(next)
		}
		return m, nil

	case bspinner.TickMsg:
		if !m.conv.Pending() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(ev)
		m.refresh()
		return m, cmd

	case tea.WindowSizeMsg:
		if ev.Width != m.viewport.Width {
			m.markdown = newMarkdownRenderer(ev.Width, m.style)
		}
		m.viewport.Width = ev.Width
		m.viewport.Height = ev.Height
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	return m.viewport.View()
}

func (m Model) start(ex Exchange) tea.Cmd {
	m.logger.Info("exchange started", "exchange", ex.ID, "messages", len(ex.Messages))
	return tea.Batch(m.request(ex), m.spinner.Tick)
}

func (m Model) request(ex Exchange) tea.Cmd {
	ctx, client, timeout := m.ctx, m.client, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		reply, err := client.Complete(ctx, ex.Credential, ex.Messages)
		return completedMsg{exchange: ex, reply: reply, err: err}
	}
}

// refresh re-renders the log into the viewport and scrolls to the newest
// entry when the log grew.
func (m *Model) refresh() {
	m.viewport.SetContent(m.render())
	if n := m.conv.Len(); n != m.shownLen {
		m.shownLen = n
		m.viewport.GotoBottom()
	}
}
