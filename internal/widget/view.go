package widget

import (
	"strings"
	"time"

	"LLMChatbot/internal/chatlog"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

const (
	EmptyStateText = "Send a message to start chatting with ChatGPT."
	UserLabel      = "You"
	AssistantLabel = "ChatGPT"
)

var (
	emptyStyle     = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("246"))
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("118"))
	timeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// newMarkdownRenderer builds the reply renderer. An empty style detects the
// background of the process's own terminal.
func newMarkdownRenderer(width int, style string) *glamour.TermRenderer {
	wrap := width - 4
	if wrap < 20 {
		wrap = 20
	}
	styleOpt := glamour.WithAutoStyle()
	if style != "" {
		styleOpt = glamour.WithStandardStyle(style)
	}
	r, err := glamour.NewTermRenderer(
		styleOpt,
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return nil
	}
	return r
}

// timeLabel formats a timestamp in the local zone
func timeLabel(ts time.Time) string {
	return ts.Local().Format(time.Kitchen)
}

func (m Model) render() string {
	var b strings.Builder

	msgs := m.conv.Messages()
	if len(msgs) == 0 {
		b.WriteString(emptyStyle.Render(EmptyStateText))
		b.WriteString("\n")
	}

	for _, msg := range msgs {
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}

	switch st := m.conv.State().(type) {
	case Sending:
		b.WriteString(assistantStyle.Render(AssistantLabel))
		b.WriteString("\n")
		b.WriteString(m.spinner.View())
		b.WriteString("\n")
	case Errored:
		b.WriteString(errorStyle.Render("Error: " + st.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) renderMessage(msg chatlog.Message) string {
	label, style := UserLabel, userStyle
	body := msg.Content
	if msg.Role == chatlog.RoleAssistant {
		label, style = AssistantLabel, assistantStyle
		body = m.renderMarkdown(msg.Content)
	}
	header := style.Render(label) + " " + timeStyle.Render(timeLabel(msg.Timestamp))
	return header + "\n" + body
}

func (m Model) renderMarkdown(content string) string {
	if m.markdown == nil {
		return content
	}
	out, err := m.markdown.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}
