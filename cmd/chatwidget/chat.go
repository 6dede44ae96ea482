package main

import (
	"fmt"
	"os"

	"LLMChatbot/internal/widget"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

// consoleModel plays the host in a terminal: the text input stands in for the
// host's input property and every submission is delivered as a config update.
type consoleModel struct {
	credential string
	input      textinput.Model
	widget     tea.Model
}

func newConsoleModel(credential string, w widget.Model) consoleModel {
	ti := textinput.New()
	ti.Placeholder = "Type a message and press Enter"
	ti.Focus()
	return consoleModel{
		credential: credential,
		input:      ti,
		widget:     w,
	}
}

func (m consoleModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.widget.Init())
}

func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch ev := msg.(type) {
	case tea.KeyMsg:
		switch ev.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			text := m.input.Value()
			m.input.Reset()
			var cmd tea.Cmd
			m.widget, cmd = m.widget.Update(widget.ConfigMsg{Credential: m.credential, Input: text})
			return m, cmd
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.input.Width = ev.Width - 4
		var cmd tea.Cmd
		m.widget, cmd = m.widget.Update(tea.WindowSizeMsg{Width: ev.Width, Height: ev.Height - 3})
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.widget, cmd = m.widget.Update(msg)
	cmds = append(cmds, cmd)
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m consoleModel) View() string {
	return m.widget.View() + "\n" + m.input.View() + "\n" + statusStyle.Render("esc to quit")
}

func newChatCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Run the widget in the terminal, acting as its host",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
				return fmt.Errorf("chat needs an interactive terminal; use serve for remote hosts")
			}

			w := widget.New(cmd.Context(), a.client, widget.Options{
				Timeout: a.cfg.Timeout,
				Logger:  a.logger,
				Notify: func(text string) {
					a.logger.Info("output emitted", "length", len(text))
				},
			})

			p := tea.NewProgram(newConsoleModel(a.cfg.Credential, w), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("chat exited: %w", err)
			}
			return nil
		},
	}
}
