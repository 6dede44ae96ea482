package widget

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"LLMChatbot/internal/backend"
	"LLMChatbot/internal/chatlog"

	bspinner "github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	mu    sync.Mutex
	calls [][]chatlog.WireMessage
	reply string
	err   error
	block bool
}

func (f *fakeCompleter) Complete(ctx context.Context, credential string, messages []chatlog.WireMessage) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, messages)
	block, reply, err := f.block, f.reply, f.err
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return reply, err
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// runCmd executes cmd and any batched commands, returning the produced messages.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// step feeds msg to the model and then every completion its commands produce.
func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	for _, out := range runCmd(cmd) {
		if _, ok := out.(completedMsg); ok {
			m = step(t, m, out)
		}
	}
	return m
}

type outputs struct {
	mu   sync.Mutex
	seen []string
}

func (o *outputs) notify(text string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = append(o.seen, text)
}

func TestModel_SuccessfulExchange(t *testing.T) {
	fc := &fakeCompleter{reply: "Hi there!"}
	var out outputs
	m := New(context.Background(), fc, Options{Notify: out.notify})

	assert.Contains(t, m.View(), EmptyStateText)

	m = step(t, m, ConfigMsg{Credential: "sk-test", Input: "Hello"})

	assert.Equal(t, 1, fc.callCount())
	assert.Equal(t, []string{"Hi there!"}, out.seen)
	assert.Equal(t, Idle{}, m.Conversation().State())

	view := m.View()
	assert.NotContains(t, view, EmptyStateText)
	assert.Contains(t, view, UserLabel)
	assert.Contains(t, view, "Hello")
	assert.Contains(t, view, AssistantLabel)
	assert.Contains(t, view, "Hi there!")
}

func TestModel_UnauthorizedAgainstServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("unauthorized"))
	}))
	defer srv.Close()

	var out outputs
	m := New(context.Background(), backend.NewClient(srv.URL, "gpt-4o-mini"), Options{Notify: out.notify})
	m = step(t, m, ConfigMsg{Credential: "sk-test", Input: "Hello"})

	assert.Equal(t, []string{FallbackReply}, out.seen)
	msgs := m.Conversation().Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, chatlog.RoleUser, msgs[0].Role)

	st, ok := m.Conversation().State().(Errored)
	require.True(t, ok)
	assert.Contains(t, st.Message, "401")
	assert.Contains(t, st.Message, "unauthorized")
	assert.Contains(t, m.View(), "Error: API Error (401): unauthorized")
}

func TestModel_MissingCredentialMakesNoCall(t *testing.T) {
	fc := &fakeCompleter{reply: "never"}
	var out outputs
	m := New(context.Background(), fc, Options{Notify: out.notify})

	next, cmd := m.Update(ConfigMsg{Credential: "", Input: "Hello"})
	m = next.(Model)

	assert.Nil(t, cmd)
	assert.Equal(t, 0, fc.callCount())
	assert.Empty(t, out.seen)
	assert.Contains(t, m.View(), (&ConfigurationError{}).Error())
}

func TestModel_RepeatedNotificationIsIdempotent(t *testing.T) {
	fc := &fakeCompleter{reply: "Hi"}
	m := New(context.Background(), fc, Options{})

	cfg := ConfigMsg{Credential: "sk-test", Input: "Hello"}
	m = step(t, m, cfg)
	m = step(t, m, cfg)
	m = step(t, m, cfg)

	assert.Equal(t, 1, fc.callCount())
	assert.Equal(t, 2, m.Conversation().Len())
}

func TestModel_ShowsTypingIndicatorWhileSending(t *testing.T) {
	fc := &fakeCompleter{reply: "Hi"}
	m := New(context.Background(), fc, Options{})

	next, cmd := m.Update(ConfigMsg{Credential: "sk-test", Input: "Hello"})
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.Conversation().Pending())
	assert.Contains(t, m.View(), AssistantLabel)

	var completion tea.Msg
	var tick tea.Msg
	for _, msg := range runCmd(cmd) {
		switch msg.(type) {
		case completedMsg:
			completion = msg
		case bspinner.TickMsg:
			tick = msg
		}
	}
	require.NotNil(t, completion)
	require.NotNil(t, tick)

	_, tickCmd := m.Update(tick)
	assert.NotNil(t, tickCmd, "spinner keeps ticking while sending")

	next, _ = m.Update(completion)
	m = next.(Model)
	_, tickCmd = m.Update(tick)
	assert.Nil(t, tickCmd, "spinner stops once idle")
}

func TestModel_InputWhileSendingIsSentAfterwards(t *testing.T) {
	fc := &fakeCompleter{reply: "ok"}
	var out outputs
	m := New(context.Background(), fc, Options{Notify: out.notify})

	next, firstCmd := m.Update(ConfigMsg{Credential: "sk-test", Input: "one"})
	m = next.(Model)

	next, cmd := m.Update(ConfigMsg{Credential: "sk-test", Input: "two"})
	m = next.(Model)
	assert.Nil(t, cmd)

	for _, msg := range runCmd(firstCmd) {
		if _, ok := msg.(completedMsg); ok {
			m = step(t, m, msg)
		}
	}

	assert.Equal(t, 2, fc.callCount())
	assert.Equal(t, []string{"ok", "ok"}, out.seen)
	assert.Equal(t, 4, m.Conversation().Len())
}

func TestModel_RequestTimesOut(t *testing.T) {
	fc := &fakeCompleter{block: true}
	var out outputs
	m := New(context.Background(), fc, Options{Notify: out.notify, Timeout: 20 * time.Millisecond})

	m = step(t, m, ConfigMsg{Credential: "sk-test", Input: "Hello"})

	st, ok := m.Conversation().State().(Errored)
	require.True(t, ok)
	assert.True(t, errors.Is(st.Err, context.DeadlineExceeded))
	assert.Equal(t, []string{FallbackReply}, out.seen)
}

func TestModel_CancelledContextAbortsRequest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fc := &fakeCompleter{block: true}
	m := New(ctx, fc, Options{})
	m = step(t, m, ConfigMsg{Credential: "sk-test", Input: "Hello"})

	st, ok := m.Conversation().State().(Errored)
	require.True(t, ok)
	assert.True(t, errors.Is(st.Err, context.Canceled))
}

func TestModel_WindowResize(t *testing.T) {
	m := New(context.Background(), &fakeCompleter{}, Options{})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 40, Height: 5})
	m = next.(Model)
	assert.Contains(t, m.View(), "Send a message")
}

func TestModel_FixedMarkdownStyle(t *testing.T) {
	fc := &fakeCompleter{reply: "Use **go test** to run it."}
	m := New(context.Background(), fc, Options{MarkdownStyle: "notty", Width: 60})
	require.NotNil(t, m.markdown)

	m = step(t, m, ConfigMsg{Credential: "sk-test", Input: "How?"})
	assert.Contains(t, m.View(), "go test")

	next, _ := m.Update(tea.WindowSizeMsg{Width: 60, Height: 10})
	assert.Same(t, m.markdown, next.(Model).markdown)

	next, _ = m.Update(tea.WindowSizeMsg{Width: 50, Height: 10})
	resized := next.(Model)
	require.NotNil(t, resized.markdown)
	assert.NotSame(t, m.markdown, resized.markdown)
	assert.Equal(t, "notty", resized.style)
}

func TestModel_ResubmitAfterReplySendsAgain(t *testing.T) {
	fc := &fakeCompleter{reply: "Hi"}
	var out outputs
	m := New(context.Background(), fc, Options{Notify: out.notify})

	m = step(t, m, ConfigMsg{Credential: "sk-test", Input: "Hello"})
	m = step(t, m, ConfigMsg{Credential: "sk-test", Input: ""})
	m = step(t, m, ConfigMsg{Credential: "sk-test", Input: "Hello"})

	assert.Equal(t, 2, fc.callCount())
	assert.Equal(t, 4, m.Conversation().Len())
	assert.Equal(t, []string{"Hi", "Hi"}, out.seen)
}
