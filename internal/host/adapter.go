package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"LLMChatbot/internal/widget"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

// Lifecycle is the contract a host platform drives a widget through
type Lifecycle interface {
	// Start captures the initial configuration and mounts the widget.
	// notify is called with every text the widget emits.
	Start(ctx context.Context, cfg widget.Config, notify widget.Notifier) error

	// OnConfigUpdate hands the widget the host's current configuration
	OnConfigUpdate(cfg widget.Config)

	// ReadOutput returns the most recently emitted response text, or ""
	ReadOutput() string

	// Stop unmounts the widget and cancels any request in flight
	Stop() error
}

// Options configures an Adapter
type Options struct {
	// Mount receives the rendered widget. Nil runs the widget headless.
	Mount   io.Writer
	Timeout time.Duration
	Logger  *slog.Logger
	Width   int
	Height  int
}

// Adapter runs a chat widget inside a bubbletea program on behalf of a host
type Adapter struct {
	id     string
	client widget.Completer
	opts   Options
	logger *slog.Logger

	mu      sync.Mutex
	program *tea.Program
	cancel  context.CancelFunc
	done    chan struct{}
	runErr  error
	output  string
	notify  widget.Notifier
}

var _ Lifecycle = (*Adapter)(nil)

// NewAdapter creates an unmounted adapter that sends completions through client
func NewAdapter(client widget.Completer, opts Options) *Adapter {
	id := uuid.NewString()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		id:     id,
		client: client,
		opts:   opts,
		logger: logger.With("widget_id", id),
	}
}

// ID returns the adapter's instance identifier
func (a *Adapter) ID() string {
	return a.id
}

func (a *Adapter) Start(ctx context.Context, cfg widget.Config, notify widget.Notifier) error {
	a.mu.Lock()
	if a.program != nil {
		a.mu.Unlock()
		return fmt.Errorf("widget %s already started", a.id)
	}

	ctx, cancel := context.WithCancel(ctx)
	model := widget.New(ctx, a.client, widget.Options{
		Timeout:       a.opts.Timeout,
		Logger:        a.logger,
		Notify:        a.onOutput,
		Width:         a.opts.Width,
		Height:        a.opts.Height,
		MarkdownStyle: a.markdownStyle(),
	})

	popts := []tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	}
	if a.opts.Mount != nil {
		popts = append(popts, tea.WithOutput(a.opts.Mount))
	} else {
		popts = append(popts, tea.WithOutput(io.Discard), tea.WithoutRenderer())
	}

	p := tea.NewProgram(model, popts...)
	done := make(chan struct{})

	a.program = p
	a.cancel = cancel
	a.done = done
	a.notify = notify
	a.mu.Unlock()

	go func() {
		defer close(done)
		_, err := p.Run()
		if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			a.mu.Lock()
			a.runErr = err
			a.mu.Unlock()
			a.logger.Error("widget program exited", "error", err)
		}
	}()

	a.logger.Info("widget mounted", "headless", a.opts.Mount == nil)
	p.Send(widget.ConfigMsg(cfg))
	return nil
}

// markdownStyle never probes the terminal: the mount is not the process's own.
func (a *Adapter) markdownStyle() string {
	if a.opts.Mount == nil {
		return "notty"
	}
	return "dark"
}

func (a *Adapter) OnConfigUpdate(cfg widget.Config) {
	a.mu.Lock()
	p := a.program
	a.mu.Unlock()

	if p == nil {
		a.logger.Warn("configuration update before start ignored")
		return
	}
	p.Send(widget.ConfigMsg(cfg))
}

func (a *Adapter) ReadOutput() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.output
}

func (a *Adapter) Stop() error {
	a.mu.Lock()
	p, cancel, done := a.program, a.cancel, a.done
	a.program = nil
	a.mu.Unlock()

	if p == nil {
		return nil
	}

	p.Quit()
	cancel()
	<-done

	a.mu.Lock()
	err := a.runErr
	a.mu.Unlock()

	a.logger.Info("widget unmounted")
	return err
}

func (a *Adapter) onOutput(text string) {
	a.mu.Lock()
	a.output = text
	notify := a.notify
	a.mu.Unlock()

	if notify != nil {
		notify(text)
	}
}
