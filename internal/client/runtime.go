package client

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"pomodoro/internal/idle"
	"pomodoro/internal/model"
	"pomodoro/internal/timer"
)

type Command int

const (
	CommandStart Command = iota
	CommandPause
	CommandToggle
	CommandSkip
	CommandReset
	CommandToggleAutoStart
	CommandQuit
)

// Status is what the runtime renders after every change.
type Status struct {
	State     timer.State
	Config    timer.Config
	AutoStart bool
	Online    bool
	Progress  *model.ProgressView
	Notice    string
}

type RuntimeOptions struct {
	AutoStart    bool
	TickInterval time.Duration
	Idle         idle.Checker
	// IdlePoll is how often the idle checker runs during work.
	IdlePoll time.Duration
	Signals  timer.Signals
	Render   func(Status)
	Logger   *slog.Logger
}

// Runtime owns the engine. All engine calls happen on the goroutine
// running Run.
type Runtime struct {
	engine   *timer.Engine
	clock    *timer.ClockSource
	syncer   *Syncer
	logger   *slog.Logger
	idle     idle.Checker
	idlePoll time.Duration
	render   func(Status)

	commands chan Command
	done     chan struct{}

	progress      *model.ProgressView
	online        bool
	notice        string
	pendingConfig *timer.Config
}

// NewRuntime builds the engine from the cached settings, falling back to
// defaults when the cache is empty.
func NewRuntime(syncer *Syncer, cache *Cache, opts RuntimeOptions) *Runtime {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.IdlePoll <= 0 {
		opts.IdlePoll = 5 * time.Second
	}
	if opts.Render == nil {
		opts.Render = func(Status) {}
	}

	cfg := timer.DefaultConfig()
	cached, err := cache.Load()
	if err != nil {
		opts.Logger.Warn("load cache", "path", cache.Path(), "error", err)
	}
	if cached.Settings != nil {
		cfg = ConfigFromSettings(*cached.Settings)
	}

	clock := timer.NewClockSource(opts.TickInterval)
	engine := timer.New(cfg, timer.Options{
		AutoStart: opts.AutoStart,
		Scheduler: clock,
		Sink:      syncer,
		Signals:   opts.Signals,
	})

	return &Runtime{
		engine:   engine,
		clock:    clock,
		syncer:   syncer,
		logger:   opts.Logger,
		idle:     opts.Idle,
		idlePoll: opts.IdlePoll,
		render:   opts.Render,
		commands: make(chan Command, 8),
		done:     make(chan struct{}),
		progress: cached.Progress,
	}
}

// ConfigFromSettings converts ledger settings into engine durations.
func ConfigFromSettings(settings model.Settings) timer.Config {
	return timer.Config{
		WorkSeconds:           settings.WorkSeconds,
		BreakSeconds:          settings.BreakSeconds,
		LongBreakSeconds:      settings.LongBreakSeconds,
		CyclesBeforeLongBreak: settings.CyclesBeforeLongBreak,
	}
}

// Send queues a command. It returns false once the runtime has stopped.
func (r *Runtime) Send(cmd Command) bool {
	select {
	case r.commands <- cmd:
		return true
	case <-r.done:
		return false
	}
}

// Run drives the engine until ctx is cancelled or CommandQuit arrives.
func (r *Runtime) Run(ctx context.Context) error {
	defer close(r.done)

	var wg sync.WaitGroup
	defer wg.Wait()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wg.Add(1)
	go func() {
		defer wg.Done()
		r.clock.Run(ctx)
	}()

	if err := r.syncer.Start(ctx); err != nil {
		return err
	}
	defer r.syncer.Stop()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := r.syncer.Refresh(ctx); err != nil {
			r.logger.Info("ledger unreachable at startup, using cached settings", "error", err)
		}
	}()

	poll := time.NewTicker(r.idlePoll)
	defer poll.Stop()
	lastPoll := time.Now().Round(0)

	r.emit()
	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-r.commands:
			if cmd == CommandQuit {
				return nil
			}
			r.apply(cmd)
		case ev := <-r.clock.Events():
			r.engine.HandleEvent(ev)
		case update := <-r.syncer.Updates():
			r.applyUpdate(update)
		case at := <-poll.C:
			now := at.Round(0)
			if now.Sub(lastPoll) > 2*r.idlePoll {
				r.engine.Resync()
			}
			lastPoll = now
			r.checkIdle()
		}
		r.applyPendingConfig()
		r.emit()
	}
}

func (r *Runtime) apply(cmd Command) {
	r.notice = ""
	switch cmd {
	case CommandStart:
		r.engine.Start()
	case CommandPause:
		r.engine.Pause()
	case CommandToggle:
		if r.engine.State().Running {
			r.engine.Pause()
		} else {
			r.engine.Start()
		}
	case CommandSkip:
		r.engine.Skip()
	case CommandReset:
		r.engine.Reset()
	case CommandToggleAutoStart:
		r.engine.SetAutoStart(!r.engine.AutoStart())
	}
}

func (r *Runtime) applyUpdate(update Update) {
	r.online = update.Online
	if update.Progress != nil {
		r.progress = update.Progress
	}
	if update.Settings != nil {
		cfg := ConfigFromSettings(*update.Settings)
		r.pendingConfig = &cfg
	}
}

func (r *Runtime) applyPendingConfig() {
	if r.pendingConfig == nil {
		return
	}
	err := r.engine.UpdateConfig(*r.pendingConfig)
	if errors.Is(err, timer.ErrRunning) {
		return
	}
	r.pendingConfig = nil
}

func (r *Runtime) checkIdle() {
	state := r.engine.State()
	if !state.Running || state.Phase != timer.PhaseWork {
		return
	}
	away, err := r.idle.Idle()
	if err != nil {
		r.logger.Debug("idle check", "error", err)
		return
	}
	if away && r.engine.AutoPause() {
		r.notice = "Paused: you seem to be away"
	}
}

func (r *Runtime) emit() {
	r.render(Status{
		State:     r.engine.State(),
		Config:    r.engine.Config(),
		AutoStart: r.engine.AutoStart(),
		Online:    r.online,
		Progress:  r.progress,
		Notice:    r.notice,
	})
}
