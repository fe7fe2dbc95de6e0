package timer

import (
	"math"
	"time"
)

// Options wires the engine to its collaborators. Nil fields are replaced by
// no-op implementations and the wall clock.
type Options struct {
	AutoStart bool
	Now       func() time.Time
	Scheduler Scheduler
	Sink      SessionSink
	Signals   Signals
}

// Engine is the interval state machine. It is owned by a single goroutine
// and performs no locking.
type Engine struct {
	cfg       Config
	autoStart bool

	phase        Phase
	remaining    time.Duration
	running      bool
	cycleCount   int
	deadline     time.Time
	sessionStart *time.Time

	now       func() time.Time
	scheduler Scheduler
	sink      SessionSink
	signals   Signals
}

func New(cfg Config, opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = wallClock
	}
	if opts.Scheduler == nil {
		opts.Scheduler = noopScheduler{}
	}

	e := &Engine{
		cfg:       DefaultConfig().merge(cfg),
		autoStart: opts.AutoStart,
		phase:     PhaseWork,
		now:       opts.Now,
		scheduler: opts.Scheduler,
		sink:      opts.Sink,
		signals:   opts.Signals,
	}
	e.remaining = e.cfg.phaseLength(PhaseWork)
	return e
}

func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) AutoStart() bool {
	return e.autoStart
}

func (e *Engine) SetAutoStart(enabled bool) {
	e.autoStart = enabled
}

// State returns the current snapshot, recomputing the remaining time from
// the deadline when running.
func (e *Engine) State() State {
	remaining := ceilSeconds(e.remaining)
	if e.running && !e.deadline.IsZero() {
		remaining = remainingUntil(e.deadline, e.now())
	}
	return State{
		Phase:            e.phase,
		SecondsRemaining: remaining,
		Running:          e.running,
		CycleCount:       e.cycleCount,
	}
}

func (e *Engine) Start() {
	if e.running {
		return
	}

	now := e.now()
	if e.phase == PhaseWork && e.sessionStart == nil {
		e.sessionStart = &now
	}
	if e.deadline.IsZero() {
		e.deadline = now.Add(e.remaining)
	}
	e.running = true
	e.scheduler.Start(e.deadline)
}

func (e *Engine) Pause() {
	if !e.running {
		return
	}

	now := e.now()
	if e.Tick(now) && !e.running {
		return
	}
	e.remaining = e.deadline.Sub(now)
	e.deadline = time.Time{}
	e.running = false
	e.scheduler.Pause()
}

// AutoPause is the idle hook: it only ever stops a running work phase.
func (e *Engine) AutoPause() bool {
	if !e.running || e.phase != PhaseWork {
		return false
	}
	e.Pause()
	return !e.running
}

func (e *Engine) Reset() {
	e.running = false
	e.phase = PhaseWork
	e.remaining = e.cfg.phaseLength(PhaseWork)
	e.cycleCount = 0
	e.sessionStart = nil
	e.deadline = time.Time{}
	e.scheduler.Stop()
}

// Skip ends the current phase immediately. No session is reported and no
// end-of-phase signal fires.
func (e *Engine) Skip() {
	e.advance(e.now(), false)
}

// Resync re-sends the current deadline to the clock source, e.g. after the
// host resumed from suspend.
func (e *Engine) Resync() {
	if e.running && !e.deadline.IsZero() {
		e.scheduler.Resync(e.deadline)
	}
}

// UpdateConfig applies every valid field of cfg. It is rejected while
// running. If the current phase's duration changed, the remaining time is
// reloaded to the new full duration and a pending work session restarts.
func (e *Engine) UpdateConfig(cfg Config) error {
	if e.running {
		return ErrRunning
	}

	before := e.cfg.Duration(e.phase)
	e.cfg = e.cfg.merge(cfg)
	if e.cycleCount >= e.cfg.CyclesBeforeLongBreak {
		e.cycleCount = e.cfg.CyclesBeforeLongBreak - 1
	}
	if after := e.cfg.Duration(e.phase); after != before {
		e.remaining = e.cfg.phaseLength(e.phase)
		e.deadline = time.Time{}
		e.sessionStart = nil
	}
	return nil
}

// Tick recomputes the remaining time at now and fires the phase transition
// when the deadline has passed. It reports whether a transition fired.
func (e *Engine) Tick(now time.Time) bool {
	if !e.running || e.deadline.IsZero() {
		return false
	}
	e.remaining = e.deadline.Sub(now)
	if e.remaining > 0 {
		return false
	}
	e.advance(now, true)
	return true
}

// HandleEvent applies a clock source event. Events computed against a
// deadline other than the current one are stale and ignored.
func (e *Engine) HandleEvent(ev Event) bool {
	if !e.running || !ev.Deadline.Equal(e.deadline) {
		return false
	}
	return e.Tick(ev.At)
}

func (e *Engine) advance(now time.Time, natural bool) {
	wasRunning := e.running
	ended := e.phase

	if ended == PhaseWork {
		if natural && e.sessionStart != nil && e.sink != nil {
			e.sink.SessionCompleted(CompletedSession{
				StartedAt:       *e.sessionStart,
				EndedAt:         now,
				DurationSeconds: int(math.Round(now.Sub(*e.sessionStart).Seconds())),
			})
		}
		e.sessionStart = nil

		if e.cycleCount+1 >= e.cfg.CyclesBeforeLongBreak {
			e.phase = PhaseLongBreak
			e.cycleCount = 0
		} else {
			e.phase = PhaseBreak
			e.cycleCount++
		}
	} else {
		e.phase = PhaseWork
	}

	if natural && e.signals != nil {
		e.signals.PhaseEnded(ended, e.phase)
	}

	e.remaining = e.cfg.phaseLength(e.phase)
	e.deadline = time.Time{}
	e.running = false

	if e.autoStart && wasRunning {
		if e.phase == PhaseWork {
			start := now
			e.sessionStart = &start
		}
		e.deadline = now.Add(e.remaining)
		e.running = true
		e.scheduler.Start(e.deadline)
		return
	}
	e.scheduler.Stop()
}
