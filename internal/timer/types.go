// Package timer implements the focus interval engine: a work / break / long
// break state machine counting down against absolute deadlines, and the
// background clock source that feeds it.
package timer

import (
	"errors"
	"time"
)

// ErrRunning is returned when the configuration is changed while the engine
// is counting down.
var ErrRunning = errors.New("timer is running")

type Phase string

const (
	PhaseWork      Phase = "work"
	PhaseBreak     Phase = "break"
	PhaseLongBreak Phase = "long_break"
)

func (p Phase) String() string {
	switch p {
	case PhaseBreak:
		return "Break"
	case PhaseLongBreak:
		return "Long break"
	default:
		return "Work"
	}
}

// Config holds phase durations in seconds.
type Config struct {
	WorkSeconds           int `json:"work_seconds" yaml:"work_seconds"`
	BreakSeconds          int `json:"break_seconds" yaml:"break_seconds"`
	LongBreakSeconds      int `json:"long_break_seconds" yaml:"long_break_seconds"`
	CyclesBeforeLongBreak int `json:"cycles_before_long_break" yaml:"cycles_before_long_break"`
}

func DefaultConfig() Config {
	return Config{
		WorkSeconds:           25 * 60,
		BreakSeconds:          5 * 60,
		LongBreakSeconds:      15 * 60,
		CyclesBeforeLongBreak: 4,
	}
}

// Duration returns the configured length of phase p in seconds.
func (c Config) Duration(p Phase) int {
	switch p {
	case PhaseBreak:
		return c.BreakSeconds
	case PhaseLongBreak:
		return c.LongBreakSeconds
	default:
		return c.WorkSeconds
	}
}

func (c Config) phaseLength(p Phase) time.Duration {
	return time.Duration(c.Duration(p)) * time.Second
}

// merge applies every valid field of next onto c.
func (c Config) merge(next Config) Config {
	if next.WorkSeconds > 0 {
		c.WorkSeconds = next.WorkSeconds
	}
	if next.BreakSeconds > 0 {
		c.BreakSeconds = next.BreakSeconds
	}
	if next.LongBreakSeconds > 0 {
		c.LongBreakSeconds = next.LongBreakSeconds
	}
	if next.CyclesBeforeLongBreak > 1 {
		c.CyclesBeforeLongBreak = next.CyclesBeforeLongBreak
	}
	return c
}

// State is a snapshot of the engine.
type State struct {
	Phase            Phase `json:"phase"`
	SecondsRemaining int   `json:"seconds_remaining"`
	Running          bool  `json:"running"`
	CycleCount       int   `json:"cycle_count"`
}

// CompletedSession describes a work phase that ran to its deadline.
type CompletedSession struct {
	StartedAt       time.Time
	EndedAt         time.Time
	DurationSeconds int
}

// Scheduler is the command side of the background clock.
type Scheduler interface {
	Start(deadline time.Time)
	Pause()
	Resync(deadline time.Time)
	Stop()
}

// SessionSink receives completed work sessions. Implementations must not
// block; the engine never waits on the ledger.
type SessionSink interface {
	SessionCompleted(session CompletedSession)
}

// Signals observes phases that end on their own. Skips are not reported.
type Signals interface {
	PhaseEnded(ended, next Phase)
}

type noopScheduler struct{}

func (noopScheduler) Start(time.Time)  {}
func (noopScheduler) Pause()           {}
func (noopScheduler) Resync(time.Time) {}
func (noopScheduler) Stop()            {}

// wallClock drops the monotonic reading so deadlines follow the wall clock
// across host suspends.
func wallClock() time.Time {
	return time.Now().Round(0)
}

// remainingUntil is the whole seconds left before deadline, rounded up.
func remainingUntil(deadline, now time.Time) int {
	return ceilSeconds(deadline.Sub(now))
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
