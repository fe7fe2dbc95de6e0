package timer

import (
	"context"
	"sync"
	"time"
)

// DefaultTickInterval is how often the clock source reports remaining time
// while armed.
const DefaultTickInterval = 500 * time.Millisecond

type CommandKind int

const (
	CommandStart CommandKind = iota
	CommandPause
	CommandResync
	CommandStop
)

// Command is sent from the engine to the clock source.
type Command struct {
	Kind     CommandKind
	Deadline time.Time
}

type EventKind int

const (
	EventTick EventKind = iota
	EventDone
)

// Event is sent from the clock source back to the engine. Deadline is the
// deadline the event was computed against.
type Event struct {
	Kind      EventKind
	Remaining int
	Deadline  time.Time
	At        time.Time
}

// ClockSource counts down to an absolute deadline on its own goroutine and
// reports progress as events. Commands never block the caller; they are
// queued and applied in order.
type ClockSource struct {
	interval time.Duration
	now      func() time.Time
	events   chan Event
	wake     chan struct{}

	mu      sync.Mutex
	pending []Command
}

func NewClockSource(interval time.Duration) *ClockSource {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &ClockSource{
		interval: interval,
		now:      wallClock,
		events:   make(chan Event, 16),
		wake:     make(chan struct{}, 1),
	}
}

func (c *ClockSource) Events() <-chan Event {
	return c.events
}

func (c *ClockSource) Start(deadline time.Time) {
	c.send(Command{Kind: CommandStart, Deadline: deadline})
}

func (c *ClockSource) Pause() {
	c.send(Command{Kind: CommandPause})
}

func (c *ClockSource) Resync(deadline time.Time) {
	c.send(Command{Kind: CommandResync, Deadline: deadline})
}

func (c *ClockSource) Stop() {
	c.send(Command{Kind: CommandStop})
}

func (c *ClockSource) send(cmd Command) {
	c.mu.Lock()
	c.pending = append(c.pending, cmd)
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *ClockSource) drain() []Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	cmds := c.pending
	c.pending = nil
	return cmds
}

// Run processes commands until ctx is cancelled.
func (c *ClockSource) Run(ctx context.Context) {
	var (
		ticker   *time.Ticker
		tickC    <-chan time.Time
		deadline time.Time
	)
	arm := func() {
		if ticker == nil {
			ticker = time.NewTicker(c.interval)
			tickC = ticker.C
		}
	}
	disarm := func() {
		if ticker != nil {
			ticker.Stop()
			ticker = nil
			tickC = nil
		}
	}
	defer disarm()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.wake:
			for _, cmd := range c.drain() {
				switch cmd.Kind {
				case CommandStart:
					disarm()
					deadline = cmd.Deadline
					if deadline.IsZero() {
						continue
					}
					if c.emit(ctx, deadline) {
						deadline = time.Time{}
						continue
					}
					arm()
				case CommandPause:
					disarm()
				case CommandResync:
					deadline = cmd.Deadline
				case CommandStop:
					disarm()
					deadline = time.Time{}
				}
			}
		case <-tickC:
			if c.emit(ctx, deadline) {
				disarm()
				deadline = time.Time{}
			}
		}
	}
}

// emit reports the remaining time and, once the deadline has passed, a
// done event. It reports whether the deadline was reached.
func (c *ClockSource) emit(ctx context.Context, deadline time.Time) bool {
	now := c.now()
	remaining := remainingUntil(deadline, now)

	// Ticks are advisory and dropped when the consumer lags.
	select {
	case c.events <- Event{Kind: EventTick, Remaining: remaining, Deadline: deadline, At: now}:
	default:
	}
	if remaining > 0 {
		return false
	}

	select {
	case c.events <- Event{Kind: EventDone, Deadline: deadline, At: now}:
	case <-ctx.Done():
	}
	return true
}
