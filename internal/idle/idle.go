// Package idle reports how long the desktop user has been away from the
// keyboard and mouse.
package idle

import (
	"errors"
	"time"
)

// ErrUnsupported is returned when idle time cannot be measured on this host.
var ErrUnsupported = errors.New("idle detection unsupported")

// Provider returns the time since the last user input.
type Provider interface {
	IdleDuration() (time.Duration, error)
}

// NewProvider returns the provider for the current platform.
func NewProvider() Provider {
	return newProvider()
}

// Checker decides whether the user has been idle for longer than Threshold.
type Checker struct {
	Provider  Provider
	Threshold time.Duration
}

// Idle reports whether the idle duration exceeds the threshold. A disabled
// checker or an unsupported provider is never idle.
func (c Checker) Idle() (bool, error) {
	if c.Provider == nil || c.Threshold <= 0 {
		return false, nil
	}
	away, err := c.Provider.IdleDuration()
	if err != nil {
		if errors.Is(err, ErrUnsupported) {
			return false, nil
		}
		return false, err
	}
	return away >= c.Threshold, nil
}
