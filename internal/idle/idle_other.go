//go:build !linux

package idle

import "time"

type unsupported struct{}

func newProvider() Provider {
	return unsupported{}
}

func (unsupported) IdleDuration() (time.Duration, error) {
	return 0, ErrUnsupported
}
