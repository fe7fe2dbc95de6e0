package idle

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

type xprintidle struct {
	path string
}

type unsupported struct{}

func newProvider() Provider {
	path, err := exec.LookPath("xprintidle")
	if err != nil {
		return unsupported{}
	}
	return xprintidle{path: path}
}

func (p xprintidle) IdleDuration() (time.Duration, error) {
	out, err := exec.Command(p.path).Output()
	if err != nil {
		return 0, fmt.Errorf("xprintidle: %w", err)
	}
	return parseMillis(string(out))
}

func (unsupported) IdleDuration() (time.Duration, error) {
	return 0, ErrUnsupported
}

func parseMillis(raw string) (time.Duration, error) {
	millis, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse idle milliseconds: %w", err)
	}
	if millis < 0 {
		millis = 0
	}
	return time.Duration(millis) * time.Millisecond, nil
}
