// Package util provides miscellaneous utility functions.
package util

import (
	"fmt"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// LogRecover helps ensure any unhandled errors are logged.
// Useful as a `defer` function immediately upon entering a goroutine.
func LogRecover() {
	r := recover()
	if r == nil {
		return
	}

	// wrap these because panics rarely carry a stacktrace of their own
	var err error
	switch v := r.(type) {
	case error:
		err = errors.Wrap(v, "recovered error")
	default:
		err = errors.Errorf("recovered: %v", v)
	}

	log.Error().Stack().Err(err).Msg("")
}

// BeNice lowers the priority of the running process so frame decoding doesn't
// compete with playback. Positive values are nicer.
func BeNice(priority int) error {
	if priority == 0 {
		return nil
	}

	err := syscall.Setpriority(syscall.PRIO_PROCESS, syscall.Getpid(), priority)
	if err != nil {
		return fmt.Errorf("unable to set nice level %d: %w", priority, err)
	}

	return nil
}
