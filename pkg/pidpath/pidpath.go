// Package pidpath manages a PID file denoting that a server process is already
// running.
package pidpath

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync"
	"syscall"
)

// UnknownPID indicates the PID file does not name a running process.
const UnknownPID = -1

// ErrRunning is returned by Check when another live process holds the file.
var ErrRunning = errors.New("another process is already running")

// PidPath is the type for managing a PID file.
type PidPath struct {
	pathname string
	perm     fs.FileMode

	mutex sync.Mutex
	owned bool
}

func New(pathname string, perm fs.FileMode) *PidPath {
	return &PidPath{pathname: pathname, perm: perm}
}

func (pp *PidPath) String() string {
	pid := pp.Getpid()
	if pid == os.Getpid() {
		return fmt.Sprintf("%s ours=%d", pp.pathname, pid)
	}
	return fmt.Sprintf("%s other=%d", pp.pathname, pid)
}

// Path is the location of the PID file.
func (pp *PidPath) Path() string {
	return pp.pathname
}

// CheckAndSet claims the file for this process unless another live process
// already holds it.
func (pp *PidPath) CheckAndSet() error {
	pp.mutex.Lock()
	defer pp.mutex.Unlock()

	_, err := pp.read()
	if err != nil {
		return err
	}

	err = os.WriteFile(pp.pathname, []byte(strconv.Itoa(os.Getpid())), pp.perm)
	if err != nil {
		return fmt.Errorf("unable to write to %s: %w", pp.pathname, err)
	}

	// only declared ours once the write succeeds
	pp.owned = true
	return nil
}

// Check returns nil when no other live process holds the file.
func (pp *PidPath) Check() error {
	pp.mutex.Lock()
	defer pp.mutex.Unlock()

	_, err := pp.read()
	return err
}

// IsRunning reports whether the file names a live process (this one included).
func (pp *PidPath) IsRunning() bool {
	return pp.Getpid() != UnknownPID
}

// Getpid retrieves the live process ID from the file.
func (pp *PidPath) Getpid() int {
	pp.mutex.Lock()
	defer pp.mutex.Unlock()

	pid, err := pp.read()
	if err != nil && !errors.Is(err, ErrRunning) {
		return UnknownPID
	}
	return pid
}

// Release removes the file if this process claimed it. It is safe to call when
// another process owns it: the file is left alone.
func (pp *PidPath) Release() error {
	pp.mutex.Lock()
	defer pp.mutex.Unlock()

	if !pp.owned {
		return nil
	}

	pp.owned = false
	err := os.Remove(pp.pathname)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

//--------------------------------------------------------------------------------
// private

// read returns the live PID in the file, UnknownPID when there is none, and
// ErrRunning when it belongs to some other process.
func (pp *PidPath) read() (int, error) {
	content, err := os.ReadFile(pp.pathname)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return UnknownPID, nil
		}
		return UnknownPID, fmt.Errorf("unable to read %s: %w", pp.pathname, err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil {
		return UnknownPID, fmt.Errorf("unable to parse contents of %s: %w", pp.pathname, err)
	}

	if pid == os.Getpid() {
		return pid, nil // ourselves, probably running a client command
	}

	err = syscall.Kill(pid, 0)
	if err == nil || errors.Is(err, syscall.EPERM) {
		// EPERM: owned by another user
		return pid, fmt.Errorf("%w: %d", ErrRunning, pid)
	}

	if !errors.Is(err, syscall.ESRCH) {
		return pid, fmt.Errorf("unable to check if process %d is still running: %w", pid, err)
	}

	return UnknownPID, nil // stale
}
