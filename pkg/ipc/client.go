package ipc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
)

// Client issues a single command to a Server.
type Client struct {
	// RespCB receives each reply line that isn't an error. Returning false
	// hangs up.
	RespCB func(line string) bool

	mutex sync.Mutex
	conn  net.Conn
}

// Send delivers msg to the server listening on path and relays replies to
// RespCB until the server closes the connection. Error lines are collected
// into the returned error.
func (c *Client) Send(ctx context.Context, path, msg string) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return fmt.Errorf("unable to connect to %s: %w", path, err)
	}

	c.mutex.Lock()
	c.conn = conn
	c.mutex.Unlock()
	defer c.Close()

	stop := context.AfterFunc(ctx, func() { c.Close() })
	defer stop()

	_, err = conn.Write([]byte(msg + "\n"))
	if err != nil {
		return fmt.Errorf("unable to send message to %s: %w", path, err)
	}

	var failures []string
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		if rest, ok := strings.CutPrefix(line, ErrPrefix); ok {
			failures = append(failures, rest)
			continue
		}

		if c.RespCB != nil && !c.RespCB(line) {
			break
		}
	}

	if len(failures) > 0 {
		return errors.New(strings.Join(failures, "; "))
	}

	if ctx.Err() != nil {
		return nil // interrupted on purpose
	}

	err = scanner.Err()
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("unable to read reply from %s: %w", path, err)
	}

	return nil
}

// Close hangs up. It is safe to call from another goroutine.
func (c *Client) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.conn == nil {
		return nil
	}

	err := c.conn.Close()
	c.conn = nil
	return err
}

// Join builds a command line from args, quoting any that a shell would split
// or interpret.
func Join(args ...string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		if arg != "" && !strings.ContainsAny(arg, " \t\n'\"\\$`|&;<>()*?[]{}#~!") {
			quoted[i] = arg
			continue
		}
		quoted[i] = "'" + strings.ReplaceAll(arg, "'", `'"'"'`) + "'"
	}
	return strings.Join(quoted, " ")
}
