package ipc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

// ConnWriter is an io.Writer relaying bytes into a client connection. When a
// prefix is set it starts every line written, not just every Write.
type ConnWriter struct {
	conn    net.Conn
	prefix  string
	midLine bool
	err     error
}

var _ io.Writer = (*ConnWriter)(nil) // ensures we conform to the io.Writer interface

// Write reports how much of p went out; prefix bytes are not counted.
func (cw *ConnWriter) Write(p []byte) (int, error) {
	out := p
	if cw.prefix != "" {
		out = cw.prefixLines(p)
	}

	n, err := cw.conn.Write(out)
	if err == nil {
		return len(p), nil
	}

	if !errors.Is(err, syscall.EPIPE) && !errors.Is(err, net.ErrClosed) {
		// a vanished client isn't our failure, but the caller still hears of it
		cw.err = err
	}

	n -= len(out) - len(p)
	if n < 0 {
		n = 0
	}
	return n, err
}

func (cw *ConnWriter) prefixLines(p []byte) []byte {
	out := make([]byte, 0, len(p)+len(cw.prefix))
	for len(p) > 0 {
		if !cw.midLine {
			out = append(out, cw.prefix...)
		}

		line, rest, found := bytes.Cut(p, []byte{'\n'})
		out = append(out, line...)
		if found {
			out = append(out, '\n')
		}

		cw.midLine = !found
		p = rest
	}
	return out
}

// Writeln writes a formatted line.
func (cw *ConnWriter) Writeln(format string, args ...any) error {
	_, err := cw.Write([]byte(fmt.Sprintf(format+"\n", args...)))
	return err
}
