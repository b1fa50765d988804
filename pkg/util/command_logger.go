package util

import (
	"bytes"
	"io"
	"sync"
)

// CommandLogger is a writer for a child process's output that hands each
// complete line to Log. A trailing partial line is held until more output (or
// Close) arrives.
type CommandLogger struct {
	Log func(string)

	buf   bytes.Buffer
	mutex sync.Mutex
}

var _ io.WriteCloser = (*CommandLogger)(nil) // ensures we conform to the WriteCloser interface

func (cl *CommandLogger) Write(data []byte) (int, error) {
	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	n, err := cl.buf.Write(data)
	if err != nil {
		return n, err
	}

	for {
		line, rest, found := bytes.Cut(cl.buf.Bytes(), []byte{'\n'})
		if !found {
			break
		}

		cl.emit(line)
		cl.buf.Next(len(cl.buf.Bytes()) - len(rest))
	}

	return n, nil
}

// Close flushes anything left without a newline.
func (cl *CommandLogger) Close() error {
	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	cl.emit(cl.buf.Bytes())
	cl.buf.Reset()
	return nil
}

//--------------------------------------------------------------------------------
// private

func (cl *CommandLogger) emit(line []byte) {
	line = bytes.TrimRight(line, "\r")
	if len(line) > 0 && cl.Log != nil {
		cl.Log(string(line))
	}
}
