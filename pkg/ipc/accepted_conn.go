package ipc

import (
	"bufio"
	"context"
	"io"
	"net"
	"strings"

	"github.com/BitPonyLLC/framehue/pkg/util"

	"github.com/mattn/go-shellwords"
)

type acceptedConn struct {
	conn net.Conn
}

func (ac *acceptedConn) serve(parent context.Context, s *Server) {
	ctx, cancel := context.WithCancel(parent)
	defer func() {
		util.LogRecover()
		cancel()
		s.conns.Delete(ac)
		ac.conn.Close()
		s.log.Trace().Msg("client disconnected")
		s.wg.Done()
	}()

	s.log.Trace().Msg("client connected")

	out := &ConnWriter{conn: ac.conn}
	errOut := &ConnWriter{conn: ac.conn, prefix: ErrPrefix}

	reader := bufio.NewReader(ac.conn)
	line, err := reader.ReadString('\n')
	if err != nil {
		s.log.Err(err).Msg("unable to read command from client")
		return
	}

	// anything after the command line (or EOF) means the client is done
	go func() {
		io.Copy(io.Discard, reader)
		cancel()
	}()

	line = strings.TrimSpace(line)
	clog := s.log.With().Str("cmd", line).Logger()

	args, err := shellwords.Parse(line)
	if err != nil || len(args) == 0 {
		errOut.Writeln("unable to parse command: %s", line)
		return
	}

	handler, ok := s.handlers[args[0]]
	if !ok {
		errOut.Writeln("unknown command: %s", args[0])
		return
	}

	clog.Debug().Msg("executing")
	err = handler(ctx, args[1:], out)
	if err != nil {
		clog.Err(err).Msg("command failed")
		errOut.Writeln("%s", err)
	}

	if out.err != nil {
		clog.Err(out.err).Msg("output writer failed")
	}
}
