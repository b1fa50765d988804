// Package ipc is a line oriented command protocol over a Unix socket. A client
// sends one command line; the server streams back reply lines (errors prefixed
// with ErrPrefix) and closes the connection when the handler returns.
package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sort"
	"sync"

	"github.com/BitPonyLLC/framehue/pkg/util"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrPrefix marks reply lines that describe a failure.
const ErrPrefix = "ERR: "

// Handler runs one command. ctx is canceled when the client goes away or the
// server stops.
type Handler func(ctx context.Context, args []string, out *ConnWriter) error

type Server struct {
	log      *zerolog.Logger
	handlers map[string]Handler

	listener net.Listener
	conns    sync.Map
	wg       sync.WaitGroup
	cancel   context.CancelFunc
}

func NewServer(logger *zerolog.Logger) *Server {
	if logger == nil {
		logger = &log.Logger
	}
	return &Server{log: logger, handlers: map[string]Handler{}}
}

// Handle registers h for command name. It must be called before Start.
func (s *Server) Handle(name string, h Handler) {
	s.handlers[name] = h
}

// Commands lists the registered command names.
func (s *Server) Commands() []string {
	names := make([]string, 0, len(s.handlers))
	for name := range s.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start listens on path and serves connections until ctx is canceled or Stop
// is called.
func (s *Server) Start(ctx context.Context, path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("unable to remove %s: %w", path, err)
	}

	var lc net.ListenConfig
	l, err := lc.Listen(ctx, "unix", path)
	if err != nil {
		return fmt.Errorf("unable to listen on %s: %w", path, err)
	}

	// let anyone talk to us
	err = os.Chmod(path, 0666)
	if err != nil {
		l.Close()
		return fmt.Errorf("unable to change permissions to %s: %w", path, err)
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.listener = l

	go func() {
		<-ctx.Done()
		l.Close()
	}()

	s.wg.Add(1)
	go func() {
		defer func() {
			util.LogRecover()
			s.wg.Done()
		}()

		for {
			conn, err := l.Accept()
			if err != nil {
				if !errors.Is(err, net.ErrClosed) {
					s.log.Error().Err(err).Str("path", path).Msg("unable to accept new connection")
				}
				break
			}

			ac := &acceptedConn{conn: conn}
			s.conns.Store(ac, struct{}{})
			s.wg.Add(1)
			go ac.serve(ctx, s)
		}

		// cleanup (our context was canceled)
		s.conns.Range(func(key, _ any) bool {
			key.(*acceptedConn).conn.Close()
			return true
		})
	}()

	return nil
}

// Stop closes the listener and every open connection, then waits for the
// handlers to return.
func (s *Server) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
}
