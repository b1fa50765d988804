package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BitPonyLLC/framehue/pkg/ipc"
	"github.com/BitPonyLLC/framehue/pkg/sampler"
	"github.com/BitPonyLLC/framehue/pkg/theme"
	"github.com/BitPonyLLC/framehue/pkg/util"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const cssTemplate = `/* {{range .Palette.Hexes}}{{.}} {{end}}*/
{{.CSS}}`

// daemon holds the process-wide theme and keeps it current.
type daemon struct {
	state     *theme.State
	publisher *theme.Publisher
	analyzer  *analyzer

	cssOut string
	quit   func()
	log    *zerolog.Logger
}

func newDaemon(newAnalyzer func(sampler.Publisher) (*analyzer, error), cssOut string, quit func()) (*daemon, error) {
	dlog := log.With().Str("role", "daemon").Logger()
	state := theme.NewState()
	pub := theme.NewPublisher(state, &dlog)

	a, err := newAnalyzer(pub)
	if err != nil {
		return nil, err
	}

	a.sampler.OnState = func(token uint64, st sampler.State) {
		dlog.Trace().Uint64("token", token).Stringer("state", st).Msg("analysis")
	}

	return &daemon{
		state:     state,
		publisher: pub,
		analyzer:  a,
		cssOut:    cssOut,
		quit:      quit,
		log:       &dlog,
	}, nil
}

func (d *daemon) register(s *ipc.Server) {
	s.Handle("analyze", d.handleAnalyze)
	s.Handle("get", d.handleGet)
	s.Handle("watch", d.handleWatch)
	s.Handle("quit", d.handleQuit)
}

// handleAnalyze expects a source and an optional output format.
func (d *daemon) handleAnalyze(ctx context.Context, args []string, out *ipc.ConnWriter) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("usage: analyze <source> [format]")
	}

	format, err := optionalFormat(args[1:])
	if err != nil {
		return err
	}

	res, err := d.analyzer.analyze(ctx, args[0])
	if err != nil {
		return fmt.Errorf("unable to analyze %s: %w", args[0], err)
	}

	return writeResult(out, format, res)
}

func (d *daemon) handleGet(_ context.Context, args []string, out *ipc.ConnWriter) error {
	format, err := optionalFormat(args)
	if err != nil {
		return err
	}

	return writeSnapshot(out, format, d.state.Snapshot())
}

// handleWatch streams the current theme, then every new one, until the client
// goes away.
func (d *daemon) handleWatch(ctx context.Context, args []string, out *ipc.ConnWriter) error {
	format, err := optionalFormat(args)
	if err != nil {
		return err
	}

	watcher := d.state.Watch()
	defer watcher.Stop()

	err = writeSnapshot(out, format, d.state.Snapshot())
	if err != nil {
		return nil // client is gone
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Ch:
			if !ok {
				return nil
			}

			snap, ok := ev.(theme.Snapshot)
			if !ok {
				continue
			}

			err = writeSnapshot(out, format, snap)
			if err != nil {
				return nil
			}
		}
	}
}

func (d *daemon) handleQuit(_ context.Context, _ []string, out *ipc.ConnWriter) error {
	d.log.Info().Msg("received request to quit")
	out.Writeln("quitting")
	d.quit()
	return nil
}

// writeCSS keeps cssOut in step with the theme until ctx ends.
func (d *daemon) writeCSS(ctx context.Context) {
	defer util.LogRecover()

	watcher := d.state.Watch()
	defer watcher.Stop()

	write := func(snap theme.Snapshot) {
		err := util.Extract(d.cssOut, []byte(cssTemplate), snap)
		if err != nil {
			d.log.Err(err).Str("path", d.cssOut).Msg("unable to write theme")
		}
	}

	write(d.state.Snapshot())

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-watcher.Ch:
			if !ok {
				return
			}
			if snap, ok := ev.(theme.Snapshot); ok {
				write(snap)
			}
		}
	}
}

// follow analyzes the source named on the first line of pathname whenever that
// line changes. The directory is watched so that replaced files are seen too.
func (d *daemon) follow(ctx context.Context, pathname string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("unable to watch %s: %w", pathname, err)
	}

	pathname = filepath.Clean(pathname)
	err = watcher.Add(filepath.Dir(pathname))
	if err != nil {
		watcher.Close()
		return fmt.Errorf("unable to watch %s: %w", pathname, err)
	}

	flog := d.log.With().Str("follow", pathname).Logger()

	go func() {
		defer func() {
			util.LogRecover()
			watcher.Close()
		}()

		last := ""
		check := func() {
			ref, err := firstLine(pathname)
			if err != nil {
				if !os.IsNotExist(err) {
					flog.Warn().Err(err).Msg("unable to read source")
				}
				return
			}

			if ref == "" || ref == last {
				return
			}

			last = ref
			flog.Info().Str("source", ref).Msg("source changed")
			go d.analyzeInBackground(ctx, ref)
		}

		check()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) == pathname && ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					check()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				flog.Warn().Err(err).Msg("watch failed")
			}
		}
	}()

	return nil
}

// reload picks up sampler and media settings after the config file changes.
// Analyses already running finish with what they started with.
func (d *daemon) reload() {
	sc, err := samplerConfig()
	if err != nil {
		d.log.Err(err).Msg("keeping previous analysis settings")
		return
	}

	mc, err := mediaConfig()
	if err != nil {
		d.log.Err(err).Msg("keeping previous analysis settings")
		return
	}

	err = d.analyzer.reconfigure(sc, mc)
	if err != nil {
		d.log.Err(err).Msg("keeping previous analysis settings")
		return
	}

	d.log.Info().Str("method", string(sc.Method)).Msg("analysis settings reloaded")
}

func (d *daemon) analyzeInBackground(ctx context.Context, ref string) {
	defer util.LogRecover()

	// outcomes are already logged by the sampler
	_, _ = d.analyzer.analyze(ctx, ref)
}

func optionalFormat(args []string) (string, error) {
	if len(args) == 0 {
		return formatText, nil
	}
	if len(args) > 1 {
		return "", fmt.Errorf("unexpected arguments: %s", strings.Join(args[1:], " "))
	}
	return args[0], checkFormat(args[0])
}

func firstLine(pathname string) (string, error) {
	f, err := os.Open(pathname)
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()), nil
	}
	return "", scanner.Err()
}
