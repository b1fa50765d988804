package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/syslog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/BitPonyLLC/framehue/buildinfo"
	"github.com/BitPonyLLC/framehue/pkg/ipc"
	"github.com/BitPonyLLC/framehue/pkg/pidpath"
	"github.com/BitPonyLLC/framehue/pkg/termwrap"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Execute is the primary entrypoint for this CLI
func Execute() int {
	defer atExit()

	tw := termwrap.New(80)
	rootCmd.Long = tw.Paragraph(buildinfo.App.Description + "\n\n" + buildinfo.App.FullDescription)
	rootCmd.SetOut(os.Stdout) // default is stderr

	rootCmd.PersistentFlags().StringVar(&configPath, "config", configPath, "the configuration file to load")
	rootCmd.Flags().BoolVar(&dumpConfig, "dump-config", dumpConfig, "dump configuration to stdout")
	bindPersistentFlags()
	setDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	cancelFunc = cancel

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		log.Info().Stringer("signal", <-stop).Msg("stopping")
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		log.Err(err).Msg("command failed")
		cancel()
		return failureCode
	}

	return 0
}

//--------------------------------------------------------------------------------
// private

const logDstLabel = "log-dst"
const minimalTimeFormat = "15:04:05.000"

var failureCode = 1
var initialized = false

var configPath = "$HOME/." + buildinfo.App.Name
var dumpConfig = false
var logF *os.File

var cancelFunc func()
var pidPath *pidpath.PidPath
var ipcServer *ipc.Server

var reloadMutex sync.Mutex
var reloadHooks []func()

var rootCmd = &cobra.Command{
	Use:               buildinfo.App.Name,
	Short:             buildinfo.App.Description,
	Version:           buildinfo.All,
	SilenceUsage:      true,
	PersistentPreRunE: atStart,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if dumpConfig {
			return dump("config", cmd.OutOrStdout())
		}
		return cmd.Help()
	},
}

type persistentFlag struct {
	name  string
	value any
	usage string
}

// bindPersistentFlags registers the flags every command shares and lets the
// config file supply any of them.
func bindPersistentFlags() {
	tmp := os.TempDir()
	flags := []persistentFlag{
		{"log-level", "info", "set logging level: trace, debug, info, warn, error"},
		{logDstLabel, "stderr", "write logs to syslog, stdout, stderr, or provide a pathname"},
		{"pidpath", filepath.Join(tmp, buildinfo.App.Name+".pid"), "pathname of the pidfile"},
		{"sockpath", filepath.Join(tmp, buildinfo.App.Name+".sock"), "pathname of the sockfile"},
		{"nice", 10, "the priority level of the serving process"},
	}

	pf := rootCmd.PersistentFlags()
	for _, f := range flags {
		switch v := f.value.(type) {
		case int:
			pf.Int(f.name, v, f.usage)
		case string:
			pf.String(f.name, v, f.usage)
		}
		viper.BindPFlag(f.name, pf.Lookup(f.name))
	}
}

func atStart(_ *cobra.Command, _ []string) error {
	if initialized {
		return nil
	}

	initialized = true

	err := loadConfig()
	if err != nil {
		return err
	}

	// the pidpath may come from the config file, so only now is it known
	pidPath = pidpath.New(viper.GetString("pidpath"), 0666)

	err = setupLogging(viper.GetString(logDstLabel))
	if err != nil {
		return err
	}

	log.Debug().Str("file", viper.ConfigFileUsed()).Msg("config")
	return nil
}

// loadConfig reads the config file, if there is one, and watches it so that
// edits apply to the running process.
func loadConfig() error {
	viper.SetConfigName(filepath.Base(configPath))
	viper.SetConfigType("toml")
	viper.AddConfigPath(filepath.Dir(configPath))

	err := viper.ReadInConfig()
	if err != nil {
		if errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil
		}
		return fail(3, "unable to read config file: %w", err)
	}

	viper.OnConfigChange(func(e fsnotify.Event) {
		log.Debug().Str("file", e.Name).Stringer("op", e.Op).Msg("config changed")
		applyConfig()
	})
	viper.WatchConfig()
	return nil
}

// onConfigChange registers fn to run after each reload of the config file.
func onConfigChange(fn func()) {
	reloadMutex.Lock()
	defer reloadMutex.Unlock()
	reloadHooks = append(reloadHooks, fn)
}

func applyConfig() {
	name := viper.GetString("log-level")
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		log.Err(err).Str("level", name).Msg("unable to parse new log level")
	} else {
		zerolog.SetGlobalLevel(level)
	}

	reloadMutex.Lock()
	hooks := append([]func(){}, reloadHooks...)
	reloadMutex.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

func atExit() {
	if ipcServer != nil {
		ipcServer.Stop()
	}

	if logF != nil {
		logF.Close()
	}

	if pidPath != nil {
		pidPath.Release()
	}
}

func setupLogging(logDst string) error {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	logWriter, withTime, syslogErr := newLogWriter(logDst)
	if syslogErr != nil {
		if logDst != "syslog" {
			return syslogErr
		}

		// syslog is best effort
		logWriter, withTime, _ = newLogWriter("stderr")
	}

	level, err := zerolog.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return fail(4, err)
	}

	zerolog.SetGlobalLevel(level)

	ctx := zerolog.New(logWriter).With()
	if withTime {
		ctx = ctx.Timestamp()
	}
	log.Logger = ctx.Logger()

	if syslogErr != nil {
		log.Warn().Err(syslogErr).Msg("unable to use syslog: switched to stderr")
	}
	return nil
}

// newLogWriter maps a log destination onto a writer and reports whether
// entries need their own timestamp.
func newLogWriter(logDst string) (io.Writer, bool, error) {
	console := func(out io.Writer) io.Writer {
		zerolog.TimeFieldFormat = minimalTimeFormat
		return zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			w.TimeFormat = minimalTimeFormat
			w.Out = out
		})
	}

	switch logDst {
	case "syslog":
		syslogger, err := syslog.New(syslog.LOG_INFO, buildinfo.App.Name)
		if err != nil {
			return nil, false, err
		}

		return zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			w.NoColor = true
			w.PartsExclude = []string{zerolog.TimestampFieldName}
			w.Out = zerolog.SyslogLevelWriter(syslogger)
		}), false, nil
	case "stdout":
		return console(os.Stdout), true, nil
	case "", "stderr":
		return console(os.Stderr), true, nil
	}

	var err error
	logF, err = os.OpenFile(logDst, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, false, fail(4, "unable to open %s: %w", logDst, err)
	}

	return logF, true, nil
}

func fail(code int, formatOrErr interface{}, args ...interface{}) error {
	failureCode = code
	if len(args) == 0 {
		err, ok := formatOrErr.(error)
		if ok {
			return err
		}
		return errors.New(formatOrErr.(string))
	}
	return fmt.Errorf(formatOrErr.(string), args...)
}
