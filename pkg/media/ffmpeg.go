package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/BitPonyLLC/framehue/pkg/sampler"
	"github.com/BitPonyLLC/framehue/pkg/util"

	"github.com/mattn/go-shellwords"
	"github.com/rs/zerolog"
)

const durationTimeout = 10 * time.Second

// FFmpegSource reads frames of a video file or stream by running external
// commands: one to learn the duration and one to grab a single frame.
type FFmpegSource struct {
	Ref             string
	DurationCommand string
	GrabCommand     string

	log *zerolog.Logger

	durationOnce sync.Once
	duration     time.Duration
	known        bool

	mutex sync.Mutex
	frame image.Image
}

var _ sampler.Source = (*FFmpegSource)(nil) // ensures we conform to the Source interface

type commandArgs struct {
	Path    string
	Seconds string
}

func (fs *FFmpegSource) Kind() sampler.Kind { return sampler.DirectMedia }
func (fs *FFmpegSource) String() string     { return fs.Ref }

// Duration runs the duration command once and remembers what it reported.
func (fs *FFmpegSource) Duration() (time.Duration, bool) {
	fs.durationOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), durationTimeout)
		defer cancel()

		out, err := fs.run(ctx, fs.DurationCommand, 0)
		if err != nil {
			fs.logger().Debug().Err(err).Msg("unable to read duration")
			return
		}

		secs, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
		if err != nil || secs <= 0 {
			fs.logger().Debug().Str("output", string(out)).Msg("no duration reported")
			return
		}

		fs.duration = time.Duration(secs * float64(time.Second))
		fs.known = true
	})

	return fs.duration, fs.known
}

// Seek grabs the frame shown at pos. Cancelling ctx kills the grab command.
func (fs *FFmpegSource) Seek(ctx context.Context, pos time.Duration) error {
	fs.mutex.Lock()
	fs.frame = nil
	fs.mutex.Unlock()

	out, err := fs.run(ctx, fs.GrabCommand, pos)
	if err != nil {
		return err
	}

	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		return fmt.Errorf("unable to decode frame of %s: %w", fs.Ref, err)
	}

	fs.mutex.Lock()
	fs.frame = img
	fs.mutex.Unlock()
	return nil
}

func (fs *FFmpegSource) Ready() bool {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()
	return fs.frame != nil
}

func (fs *FFmpegSource) Frame() (image.Image, error) {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()

	if fs.frame == nil {
		return nil, errors.New("no frame grabbed")
	}
	return fs.frame, nil
}

//--------------------------------------------------------------------------------
// private

func (fs *FFmpegSource) logger() *zerolog.Logger {
	if fs.log == nil {
		l := zerolog.Nop()
		fs.log = &l
	}
	return fs.log
}

func (fs *FFmpegSource) run(ctx context.Context, tmpl string, pos time.Duration) ([]byte, error) {
	cmd, err := fs.command(ctx, tmpl, pos)
	if err != nil {
		return nil, err
	}

	stderr := &util.CommandLogger{Log: func(line string) {
		fs.logger().Debug().Str("cmd", cmd.Path).Msg(line)
	}}
	defer stderr.Close()

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = stderr

	fs.logger().Trace().Strs("args", cmd.Args).Msg("running")
	err = cmd.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("unable to run %s: %w", cmd.Args[0], err)
	}

	return stdout.Bytes(), nil
}

func (fs *FFmpegSource) command(ctx context.Context, tmpl string, pos time.Duration) (*exec.Cmd, error) {
	args, err := expand(tmpl, commandArgs{
		Path:    fs.Ref,
		Seconds: strconv.FormatFloat(pos.Seconds(), 'f', 3, 64),
	})
	if err != nil {
		return nil, err
	}

	return exec.CommandContext(ctx, args[0], args[1:]...), nil
}

// expand renders a command template and splits it into arguments the way a
// shell would.
func expand(tmpl string, data commandArgs) ([]string, error) {
	t, err := template.New("cmd").Funcs(template.FuncMap{"quote": quote}).Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("unable to parse command template %q: %w", tmpl, err)
	}

	var buf strings.Builder
	err = t.Execute(&buf, data)
	if err != nil {
		return nil, fmt.Errorf("unable to execute command template %q: %w", tmpl, err)
	}

	args, err := shellwords.Parse(buf.String())
	if err != nil {
		return nil, fmt.Errorf("unable to parse command %q: %w", buf.String(), err)
	}

	if len(args) == 0 {
		return nil, fmt.Errorf("empty command: %q", tmpl)
	}

	return args, nil
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
