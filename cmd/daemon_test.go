package cmd

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/BitPonyLLC/framehue/pkg/colorspace"
	"github.com/BitPonyLLC/framehue/pkg/ipc"
	"github.com/BitPonyLLC/framehue/pkg/media"
	"github.com/BitPonyLLC/framehue/pkg/palette"
	"github.com/BitPonyLLC/framehue/pkg/sampler"
	"github.com/BitPonyLLC/framehue/pkg/theme"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 5 * time.Second
const tick = 10 * time.Millisecond

type daemonHarness struct {
	d        *daemon
	sockPath string
	quit     chan struct{}
}

func newHarness(t *testing.T, cssOut string) *daemonHarness {
	t.Helper()

	h := &daemonHarness{quit: make(chan struct{})}
	var once sync.Once

	d, err := newDaemon(func(pub sampler.Publisher) (*analyzer, error) {
		return newAnalyzerWith(sampler.DefaultConfig(), media.DefaultConfig, pub)
	}, cssOut, func() { once.Do(func() { close(h.quit) }) })
	require.NoError(t, err)
	h.d = d

	s := ipc.NewServer(nil)
	d.register(s)
	h.sockPath = filepath.Join(t.TempDir(), "framehue.sock")
	require.NoError(t, s.Start(context.Background(), h.sockPath))
	t.Cleanup(s.Stop)

	return h
}

func (h *daemonHarness) send(t *testing.T, args ...string) ([]string, error) {
	t.Helper()

	var lines []string
	c := &ipc.Client{RespCB: func(line string) bool {
		lines = append(lines, line)
		return true
	}}

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	err := c.Send(ctx, h.sockPath, ipc.Join(args...))
	return lines, err
}

func solidPNG(t *testing.T, dir, name string, c color.NRGBA) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 160, 90))
	for y := 0; y < 90; y++ {
		for x := 0; x < 160; x++ {
			img.SetNRGBA(x, y, c)
		}
	}

	pathname := filepath.Join(dir, name)
	f, err := os.Create(pathname)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return pathname
}

var orange = color.NRGBA{200, 80, 40, 255}
var blue = color.NRGBA{40, 80, 200, 255}

func TestDaemonAnalyzeThenGet(t *testing.T) {
	h := newHarness(t, "")
	still := solidPNG(t, t.TempDir(), "still frame.png", orange)

	lines, err := h.send(t, "analyze", still, formatJSON)
	require.NoError(t, err)
	require.Len(t, lines, 1)

	var res sampler.Result
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &res))
	assert.Equal(t, "#c04020", res.Palette.Primary)
	assert.Equal(t, uint64(1), res.Token)

	lines, err = h.send(t, "get", formatJSON)
	require.NoError(t, err)
	require.Len(t, lines, 1)

	var snap theme.Snapshot
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &snap))
	assert.Equal(t, res.Palette, snap.Palette)
	assert.Equal(t, uint64(1), snap.Token)
}

func TestDaemonReloadAppliesNewSettings(t *testing.T) {
	t.Cleanup(viper.Reset)
	setDefaults()

	h := newHarness(t, "")
	still := solidPNG(t, t.TempDir(), "still.png", orange)

	lines, err := h.send(t, "analyze", still, formatJSON)
	require.NoError(t, err)
	require.Len(t, lines, 1)

	viper.Set("palette.primary.lightness.min", 70)
	viper.Set("palette.primary.lightness.max", 70)
	h.d.reload()

	want := sampler.DefaultConfig().Constraints
	want.Primary.Lightness = palette.Range{Min: 70, Max: 70}
	assert.Equal(t, want, h.d.analyzer.sampler.Config().Constraints)

	lines, err = h.send(t, "analyze", still, formatJSON)
	require.NoError(t, err)
	require.Len(t, lines, 1)

	var res sampler.Result
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &res))
	dominant := colorspace.RGB{R: 192, G: 64, B: 32}.HSL()
	assert.Equal(t, want.Derive(dominant, dominant), res.Palette)
	assert.Equal(t, uint64(2), res.Token)

	// a broken file keeps what was working
	viper.Set("quantize.method", "median")
	h.d.reload()
	assert.Equal(t, want, h.d.analyzer.sampler.Config().Constraints)
	assert.Equal(t, sampler.DefaultConfig().Method, h.d.analyzer.sampler.Config().Method)
}

func TestDaemonGetDefaultsToText(t *testing.T) {
	h := newHarness(t, "")

	lines, err := h.send(t, "get")
	require.NoError(t, err)
	assert.Contains(t, strings.Join(lines, "\n"), "#ff6b35")
}

func TestDaemonRejectsEmbeds(t *testing.T) {
	h := newHarness(t, "")

	_, err := h.send(t, "analyze", "https://www.youtube.com/watch?v=abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opaque embed")
	assert.Equal(t, palette.Default, h.d.state.Snapshot().Palette)
}

func TestDaemonBadArguments(t *testing.T) {
	h := newHarness(t, "")

	_, err := h.send(t, "analyze")
	assert.Error(t, err)

	_, err = h.send(t, "get", "xml")
	assert.Error(t, err)

	_, err = h.send(t, "get", "json", "extra")
	assert.Error(t, err)
}

func TestDaemonWatchStreamsChanges(t *testing.T) {
	h := newHarness(t, "")
	still := solidPNG(t, t.TempDir(), "still.png", orange)

	got := make(chan theme.Snapshot, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := &ipc.Client{RespCB: func(line string) bool {
		var snap theme.Snapshot
		if json.Unmarshal([]byte(line), &snap) == nil {
			got <- snap
		}
		return true
	}}
	go c.Send(ctx, h.sockPath, ipc.Join("watch", formatJSON))

	first := <-got
	assert.Equal(t, palette.Default, first.Palette)

	_, err := h.send(t, "analyze", still)
	require.NoError(t, err)

	select {
	case next := <-got:
		assert.Equal(t, "#c04020", next.Palette.Primary)
	case <-time.After(waitFor):
		t.Fatal("no update streamed")
	}
}

func TestDaemonQuit(t *testing.T) {
	h := newHarness(t, "")

	lines, err := h.send(t, "quit")
	require.NoError(t, err)
	assert.Equal(t, []string{"quitting"}, lines)

	select {
	case <-h.quit:
	case <-time.After(waitFor):
		t.Fatal("quit never requested")
	}
}

func TestDaemonWritesCSS(t *testing.T) {
	cssOut := filepath.Join(t.TempDir(), "theme.css")
	h := newHarness(t, cssOut)
	still := solidPNG(t, t.TempDir(), "still.png", orange)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.d.writeCSS(ctx)

	contains := func(s string) func() bool {
		return func() bool {
			content, err := os.ReadFile(cssOut)
			return err == nil && strings.Contains(string(content), s)
		}
	}

	assert.Eventually(t, contains("--primary: 16 100% 60%;"), waitFor, tick)

	_, err := h.send(t, "analyze", still)
	require.NoError(t, err)
	assert.Eventually(t, contains("/* #c04020 "), waitFor, tick)
}

func TestDaemonFollowsSourceFile(t *testing.T) {
	h := newHarness(t, "")
	dir := t.TempDir()
	first := solidPNG(t, dir, "first.png", orange)
	second := solidPNG(t, dir, "second.png", blue)

	followPath := filepath.Join(dir, "now-playing")
	require.NoError(t, os.WriteFile(followPath, []byte(first+"\n"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, h.d.follow(ctx, followPath))

	primary := func(want string) func() bool {
		return func() bool { return h.d.state.Snapshot().Palette.Primary == want }
	}

	assert.Eventually(t, primary("#c04020"), waitFor, tick)

	require.NoError(t, os.WriteFile(followPath, []byte(second+"\n"), 0644))
	assert.Eventually(t, func() bool {
		p := h.d.state.Snapshot().Palette
		return p.Primary != "#c04020" && p.Valid()
	}, waitFor, tick)
}
