package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/BitPonyLLC/framehue/pkg/colorspace"
	"github.com/BitPonyLLC/framehue/pkg/palette"
	"github.com/BitPonyLLC/framehue/pkg/quantize"
	"github.com/BitPonyLLC/framehue/pkg/sampler"
	"github.com/BitPonyLLC/framehue/pkg/theme"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var sampleResult = &sampler.Result{
	Token:    3,
	Source:   "/videos/clip.mp4",
	Position: 15 * time.Second,
	Ranked: []quantize.Entry{
		{Color: colorspace.RGB{R: 192, G: 64, B: 32}, Count: 900},
		{Color: colorspace.RGB{R: 32, G: 32, B: 32}, Count: 12},
	},
	Palette: palette.Default,
}

func TestWriteSnapshotText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSnapshot(&buf, formatText, theme.NewState().Snapshot()))

	out := buf.String()
	assert.Regexp(t, `(?m)^Primary +#ff6b35$`, out)
	assert.Regexp(t, `(?m)^Background +#0a0a0a$`, out)
	assert.Contains(t, out, "--muted-foreground")
	assert.Contains(t, out, "0 0% 63.9%")
}

func TestWriteSnapshotCSS(t *testing.T) {
	snap := theme.NewState().Snapshot()

	var buf bytes.Buffer
	require.NoError(t, writeSnapshot(&buf, formatCSS, snap))
	assert.Equal(t, snap.CSS(), buf.String())
}

func TestWriteSnapshotEncodings(t *testing.T) {
	snap := theme.NewState().Snapshot()

	decoders := map[string]func([]byte, any) error{
		formatJSON: json.Unmarshal,
		formatYAML: yaml.Unmarshal,
		formatTOML: toml.Unmarshal,
	}

	for format, decode := range decoders {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, writeSnapshot(&buf, format, snap))

			var got theme.Snapshot
			require.NoError(t, decode(buf.Bytes(), &got))
			assert.Equal(t, snap.Palette, got.Palette)
			assert.Equal(t, snap.Vars, got.Vars)
		})
	}
}

func TestWriteResultText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, formatText, sampleResult))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 9)
	assert.Equal(t, "Source      /videos/clip.mp4", lines[0])
	assert.Equal(t, "Position    15s", lines[1])
	assert.Equal(t, "Ranked      #c04020  900", strings.TrimRight(lines[2], " "))
	assert.Equal(t, "Muted       #333333", strings.TrimRight(lines[8], " "))
}

func TestWriteResultJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, formatJSON, sampleResult))

	var got sampler.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, *sampleResult, got)
}

func TestWriteResultCSS(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, formatCSS, sampleResult))
	assert.Equal(t, theme.For(palette.Default).CSS(), buf.String())
}

func TestWriteResultTOML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, formatTOML, sampleResult))
	assert.Contains(t, buf.String(), `primary = "#ff6b35"`)
}

func TestUnknownFormat(t *testing.T) {
	assert.Error(t, checkFormat("xml"))
	assert.Error(t, writeSnapshot(&bytes.Buffer{}, "xml", theme.Snapshot{}))
	for _, f := range formats {
		assert.NoError(t, checkFormat(f))
	}
}

func TestWriteSnapshotConcurrently(t *testing.T) {
	snap := theme.NewState().Snapshot()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if err := writeSnapshot(io.Discard, formatText, snap); err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	var buf bytes.Buffer
	require.NoError(t, writeSnapshot(&buf, formatText, snap))
	assert.Contains(t, buf.String(), "Primary")
}
