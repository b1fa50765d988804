package cmd

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyConfigRunsHooks(t *testing.T) {
	level := zerolog.GlobalLevel()
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(level)
		viper.Reset()
		reloadMutex.Lock()
		reloadHooks = nil
		reloadMutex.Unlock()
	})

	calls := 0
	onConfigChange(func() { calls++ })

	viper.Set("log-level", "warn")
	applyConfig()
	assert.Equal(t, 1, calls)
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	// a bad level is reported and the hooks still run
	viper.Set("log-level", "loud")
	applyConfig()
	assert.Equal(t, 2, calls)
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
}

func TestNewLogWriter(t *testing.T) {
	t.Cleanup(func() {
		if logF != nil {
			logF.Close()
			logF = nil
		}
	})

	w, withTime, err := newLogWriter("stderr")
	require.NoError(t, err)
	assert.NotNil(t, w)
	assert.True(t, withTime)

	pathname := filepath.Join(t.TempDir(), "framehue.log")
	w, withTime, err = newLogWriter(pathname)
	require.NoError(t, err)
	assert.Equal(t, logF, w)
	assert.True(t, withTime)

	_, _, err = newLogWriter(filepath.Join(t.TempDir(), "missing", "framehue.log"))
	assert.Error(t, err)
}
