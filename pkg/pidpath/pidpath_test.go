package pidpath

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAndSetClaimsAndReleases(t *testing.T) {
	pathname := filepath.Join(t.TempDir(), "framehue.pid")
	pp := New(pathname, 0600)

	assert.False(t, pp.IsRunning())
	require.NoError(t, pp.CheckAndSet())

	content, err := os.ReadFile(pathname)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(content))
	assert.Equal(t, os.Getpid(), pp.Getpid())
	assert.True(t, pp.IsRunning())

	require.NoError(t, pp.Release())
	_, err = os.Stat(pathname)
	assert.True(t, os.IsNotExist(err))
}

func TestStalePidIsIgnored(t *testing.T) {
	pathname := filepath.Join(t.TempDir(), "framehue.pid")
	// beyond the default pid_max, so never a live process
	require.NoError(t, os.WriteFile(pathname, []byte("99999999"), 0600))

	pp := New(pathname, 0600)
	assert.NoError(t, pp.Check())
	assert.Equal(t, UnknownPID, pp.Getpid())
}

func TestLiveProcessBlocks(t *testing.T) {
	pathname := filepath.Join(t.TempDir(), "framehue.pid")
	require.NoError(t, os.WriteFile(pathname, []byte(strconv.Itoa(os.Getppid())), 0600))

	pp := New(pathname, 0600)
	assert.ErrorIs(t, pp.CheckAndSet(), ErrRunning)
	assert.Equal(t, os.Getppid(), pp.Getpid())

	// not ours, so the file stays
	require.NoError(t, pp.Release())
	_, err := os.Stat(pathname)
	assert.NoError(t, err)
}

func TestGarbageContent(t *testing.T) {
	pathname := filepath.Join(t.TempDir(), "framehue.pid")
	require.NoError(t, os.WriteFile(pathname, []byte("nope"), 0600))

	pp := New(pathname, 0600)
	assert.Error(t, pp.Check())
	assert.Equal(t, UnknownPID, pp.Getpid())
}
