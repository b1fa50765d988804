package util

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandLoggerSplitsLines(t *testing.T) {
	var lines []string
	cl := &CommandLogger{Log: func(s string) { lines = append(lines, s) }}

	_, err := cl.Write([]byte("first\nsec"))
	require.NoError(t, err)
	assert.Equal(t, []string{"first"}, lines)

	_, err = cl.Write([]byte("ond\r\n\nthird"))
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, lines)

	require.NoError(t, cl.Close())
	assert.Equal(t, []string{"first", "second", "third"}, lines)
}

func TestExtractTemplate(t *testing.T) {
	pathname := filepath.Join(t.TempDir(), "theme.css")

	err := Extract(pathname, []byte("a={{.A}}\n"), map[string]string{"A": "1"})
	require.NoError(t, err)

	content, err := os.ReadFile(pathname)
	require.NoError(t, err)
	assert.Equal(t, "a=1\n", string(content))
}

func TestExtractLeavesUnchangedFileAlone(t *testing.T) {
	pathname := filepath.Join(t.TempDir(), "theme.css")
	require.NoError(t, Extract(pathname, []byte("same"), nil))

	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(pathname, old, old))
	require.NoError(t, Extract(pathname, []byte("same"), nil))

	stat, err := os.Stat(pathname)
	require.NoError(t, err)
	assert.WithinDuration(t, old, stat.ModTime(), time.Second)

	require.NoError(t, Extract(pathname, []byte("different"), nil))
	content, err := os.ReadFile(pathname)
	require.NoError(t, err)
	assert.Equal(t, "different", string(content))
}

func TestExtractBadTemplate(t *testing.T) {
	pathname := filepath.Join(t.TempDir(), "theme.css")
	assert.Error(t, Extract(pathname, []byte("{{.A"), struct{}{}))
}

func TestLogRecoverSwallowsPanics(t *testing.T) {
	assert.NotPanics(t, func() {
		defer LogRecover()
		panic("boom")
	})
}

func TestBeNiceZeroIsNoop(t *testing.T) {
	assert.NoError(t, BeNice(0))
}
