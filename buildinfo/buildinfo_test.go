package buildinfo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmbeddedInfo(t *testing.T) {
	assert.Equal(t, "framehue", App.Name)
	assert.NotEmpty(t, App.Description)
	assert.NotEmpty(t, App.Version)
	assert.NotEmpty(t, App.ExePath)
	assert.True(t, strings.HasPrefix(All, App.Version+" ("))
}
