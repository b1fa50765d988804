package media

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/BitPonyLLC/framehue/pkg/sampler"
)

// EmbedSource is a page on a platform that only hands out an opaque player.
type EmbedSource struct {
	Ref string
}

var _ sampler.Source = (*EmbedSource)(nil) // ensures we conform to the Source interface

var errNoPixels = errors.New("embedded sources have no readable pixels")

func (es *EmbedSource) Kind() sampler.Kind                        { return sampler.OpaqueEmbed }
func (es *EmbedSource) Duration() (time.Duration, bool)           { return 0, false }
func (es *EmbedSource) Seek(context.Context, time.Duration) error { return errNoPixels }
func (es *EmbedSource) Ready() bool                               { return false }
func (es *EmbedSource) Frame() (image.Image, error)               { return nil, errNoPixels }
func (es *EmbedSource) String() string                            { return es.Ref }
