package sampler

import (
	"context"
	"image"
	"time"
)

// Kind tells whether a source can be sampled at all.
type Kind int

const (
	// DirectMedia is an addressable media resource whose frames can be read.
	DirectMedia Kind = iota
	// OpaqueEmbed is a platform page loaded through an opaque frame; its pixels
	// are never available to us.
	OpaqueEmbed
)

func (k Kind) String() string {
	switch k {
	case DirectMedia:
		return "direct"
	case OpaqueEmbed:
		return "embed"
	default:
		return "unknown"
	}
}

// Source is a video (or still) the sampler can position and read a frame
// from. Implementations are provided by the playback collaborator.
type Source interface {
	// Kind is resolved once when the source is acquired.
	Kind() Kind
	// Duration reports the length of the media when it is known.
	Duration() (time.Duration, bool)
	// Seek positions the source and blocks until it got there.
	Seek(ctx context.Context, pos time.Duration) error
	// Ready reports whether the frame at the current position can be decoded.
	Ready() bool
	// Frame returns the frame at the current position.
	Frame() (image.Image, error)
	String() string
}
