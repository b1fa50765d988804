// Package quantize reduces a raw pixel buffer to a frequency-ranked set of
// representative colors.
package quantize

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/BitPonyLLC/framehue/pkg/colorspace"
)

// Options controls how pixels are sampled, filtered, and bucketed.
type Options struct {
	// Stride is the number of pixels to advance between samples.
	Stride int `mapstructure:"stride"`
	// BucketSize is the precision each channel is floored to.
	BucketSize int `mapstructure:"bucket-size"`
	// AlphaThreshold drops any pixel less opaque than this.
	AlphaThreshold int `mapstructure:"alpha-threshold"`
	// DarkThreshold drops any pixel whose r+g+b sum is below this.
	DarkThreshold int `mapstructure:"dark-threshold"`
}

// Method names the algorithm used to rank colors of a captured surface.
type Method string

const (
	// MethodBucket counts strided pixels into fixed-size channel buckets.
	MethodBucket Method = "bucket"
	// MethodKMeans clusters the surface and weighs each centroid by its size.
	MethodKMeans Method = "kmeans"
)

const bytesPerPixel = 4

var DefaultOptions = Options{
	Stride:         10,
	BucketSize:     32,
	AlphaThreshold: 128,
	DarkThreshold:  50,
}

// Ranker produces a FrequencyMap from a captured surface.
type Ranker interface {
	Rank(img *image.NRGBA) (*FrequencyMap, error)
}

// Quantizer implements the bucket method.
type Quantizer struct {
	Options
}

var _ Ranker = (*Quantizer)(nil) // ensures we conform to the Ranker interface

// NewRanker returns the Ranker for the named method.
func NewRanker(method Method, opts Options) (Ranker, error) {
	opts = opts.normalized()

	switch method {
	case "", MethodBucket:
		return &Quantizer{Options: opts}, nil
	case MethodKMeans:
		return &KMeans{Options: opts}, nil
	default:
		return nil, fmt.Errorf("unknown quantize method: %s", method)
	}
}

// Quantize walks pix (tightly packed RGBA bytes) every Stride pixels, filters
// out transparent and near-black pixels, and counts the remaining ones by
// bucket. An empty or fully filtered buffer yields an empty map.
func (q *Quantizer) Quantize(pix []byte) *FrequencyMap {
	opts := q.Options.normalized()
	fm := NewFrequencyMap()
	step := opts.Stride * bytesPerPixel

	for i := 0; i+bytesPerPixel <= len(pix); i += step {
		r, g, b, a := pix[i], pix[i+1], pix[i+2], pix[i+3]
		if !opts.keep(r, g, b, a) {
			continue
		}

		fm.Add(opts.bucket(colorspace.RGB{R: r, G: g, B: b}), 1)
	}

	return fm
}

func (q *Quantizer) Rank(img *image.NRGBA) (*FrequencyMap, error) {
	return q.Quantize(packed(img)), nil
}

// QuantizeColor floors each channel to the default bucket size. Applying it to
// an already quantized color returns the same color.
func QuantizeColor(c colorspace.RGB) colorspace.RGB {
	return DefaultOptions.bucket(c)
}

//--------------------------------------------------------------------------------
// private

func (o Options) normalized() Options {
	if o.Stride <= 0 {
		o.Stride = DefaultOptions.Stride
	}
	if o.BucketSize <= 0 || o.BucketSize > 256 {
		o.BucketSize = DefaultOptions.BucketSize
	}
	if o.AlphaThreshold < 0 {
		o.AlphaThreshold = 0
	}
	if o.DarkThreshold < 0 {
		o.DarkThreshold = 0
	}
	return o
}

func (o Options) keep(r, g, b, a uint8) bool {
	if int(a) < o.AlphaThreshold {
		return false
	}
	return int(r)+int(g)+int(b) >= o.DarkThreshold
}

func (o Options) bucket(c colorspace.RGB) colorspace.RGB {
	size := o.BucketSize
	if size <= 0 {
		size = DefaultOptions.BucketSize
	}

	floor := func(v uint8) uint8 {
		return uint8(int(v) / size * size)
	}

	return colorspace.RGB{R: floor(c.R), G: floor(c.G), B: floor(c.B)}
}

// packed returns the pixel bytes of img without any row padding.
func packed(img *image.NRGBA) []byte {
	bounds := img.Bounds()
	rowLen := bounds.Dx() * bytesPerPixel
	if img.Stride == rowLen && bounds.Min == (image.Point{}) {
		return img.Pix[:rowLen*bounds.Dy()]
	}

	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return dst.Pix
}
