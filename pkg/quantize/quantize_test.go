package quantize

import (
	"image"
	"image/color"
	"testing"

	"github.com/BitPonyLLC/framehue/pkg/colorspace"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidPix(n int, r, g, b, a uint8) []byte {
	pix := make([]byte, 0, n*4)
	for i := 0; i < n; i++ {
		pix = append(pix, r, g, b, a)
	}
	return pix
}

func TestQuantizeColor(t *testing.T) {
	assert.Equal(t, colorspace.RGB{R: 192, G: 64, B: 32}, QuantizeColor(colorspace.RGB{R: 200, G: 80, B: 40}))
	assert.Equal(t, colorspace.RGB{R: 224, G: 224, B: 224}, QuantizeColor(colorspace.RGB{R: 255, G: 255, B: 255}))
	assert.Equal(t, colorspace.RGB{}, QuantizeColor(colorspace.RGB{R: 31, G: 31, B: 31}))
}

func TestQuantizeColorIdempotent(t *testing.T) {
	for r := 0; r < 256; r += 7 {
		for g := 0; g < 256; g += 11 {
			for b := 0; b < 256; b += 13 {
				once := QuantizeColor(colorspace.RGB{R: uint8(r), G: uint8(g), B: uint8(b)})
				assert.Equal(t, once, QuantizeColor(once))
			}
		}
	}
}

func TestQuantizeEmpty(t *testing.T) {
	q := &Quantizer{Options: DefaultOptions}
	assert.Equal(t, 0, q.Quantize(nil).Len())
	assert.Equal(t, 0, q.Quantize([]byte{1, 2, 3}).Len())
}

func TestQuantizeFilters(t *testing.T) {
	q := &Quantizer{Options: DefaultOptions}

	// fully transparent
	assert.Equal(t, 0, q.Quantize(solidPix(160*90, 255, 255, 255, 0)).Len())
	// just below the alpha threshold
	assert.Equal(t, 0, q.Quantize(solidPix(100, 255, 255, 255, 127)).Len())
	// near black
	assert.Equal(t, 0, q.Quantize(solidPix(100, 16, 16, 17, 255)).Len())

	fm := q.Quantize(solidPix(100, 17, 17, 16, 128))
	assert.Equal(t, 1, fm.Len())
	assert.Equal(t, 10, fm.Count(colorspace.RGB{}))
}

func TestQuantizeStride(t *testing.T) {
	q := &Quantizer{Options: DefaultOptions}

	pix := solidPix(100, 0, 0, 0, 255)
	// only pixel 0, 10, 20, ... are sampled
	for i := 0; i < 100; i++ {
		if i%10 == 0 {
			copy(pix[i*4:], []byte{200, 80, 40, 255})
		} else {
			copy(pix[i*4:], []byte{40, 80, 200, 255})
		}
	}

	fm := q.Quantize(pix)
	assert.Equal(t, 1, fm.Len())
	assert.Equal(t, 10, fm.Count(colorspace.RGB{R: 192, G: 64, B: 32}))
}

func TestTopOrdering(t *testing.T) {
	fm := NewFrequencyMap()
	a := colorspace.RGB{R: 32}
	b := colorspace.RGB{G: 32}
	c := colorspace.RGB{B: 32}
	d := colorspace.RGB{R: 64}

	fm.Add(a, 2)
	fm.Add(b, 5)
	fm.Add(c, 2)
	fm.Add(d, 1)
	fm.Add(a, 0)

	top := fm.Top(3)
	require.Len(t, top, 3)
	assert.Equal(t, Entry{Color: b, Count: 5}, top[0])
	// ties keep first-seen order
	assert.Equal(t, Entry{Color: a, Count: 2}, top[1])
	assert.Equal(t, Entry{Color: c, Count: 2}, top[2])

	assert.Len(t, fm.Top(10), 4)
	assert.Nil(t, NewFrequencyMap().Top(5))
}

func TestQuantizeDeterministic(t *testing.T) {
	pix := make([]byte, 160*90*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i] = uint8(i * 7)
		pix[i+1] = uint8(i * 13)
		pix[i+2] = uint8(i * 3)
		pix[i+3] = 255
	}

	q := &Quantizer{Options: DefaultOptions}
	first := q.Quantize(pix).Top(5)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, q.Quantize(pix).Top(5))
	}
}

func TestNewRanker(t *testing.T) {
	r, err := NewRanker("", Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultOptions, r.(*Quantizer).Options)

	r, err = NewRanker(MethodKMeans, DefaultOptions)
	require.NoError(t, err)
	assert.IsType(t, &KMeans{}, r)

	_, err = NewRanker("median", DefaultOptions)
	assert.Error(t, err)
}

func TestRankSubImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 80, B: 40, A: 255})
		}
	}

	sub := img.SubImage(image.Rect(10, 10, 30, 30)).(*image.NRGBA)
	fm, err := (&Quantizer{Options: DefaultOptions}).Rank(sub)
	require.NoError(t, err)
	assert.Equal(t, 40, fm.Count(colorspace.RGB{R: 192, G: 64, B: 32}))
}

func TestKMeansTransparent(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 160, 90))
	fm, err := (&KMeans{Options: DefaultOptions}).Rank(img)
	require.NoError(t, err)
	assert.Equal(t, 0, fm.Len())
}
