package quantize

import (
	"fmt"
	"image"

	"github.com/BitPonyLLC/framehue/pkg/colorspace"

	"github.com/EdlinOrg/prominentcolor"
)

// KMeans ranks a surface by clustering it and folding every centroid into the
// bucket it falls in, weighted by the size of its cluster.
type KMeans struct {
	Options

	// K is the number of clusters to compute (defaults to 5).
	K int
}

var _ Ranker = (*KMeans)(nil) // ensures we conform to the Ranker interface

const defaultK = 5

func (km *KMeans) Rank(img *image.NRGBA) (*FrequencyMap, error) {
	opts := km.Options.normalized()

	// nothing survives filtering: same empty result as the bucket method
	check := &Quantizer{Options: opts}
	if check.Quantize(packed(img)).Len() == 0 {
		return NewFrequencyMap(), nil
	}

	k := km.K
	if k <= 0 {
		k = defaultK
	}

	items, err := prominentcolor.KmeansWithAll(k, img, prominentcolor.ArgumentNoCropping,
		prominentcolor.DefaultSize, []prominentcolor.ColorBackgroundMask{})
	if err != nil {
		return nil, fmt.Errorf("unable to extract prominent colors: %w", err)
	}

	fm := NewFrequencyMap()
	for _, item := range items {
		c := colorspace.RGB{R: uint8(item.Color.R), G: uint8(item.Color.G), B: uint8(item.Color.B)}
		if !opts.keep(c.R, c.G, c.B, 255) {
			continue
		}

		fm.Add(opts.bucket(c), item.Cnt)
	}

	return fm, nil
}
