// Package palette turns the dominant colors of a frame into a five slot UI
// theme, clamping saturation and lightness so the result stays legible no
// matter what the frame looked like.
package palette

import (
	"regexp"

	"github.com/BitPonyLLC/framehue/pkg/colorspace"
	"github.com/BitPonyLLC/framehue/pkg/quantize"
)

// Palette holds the five named theme colors, each formatted as "#rrggbb".
type Palette struct {
	Primary    string `json:"primary" yaml:"primary" toml:"primary"`
	Secondary  string `json:"secondary" yaml:"secondary" toml:"secondary"`
	Accent     string `json:"accent" yaml:"accent" toml:"accent"`
	Background string `json:"background" yaml:"background" toml:"background"`
	Muted      string `json:"muted" yaml:"muted" toml:"muted"`
}

// Default is the orange-on-dark fallback used whenever nothing usable was
// sampled.
var Default = Palette{
	Primary:    "#ff6b35",
	Secondary:  "#1a1a1a",
	Accent:     "#ff8c42",
	Background: "#0a0a0a",
	Muted:      "#333333",
}

// SlotNames lists the slots in the same order as Hexes.
var SlotNames = []string{"primary", "secondary", "accent", "background", "muted"}

// rankDepth is how many of the most frequent colors are considered.
const rankDepth = 5

var hexRE = regexp.MustCompile(`^#[0-9a-f]{6}$`)

// Hexes returns the slot values ordered as primary, secondary, accent,
// background, muted.
func (p Palette) Hexes() []string {
	return []string{p.Primary, p.Secondary, p.Accent, p.Background, p.Muted}
}

// Valid reports whether every slot holds a lowercase "#rrggbb" value.
func (p Palette) Valid() bool {
	for _, hex := range p.Hexes() {
		if !hexRE.MatchString(hex) {
			return false
		}
	}
	return true
}

// Synthesize derives a palette from fm using DefaultConstraints.
func Synthesize(fm *quantize.FrequencyMap) Palette {
	return DefaultConstraints().Synthesize(fm)
}

// Synthesize derives a palette from the two most frequent colors of fm. An
// empty map yields Default.
func (c Constraints) Synthesize(fm *quantize.FrequencyMap) Palette {
	ranked := fm.Top(rankDepth)
	if len(ranked) == 0 {
		return Default
	}

	dominant := ranked[0].Color
	secondary := dominant
	if len(ranked) > 1 {
		secondary = ranked[1].Color
	}

	return c.Derive(dominant.HSL(), secondary.HSL())
}

// Derive applies each slot rule to its source color.
func (c Constraints) Derive(dominant, secondary colorspace.HSL) Palette {
	return Palette{
		Primary:    c.Primary.apply(dominant).Hex(),
		Secondary:  c.Secondary.apply(secondary).Hex(),
		Accent:     c.Accent.apply(dominant).Hex(),
		Background: c.Background.apply(dominant).Hex(),
		Muted:      c.Muted.apply(dominant).Hex(),
	}
}
