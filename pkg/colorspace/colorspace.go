// Package colorspace converts between the RGB, HSL, and hexadecimal forms of
// a color. Every conversion here is total over its valid input domain.
package colorspace

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB represents the Red, Green, and Blue channels of a color.
type RGB struct {
	R uint8 `json:"r" yaml:"r" toml:"r"`
	G uint8 `json:"g" yaml:"g" toml:"g"`
	B uint8 `json:"b" yaml:"b" toml:"b"`
}

// HSL represents a color as hue in degrees [0,360) with saturation and
// lightness as percentages [0,100].
type HSL struct {
	H float64 `json:"h" yaml:"h" toml:"h"`
	S float64 `json:"s" yaml:"s" toml:"s"`
	L float64 `json:"l" yaml:"l" toml:"l"`
}

const hexFormat = "#%02x%02x%02x"

// RGBToHSL uses the min/max channel formula. Achromatic input (all channels
// equal) reports a hue and saturation of zero.
func RGBToHSL(r, g, b uint8) HSL {
	c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	h, s, l := c.Hsl()
	return HSL{H: h, S: s * 100, L: l * 100}
}

// HSLToHex returns the color as "#rrggbb" in lowercase, rounding each channel.
func HSLToHex(h, s, l float64) string {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}

	return colorful.Hsl(h, s/100, l/100).Clamped().Hex()
}

// HexToRGB parses a "#rrggbb" (or "#rgb") string.
func HexToRGB(hex string) (RGB, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return RGB{}, fmt.Errorf("unable to parse color %q: %w", hex, err)
	}

	r, g, b := c.RGB255()
	return RGB{R: r, G: g, B: b}, nil
}

// HexToHSL parses a "#rrggbb" string straight into HSL.
func HexToHSL(hex string) (HSL, error) {
	rgb, err := HexToRGB(hex)
	if err != nil {
		return HSL{}, err
	}

	return rgb.HSL(), nil
}

func (c RGB) HSL() HSL {
	return RGBToHSL(c.R, c.G, c.B)
}

func (c RGB) Hex() string {
	return fmt.Sprintf(hexFormat, c.R, c.G, c.B)
}

func (c RGB) String() string {
	return c.Hex()
}

func (c HSL) Hex() string {
	return HSLToHex(c.H, c.S, c.L)
}

// Triple renders the color the way UI theme variables expect it: "H S% L%"
// with every component rounded to an integer.
func (c HSL) Triple() string {
	return fmt.Sprintf("%.0f %.0f%% %.0f%%", math.Round(c.H), math.Round(c.S), math.Round(c.L))
}
