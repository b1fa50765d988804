package palette

import (
	"math"

	"github.com/BitPonyLLC/framehue/pkg/colorspace"
)

// Range bounds a percentage. Both ends are taken literally, so {0, 0}
// pins the value at zero.
type Range struct {
	Min float64 `mapstructure:"min" json:"min" yaml:"min" toml:"min"`
	Max float64 `mapstructure:"max" json:"max" yaml:"max" toml:"max"`
}

// SlotRule describes how one slot is derived from its source color.
type SlotRule struct {
	HueShift   float64 `mapstructure:"hue-shift" json:"hue_shift" yaml:"hue_shift" toml:"hue_shift"`
	Saturation Range   `mapstructure:"saturation" json:"saturation" yaml:"saturation" toml:"saturation"`
	Lightness  Range   `mapstructure:"lightness" json:"lightness" yaml:"lightness" toml:"lightness"`
}

// Constraints holds a rule for every slot. Secondary is derived from the
// second most frequent color, every other slot from the dominant one.
type Constraints struct {
	Primary    SlotRule `mapstructure:"primary" json:"primary" yaml:"primary" toml:"primary"`
	Secondary  SlotRule `mapstructure:"secondary" json:"secondary" yaml:"secondary" toml:"secondary"`
	Accent     SlotRule `mapstructure:"accent" json:"accent" yaml:"accent" toml:"accent"`
	Background SlotRule `mapstructure:"background" json:"background" yaml:"background" toml:"background"`
	Muted      SlotRule `mapstructure:"muted" json:"muted" yaml:"muted" toml:"muted"`
}

// DefaultConstraints returns the stock clamps.
func DefaultConstraints() Constraints {
	return Constraints{
		Primary: SlotRule{
			Saturation: Range{Min: 50, Max: 100},
			Lightness:  Range{Min: 40, Max: 70},
		},
		Secondary: SlotRule{
			Saturation: Range{Min: 0, Max: 40},
			Lightness:  Range{Min: 10, Max: 20},
		},
		Accent: SlotRule{
			HueShift:   30,
			Saturation: Range{Min: 60, Max: 100},
			Lightness:  Range{Min: 50, Max: 80},
		},
		Background: SlotRule{
			Saturation: Range{Min: 0, Max: 20},
			Lightness:  Range{Min: 0, Max: 10},
		},
		Muted: SlotRule{
			Saturation: Range{Min: 0, Max: 30},
			Lightness:  Range{Min: 15, Max: 25},
		},
	}
}

func (r Range) clamp(v float64) float64 {
	return math.Min(r.Max, math.Max(r.Min, v))
}

func (sr SlotRule) apply(src colorspace.HSL) colorspace.HSL {
	return colorspace.HSL{
		H: math.Mod(src.H+sr.HueShift, 360),
		S: sr.Saturation.clamp(src.S),
		L: sr.Lightness.clamp(src.L),
	}
}
