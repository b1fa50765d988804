// Package theme holds the process-wide UI theme derived from the latest
// palette and lets any number of consumers read or watch it.
package theme

import (
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/BitPonyLLC/framehue/pkg/colorspace"
	"github.com/BitPonyLLC/framehue/pkg/events"
	"github.com/BitPonyLLC/framehue/pkg/palette"

	"go.uber.org/atomic"
)

// Theme property names.
const (
	PrimaryKey           = "--primary"
	PrimaryForegroundKey = "--primary-foreground"
	AccentKey            = "--accent"
	AccentForegroundKey  = "--accent-foreground"
	MutedKey             = "--muted"
	MutedForegroundKey   = "--muted-foreground"
	GradientKey          = "--theme-gradient"
)

const (
	LightForeground = "0 0% 98%"
	MutedForeground = "0 0% 63.9%"
)

// Keys lists every property in render order.
var Keys = []string{
	PrimaryKey,
	PrimaryForegroundKey,
	AccentKey,
	AccentForegroundKey,
	MutedKey,
	MutedForegroundKey,
	GradientKey,
}

// Snapshot is one complete, immutable version of the theme.
type Snapshot struct {
	Token     uint64            `json:"token" yaml:"token" toml:"token"`
	Palette   palette.Palette   `json:"palette" yaml:"palette" toml:"palette"`
	Vars      map[string]string `json:"vars" yaml:"vars" toml:"vars"`
	UpdatedAt time.Time         `json:"updated_at" yaml:"updated_at" toml:"updated_at"`
}

// State is the current theme. Publisher is its only writer; readers always
// see a whole Snapshot, never a partially applied one.
type State struct {
	current atomic.Pointer[Snapshot]
	events  events.Manager
}

// NewState returns a State holding the default palette.
func NewState() *State {
	s := &State{}
	s.current.Store(newSnapshot(0, palette.Default))
	return s
}

// Snapshot returns a copy of the current theme.
func (s *State) Snapshot() Snapshot {
	snap := *s.current.Load()
	snap.Vars = maps.Clone(snap.Vars)
	return snap
}

// Get returns a single property of the current theme.
func (s *State) Get(key string) string {
	return s.current.Load().Vars[key]
}

// Watch subscribes to every Snapshot published from now on. Events on the
// watcher's channel are Snapshot values.
func (s *State) Watch() *events.Watcher {
	return s.events.Watch()
}

// For returns the snapshot p would be published as, without publishing it.
func For(p palette.Palette) Snapshot {
	return *newSnapshot(0, p)
}

// Gradient is the two-stop gradient from primary to accent.
func Gradient(p palette.Palette) string {
	return fmt.Sprintf("linear-gradient(135deg, %s 0%%, %s 100%%)", p.Primary, p.Accent)
}

// CSS renders the properties as a ":root" rule.
func (snap Snapshot) CSS() string {
	var sb strings.Builder
	sb.WriteString(":root {\n")
	for _, key := range Keys {
		fmt.Fprintf(&sb, "  %s: %s;\n", key, snap.Vars[key])
	}
	sb.WriteString("}\n")
	return sb.String()
}

//--------------------------------------------------------------------------------
// private

func newSnapshot(token uint64, p palette.Palette) *Snapshot {
	return &Snapshot{
		Token:   token,
		Palette: p,
		Vars: map[string]string{
			PrimaryKey:           triple(p.Primary),
			PrimaryForegroundKey: LightForeground,
			AccentKey:            triple(p.Accent),
			AccentForegroundKey:  LightForeground,
			MutedKey:             triple(p.Muted),
			MutedForegroundKey:   MutedForeground,
			GradientKey:          Gradient(p),
		},
		UpdatedAt: time.Now(),
	}
}

// triple expects a validated "#rrggbb" value.
func triple(hex string) string {
	hsl, _ := colorspace.HexToHSL(hex)
	return hsl.Triple()
}

// replace swaps in a snapshot for p unless a newer token was already applied.
func (s *State) replace(token uint64, p palette.Palette) (*Snapshot, bool) {
	next := newSnapshot(token, p)
	for {
		cur := s.current.Load()
		if token <= cur.Token {
			return nil, false
		}

		if s.current.CompareAndSwap(cur, next) {
			return next, true
		}
	}
}
