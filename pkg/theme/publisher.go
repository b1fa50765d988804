package theme

import (
	"maps"
	"sync"

	"github.com/BitPonyLLC/framehue/pkg/palette"
	"github.com/BitPonyLLC/framehue/pkg/sampler"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Publisher applies palettes to a State and notifies consumers.
type Publisher struct {
	State *State

	// OnChange is invoked after every applied palette with its values ordered
	// as primary, secondary, accent, background, muted.
	OnChange func(hexes []string)

	log   *zerolog.Logger
	mutex sync.Mutex // keeps notifications in publish order
}

var _ sampler.Publisher = (*Publisher)(nil) // ensures we conform to the sampler.Publisher interface

func NewPublisher(state *State, logger *zerolog.Logger) *Publisher {
	if logger == nil {
		logger = &log.Logger
	}
	return &Publisher{State: state, log: logger}
}

// Publish atomically replaces the theme with p and notifies consumers. It
// returns false, changing nothing, when token is not newer than the token of
// the current theme or p is not a valid palette.
func (pub *Publisher) Publish(token uint64, p palette.Palette) bool {
	notify, ok := pub.Commit(token, p)
	if ok {
		notify()
	}
	return ok
}

// Commit replaces the theme like Publish but leaves notifying consumers to the
// returned func. A notify that runs after a newer commit does nothing: the
// newer one announces itself.
func (pub *Publisher) Commit(token uint64, p palette.Palette) (func(), bool) {
	if !p.Valid() {
		pub.log.Error().Strs("palette", p.Hexes()).Msg("refusing to publish invalid palette")
		return nil, false
	}

	snap, ok := pub.State.replace(token, p)
	if !ok {
		pub.log.Debug().Uint64("token", token).Msg("dropping stale palette")
		return nil, false
	}

	pub.log.Debug().Uint64("token", token).Str("gradient", snap.Vars[GradientKey]).Msg("published")
	return func() { pub.notify(snap) }, true
}

func (pub *Publisher) notify(snap *Snapshot) {
	pub.mutex.Lock()
	defer pub.mutex.Unlock()

	if pub.State.current.Load() != snap {
		return
	}

	if pub.OnChange != nil {
		pub.OnChange(snap.Palette.Hexes())
	}

	out := *snap
	out.Vars = maps.Clone(snap.Vars)
	pub.State.events.Emit(out)
}
