// Package sampler obtains one representative frame from a video source and
// drives it through quantization and palette synthesis.
//
// Only the most recently started analysis may take effect: every call to
// Analyze supersedes the one in flight, and a superseded analysis never
// reaches the Publisher.
package sampler

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/BitPonyLLC/framehue/pkg/palette"
	"github.com/BitPonyLLC/framehue/pkg/quantize"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"
	"golang.org/x/image/draw"
)

var (
	ErrOpaqueEmbed = errors.New("source is an opaque embed and can't be sampled")
	ErrNotReady    = errors.New("frame never became ready")
	ErrSuperseded  = errors.New("analysis superseded by a newer request")
)

// Publisher receives the palette of a completed analysis. Commit applies p
// unless token is older than what was already applied; the returned notify
// tells consumers about it and is only called once the Sampler holds no locks.
type Publisher interface {
	Commit(token uint64, p palette.Palette) (notify func(), ok bool)
}

// Config holds the tunables of a Sampler.
type Config struct {
	// Width and Height size the off-screen surface frames are drawn into.
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`

	// SeekFraction of a known duration is where the frame is taken from,
	// otherwise FallbackOffset is used.
	SeekFraction   float64       `mapstructure:"seek-fraction"`
	FallbackOffset time.Duration `mapstructure:"fallback-offset"`

	Retry RetryPolicy `mapstructure:",squash"`

	Method      quantize.Method     `mapstructure:"method"`
	Quantize    quantize.Options    `mapstructure:"-"`
	Constraints palette.Constraints `mapstructure:"-"`
}

// Result describes a completed analysis.
type Result struct {
	Token    uint64           `json:"token" yaml:"token" toml:"token"`
	Source   string           `json:"source" yaml:"source" toml:"source"`
	Position time.Duration    `json:"position" yaml:"position" toml:"position"`
	Ranked   []quantize.Entry `json:"ranked" yaml:"ranked" toml:"ranked"`
	Palette  palette.Palette  `json:"palette" yaml:"palette" toml:"palette"`
}

// Sampler runs analyses. It is safe for concurrent use; concurrent calls
// supersede one another in call order.
type Sampler struct {
	// OnState, when set, observes the transitions of the current analysis.
	// It is never called with internal locks held.
	OnState func(token uint64, st State)

	publisher Publisher
	log       *zerolog.Logger

	token atomic.Uint64
	state atomic.Int32

	mutex  sync.Mutex
	cancel context.CancelFunc
	cfg    Config
	ranker quantize.Ranker
}

// run is what one analysis works with: the configuration is fixed when it
// begins.
type run struct {
	ctx    context.Context
	token  uint64
	cfg    Config
	ranker quantize.Ranker
}

// DefaultConfig returns a 160x90 surface taken a quarter of the way in (or
// three seconds in when the duration isn't known).
func DefaultConfig() Config {
	return Config{
		Width:          160,
		Height:         90,
		SeekFraction:   0.25,
		FallbackOffset: 3 * time.Second,
		Retry:          DefaultRetryPolicy,
		Method:         quantize.MethodBucket,
		Quantize:       quantize.DefaultOptions,
		Constraints:    palette.DefaultConstraints(),
	}
}

// New creates a Sampler handing its results to pub (which may be nil).
func New(cfg Config, pub Publisher, logger *zerolog.Logger) (*Sampler, error) {
	if logger == nil {
		logger = &log.Logger
	}

	s := &Sampler{publisher: pub, log: logger}
	err := s.Configure(cfg)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// Configure replaces the configuration used by analyses started from now on.
// Tokens carry on, so the new configuration still supersedes older analyses.
func (s *Sampler) Configure(cfg Config) error {
	def := DefaultConfig()
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = def.Width, def.Height
	}
	if cfg.SeekFraction <= 0 || cfg.SeekFraction >= 1 {
		cfg.SeekFraction = def.SeekFraction
	}
	if cfg.FallbackOffset < 0 {
		cfg.FallbackOffset = def.FallbackOffset
	}

	ranker, err := quantize.NewRanker(cfg.Method, cfg.Quantize)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.cfg = cfg
	s.ranker = ranker
	return nil
}

// Config returns the configuration the next analysis will use.
func (s *Sampler) Config() Config {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.cfg
}

// State reports where the most recent analysis is.
func (s *Sampler) State() State {
	return State(s.state.Load())
}

// Analyze takes one frame from src and, unless superseded in the meantime,
// publishes the palette synthesized from it. Any error leaves the published
// theme as it was.
//
// Selecting an opaque embed still supersedes whatever was in flight, but no
// sampling is attempted for it.
func (s *Sampler) Analyze(parent context.Context, src Source) (*Result, error) {
	r := s.begin(parent)
	defer s.finish(r.token)

	slog := s.log.With().Str("source", src.String()).Uint64("token", r.token).Logger()

	if src.Kind() == OpaqueEmbed {
		slog.Debug().Msg("skipping embedded source")
		return nil, ErrOpaqueEmbed
	}

	res, err := s.analyze(r, src, &slog)
	if err != nil {
		if errors.Is(err, ErrSuperseded) {
			slog.Debug().Msg("superseded")
		} else {
			slog.Warn().Err(err).Msg("analysis failed: keeping current theme")
		}
		return nil, err
	}

	slog.Info().Strs("palette", res.Palette.Hexes()).Dur("position", res.Position).Msg("analyzed")
	return res, nil
}

//--------------------------------------------------------------------------------
// private

func (s *Sampler) analyze(r run, src Source, slog *zerolog.Logger) (*Result, error) {
	pos := r.cfg.target(src)

	s.transition(r.token, Seeking)
	err := src.Seek(r.ctx, pos)
	if err != nil {
		return nil, s.fail(r.token, fmt.Errorf("unable to seek to %s: %w", pos, err))
	}

	s.transition(r.token, Capturing)
	err = r.cfg.Retry.Wait(r.ctx, src.Ready)
	if err != nil {
		return nil, s.fail(r.token, fmt.Errorf("unable to capture frame at %s: %w", pos, err))
	}

	frame, err := src.Frame()
	if err != nil {
		return nil, s.fail(r.token, fmt.Errorf("unable to read frame at %s: %w", pos, err))
	}

	surface := r.cfg.capture(frame)

	s.transition(r.token, Analyzing)
	fm, err := r.ranker.Rank(surface)
	if err != nil {
		return nil, s.fail(r.token, err)
	}

	ranked := fm.Top(5)
	p := r.cfg.Constraints.Synthesize(fm)
	slog.Trace().Int("colors", fm.Len()).Msg("ranked")

	err = s.commit(r.token, p)
	if err != nil {
		return nil, err
	}

	s.transition(r.token, Done)

	return &Result{
		Token:    r.token,
		Source:   src.String(),
		Position: pos,
		Ranked:   ranked,
		Palette:  p,
	}, nil
}

// begin supersedes whatever analysis is in flight.
func (s *Sampler) begin(parent context.Context) run {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	r := run{cfg: s.cfg, ranker: s.ranker}
	r.ctx, s.cancel = context.WithCancel(parent)
	r.token = s.token.Inc()
	return r
}

// commit hands p to the publisher only while token is still current: begin
// can't run between the check and the commit.
func (s *Sampler) commit(token uint64, p palette.Palette) error {
	s.mutex.Lock()

	if s.stale(token) {
		s.mutex.Unlock()
		return ErrSuperseded
	}

	var notify func()
	if s.publisher != nil {
		var ok bool
		notify, ok = s.publisher.Commit(token, p)
		if !ok {
			s.mutex.Unlock()
			return ErrSuperseded
		}
	}

	s.mutex.Unlock()

	if notify != nil {
		notify()
	}
	return nil
}

func (s *Sampler) finish(token uint64) {
	s.mutex.Lock()
	current := token == s.token.Load()
	if current && s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mutex.Unlock()

	// a newer analysis owns the cancel func and the state otherwise
	if current {
		s.transition(token, Idle)
	}
}

func (s *Sampler) stale(token uint64) bool {
	return token != s.token.Load()
}

func (s *Sampler) fail(token uint64, err error) error {
	if s.stale(token) {
		return ErrSuperseded
	}

	s.transition(token, Failed)
	return err
}

func (s *Sampler) transition(token uint64, st State) {
	if s.stale(token) {
		return
	}

	s.state.Store(int32(st))
	s.log.Trace().Uint64("token", token).Str("state", st.String()).Msg("sampler")
	if s.OnState != nil {
		s.OnState(token, st)
	}
}

func (cfg Config) target(src Source) time.Duration {
	if d, ok := src.Duration(); ok && d > 0 {
		return time.Duration(float64(d) * cfg.SeekFraction)
	}
	return cfg.FallbackOffset
}

// capture draws frame onto a small off-screen surface. Downscaling only bounds
// the cost of ranking.
func (cfg Config) capture(frame image.Image) *image.NRGBA {
	surface := image.NewNRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	src := frame.Bounds()
	if src.Dx() == cfg.Width && src.Dy() == cfg.Height {
		draw.Draw(surface, surface.Bounds(), frame, src.Min, draw.Src)
	} else {
		draw.ApproxBiLinear.Scale(surface, surface.Bounds(), frame, src, draw.Src, nil)
	}
	return surface
}
