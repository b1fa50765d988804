package cmd

import (
	"context"
	"fmt"

	"github.com/BitPonyLLC/framehue/pkg/media"
	"github.com/BitPonyLLC/framehue/pkg/palette"
	"github.com/BitPonyLLC/framehue/pkg/quantize"
	"github.com/BitPonyLLC/framehue/pkg/sampler"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"go.uber.org/atomic"
)

func setDefaults() {
	sc := sampler.DefaultConfig()
	viper.SetDefault("sampler.width", sc.Width)
	viper.SetDefault("sampler.height", sc.Height)
	viper.SetDefault("sampler.seek-fraction", sc.SeekFraction)
	viper.SetDefault("sampler.fallback-offset", sc.FallbackOffset.String())
	viper.SetDefault("sampler.retry-attempts", sc.Retry.Attempts)
	viper.SetDefault("sampler.retry-interval", sc.Retry.Interval.String())

	viper.SetDefault("quantize.method", string(sc.Method))
	viper.SetDefault("quantize.stride", sc.Quantize.Stride)
	viper.SetDefault("quantize.bucket-size", sc.Quantize.BucketSize)
	viper.SetDefault("quantize.alpha-threshold", sc.Quantize.AlphaThreshold)
	viper.SetDefault("quantize.dark-threshold", sc.Quantize.DarkThreshold)

	for slot, rule := range slotRules(sc.Constraints) {
		key := "palette." + slot + "."
		viper.SetDefault(key+"hue-shift", rule.HueShift)
		viper.SetDefault(key+"saturation.min", rule.Saturation.Min)
		viper.SetDefault(key+"saturation.max", rule.Saturation.Max)
		viper.SetDefault(key+"lightness.min", rule.Lightness.Min)
		viper.SetDefault(key+"lightness.max", rule.Lightness.Max)
	}

	viper.SetDefault("media.embed-hosts", media.DefaultConfig.EmbedHosts)
	viper.SetDefault("media.duration-command", media.DefaultConfig.DurationCommand)
	viper.SetDefault("media.grab-command", media.DefaultConfig.GrabCommand)

	viper.SetDefault("serve.follow", "")
	viper.SetDefault("serve.css-out", "")
}

func slotRules(c palette.Constraints) map[string]palette.SlotRule {
	return map[string]palette.SlotRule{
		"primary":    c.Primary,
		"secondary":  c.Secondary,
		"accent":     c.Accent,
		"background": c.Background,
		"muted":      c.Muted,
	}
}

func samplerConfig() (sampler.Config, error) {
	cfg := sampler.DefaultConfig()

	err := viper.UnmarshalKey("sampler", &cfg)
	if err != nil {
		return cfg, fmt.Errorf("unable to parse sampler config: %w", err)
	}

	err = viper.UnmarshalKey("quantize", &cfg.Quantize)
	if err != nil {
		return cfg, fmt.Errorf("unable to parse quantize config: %w", err)
	}

	err = viper.UnmarshalKey("palette", &cfg.Constraints)
	if err != nil {
		return cfg, fmt.Errorf("unable to parse palette config: %w", err)
	}

	cfg.Method = quantize.Method(viper.GetString("quantize.method"))
	return cfg, nil
}

func mediaConfig() (media.Config, error) {
	cfg := media.DefaultConfig

	err := viper.UnmarshalKey("media", &cfg)
	if err != nil {
		return cfg, fmt.Errorf("unable to parse media config: %w", err)
	}

	return cfg, nil
}

// analyzer resolves references and runs them through one Sampler, so that
// every analysis it starts supersedes the previous one. Both halves may be
// reconfigured while analyses run.
type analyzer struct {
	sampler  *sampler.Sampler
	resolver atomic.Pointer[media.Resolver]
}

func newAnalyzer(pub sampler.Publisher) (*analyzer, error) {
	sc, err := samplerConfig()
	if err != nil {
		return nil, err
	}

	mc, err := mediaConfig()
	if err != nil {
		return nil, err
	}

	return newAnalyzerWith(sc, mc, pub)
}

func newAnalyzerWith(sc sampler.Config, mc media.Config, pub sampler.Publisher) (*analyzer, error) {
	s, err := sampler.New(sc, pub, &log.Logger)
	if err != nil {
		return nil, err
	}

	a := &analyzer{sampler: s}
	a.resolver.Store(media.NewResolver(mc, &log.Logger))
	return a, nil
}

// reconfigure applies to analyses started afterwards. A bad sampler config
// leaves both halves as they were.
func (a *analyzer) reconfigure(sc sampler.Config, mc media.Config) error {
	err := a.sampler.Configure(sc)
	if err != nil {
		return err
	}

	a.resolver.Store(media.NewResolver(mc, &log.Logger))
	return nil
}

func (a *analyzer) analyze(ctx context.Context, ref string) (*sampler.Result, error) {
	src, err := a.resolver.Load().Resolve(ref)
	if err != nil {
		return nil, err
	}

	return a.sampler.Analyze(ctx, src)
}
