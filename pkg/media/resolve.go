// Package media resolves source references handed over by the playback side
// into sampler.Source values.
package media

import (
	"errors"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/BitPonyLLC/framehue/pkg/sampler"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds the settings used when resolving and reading sources.
type Config struct {
	// EmbedHosts are platforms whose pages are only ever shown through an
	// opaque frame. Subdomains match too.
	EmbedHosts []string `mapstructure:"embed-hosts"`
	// DurationCommand prints the duration of .Path in seconds.
	DurationCommand string `mapstructure:"duration-command"`
	// GrabCommand writes one encoded frame of .Path at .Seconds to stdout.
	GrabCommand string `mapstructure:"grab-command"`
}

var DefaultConfig = Config{
	EmbedHosts:      []string{"youtube.com", "youtu.be", "thisvid.com"},
	DurationCommand: "ffprobe -v error -show_entries format=duration -of default=noprint_wrappers=1:nokey=1 {{quote .Path}}",
	GrabCommand:     "ffmpeg -v error -ss {{.Seconds}} -i {{quote .Path}} -frames:v 1 -f image2pipe -vcodec png -",
}

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// Resolver turns references into sources.
type Resolver struct {
	Config

	log *zerolog.Logger
}

func NewResolver(cfg Config, logger *zerolog.Logger) *Resolver {
	if len(cfg.EmbedHosts) == 0 {
		cfg.EmbedHosts = DefaultConfig.EmbedHosts
	}
	if cfg.DurationCommand == "" {
		cfg.DurationCommand = DefaultConfig.DurationCommand
	}
	if cfg.GrabCommand == "" {
		cfg.GrabCommand = DefaultConfig.GrabCommand
	}
	if logger == nil {
		logger = &log.Logger
	}
	return &Resolver{Config: cfg, log: logger}
}

// Resolve decides, once, what kind of source ref is and returns a Source for
// it. Embedded platform pages yield an EmbedSource that the sampler rejects.
func (r *Resolver) Resolve(ref string) (sampler.Source, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errors.New("empty source reference")
	}

	location := ref
	remote := false
	u, err := url.Parse(ref)
	if err == nil {
		switch u.Scheme {
		case "http", "https":
			if r.isEmbed(u.Hostname()) {
				return &EmbedSource{Ref: ref}, nil
			}
			remote = true
		case "file":
			location = u.Path
		}
	}

	// remote pictures are fetched by the grab command like any other stream
	if !remote && imageExts[strings.ToLower(filepath.Ext(location))] {
		return &ImageSource{Path: location}, nil
	}

	slog := r.log.With().Str("source", location).Logger()
	return &FFmpegSource{
		Ref:             location,
		DurationCommand: r.DurationCommand,
		GrabCommand:     r.GrabCommand,
		log:             &slog,
	}, nil
}

//--------------------------------------------------------------------------------
// private

func (r *Resolver) isEmbed(host string) bool {
	host = strings.ToLower(host)
	for _, embed := range r.EmbedHosts {
		embed = strings.ToLower(embed)
		if host == embed || strings.HasSuffix(host, "."+embed) {
			return true
		}
	}
	return false
}
