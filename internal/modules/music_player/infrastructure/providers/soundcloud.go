package providers

import (
	"context"
	"regexp"

	"github.com/hikawa-dev/cadenza/internal/modules/music_player/application/ports"
	"github.com/hikawa-dev/cadenza/internal/modules/music_player/domain"
)

var soundcloudURLRe = regexp.MustCompile(`(?i)^https?://(www\.|on\.|m\.)?soundcloud\.com/`)

// SoundCloud resolves SoundCloud URLs through the audio node.
type SoundCloud struct {
	lookup ports.MediaLookup
}

// NewSoundCloud creates the SoundCloud provider.
func NewSoundCloud(lookup ports.MediaLookup) *SoundCloud {
	return &SoundCloud{lookup: lookup}
}

// Name returns the provider identifier.
func (p *SoundCloud) Name() string { return "soundcloud" }

// Matches reports whether the URL is a SoundCloud track URL.
func (p *SoundCloud) Matches(url string) bool {
	return soundcloudURLRe.MatchString(url)
}

// Extract loads metadata through the audio node.
func (p *SoundCloud) Extract(ctx context.Context, url string) (domain.TrackDescriptor, error) {
	d, err := p.lookup.Lookup(ctx, url)
	if err != nil {
		return domain.TrackDescriptor{}, err
	}
	d.Source = domain.SourceSoundCloud
	return d, nil
}

// ResolvePlayable returns the canonical URL; the node streams it
// directly.
func (p *SoundCloud) ResolvePlayable(ctx context.Context, d domain.TrackDescriptor) (string, error) {
	return d.CanonicalURL, nil
}
