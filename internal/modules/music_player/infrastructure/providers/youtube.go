package providers

import (
	"context"
	"regexp"

	"github.com/hikawa-dev/cadenza/internal/modules/music_player/application/ports"
	"github.com/hikawa-dev/cadenza/internal/modules/music_player/domain"
)

var youtubeURLRe = regexp.MustCompile(`(?i)^https?://(www\.|m\.|music\.)?(youtube\.com/(watch\?|shorts/)|youtu\.be/)`)

// YouTube resolves YouTube URLs. Metadata comes from the audio node,
// which loads YouTube natively, so the playable URL is just the
// canonical watch URL.
type YouTube struct {
	lookup ports.MediaLookup
}

// NewYouTube creates the YouTube provider.
func NewYouTube(lookup ports.MediaLookup) *YouTube {
	return &YouTube{lookup: lookup}
}

// Name returns the provider identifier.
func (p *YouTube) Name() string { return "youtube" }

// Matches reports whether the URL is a YouTube watch, shorts, or
// short-link URL.
func (p *YouTube) Matches(url string) bool {
	return youtubeURLRe.MatchString(url)
}

// Extract loads metadata through the audio node.
func (p *YouTube) Extract(ctx context.Context, url string) (domain.TrackDescriptor, error) {
	d, err := p.lookup.Lookup(ctx, url)
	if err != nil {
		return domain.TrackDescriptor{}, err
	}
	d.Source = domain.SourceYouTube
	return d, nil
}

// ResolvePlayable returns the canonical URL; the node streams it
// directly.
func (p *YouTube) ResolvePlayable(ctx context.Context, d domain.TrackDescriptor) (string, error) {
	return d.CanonicalURL, nil
}
