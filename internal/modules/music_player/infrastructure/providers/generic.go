package providers

import (
	"context"
	"net/url"
	"path"
	"strings"

	"github.com/hikawa-dev/cadenza/internal/modules/music_player/domain"
)

var genericAudioExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".ogg":  true,
	".m4a":  true,
	".flac": true,
	".aac":  true,
	".opus": true,
	".wma":  true,
}

// Generic accepts any direct link to an audio file. It must be
// registered last; its match is the broadest.
type Generic struct{}

// NewGeneric creates the generic direct-file provider.
func NewGeneric() *Generic {
	return &Generic{}
}

// Name returns the provider identifier.
func (p *Generic) Name() string { return "generic" }

// Matches reports whether the URL points at a file with a known audio
// extension.
func (p *Generic) Matches(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	return genericAudioExtensions[strings.ToLower(path.Ext(u.Path))]
}

// Extract derives metadata from the URL; direct files carry no catalog
// data.
func (p *Generic) Extract(ctx context.Context, rawURL string) (domain.TrackDescriptor, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return domain.TrackDescriptor{}, domain.ErrMalformed
	}

	return domain.TrackDescriptor{
		Title:        path.Base(u.Path),
		CanonicalURL: rawURL,
		Source:       domain.SourceGeneric,
	}, nil
}

// ResolvePlayable returns the file URL unchanged.
func (p *Generic) ResolvePlayable(ctx context.Context, d domain.TrackDescriptor) (string, error) {
	return d.CanonicalURL, nil
}
