package providers

import (
	"context"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/hikawa-dev/cadenza/internal/modules/music_player/domain"
)

var catboxURLRe = regexp.MustCompile(`(?i)^https?://files\.catbox\.moe/[A-Za-z0-9]+\.[A-Za-z0-9]+$`)

var catboxAudioExtensions = map[string]bool{
	".mp3":  true,
	".ogg":  true,
	".wav":  true,
	".flac": true,
	".m4a":  true,
	".aac":  true,
	".opus": true,
	".webm": true,
}

// Catbox resolves files.catbox.moe uploads. The file URL is both the
// canonical URL and the playable URL; it never expires.
type Catbox struct{}

// NewCatbox creates the Catbox provider.
func NewCatbox() *Catbox {
	return &Catbox{}
}

// Name returns the provider identifier.
func (p *Catbox) Name() string { return "catbox" }

// Matches reports whether the URL is a catbox file with an audio
// extension.
func (p *Catbox) Matches(rawURL string) bool {
	if !catboxURLRe.MatchString(rawURL) {
		return false
	}
	return catboxAudioExtensions[strings.ToLower(path.Ext(rawURL))]
}

// Extract derives metadata from the URL itself; catbox stores no
// catalog data. Duration stays unknown until the transport loads it.
func (p *Catbox) Extract(ctx context.Context, rawURL string) (domain.TrackDescriptor, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return domain.TrackDescriptor{}, domain.ErrMalformed
	}

	return domain.TrackDescriptor{
		Title:        path.Base(u.Path),
		CanonicalURL: rawURL,
		Source:       domain.SourceCatbox,
	}, nil
}

// ResolvePlayable returns the file URL unchanged.
func (p *Catbox) ResolvePlayable(ctx context.Context, d domain.TrackDescriptor) (string, error) {
	return d.CanonicalURL, nil
}
