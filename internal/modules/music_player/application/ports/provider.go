package ports

import (
	"context"

	"github.com/hikawa-dev/cadenza/internal/modules/music_player/domain"
)

// Provider adapts one upstream catalog (YouTube, NetEase, ...) to the
// queue engine.
type Provider interface {
	// Name returns a stable provider identifier for logs and config.
	Name() string

	// Matches reports whether this provider recognizes the URL.
	Matches(url string) bool

	// Extract fetches catalog metadata for a recognized URL. The returned
	// descriptor carries a canonical catalog URL, never a media link.
	Extract(ctx context.Context, url string) (domain.TrackDescriptor, error)

	// ResolvePlayable produces a URL the voice transport can stream right
	// now. The result may be short-lived and must never be persisted.
	ResolvePlayable(ctx context.Context, d domain.TrackDescriptor) (string, error)
}

// TrackResolver is the engine's view of the provider registry.
type TrackResolver interface {
	// Recognize returns the name of the provider that matches the URL.
	Recognize(url string) (string, bool)

	Extract(ctx context.Context, url string) (domain.TrackDescriptor, error)
	ResolvePlayable(ctx context.Context, d domain.TrackDescriptor) (string, error)
}

// MediaLookup resolves metadata through the audio node for sources the
// node loads natively.
type MediaLookup interface {
	Lookup(ctx context.Context, url string) (domain.TrackDescriptor, error)
}
