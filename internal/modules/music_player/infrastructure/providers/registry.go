// Package providers adapts upstream audio catalogs to the queue engine.
package providers

import (
	"context"

	"github.com/hikawa-dev/cadenza/internal/modules/music_player/application/ports"
	"github.com/hikawa-dev/cadenza/internal/modules/music_player/domain"
)

// Compile-time check that Registry implements ports.TrackResolver.
var _ ports.TrackResolver = (*Registry)(nil)

// Registry dispatches URLs to providers in a fixed priority order. The
// first provider whose Matches returns true owns the URL; order matters
// because the generic provider matches broadly.
type Registry struct {
	providers []ports.Provider
}

// NewRegistry creates a registry with the given providers in priority
// order.
func NewRegistry(providers ...ports.Provider) *Registry {
	return &Registry{providers: providers}
}

// Recognize returns the name of the provider that matches the URL.
func (r *Registry) Recognize(url string) (string, bool) {
	if p := r.match(url); p != nil {
		return p.Name(), true
	}
	return "", false
}

// Extract fetches catalog metadata through the matching provider.
func (r *Registry) Extract(ctx context.Context, url string) (domain.TrackDescriptor, error) {
	p := r.match(url)
	if p == nil {
		return domain.TrackDescriptor{}, domain.ErrUnsupported
	}
	return p.Extract(ctx, url)
}

// ResolvePlayable produces a streamable URL through the provider that
// owns the descriptor's source.
func (r *Registry) ResolvePlayable(ctx context.Context, d domain.TrackDescriptor) (string, error) {
	p := r.match(d.CanonicalURL)
	if p == nil {
		return "", domain.ErrUnsupported
	}
	return p.ResolvePlayable(ctx, d)
}

func (r *Registry) match(url string) ports.Provider {
	for _, p := range r.providers {
		if p.Matches(url) {
			return p
		}
	}
	return nil
}
