package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/hikawa-dev/cadenza/internal/modules/music_player/domain"
)

// stubLookup satisfies ports.MediaLookup for URL matching tests.
type stubLookup struct {
	descriptor domain.TrackDescriptor
	err        error
}

func (s *stubLookup) Lookup(ctx context.Context, url string) (domain.TrackDescriptor, error) {
	return s.descriptor, s.err
}

func defaultRegistry() *Registry {
	lookup := &stubLookup{}
	return NewRegistry(
		NewYouTube(lookup),
		NewBilibili(),
		NewNetEase(NetEaseConfig{}),
		NewSoundCloud(lookup),
		NewCatbox(),
		NewGeneric(),
	)
}

func TestRegistry_Recognize(t *testing.T) {
	r := defaultRegistry()

	tests := []struct {
		name     string
		url      string
		provider string
		ok       bool
	}{
		{
			name:     "youtube watch",
			url:      "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			provider: "youtube",
			ok:       true,
		},
		{
			name:     "youtube short link",
			url:      "https://youtu.be/dQw4w9WgXcQ",
			provider: "youtube",
			ok:       true,
		},
		{
			name:     "bilibili bv",
			url:      "https://www.bilibili.com/video/BV1xx411c7mD",
			provider: "bilibili",
			ok:       true,
		},
		{
			name:     "bilibili av",
			url:      "https://www.bilibili.com/video/av170001",
			provider: "bilibili",
			ok:       true,
		},
		{
			name:     "netease song page",
			url:      "https://music.163.com/song?id=22677119",
			provider: "netease",
			ok:       true,
		},
		{
			name:     "netease fragment url",
			url:      "https://music.163.com/#/song?id=22677119",
			provider: "netease",
			ok:       true,
		},
		{
			name:     "netease outer media url",
			url:      "https://music.163.com/song/media/outer/url?id=22677119.mp3",
			provider: "netease",
			ok:       true,
		},
		{
			name:     "soundcloud track",
			url:      "https://soundcloud.com/artist/track",
			provider: "soundcloud",
			ok:       true,
		},
		{
			name:     "catbox audio file",
			url:      "https://files.catbox.moe/abc123.mp3",
			provider: "catbox",
			ok:       true,
		},
		{
			name:     "generic audio file",
			url:      "https://example.com/music/song.ogg",
			provider: "generic",
			ok:       true,
		},
		{
			name:     "generic wma file",
			url:      "https://example.com/music/song.wma",
			provider: "generic",
			ok:       true,
		},
		{
			name: "generic non-audio file",
			url:  "https://example.com/page.html",
			ok:   false,
		},
		{
			name: "webm outside catbox",
			url:  "https://example.com/video/clip.webm",
			ok:   false,
		},
		{
			name: "not a url",
			url:  "hello world",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, ok := r.Recognize(tt.url)
			if ok != tt.ok {
				t.Fatalf("Recognize(%q) ok = %v, want %v", tt.url, ok, tt.ok)
			}
			if ok && provider != tt.provider {
				t.Errorf("Recognize(%q) = %q, want %q", tt.url, provider, tt.provider)
			}
		})
	}
}

func TestRegistry_ExtractUnsupported(t *testing.T) {
	r := defaultRegistry()

	_, err := r.Extract(context.Background(), "https://example.com/page.html")
	if !errors.Is(err, domain.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestRegistry_PriorityOrder(t *testing.T) {
	r := defaultRegistry()

	// A catbox file is also a valid generic audio URL; the more specific
	// provider must win.
	provider, ok := r.Recognize("https://files.catbox.moe/abc123.mp3")
	if !ok || provider != "catbox" {
		t.Errorf("expected catbox to win over generic, got %q ok=%v", provider, ok)
	}
}

func TestYouTube_ExtractSetsSourceTag(t *testing.T) {
	lookup := &stubLookup{descriptor: domain.TrackDescriptor{
		Title:        "Track",
		CanonicalURL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	}}
	p := NewYouTube(lookup)

	d, err := p.Extract(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Source != domain.SourceYouTube {
		t.Errorf("expected youtube source tag, got %q", d.Source)
	}
}

func TestYouTube_LookupErrorPropagates(t *testing.T) {
	p := NewYouTube(&stubLookup{err: domain.ErrNotFound})

	_, err := p.Extract(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCatbox_Extract(t *testing.T) {
	p := NewCatbox()

	d, err := p.Extract(context.Background(), "https://files.catbox.moe/abc123.mp3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Title != "abc123.mp3" {
		t.Errorf("expected filename as title, got %q", d.Title)
	}
	if d.Source != domain.SourceCatbox {
		t.Errorf("expected catbox source tag, got %q", d.Source)
	}

	playable, err := p.ResolvePlayable(context.Background(), d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if playable != d.CanonicalURL {
		t.Errorf("expected passthrough playable url, got %q", playable)
	}
}

func TestCatbox_RejectsNonAudio(t *testing.T) {
	p := NewCatbox()

	if p.Matches("https://files.catbox.moe/abc123.png") {
		t.Error("expected non-audio extension to be rejected")
	}
}
