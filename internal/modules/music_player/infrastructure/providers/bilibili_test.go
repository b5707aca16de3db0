package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hikawa-dev/cadenza/internal/modules/music_player/domain"
)

func TestBilibili_VideoIDExtraction(t *testing.T) {
	p := NewBilibili()

	tests := []struct {
		url  string
		want string
	}{
		{"https://www.bilibili.com/video/BV1xx411c7mD", "BV1xx411c7mD"},
		{"https://bilibili.com/video/BV1xx411c7mD?p=2", "BV1xx411c7mD"},
		{"https://www.bilibili.com/video/av170001", "av170001"},
		{"https://www.bilibili.com/bangumi/play/ep123", ""},
	}

	for _, tt := range tests {
		if got := p.videoID(tt.url); got != tt.want {
			t.Errorf("videoID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestBilibili_Extract(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("bvid") != "BV1xx411c7mD" {
			t.Errorf("expected bvid param, got query %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"code": 0,
			"data": {
				"title": "Test Video",
				"duration": 245,
				"pic": "https://i0.hdslb.com/cover.jpg",
				"cid": 12345,
				"owner": {"name": "Uploader"}
			}
		}`))
	}))
	defer server.Close()

	p := NewBilibili()
	p.viewAPI = server.URL

	d, err := p.Extract(context.Background(), "https://www.bilibili.com/video/BV1xx411c7mD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Title != "Test Video" {
		t.Errorf("expected title %q, got %q", "Test Video", d.Title)
	}
	if d.Duration != 245*time.Second {
		t.Errorf("expected duration 245s, got %v", d.Duration)
	}
	if d.CanonicalURL != "https://www.bilibili.com/video/BV1xx411c7mD" {
		t.Errorf("expected canonical video page url, got %q", d.CanonicalURL)
	}
	if d.Source != domain.SourceBilibili {
		t.Errorf("expected bilibili source tag, got %q", d.Source)
	}
}

func TestBilibili_ExtractNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code": -404, "message": "not found", "data": {}}`))
	}))
	defer server.Close()

	p := NewBilibili()
	p.viewAPI = server.URL

	_, err := p.Extract(context.Background(), "https://www.bilibili.com/video/BV1xx411c7mD")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestBilibili_ResolvePlayable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(r.URL.Path, "playurl") {
			if r.URL.Query().Get("cid") != "12345" {
				t.Errorf("expected cid from view api, got %q", r.URL.Query().Get("cid"))
			}
			_, _ = w.Write([]byte(`{
				"code": 0,
				"data": {"durl": [{"url": "https://upos-sz.bilivideo.com/stream?sign=abc"}]}
			}`))
			return
		}
		_, _ = w.Write([]byte(`{"code": 0, "data": {"title": "v", "duration": 1, "cid": 12345, "owner": {"name": "u"}}}`))
	}))
	defer server.Close()

	p := NewBilibili()
	p.viewAPI = server.URL + "/view"
	p.playURLAPI = server.URL + "/playurl"

	playable, err := p.ResolvePlayable(context.Background(), domain.TrackDescriptor{
		CanonicalURL: "https://www.bilibili.com/video/BV1xx411c7mD",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if playable != "https://upos-sz.bilivideo.com/stream?sign=abc" {
		t.Errorf("unexpected playable url: %q", playable)
	}
}

func TestBilibili_GeoBlocked(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	p := NewBilibili()
	p.viewAPI = server.URL

	_, err := p.Extract(context.Background(), "https://www.bilibili.com/video/BV1xx411c7mD")
	if !errors.Is(err, domain.ErrGeoBlocked) {
		t.Errorf("expected ErrGeoBlocked, got %v", err)
	}
}
