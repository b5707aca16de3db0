package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/goccy/go-json"

	"github.com/hikawa-dev/cadenza/internal/modules/music_player/domain"
)

const (
	neteaseDetailAPI = "https://music.163.com/api/song/detail"
	neteaseOuterURL  = "https://music.163.com/song/media/outer/url"
	neteaseProxyAPI  = "https://api.paugram.com/netease/"
)

var neteaseURLRes = []*regexp.Regexp{
	regexp.MustCompile(`music\.163\.com/song\?id=(\d+)`),
	regexp.MustCompile(`music\.163\.com/#/song\?id=(\d+)`),
	regexp.MustCompile(`music\.163\.com/m/song\?id=(\d+)`),
	regexp.MustCompile(`y\.music\.163\.com/m/song\?id=(\d+)`),
	regexp.MustCompile(`music\.163\.com/song/media/outer/url\?id=(\d+)`),
	regexp.MustCompile(`api\.paugram\.com/netease/\?id=(\d+)`),
}

// NetEaseConfig tunes the NetEase Cloud Music provider.
type NetEaseConfig struct {
	// ProxyHost, when set, replaces the music.163.com host in playable
	// URLs for hosts where the catalog is geo blocked.
	ProxyHost  string
	ProxyHTTPS bool
	// MemberCookie is the MUSIC_U session cookie. With it the detail API
	// serves member-only tracks.
	MemberCookie string
	// UsePlaybackAPI routes playable URLs through the community API
	// endpoint instead of the outer-media redirect.
	UsePlaybackAPI bool
}

// NetEase resolves NetEase Cloud Music song URLs via the public catalog
// API.
type NetEase struct {
	cfg       NetEaseConfig
	client    *http.Client
	detailAPI string
}

// NewNetEase creates the NetEase provider.
func NewNetEase(cfg NetEaseConfig) *NetEase {
	return &NetEase{
		cfg:       cfg,
		client:    &http.Client{Timeout: 10 * time.Second},
		detailAPI: neteaseDetailAPI,
	}
}

// Name returns the provider identifier.
func (p *NetEase) Name() string { return "netease" }

// Matches reports whether the URL is a NetEase song URL in any of its
// known shapes.
func (p *NetEase) Matches(url string) bool {
	return p.songID(url) != ""
}

func (p *NetEase) songID(url string) string {
	for _, re := range neteaseURLRes {
		if m := re.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return ""
}

type neteaseDetailResponse struct {
	Code  int `json:"code"`
	Songs []struct {
		Name     string `json:"name"`
		Duration int64  `json:"duration"`
		Artists  []struct {
			Name string `json:"name"`
		} `json:"artists"`
		Album struct {
			PicURL string `json:"picUrl"`
		} `json:"album"`
	} `json:"songs"`
}

// Extract fetches song metadata from the catalog detail API. The
// canonical URL is always the song page, regardless of which URL shape
// was submitted.
func (p *NetEase) Extract(ctx context.Context, rawURL string) (domain.TrackDescriptor, error) {
	id := p.songID(rawURL)
	if id == "" {
		return domain.TrackDescriptor{}, domain.ErrUnsupported
	}

	endpoint := fmt.Sprintf("%s?ids=[%s]", p.detailAPI, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.TrackDescriptor{}, fmt.Errorf("build detail request: %w", err)
	}
	req.Header.Set("Referer", "https://music.163.com/")
	if p.cfg.MemberCookie != "" {
		req.AddCookie(&http.Cookie{Name: "MUSIC_U", Value: p.cfg.MemberCookie})
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return domain.TrackDescriptor{}, fmt.Errorf("fetch song detail: %w", domain.ErrNetwork)
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.TrackDescriptor{}, domain.ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		return domain.TrackDescriptor{}, fmt.Errorf("detail api status %d: %w", resp.StatusCode, domain.ErrNetwork)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.TrackDescriptor{}, fmt.Errorf("read detail response: %w", domain.ErrNetwork)
	}

	var detail neteaseDetailResponse
	if err := json.Unmarshal(body, &detail); err != nil {
		return domain.TrackDescriptor{}, fmt.Errorf("decode detail response: %w", domain.ErrMalformed)
	}
	if len(detail.Songs) == 0 {
		return domain.TrackDescriptor{}, domain.ErrNotFound
	}

	song := detail.Songs[0]
	uploader := ""
	if len(song.Artists) > 0 {
		uploader = song.Artists[0].Name
	}

	return domain.TrackDescriptor{
		Title:        song.Name,
		Duration:     time.Duration(song.Duration) * time.Millisecond,
		CanonicalURL: fmt.Sprintf("https://music.163.com/song?id=%s", id),
		Uploader:     uploader,
		ThumbnailURL: song.Album.PicURL,
		Source:       domain.SourceNetEase,
	}, nil
}

// ResolvePlayable builds a streamable URL for the song. The result is
// short-lived upstream and must be re-resolved on every play.
func (p *NetEase) ResolvePlayable(ctx context.Context, d domain.TrackDescriptor) (string, error) {
	id := p.songID(d.CanonicalURL)
	if id == "" {
		return "", domain.ErrUnsupported
	}

	var playable string
	if p.cfg.UsePlaybackAPI {
		playable = fmt.Sprintf("%s?id=%s", neteaseProxyAPI, id)
	} else {
		playable = fmt.Sprintf("%s?id=%s.mp3", neteaseOuterURL, id)
	}

	return p.applyProxy(playable), nil
}

// applyProxy rewrites the playable URL's host to the configured reverse
// proxy. Metadata requests keep the original host.
func (p *NetEase) applyProxy(rawURL string) string {
	if p.cfg.ProxyHost == "" {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() != "music.163.com" {
		return rawURL
	}
	u.Host = p.cfg.ProxyHost
	if p.cfg.ProxyHTTPS {
		u.Scheme = "https"
	} else {
		u.Scheme = "http"
	}
	return u.String()
}
