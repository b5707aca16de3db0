package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/goccy/go-json"

	"github.com/hikawa-dev/cadenza/internal/modules/music_player/domain"
)

const (
	bilibiliViewAPI    = "https://api.bilibili.com/x/web-interface/view"
	bilibiliPlayURLAPI = "https://api.bilibili.com/x/player/playurl"
)

var bilibiliURLRes = []*regexp.Regexp{
	regexp.MustCompile(`^https?://(?:www\.)?bilibili\.com/video/(BV[a-zA-Z0-9]{10})`),
	regexp.MustCompile(`^https?://(?:www\.)?bilibili\.com/video/(av\d+)`),
}

// Bilibili resolves Bilibili video URLs via the public REST API. Stream
// URLs come from the playurl endpoint and are signed and short-lived.
type Bilibili struct {
	client     *http.Client
	viewAPI    string
	playURLAPI string
}

// NewBilibili creates the Bilibili provider.
func NewBilibili() *Bilibili {
	return &Bilibili{
		client:     &http.Client{Timeout: 10 * time.Second},
		viewAPI:    bilibiliViewAPI,
		playURLAPI: bilibiliPlayURLAPI,
	}
}

// Name returns the provider identifier.
func (p *Bilibili) Name() string { return "bilibili" }

// Matches reports whether the URL is a Bilibili video URL with a BV or
// av identifier.
func (p *Bilibili) Matches(url string) bool {
	return p.videoID(url) != ""
}

func (p *Bilibili) videoID(url string) string {
	for _, re := range bilibiliURLRes {
		if m := re.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return ""
}

func videoIDParam(videoID string) string {
	if len(videoID) > 2 && videoID[:2] == "av" {
		return "aid=" + videoID[2:]
	}
	return "bvid=" + videoID
}

type bilibiliViewResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Title    string `json:"title"`
		Duration int64  `json:"duration"`
		Pic      string `json:"pic"`
		CID      int64  `json:"cid"`
		Owner    struct {
			Name string `json:"name"`
		} `json:"owner"`
	} `json:"data"`
}

type bilibiliPlayURLResponse struct {
	Code int `json:"code"`
	Data struct {
		DURL []struct {
			URL string `json:"url"`
		} `json:"durl"`
	} `json:"data"`
}

// Extract fetches video metadata from the view API.
func (p *Bilibili) Extract(ctx context.Context, rawURL string) (domain.TrackDescriptor, error) {
	videoID := p.videoID(rawURL)
	if videoID == "" {
		return domain.TrackDescriptor{}, domain.ErrUnsupported
	}

	var view bilibiliViewResponse
	endpoint := fmt.Sprintf("%s?%s", p.viewAPI, videoIDParam(videoID))
	if err := p.getJSON(ctx, endpoint, &view); err != nil {
		return domain.TrackDescriptor{}, err
	}
	if view.Code != 0 {
		if view.Code == -404 {
			return domain.TrackDescriptor{}, domain.ErrNotFound
		}
		return domain.TrackDescriptor{}, fmt.Errorf("view api code %d: %w", view.Code, domain.ErrMalformed)
	}

	return domain.TrackDescriptor{
		Title:        view.Data.Title,
		Duration:     time.Duration(view.Data.Duration) * time.Second,
		CanonicalURL: fmt.Sprintf("https://www.bilibili.com/video/%s", videoID),
		Uploader:     view.Data.Owner.Name,
		ThumbnailURL: view.Data.Pic,
		Source:       domain.SourceBilibili,
	}, nil
}

// ResolvePlayable fetches a signed stream URL from the playurl API. The
// URL expires quickly, so it is resolved fresh for every play.
func (p *Bilibili) ResolvePlayable(ctx context.Context, d domain.TrackDescriptor) (string, error) {
	videoID := p.videoID(d.CanonicalURL)
	if videoID == "" {
		return "", domain.ErrUnsupported
	}

	// The playurl endpoint needs the cid from the view API.
	var view bilibiliViewResponse
	endpoint := fmt.Sprintf("%s?%s", p.viewAPI, videoIDParam(videoID))
	if err := p.getJSON(ctx, endpoint, &view); err != nil {
		return "", err
	}
	if view.Code != 0 {
		return "", domain.ErrNotFound
	}

	var play bilibiliPlayURLResponse
	endpoint = fmt.Sprintf("%s?%s&cid=%d&platform=html5&high_quality=1",
		p.playURLAPI, videoIDParam(videoID), view.Data.CID)
	if err := p.getJSON(ctx, endpoint, &play); err != nil {
		return "", err
	}
	if play.Code != 0 || len(play.Data.DURL) == 0 {
		return "", domain.ErrNotFound
	}

	return play.Data.DURL[0].URL, nil
}

func (p *Bilibili) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Referer", "https://www.bilibili.com/")
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", endpoint, domain.ErrNetwork)
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case resp.StatusCode == http.StatusForbidden:
		return domain.ErrGeoBlocked
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("status %d: %w", resp.StatusCode, domain.ErrNetwork)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", domain.ErrNetwork)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", domain.ErrMalformed)
	}
	return nil
}
