package domain

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

// IdentityKey is the comparable identity of a track used for duplicate
// detection. Two descriptors with the same key are considered the same
// track even if their titles differ cosmetically.
type IdentityKey struct {
	NormalizedTitle string
	DurationMS      int64
	URLKey          string
}

var (
	// decorationRe feeds the persisted identity key; widening or
	// narrowing it invalidates tracker state rebuilt from old snapshots
	// and requires a schema bump.
	decorationRe = regexp.MustCompile(`(?i)\s*[\(\[\{]\s*(official (audio|video|mv)|lyrics?|hd|4k|remastered|m/?v)\s*[\)\]\}]`)
	whitespaceRe = regexp.MustCompile(`\s+`)

	bilibiliVideoRe = regexp.MustCompile(`(?i)/video/(BV[0-9A-Za-z]+|av\d+)`)
)

// NormalizeTitle lowercases a title and strips common decoration suffixes
// like "(Official Video)" or "[Lyrics]" so reposts of the same track
// collapse to one identity.
func NormalizeTitle(title string) string {
	t := strings.ToLower(strings.TrimSpace(title))
	t = decorationRe.ReplaceAllString(t, "")
	t = whitespaceRe.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// URLKey reduces a canonical URL to the stable identifier embedded in it.
// Query ordering, tracking parameters, and mirror hosts must not change
// the key. Unrecognized URLs fall back to the canonical URL itself.
func URLKey(canonicalURL string) string {
	u, err := url.Parse(canonicalURL)
	if err != nil {
		return canonicalURL
	}

	host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
	switch {
	case host == "youtube.com" || host == "m.youtube.com" || host == "music.youtube.com":
		if id := u.Query().Get("v"); id != "" {
			return "youtube:" + id
		}
		if strings.HasPrefix(u.Path, "/shorts/") {
			return "youtube:" + strings.TrimPrefix(u.Path, "/shorts/")
		}
	case host == "youtu.be":
		if id := strings.Trim(u.Path, "/"); id != "" {
			return "youtube:" + id
		}
	case host == "bilibili.com" || host == "b23.tv":
		if m := bilibiliVideoRe.FindStringSubmatch(u.Path); m != nil {
			return "bilibili:" + m[1]
		}
	case host == "music.163.com" || strings.HasSuffix(host, "music.126.net"):
		// The song id can live in the query or behind the "#/song" fragment.
		if id := u.Query().Get("id"); id != "" {
			return "netease:" + id
		}
		if frag, err := url.Parse(strings.TrimPrefix(u.Fragment, "/")); err == nil {
			if id := frag.Query().Get("id"); id != "" {
				return "netease:" + id
			}
		}
	case host == "files.catbox.moe" || host == "catbox.moe":
		if name := path.Base(u.Path); name != "." && name != "/" {
			return "catbox:" + name
		}
	}

	return canonicalURL
}

// Identity derives the duplicate-detection key for a descriptor.
func (d TrackDescriptor) Identity() IdentityKey {
	return IdentityKey{
		NormalizedTitle: NormalizeTitle(d.Title),
		DurationMS:      d.Duration.Milliseconds(),
		URLKey:          URLKey(d.CanonicalURL),
	}
}
