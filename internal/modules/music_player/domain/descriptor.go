package domain

import "time"

// SourceTag identifies the catalog a track descriptor came from.
type SourceTag string

const (
	SourceYouTube    SourceTag = "youtube"
	SourceSoundCloud SourceTag = "soundcloud"
	SourceNetEase    SourceTag = "netease"
	SourceBilibili   SourceTag = "bilibili"
	SourceCatbox     SourceTag = "catbox"
	SourceGeneric    SourceTag = "generic"
)

// ParseSourceTag returns the tag for s, or SourceGeneric for anything
// unrecognized. Snapshots written by older builds may carry tags we no
// longer ship a provider for; those entries still restore.
func ParseSourceTag(s string) SourceTag {
	switch SourceTag(s) {
	case SourceYouTube, SourceSoundCloud, SourceNetEase, SourceBilibili, SourceCatbox:
		return SourceTag(s)
	default:
		return SourceGeneric
	}
}

// TrackDescriptor is the provider-independent description of a track.
// CanonicalURL must always be a stable catalog page URL, never a CDN or
// signed media link, so a persisted descriptor can be re-resolved after
// any amount of downtime.
type TrackDescriptor struct {
	Title        string
	Duration     time.Duration
	CanonicalURL string
	Uploader     string
	ThumbnailURL string
	Source       SourceTag
}
