package usecases

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/hikawa-dev/cadenza/internal/modules/music_player/domain"
)

// now is a clock hook for tests.
var now = time.Now

// EngineConfig tunes queue admission and playback behavior.
type EngineConfig struct {
	// MaxQueueLength caps pending entries per guild. Zero disables the cap.
	MaxQueueLength int
	// MaxTrackDuration rejects tracks longer than this. Zero disables the
	// check.
	MaxTrackDuration time.Duration
	// MaxPendingPerUser caps unplayed entries per user. Zero disables.
	MaxPendingPerUser int
	// DuplicateThreshold enables the short-queue duplicate exemption while
	// the pending list is shorter than this. Zero disables the exemption.
	DuplicateThreshold int
	FairnessMode       domain.FairnessMode
	// IdleTimeout is how long the playback pump lingers on an empty queue
	// before leaving the voice channel.
	IdleTimeout time.Duration
}

// SubmitInput contains the input for the Submit use case.
type SubmitInput struct {
	GuildID          snowflake.ID
	RequesterID      snowflake.ID
	RequesterDisplay string
	URL              string
}

// SubmitResult describes an admitted request.
type SubmitResult struct {
	Entry    domain.QueueEntry
	Position int
}

// TrackView is a read-only projection of a queue entry.
type TrackView struct {
	Title            string
	Duration         time.Duration
	CanonicalURL     string
	Uploader         string
	Source           domain.SourceTag
	RequesterID      snowflake.ID
	RequesterDisplay string
	Position         int
}

// QueueStatus is a read-only projection of a guild's queue.
type QueueStatus struct {
	Current       *TrackView
	Pending       []TrackView
	TotalDuration time.Duration
	Revision      uint64
}

// UserStatus summarizes one user's stake in a guild's queue.
type UserStatus struct {
	PendingCount int
	Positions    []int
	HasCurrent   bool
}

func entryView(e domain.QueueEntry, position int) TrackView {
	return TrackView{
		Title:            e.Descriptor.Title,
		Duration:         e.Descriptor.Duration,
		CanonicalURL:     e.Descriptor.CanonicalURL,
		Uploader:         e.Descriptor.Uploader,
		Source:           e.Descriptor.Source,
		RequesterID:      e.RequesterID,
		RequesterDisplay: e.RequesterDisplay,
		Position:         position,
	}
}
