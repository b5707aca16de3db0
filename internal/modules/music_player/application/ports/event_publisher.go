package ports

import (
	"github.com/disgoorg/snowflake/v2"
	"github.com/hikawa-dev/cadenza/internal/modules/music_player/domain"
)

// TrackEnqueuedEvent fires when a request is admitted to a queue.
type TrackEnqueuedEvent struct {
	GuildID  snowflake.ID
	Entry    domain.QueueEntry
	Position int
}

// PlaybackStartedEvent fires when a track begins streaming.
type PlaybackStartedEvent struct {
	GuildID snowflake.ID
	Entry   domain.QueueEntry
}

// PlaybackFinishedEvent fires when a track stops streaming for any
// reason. Err is nil on natural completion.
type PlaybackFinishedEvent struct {
	GuildID snowflake.ID
	Entry   domain.QueueEntry
	Err     error
}

// RequesterAbsentSkipEvent fires when a track is skipped because its
// requester left the voice channel before it started.
type RequesterAbsentSkipEvent struct {
	GuildID snowflake.ID
	Entry   domain.QueueEntry
}

// UpNextReminderEvent fires when a track starts and another entry is
// already waiting behind it.
type UpNextReminderEvent struct {
	GuildID snowflake.ID
	Next    domain.QueueEntry
}

// EventPublisher publishes playback notifications asynchronously.
// Publishing never blocks the caller.
type EventPublisher interface {
	PublishTrackEnqueued(event TrackEnqueuedEvent)
	PublishPlaybackStarted(event PlaybackStartedEvent)
	PublishPlaybackFinished(event PlaybackFinishedEvent)
	PublishRequesterAbsentSkip(event RequesterAbsentSkipEvent)
	PublishUpNextReminder(event UpNextReminderEvent)
}
