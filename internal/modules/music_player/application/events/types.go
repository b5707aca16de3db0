package events

import (
	"github.com/hikawa-dev/cadenza/internal/modules/music_player/application/ports"
)

// Re-export event types from ports for use by event handlers.
type (
	TrackEnqueuedEvent       = ports.TrackEnqueuedEvent
	PlaybackStartedEvent     = ports.PlaybackStartedEvent
	PlaybackFinishedEvent    = ports.PlaybackFinishedEvent
	RequesterAbsentSkipEvent = ports.RequesterAbsentSkipEvent
	UpNextReminderEvent      = ports.UpNextReminderEvent
)
