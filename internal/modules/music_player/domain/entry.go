package domain

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// QueueEntry is a single admitted request in a guild's queue.
type QueueEntry struct {
	Descriptor       TrackDescriptor
	RequesterID      snowflake.ID
	RequesterDisplay string
	GuildID          snowflake.ID
	EnqueuedAt       time.Time
}
