package ports

import (
	"github.com/disgoorg/snowflake/v2"
	"github.com/hikawa-dev/cadenza/internal/modules/music_player/domain"
)

// NotificationSender posts playback notifications to the guild's text
// channel.
type NotificationSender interface {
	// SendNowPlaying posts a "Now Playing" embed and returns the message ID.
	SendNowPlaying(channelID snowflake.ID, entry domain.QueueEntry) (snowflake.ID, error)

	// SendUpNext posts an "up next" reminder to the next requester.
	SendUpNext(channelID snowflake.ID, next domain.QueueEntry) error

	// SendSkipNotice posts a note that a track was skipped and why.
	SendSkipNotice(channelID snowflake.ID, entry domain.QueueEntry, reason string) error

	// DeleteMessage removes a previously sent message.
	DeleteMessage(channelID, messageID snowflake.ID) error
}

// NotificationChannelResolver maps a guild to the text channel playback
// notifications should be posted in. Typically the channel the most
// recent play command was issued from.
type NotificationChannelResolver interface {
	NotificationChannel(guildID snowflake.ID) (snowflake.ID, bool)
}
