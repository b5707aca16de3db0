package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
)

// PlayResult reports how a stream ended. A nil Err means the track played
// to completion.
type PlayResult struct {
	Err error
}

// VoiceTransport abstracts the audio path into a voice channel.
type VoiceTransport interface {
	// Attach joins the guild's voice channel and prepares a player.
	Attach(ctx context.Context, guildID, channelID snowflake.ID) error

	// Detach leaves the voice channel and releases the player.
	Detach(ctx context.Context, guildID snowflake.ID) error

	// IsAttached reports whether the guild has an active voice attachment.
	IsAttached(guildID snowflake.ID) bool

	// Play starts streaming the playable URL. It returns a channel that
	// delivers exactly one PlayResult when the stream ends for any reason.
	Play(ctx context.Context, guildID snowflake.ID, playableURL string) (<-chan PlayResult, error)

	// Stop terminates the current stream, causing its pending PlayResult
	// to report a cancellation.
	Stop(ctx context.Context, guildID snowflake.ID) error
}

// PresenceChecker reports whether a user is reachable in the guild's
// attached voice channel.
type PresenceChecker interface {
	InVoice(guildID, userID snowflake.ID) bool
}
