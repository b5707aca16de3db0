package infrastructure

import (
	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/hikawa-dev/cadenza/internal/modules/music_player/application/ports"
)

// VoiceStateProvider answers voice presence questions from the gateway
// state cache.
type VoiceStateProvider struct {
	session *discordgo.Session
}

// NewVoiceStateProvider creates a new VoiceStateProvider.
func NewVoiceStateProvider(session *discordgo.Session) *VoiceStateProvider {
	return &VoiceStateProvider{
		session: session,
	}
}

// GetUserVoiceChannel returns the voice channel ID that the user is currently in.
// Returns 0 if the user is not in a voice channel.
func (v *VoiceStateProvider) GetUserVoiceChannel(
	guildID, userID snowflake.ID,
) (snowflake.ID, error) {
	guild, err := v.session.State.Guild(guildID.String())
	if err != nil {
		return 0, err
	}

	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID.String() && vs.ChannelID != "" {
			channelID, err := snowflake.Parse(vs.ChannelID)
			if err != nil {
				return 0, err
			}
			return channelID, nil
		}
	}

	return 0, nil
}

// InVoice reports whether the user is currently in any voice channel of
// the guild. Errors from the state cache count as absent.
func (v *VoiceStateProvider) InVoice(guildID, userID snowflake.ID) bool {
	channelID, err := v.GetUserVoiceChannel(guildID, userID)
	return err == nil && channelID != 0
}

// Ensure VoiceStateProvider implements ports.PresenceChecker.
var _ ports.PresenceChecker = (*VoiceStateProvider)(nil)
