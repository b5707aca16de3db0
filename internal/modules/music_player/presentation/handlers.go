package presentation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/hikawa-dev/cadenza/internal/bot"
	"github.com/hikawa-dev/cadenza/internal/modules/music_player/application/usecases"
	"github.com/hikawa-dev/cadenza/internal/modules/music_player/domain"
)

// Embed colors.
const (
	colorSuccess = 0x08c404
	colorError   = 0xE74C3C
)

// Maximum pending entries rendered in /queue list before truncating.
const queueListLimit = 10

// Player is the subset of the queue engine the command handlers use.
type Player interface {
	Submit(ctx context.Context, input usecases.SubmitInput) (usecases.SubmitResult, error)
	Skip(ctx context.Context, guildID snowflake.ID) error
	Stop(ctx context.Context, guildID snowflake.ID) error
	Remove(ctx context.Context, guildID snowflake.ID, position int) (domain.QueueEntry, error)
	Clear(ctx context.Context, guildID snowflake.ID) (int, error)
	Status(guildID snowflake.ID) usecases.QueueStatus
	MyStatus(guildID, userID snowflake.ID) usecases.UserStatus
	Attach(ctx context.Context, guildID, channelID snowflake.ID) error
	Attached(guildID snowflake.ID) bool
	SetNotificationChannel(guildID, channelID snowflake.ID)
}

// VoiceLocator finds the voice channel a user is connected to.
type VoiceLocator interface {
	GetUserVoiceChannel(guildID, userID snowflake.ID) (snowflake.ID, error)
}

// Handlers implements the slash command handlers for the music player.
type Handlers struct {
	player Player
	voice  VoiceLocator
}

// NewHandlers creates the command handlers.
func NewHandlers(player Player, voice VoiceLocator) *Handlers {
	return &Handlers{
		player: player,
		voice:  voice,
	}
}

// HandlePlay handles the /play command. The bot joins the requester's
// voice channel if it is not already attached, and the invoking text
// channel becomes the guild's notification channel.
func (h *Handlers) HandlePlay(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}
	if i.Member == nil || i.Member.User == nil {
		return respondError(r, "This command can only be used in a server")
	}
	userID, err := snowflake.Parse(i.Member.User.ID)
	if err != nil {
		return respondError(r, "Invalid user")
	}
	channelID, err := snowflake.Parse(i.ChannelID)
	if err != nil {
		return respondError(r, "Invalid channel")
	}

	var url string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "url" {
			url = opt.StringValue()
		}
	}
	if url == "" {
		return respondError(r, "Missing URL")
	}

	h.player.SetNotificationChannel(guildID, channelID)

	ctx := context.Background()

	if !h.player.Attached(guildID) {
		voiceChannelID, err := h.voice.GetUserVoiceChannel(guildID, userID)
		if err != nil || voiceChannelID == 0 {
			return respondError(r, "Join a voice channel first")
		}
		if err := h.player.Attach(ctx, guildID, voiceChannelID); err != nil {
			return respondError(r, "Failed to join your voice channel")
		}
	}

	result, err := h.player.Submit(ctx, usecases.SubmitInput{
		GuildID:          guildID,
		RequesterID:      userID,
		RequesterDisplay: displayName(i.Member),
		URL:              url,
	})
	if err != nil {
		return respondError(r, submitErrorMessage(err))
	}

	return respondQueued(r, result)
}

// HandleSkip handles the /skip command.
func (h *Handlers) HandleSkip(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	if err := h.player.Skip(context.Background(), guildID); err != nil {
		if errors.Is(err, domain.ErrNotPlaying) {
			return respondError(r, "Nothing is playing")
		}
		return respondError(r, err.Error())
	}

	return respondSuccess(r, "Skipped", "Skipped the current track.")
}

// HandleStop handles the /stop command.
func (h *Handlers) HandleStop(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	if err := h.player.Stop(context.Background(), guildID); err != nil {
		return respondError(r, err.Error())
	}

	return respondSuccess(r, "Stopped", "Stopped playback and cleared the queue.")
}

// HandleQueue handles the /queue command.
func (h *Handlers) HandleQueue(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return respondError(r, "Invalid subcommand")
	}

	subCmd := options[0]
	switch subCmd.Name {
	case "list":
		return h.handleQueueList(i, r)
	case "remove":
		return h.handleQueueRemove(i, r, subCmd.Options)
	case "clear":
		return h.handleQueueClear(i, r)
	default:
		return respondError(r, "Unknown subcommand")
	}
}

func (h *Handlers) handleQueueList(
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	status := h.player.Status(guildID)
	if status.Current == nil && len(status.Pending) == 0 {
		return respondSuccess(r, "Queue", "The queue is empty.")
	}

	var sb strings.Builder
	if status.Current != nil {
		fmt.Fprintf(&sb, "**Now playing:** [%s](%s) `%s` by %s\n\n",
			status.Current.Title,
			status.Current.CanonicalURL,
			formatDuration(status.Current.Duration),
			status.Current.RequesterDisplay,
		)
	}
	for idx, track := range status.Pending {
		if idx == queueListLimit {
			fmt.Fprintf(&sb, "…and %d more\n", len(status.Pending)-queueListLimit)
			break
		}
		fmt.Fprintf(&sb, "`%d.` [%s](%s) `%s` by %s\n",
			track.Position,
			track.Title,
			track.CanonicalURL,
			formatDuration(track.Duration),
			track.RequesterDisplay,
		)
	}

	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       "Queue",
					Description: sb.String(),
					Color:       colorSuccess,
					Footer: &discordgo.MessageEmbedFooter{
						Text: fmt.Sprintf("%d pending | total %s",
							len(status.Pending), formatDuration(status.TotalDuration)),
					},
				},
			},
		},
	})
}

func (h *Handlers) handleQueueRemove(
	i *discordgo.InteractionCreate,
	r bot.Responder,
	options []*discordgo.ApplicationCommandInteractionDataOption,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	var position int
	for _, opt := range options {
		if opt.Name == "position" {
			position = int(opt.IntValue())
		}
	}

	removed, err := h.player.Remove(context.Background(), guildID, position)
	if err != nil {
		if errors.Is(err, domain.ErrOutOfRange) {
			return respondError(r, "No track at that position")
		}
		return respondError(r, err.Error())
	}

	return respondSuccess(r, "Removed",
		fmt.Sprintf("Removed **%s** from the queue.", removed.Descriptor.Title))
}

func (h *Handlers) handleQueueClear(
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	removed, err := h.player.Clear(context.Background(), guildID)
	if err != nil {
		return respondError(r, err.Error())
	}

	return respondSuccess(r, "Queue cleared",
		fmt.Sprintf("Removed %d pending tracks.", removed))
}

// HandleMyStatus handles the /mystatus command.
func (h *Handlers) HandleMyStatus(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}
	if i.Member == nil || i.Member.User == nil {
		return respondError(r, "This command can only be used in a server")
	}
	userID, err := snowflake.Parse(i.Member.User.ID)
	if err != nil {
		return respondError(r, "Invalid user")
	}

	status := h.player.MyStatus(guildID, userID)

	var sb strings.Builder
	if status.HasCurrent {
		sb.WriteString("Your track is playing now.\n")
	}
	if status.PendingCount == 0 {
		sb.WriteString("You have no tracks in the queue.")
	} else {
		positions := make([]string, len(status.Positions))
		for idx, p := range status.Positions {
			positions[idx] = fmt.Sprintf("%d", p)
		}
		fmt.Fprintf(&sb, "You have %d pending tracks at positions %s.",
			status.PendingCount, strings.Join(positions, ", "))
	}

	return respondSuccess(r, "Your queue status", sb.String())
}

func displayName(m *discordgo.Member) string {
	if m.Nick != "" {
		return m.Nick
	}
	if m.User.GlobalName != "" {
		return m.User.GlobalName
	}
	return m.User.Username
}

// submitErrorMessage maps admission and resolution failures to user-facing
// messages.
func submitErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnsupported):
		return "That link isn't from a supported source"
	case errors.Is(err, domain.ErrDuplicate):
		return "That track is already in the queue"
	case errors.Is(err, domain.ErrFairnessPending):
		return "You already have the maximum number of queued tracks"
	case errors.Is(err, domain.ErrFairnessPlaying):
		return "Wait until your current track finishes"
	case errors.Is(err, domain.ErrQueueFull):
		return "The queue is full"
	case errors.Is(err, domain.ErrTrackTooLong):
		return "That track is too long"
	case errors.Is(err, domain.ErrNotFound):
		return "Track not found"
	case errors.Is(err, domain.ErrGeoBlocked):
		return "That track is not available in the bot's region"
	case errors.Is(err, domain.ErrDRMBlocked):
		return "That track is DRM protected"
	case errors.Is(err, domain.ErrRateLimited):
		return "The source is rate limiting requests, try again shortly"
	case errors.Is(err, domain.ErrNetwork):
		return "Failed to reach the track's source, try again shortly"
	default:
		return "Failed to load the track"
	}
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// Response helpers.

func respondError(r bot.Responder, message string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       "Error",
					Description: message,
					Color:       colorError,
				},
			},
		},
	})
}

func respondSuccess(r bot.Responder, title, message string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       title,
					Description: message,
					Color:       colorSuccess,
				},
			},
		},
	})
}

func respondQueued(r bot.Responder, result usecases.SubmitResult) error {
	d := result.Entry.Descriptor
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       "Added to Queue",
					Description: fmt.Sprintf("[%s](%s)", d.Title, d.CanonicalURL),
					Color:       colorSuccess,
					Fields: []*discordgo.MessageEmbedField{
						{
							Name:   "Position",
							Value:  fmt.Sprintf("%d", result.Position),
							Inline: true,
						},
						{
							Name:   "Duration",
							Value:  formatDuration(d.Duration),
							Inline: true,
						},
					},
				},
			},
		},
	})
}
