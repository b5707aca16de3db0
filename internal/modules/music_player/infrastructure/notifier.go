package infrastructure

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/hikawa-dev/cadenza/internal/modules/music_player/application/ports"
	"github.com/hikawa-dev/cadenza/internal/modules/music_player/domain"
)

// Embed colors.
const (
	colorGreen  = 0x2ECC71
	colorBlue   = 0x3498DB
	colorOrange = 0xE67E22
)

// Notifier posts playback notifications to Discord text channels.
type Notifier struct {
	session *discordgo.Session
}

// NewNotifier creates a new Notifier.
func NewNotifier(session *discordgo.Session) *Notifier {
	return &Notifier{session: session}
}

// SendNowPlaying posts a "Now Playing" embed and returns the message ID.
func (n *Notifier) SendNowPlaying(
	channelID snowflake.ID,
	entry domain.QueueEntry,
) (snowflake.ID, error) {
	embed := &discordgo.MessageEmbed{
		Author: &discordgo.MessageEmbedAuthor{
			Name: "Now Playing",
		},
		Title:     entry.Descriptor.Title,
		URL:       entry.Descriptor.CanonicalURL,
		Color:     colorGreen,
		Timestamp: entry.EnqueuedAt.UTC().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Duration",
				Value:  formatDuration(entry.Descriptor.Duration),
				Inline: true,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Requested by %s", entry.RequesterDisplay),
		},
	}

	if entry.Descriptor.Uploader != "" {
		embed.Fields = append([]*discordgo.MessageEmbedField{{
			Name:   "Uploader",
			Value:  entry.Descriptor.Uploader,
			Inline: true,
		}}, embed.Fields...)
	}
	if entry.Descriptor.ThumbnailURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{
			URL: entry.Descriptor.ThumbnailURL,
		}
	}

	msg, err := n.session.ChannelMessageSendEmbed(channelID.String(), embed)
	if err != nil {
		return 0, err
	}
	messageID, err := snowflake.Parse(msg.ID)
	if err != nil {
		return 0, err
	}
	return messageID, nil
}

// SendUpNext posts an "up next" reminder mentioning the next requester.
func (n *Notifier) SendUpNext(channelID snowflake.ID, next domain.QueueEntry) error {
	_, err := n.session.ChannelMessageSendComplex(channelID.String(), &discordgo.MessageSend{
		Content: fmt.Sprintf("<@%s>", next.RequesterID),
		Embed: &discordgo.MessageEmbed{
			Description: fmt.Sprintf("Your track **%s** is up next!", next.Descriptor.Title),
			Color:       colorBlue,
		},
	})
	return err
}

// SendSkipNotice posts a note that a track was skipped and why.
func (n *Notifier) SendSkipNotice(
	channelID snowflake.ID,
	entry domain.QueueEntry,
	reason string,
) error {
	_, err := n.session.ChannelMessageSendEmbed(channelID.String(), &discordgo.MessageEmbed{
		Description: fmt.Sprintf("Skipped **%s**: %s.", entry.Descriptor.Title, reason),
		Color:       colorOrange,
	})
	return err
}

// DeleteMessage deletes a message from the channel.
func (n *Notifier) DeleteMessage(channelID, messageID snowflake.ID) error {
	return n.session.ChannelMessageDelete(channelID.String(), messageID.String())
}

func formatDuration(d time.Duration) string {
	total := int(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// Ensure Notifier implements ports.NotificationSender.
var _ ports.NotificationSender = (*Notifier)(nil)
