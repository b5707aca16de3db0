package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/hikawa-dev/cadenza/internal/modules/music_player/application/ports"
)

// NotificationEventHandler consumes playback events and posts the
// corresponding messages to each guild's notification channel.
type NotificationEventHandler struct {
	sender   ports.NotificationSender
	channels ports.NotificationChannelResolver
	bus      *Bus

	// Last "Now Playing" message per guild, deleted when the track ends.
	nowPlayingMu sync.Mutex
	nowPlaying   map[snowflake.ID]snowflake.ID

	wg   sync.WaitGroup
	done chan struct{}
}

// NewNotificationEventHandler creates a new NotificationEventHandler.
func NewNotificationEventHandler(
	sender ports.NotificationSender,
	channels ports.NotificationChannelResolver,
	bus *Bus,
) *NotificationEventHandler {
	return &NotificationEventHandler{
		sender:     sender,
		channels:   channels,
		bus:        bus,
		nowPlaying: make(map[snowflake.ID]snowflake.ID),
		done:       make(chan struct{}),
	}
}

// Start begins listening for events in background goroutines.
func (h *NotificationEventHandler) Start(ctx context.Context) {
	h.wg.Add(5)

	go func() {
		defer h.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.done:
				return
			case event, ok := <-h.bus.TrackEnqueued():
				if !ok {
					return
				}
				slog.Debug("track enqueued",
					"guild", event.GuildID,
					"track", event.Entry.Descriptor.Title,
					"position", event.Position,
				)
			}
		}
	}()

	go func() {
		defer h.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.done:
				return
			case event, ok := <-h.bus.PlaybackStarted():
				if !ok {
					return
				}
				h.handlePlaybackStarted(event)
			}
		}
	}()

	go func() {
		defer h.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.done:
				return
			case event, ok := <-h.bus.PlaybackFinished():
				if !ok {
					return
				}
				h.handlePlaybackFinished(event)
			}
		}
	}()

	go func() {
		defer h.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.done:
				return
			case event, ok := <-h.bus.RequesterAbsentSkip():
				if !ok {
					return
				}
				h.handleRequesterAbsentSkip(event)
			}
		}
	}()

	go func() {
		defer h.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.done:
				return
			case event, ok := <-h.bus.UpNextReminder():
				if !ok {
					return
				}
				h.handleUpNextReminder(event)
			}
		}
	}()

	slog.Debug("notification event handler started")
}

// Stop stops the event handler and waits for goroutines to finish.
func (h *NotificationEventHandler) Stop() {
	close(h.done)
	h.wg.Wait()
	slog.Debug("notification event handler stopped")
}

func (h *NotificationEventHandler) handlePlaybackStarted(event PlaybackStartedEvent) {
	channelID, ok := h.channels.NotificationChannel(event.GuildID)
	if !ok {
		return
	}

	h.deleteNowPlaying(event.GuildID, channelID)

	messageID, err := h.sender.SendNowPlaying(channelID, event.Entry)
	if err != nil {
		slog.Error("failed to send now playing message",
			"guild", event.GuildID,
			"error", err,
		)
		return
	}

	h.nowPlayingMu.Lock()
	h.nowPlaying[event.GuildID] = messageID
	h.nowPlayingMu.Unlock()
}

func (h *NotificationEventHandler) handlePlaybackFinished(event PlaybackFinishedEvent) {
	channelID, ok := h.channels.NotificationChannel(event.GuildID)
	if !ok {
		return
	}
	h.deleteNowPlaying(event.GuildID, channelID)
}

func (h *NotificationEventHandler) handleRequesterAbsentSkip(event RequesterAbsentSkipEvent) {
	channelID, ok := h.channels.NotificationChannel(event.GuildID)
	if !ok {
		return
	}
	if err := h.sender.SendSkipNotice(channelID, event.Entry, "requester left the voice channel"); err != nil {
		slog.Error("failed to send skip notice",
			"guild", event.GuildID,
			"error", err,
		)
	}
}

func (h *NotificationEventHandler) handleUpNextReminder(event UpNextReminderEvent) {
	channelID, ok := h.channels.NotificationChannel(event.GuildID)
	if !ok {
		return
	}
	if err := h.sender.SendUpNext(channelID, event.Next); err != nil {
		slog.Error("failed to send up next reminder",
			"guild", event.GuildID,
			"error", err,
		)
	}
}

func (h *NotificationEventHandler) deleteNowPlaying(guildID, channelID snowflake.ID) {
	h.nowPlayingMu.Lock()
	messageID, ok := h.nowPlaying[guildID]
	if ok {
		delete(h.nowPlaying, guildID)
	}
	h.nowPlayingMu.Unlock()

	if !ok {
		return
	}
	if err := h.sender.DeleteMessage(channelID, messageID); err != nil {
		slog.Debug("failed to delete now playing message",
			"guild", guildID,
			"error", err,
		)
	}
}
