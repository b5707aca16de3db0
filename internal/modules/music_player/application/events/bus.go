package events

import (
	"log/slog"
	"sync"

	"github.com/hikawa-dev/cadenza/internal/modules/music_player/application/ports"
)

// DefaultEventBufferSize is the default buffer size for event channels.
const DefaultEventBufferSize = 100

// Compile-time check that Bus implements ports.EventPublisher.
var _ ports.EventPublisher = (*Bus)(nil)

// Bus provides a channel-based event bus for async notification handling.
type Bus struct {
	trackEnqueued       chan TrackEnqueuedEvent
	playbackStarted     chan PlaybackStartedEvent
	playbackFinished    chan PlaybackFinishedEvent
	requesterAbsentSkip chan RequesterAbsentSkipEvent
	upNextReminder      chan UpNextReminderEvent

	closed bool
	mu     sync.RWMutex
}

// NewBus creates a new Bus with the given buffer size.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = DefaultEventBufferSize
	}

	return &Bus{
		trackEnqueued:       make(chan TrackEnqueuedEvent, bufferSize),
		playbackStarted:     make(chan PlaybackStartedEvent, bufferSize),
		playbackFinished:    make(chan PlaybackFinishedEvent, bufferSize),
		requesterAbsentSkip: make(chan RequesterAbsentSkipEvent, bufferSize),
		upNextReminder:      make(chan UpNextReminderEvent, bufferSize),
	}
}

// PublishTrackEnqueued publishes a TrackEnqueuedEvent.
// Non-blocking: if the channel buffer is full, the event is dropped with a warning.
func (b *Bus) PublishTrackEnqueued(event TrackEnqueuedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", "TrackEnqueued")
		return
	}

	select {
	case b.trackEnqueued <- event:
		slog.Debug("published event", "type", "TrackEnqueued", "guild", event.GuildID)
	default:
		slog.Warn("event buffer full, dropping event", "type", "TrackEnqueued")
	}
}

// PublishPlaybackStarted publishes a PlaybackStartedEvent.
// Non-blocking: if the channel buffer is full, the event is dropped with a warning.
func (b *Bus) PublishPlaybackStarted(event PlaybackStartedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", "PlaybackStarted")
		return
	}

	select {
	case b.playbackStarted <- event:
		slog.Debug("published event", "type", "PlaybackStarted", "guild", event.GuildID)
	default:
		slog.Warn("event buffer full, dropping event", "type", "PlaybackStarted")
	}
}

// PublishPlaybackFinished publishes a PlaybackFinishedEvent.
// Non-blocking: if the channel buffer is full, the event is dropped with a warning.
func (b *Bus) PublishPlaybackFinished(event PlaybackFinishedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", "PlaybackFinished")
		return
	}

	select {
	case b.playbackFinished <- event:
		slog.Debug("published event", "type", "PlaybackFinished", "guild", event.GuildID)
	default:
		slog.Warn("event buffer full, dropping event", "type", "PlaybackFinished")
	}
}

// PublishRequesterAbsentSkip publishes a RequesterAbsentSkipEvent.
// Non-blocking: if the channel buffer is full, the event is dropped with a warning.
func (b *Bus) PublishRequesterAbsentSkip(event RequesterAbsentSkipEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", "RequesterAbsentSkip")
		return
	}

	select {
	case b.requesterAbsentSkip <- event:
		slog.Debug("published event", "type", "RequesterAbsentSkip", "guild", event.GuildID)
	default:
		slog.Warn("event buffer full, dropping event", "type", "RequesterAbsentSkip")
	}
}

// PublishUpNextReminder publishes an UpNextReminderEvent.
// Non-blocking: if the channel buffer is full, the event is dropped with a warning.
func (b *Bus) PublishUpNextReminder(event UpNextReminderEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", "UpNextReminder")
		return
	}

	select {
	case b.upNextReminder <- event:
		slog.Debug("published event", "type", "UpNextReminder", "guild", event.GuildID)
	default:
		slog.Warn("event buffer full, dropping event", "type", "UpNextReminder")
	}
}

// TrackEnqueued returns the channel for TrackEnqueuedEvent.
func (b *Bus) TrackEnqueued() <-chan TrackEnqueuedEvent {
	return b.trackEnqueued
}

// PlaybackStarted returns the channel for PlaybackStartedEvent.
func (b *Bus) PlaybackStarted() <-chan PlaybackStartedEvent {
	return b.playbackStarted
}

// PlaybackFinished returns the channel for PlaybackFinishedEvent.
func (b *Bus) PlaybackFinished() <-chan PlaybackFinishedEvent {
	return b.playbackFinished
}

// RequesterAbsentSkip returns the channel for RequesterAbsentSkipEvent.
func (b *Bus) RequesterAbsentSkip() <-chan RequesterAbsentSkipEvent {
	return b.requesterAbsentSkip
}

// UpNextReminder returns the channel for UpNextReminderEvent.
func (b *Bus) UpNextReminder() <-chan UpNextReminderEvent {
	return b.upNextReminder
}

// Close closes all event channels.
// After calling Close, publishing will no longer send events.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.closed = true
	close(b.trackEnqueued)
	close(b.playbackStarted)
	close(b.playbackFinished)
	close(b.requesterAbsentSkip)
	close(b.upNextReminder)

	slog.Debug("event bus closed")
}
