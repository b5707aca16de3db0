package usecases

import (
	"context"
	"log/slog"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/hikawa-dev/cadenza/internal/modules/music_player/application/ports"
	"github.com/hikawa-dev/cadenza/internal/modules/music_player/domain"
)

// Compile-time check that Engine resolves notification channels.
var _ ports.NotificationChannelResolver = (*Engine)(nil)

// Engine orchestrates per-guild queues: admission, persistence, and the
// playback pumps. All public methods are safe for concurrent use.
//
// Locking discipline: each guild has its own lock, and no blocking I/O
// (provider calls, snapshot writes, transport calls) happens while it is
// held. Snapshots are captured under the lock and written after release.
type Engine struct {
	cfg       EngineConfig
	resolver  ports.TrackResolver
	store     ports.SnapshotStore
	voice     ports.VoiceTransport
	presence  ports.PresenceChecker
	publisher ports.EventPublisher

	mu     sync.Mutex
	guilds map[snowflake.ID]*guildSession

	announceMu sync.RWMutex
	announce   map[snowflake.ID]snowflake.ID

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// guildSession is one guild's mutable state. queue and tracker are only
// touched with mu held.
type guildSession struct {
	guildID snowflake.ID

	mu        sync.Mutex
	queue     *domain.Queue
	tracker   *domain.Tracker
	suspended bool
	pump      *pump
}

// NewEngine creates an engine. Call Start before use and Shutdown when
// done.
func NewEngine(
	cfg EngineConfig,
	resolver ports.TrackResolver,
	store ports.SnapshotStore,
	voice ports.VoiceTransport,
	presence ports.PresenceChecker,
	publisher ports.EventPublisher,
) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		cfg:       cfg,
		resolver:  resolver,
		store:     store,
		voice:     voice,
		presence:  presence,
		publisher: publisher,
		guilds:    make(map[snowflake.ID]*guildSession),
		announce:  make(map[snowflake.ID]snowflake.ID),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start hydrates queues from stored snapshots. Playback does not resume
// until a voice attachment is established for the guild.
func (e *Engine) Start(ctx context.Context) error {
	guildIDs, err := e.store.ListGuilds(ctx)
	if err != nil {
		return err
	}

	for _, guildID := range guildIDs {
		snap, found, err := e.store.Load(ctx, guildID)
		if err != nil {
			slog.Warn("failed to load queue snapshot", "guild", guildID, "error", err)
			continue
		}
		if !found {
			continue
		}

		queue, err := snap.RestoreQueue()
		if err != nil {
			slog.Warn("discarding unusable queue snapshot", "guild", guildID, "error", err)
			continue
		}

		g := e.session(guildID)
		g.mu.Lock()
		e.hydrate(g, queue)
		pending := g.queue.Len()
		g.mu.Unlock()

		slog.Info("restored queue from snapshot", "guild", guildID, "pending", pending)
	}

	return nil
}

// hydrate replaces g's queue with the restored one. A snapshotted current
// entry goes back to the front of the pending list so it replays from the
// start once playback resumes. Caller holds g.mu.
func (e *Engine) hydrate(g *guildSession, restored *domain.Queue) {
	entries := restored.Entries()
	if cur, ok := restored.Current(); ok {
		entries = append([]domain.QueueEntry{cur}, entries...)
	}

	g.queue = domain.NewQueue()
	g.tracker = domain.NewTracker(e.trackerConfig())
	for _, entry := range entries {
		g.queue.Enqueue(entry)
		g.tracker.OnEnqueued(entry)
	}
}

// Submit resolves a URL through the provider registry and, if admitted,
// appends it to the guild's queue.
func (e *Engine) Submit(ctx context.Context, input SubmitInput) (SubmitResult, error) {
	if _, ok := e.resolver.Recognize(input.URL); !ok {
		return SubmitResult{}, domain.ErrUnsupported
	}

	descriptor, err := e.resolver.Extract(ctx, input.URL)
	if err != nil {
		return SubmitResult{}, err
	}

	if e.cfg.MaxTrackDuration > 0 && descriptor.Duration > e.cfg.MaxTrackDuration {
		return SubmitResult{}, domain.ErrTrackTooLong
	}

	g := e.session(input.GuildID)

	g.mu.Lock()
	if e.cfg.MaxQueueLength > 0 && g.queue.Len() >= e.cfg.MaxQueueLength {
		g.mu.Unlock()
		return SubmitResult{}, domain.ErrQueueFull
	}
	if err := g.tracker.CanAdmit(input.RequesterID, descriptor, g.queue.Len()); err != nil {
		g.mu.Unlock()
		return SubmitResult{}, err
	}

	entry := domain.QueueEntry{
		Descriptor:       descriptor,
		RequesterID:      input.RequesterID,
		RequesterDisplay: input.RequesterDisplay,
		GuildID:          input.GuildID,
		EnqueuedAt:       now(),
	}
	position := g.queue.Enqueue(entry)
	g.tracker.OnEnqueued(entry)
	snap := domain.NewSnapshot(input.GuildID, g.queue)
	g.mu.Unlock()

	e.saveSnapshot(ctx, snap)

	e.publisher.PublishTrackEnqueued(ports.TrackEnqueuedEvent{
		GuildID:  input.GuildID,
		Entry:    entry,
		Position: position,
	})

	e.ensurePump(g)

	return SubmitResult{Entry: entry, Position: position}, nil
}

// Skip terminates the current track. The pump advances to the next entry
// as if the track had finished.
func (e *Engine) Skip(ctx context.Context, guildID snowflake.ID) error {
	g := e.session(guildID)

	g.mu.Lock()
	_, playing := g.queue.Current()
	p := g.pump
	g.mu.Unlock()

	if !playing {
		return domain.ErrNotPlaying
	}
	if p != nil {
		p.signal(pumpSkip)
		return nil
	}

	// No pump running (suspended or detached): finalize directly.
	g.mu.Lock()
	prev, ok := g.queue.ClearCurrent()
	if ok {
		g.tracker.OnFinished(prev)
	}
	snap := domain.NewSnapshot(guildID, g.queue)
	g.mu.Unlock()

	e.saveSnapshot(ctx, snap)
	return nil
}

// Stop clears the pending list and terminates the current track.
func (e *Engine) Stop(ctx context.Context, guildID snowflake.ID) error {
	g := e.session(guildID)

	g.mu.Lock()
	removed := g.queue.Clear()
	for _, entry := range removed {
		g.tracker.OnRemoved(entry)
	}
	p := g.pump
	if p == nil {
		if prev, ok := g.queue.ClearCurrent(); ok {
			g.tracker.OnFinished(prev)
		}
	}
	snap := domain.NewSnapshot(guildID, g.queue)
	g.mu.Unlock()

	e.saveSnapshot(ctx, snap)

	if p != nil {
		// The pump finalizes the current entry and persists again.
		p.signal(pumpStop)
	}
	return nil
}

// Remove deletes the pending entry at the given 1-based position.
func (e *Engine) Remove(ctx context.Context, guildID snowflake.ID, position int) (domain.QueueEntry, error) {
	g := e.session(guildID)

	g.mu.Lock()
	removed, err := g.queue.RemoveAt(position)
	if err != nil {
		g.mu.Unlock()
		return domain.QueueEntry{}, err
	}
	g.tracker.OnRemoved(removed)
	snap := domain.NewSnapshot(guildID, g.queue)
	g.mu.Unlock()

	e.saveSnapshot(ctx, snap)
	return removed, nil
}

// Clear empties the pending list, leaving the current track playing.
func (e *Engine) Clear(ctx context.Context, guildID snowflake.ID) (int, error) {
	g := e.session(guildID)

	g.mu.Lock()
	removed := g.queue.Clear()
	for _, entry := range removed {
		g.tracker.OnRemoved(entry)
	}
	snap := domain.NewSnapshot(guildID, g.queue)
	g.mu.Unlock()

	e.saveSnapshot(ctx, snap)
	return len(removed), nil
}

// Status returns a read-only projection of the guild's queue.
func (e *Engine) Status(guildID snowflake.ID) QueueStatus {
	g := e.session(guildID)

	g.mu.Lock()
	defer g.mu.Unlock()

	status := QueueStatus{
		TotalDuration: g.queue.TotalDuration(),
		Revision:      g.queue.Revision(),
	}
	if cur, ok := g.queue.Current(); ok {
		view := entryView(cur, 0)
		status.Current = &view
	}
	for i, entry := range g.queue.Entries() {
		status.Pending = append(status.Pending, entryView(entry, i+1))
	}
	return status
}

// MyStatus summarizes the user's entries in the guild's queue.
func (e *Engine) MyStatus(guildID, userID snowflake.ID) UserStatus {
	g := e.session(guildID)

	g.mu.Lock()
	defer g.mu.Unlock()

	status := UserStatus{}
	if cur, ok := g.queue.Current(); ok && cur.RequesterID == userID {
		status.HasCurrent = true
	}
	for i, entry := range g.queue.Entries() {
		if entry.RequesterID == userID {
			status.PendingCount++
			status.Positions = append(status.Positions, i+1)
		}
	}
	return status
}

// Attach joins the guild's voice channel and resumes playback if the
// queue has entries.
func (e *Engine) Attach(ctx context.Context, guildID, channelID snowflake.ID) error {
	if err := e.voice.Attach(ctx, guildID, channelID); err != nil {
		return err
	}
	e.ensurePump(e.session(guildID))
	return nil
}

// Attached reports whether the guild has an active voice attachment.
func (e *Engine) Attached(guildID snowflake.ID) bool {
	return e.voice != nil && e.voice.IsAttached(guildID)
}

// Detach leaves the guild's voice channel. The queue is preserved.
func (e *Engine) Detach(ctx context.Context, guildID snowflake.ID) error {
	g := e.session(guildID)

	g.mu.Lock()
	p := g.pump
	g.mu.Unlock()
	if p != nil {
		p.signal(pumpStop)
	}

	return e.voice.Detach(ctx, guildID)
}

// Suspend parks the guild's pump while the voice gateway is disrupted.
// The current track's outcome is decided by the transport.
func (e *Engine) Suspend(guildID snowflake.ID) {
	g := e.session(guildID)
	g.mu.Lock()
	g.suspended = true
	g.mu.Unlock()
}

// Resume unparks the guild's pump after a voice gateway disruption.
func (e *Engine) Resume(guildID snowflake.ID) {
	g := e.session(guildID)
	g.mu.Lock()
	g.suspended = false
	g.mu.Unlock()
	e.ensurePump(g)
}

// SetNotificationChannel records where playback notifications for the
// guild should be posted.
func (e *Engine) SetNotificationChannel(guildID, channelID snowflake.ID) {
	e.announceMu.Lock()
	e.announce[guildID] = channelID
	e.announceMu.Unlock()
}

// NotificationChannel returns the guild's notification channel, if set.
func (e *Engine) NotificationChannel(guildID snowflake.ID) (snowflake.ID, bool) {
	e.announceMu.RLock()
	defer e.announceMu.RUnlock()
	channelID, ok := e.announce[guildID]
	return channelID, ok
}

// Shutdown snapshots every guild, stops all pumps, and detaches from
// voice channels.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.cancel()
	e.wg.Wait()

	e.mu.Lock()
	sessions := make([]*guildSession, 0, len(e.guilds))
	for _, g := range e.guilds {
		sessions = append(sessions, g)
	}
	e.mu.Unlock()

	for _, g := range sessions {
		g.mu.Lock()
		snap := domain.NewSnapshot(g.guildID, g.queue)
		g.mu.Unlock()

		if err := e.store.Save(ctx, snap); err != nil {
			slog.Error("failed to persist queue on shutdown", "guild", g.guildID, "error", err)
		}
		if e.voice != nil && e.voice.IsAttached(g.guildID) {
			if err := e.voice.Detach(ctx, g.guildID); err != nil {
				slog.Warn("failed to detach voice on shutdown", "guild", g.guildID, "error", err)
			}
		}
	}

	return nil
}

func (e *Engine) session(guildID snowflake.ID) *guildSession {
	e.mu.Lock()
	defer e.mu.Unlock()

	g, ok := e.guilds[guildID]
	if !ok {
		g = &guildSession{
			guildID: guildID,
			queue:   domain.NewQueue(),
			tracker: domain.NewTracker(e.trackerConfig()),
		}
		e.guilds[guildID] = g
	}
	return g
}

func (e *Engine) trackerConfig() domain.TrackerConfig {
	mode := e.cfg.FairnessMode
	if mode == "" {
		mode = domain.FairnessStrict
	}
	return domain.TrackerConfig{
		MaxPendingPerUser:  e.cfg.MaxPendingPerUser,
		DuplicateThreshold: e.cfg.DuplicateThreshold,
		Mode:               mode,
	}
}

func (e *Engine) saveSnapshot(ctx context.Context, snap domain.Snapshot) {
	if err := e.store.Save(ctx, snap); err != nil {
		slog.Error("failed to persist queue snapshot", "guild", snap.GuildID, "error", err)
	}
}
