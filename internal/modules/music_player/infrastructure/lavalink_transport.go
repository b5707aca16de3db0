package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/disgolink/v3/disgolink"
	"github.com/disgoorg/disgolink/v3/lavalink"
	"github.com/disgoorg/snowflake/v2"

	"github.com/hikawa-dev/cadenza/internal/modules/music_player/application/ports"
	"github.com/hikawa-dev/cadenza/internal/modules/music_player/domain"
)

// voiceConnectionTimeout is the maximum time to wait for voice connection to be established.
const voiceConnectionTimeout = 10 * time.Second

// pendingVoiceConnection tracks the state of a pending voice connection.
type pendingVoiceConnection struct {
	mu             sync.Mutex
	hasVoiceState  bool
	hasVoiceServer bool
	ready          chan struct{}
}

// onEvent marks an event as received and signals ready if both events are present.
func (p *pendingVoiceConnection) onEvent(isVoiceState bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if isVoiceState {
		p.hasVoiceState = true
	} else {
		p.hasVoiceServer = true
	}

	if p.hasVoiceState && p.hasVoiceServer {
		select {
		case <-p.ready:
			// Already closed
		default:
			close(p.ready)
		}
	}
}

// voiceEventBuffer buffers voice events to ensure both VoiceStateUpdate and
// VoiceServerUpdate are received before forwarding to Lavalink.
// This prevents "Partial Lavalink voice state" errors when events arrive out of order.
type voiceEventBuffer struct {
	mu sync.Mutex

	// From VoiceStateUpdate
	hasVoiceState bool
	channelID     *snowflake.ID
	sessionID     string

	// From VoiceServerUpdate
	hasVoiceServer bool
	token          string
	endpoint       string
}

// setVoiceState stores voice state data and returns true if both events are now ready.
func (b *voiceEventBuffer) setVoiceState(channelID *snowflake.ID, sessionID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.hasVoiceState = true
	b.channelID = channelID
	b.sessionID = sessionID

	return b.hasVoiceState && b.hasVoiceServer
}

// setVoiceServer stores voice server data and returns true if both events are now ready.
func (b *voiceEventBuffer) setVoiceServer(token, endpoint string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.hasVoiceServer = true
	b.token = token
	b.endpoint = endpoint

	return b.hasVoiceState && b.hasVoiceServer
}

// getData returns the buffered data and resets the buffer.
func (b *voiceEventBuffer) getData() (channelID *snowflake.ID, sessionID, token, endpoint string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	channelID = b.channelID
	sessionID = b.sessionID
	token = b.token
	endpoint = b.endpoint

	b.hasVoiceState = false
	b.hasVoiceServer = false
	b.channelID = nil
	b.sessionID = ""
	b.token = ""
	b.endpoint = ""

	return
}

// LavalinkTransport streams audio through a Lavalink node. It implements
// the voice transport port: each Play hands back a channel that delivers
// exactly one result when the stream ends.
type LavalinkTransport struct {
	link    disgolink.Client
	session *discordgo.Session
	botID   snowflake.ID

	pendingMu sync.Mutex
	pending   map[snowflake.ID]*pendingVoiceConnection

	// voiceBuffers holds buffered voice events per guild to handle out-of-order events
	voiceBufferMu sync.Mutex
	voiceBuffers  map[snowflake.ID]*voiceEventBuffer

	streamMu      sync.Mutex
	streams       map[snowflake.ID]chan ports.PlayResult
	lastException map[snowflake.ID]string
	attached      map[snowflake.ID]bool
}

// LavalinkConfig contains Lavalink connection configuration.
type LavalinkConfig struct {
	Address  string
	Password string
	Secure   bool
}

// NewLavalinkTransport creates the transport and connects to the node.
func NewLavalinkTransport(
	session *discordgo.Session,
	config LavalinkConfig,
) (*LavalinkTransport, error) {
	botID, err := snowflake.Parse(session.State.User.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bot ID: %w", err)
	}

	transport := &LavalinkTransport{
		session:       session,
		botID:         botID,
		pending:       make(map[snowflake.ID]*pendingVoiceConnection),
		voiceBuffers:  make(map[snowflake.ID]*voiceEventBuffer),
		streams:       make(map[snowflake.ID]chan ports.PlayResult),
		lastException: make(map[snowflake.ID]string),
		attached:      make(map[snowflake.ID]bool),
	}

	link := disgolink.New(botID,
		disgolink.WithListenerFunc(transport.onTrackStart),
		disgolink.WithListenerFunc(transport.onTrackEnd),
		disgolink.WithListenerFunc(transport.onTrackException),
		disgolink.WithListenerFunc(transport.onTrackStuck),
	)
	transport.link = link

	node, err := link.AddNode(context.Background(), disgolink.NodeConfig{
		Name:     "main",
		Address:  config.Address,
		Password: config.Password,
		Secure:   config.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add Lavalink node: %w", err)
	}

	slog.Info("connected to Lavalink", "node", node.Config().Name, "address", config.Address)

	return transport, nil
}

// Close shuts down the Lavalink connection.
func (c *LavalinkTransport) Close() {
	c.link.Close()
}

// Attach connects to a voice channel.
// It waits for both VoiceStateUpdate and VoiceServerUpdate events before returning.
func (c *LavalinkTransport) Attach(ctx context.Context, guildID, channelID snowflake.ID) error {
	pending := &pendingVoiceConnection{
		ready: make(chan struct{}),
	}

	c.pendingMu.Lock()
	c.pending[guildID] = pending
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, guildID)
		c.pendingMu.Unlock()
	}()

	err := c.session.ChannelVoiceJoinManual(guildID.String(), channelID.String(), false, false)
	if err != nil {
		return fmt.Errorf("failed to join voice channel: %w", err)
	}

	select {
	case <-pending.ready:
		c.streamMu.Lock()
		c.attached[guildID] = true
		c.streamMu.Unlock()
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context cancelled while waiting for voice connection: %w", ctx.Err())
	case <-time.After(voiceConnectionTimeout):
		return fmt.Errorf("timeout waiting for voice connection: %w", domain.ErrTransport)
	}
}

// Detach disconnects from the voice channel and destroys the player.
func (c *LavalinkTransport) Detach(ctx context.Context, guildID snowflake.ID) error {
	c.streamMu.Lock()
	delete(c.attached, guildID)
	c.streamMu.Unlock()

	player := c.link.ExistingPlayer(guildID)
	if player != nil {
		if err := player.Destroy(ctx); err != nil {
			slog.Warn("failed to destroy player", "guild", guildID, "error", err)
		}
	}

	err := c.session.ChannelVoiceJoinManual(guildID.String(), "", false, false)
	if err != nil {
		return fmt.Errorf("failed to leave voice channel: %w", err)
	}
	return nil
}

// IsAttached reports whether the guild has an established voice connection.
func (c *LavalinkTransport) IsAttached(guildID snowflake.ID) bool {
	c.streamMu.Lock()
	defer c.streamMu.Unlock()
	return c.attached[guildID]
}

// Play loads the playable URL on the node and starts streaming it. The
// returned channel delivers exactly one result when the stream ends.
func (c *LavalinkTransport) Play(
	ctx context.Context,
	guildID snowflake.ID,
	playableURL string,
) (<-chan ports.PlayResult, error) {
	track, err := c.loadSingle(ctx, playableURL)
	if err != nil {
		return nil, err
	}

	results := make(chan ports.PlayResult, 1)

	c.streamMu.Lock()
	if prev, ok := c.streams[guildID]; ok {
		// A replaced stream reports cancellation to its waiter.
		select {
		case prev <- ports.PlayResult{Err: domain.ErrCancelled}:
		default:
		}
	}
	c.streams[guildID] = results
	delete(c.lastException, guildID)
	c.streamMu.Unlock()

	player := c.link.Player(guildID)
	// Use WithEncodedTrack to avoid userData:null issue
	if err := player.Update(ctx, lavalink.WithEncodedTrack(track.Encoded)); err != nil {
		c.streamMu.Lock()
		delete(c.streams, guildID)
		c.streamMu.Unlock()
		return nil, fmt.Errorf("failed to play track: %w", err)
	}

	return results, nil
}

// Stop terminates the current stream. The pending result reports a
// cancellation.
func (c *LavalinkTransport) Stop(ctx context.Context, guildID snowflake.ID) error {
	player := c.link.ExistingPlayer(guildID)
	if player == nil {
		return nil
	}
	if err := player.Update(ctx, lavalink.WithNullTrack()); err != nil {
		return fmt.Errorf("failed to stop playback: %w", err)
	}
	return nil
}

// Lookup resolves track metadata through the node for sources it loads
// natively (YouTube, SoundCloud).
func (c *LavalinkTransport) Lookup(ctx context.Context, url string) (domain.TrackDescriptor, error) {
	track, err := c.loadSingle(ctx, url)
	if err != nil {
		return domain.TrackDescriptor{}, err
	}

	info := track.Info
	d := domain.TrackDescriptor{
		Title:        info.Title,
		Duration:     time.Duration(info.Length) * time.Millisecond,
		CanonicalURL: getStringPtr(info.URI),
		Uploader:     info.Author,
		ThumbnailURL: getStringPtr(info.ArtworkURL),
		Source:       domain.ParseSourceTag(info.SourceName),
	}
	if d.CanonicalURL == "" {
		d.CanonicalURL = url
	}
	return d, nil
}

// loadSingle loads exactly one track for a URL. Search results take the
// first hit; playlists are rejected.
func (c *LavalinkTransport) loadSingle(ctx context.Context, query string) (lavalink.Track, error) {
	node := c.link.BestNode()
	if node == nil {
		return lavalink.Track{}, fmt.Errorf("no available Lavalink node: %w", domain.ErrTransport)
	}

	result, err := node.LoadTracks(ctx, query)
	if err != nil {
		return lavalink.Track{}, fmt.Errorf("failed to load tracks: %w", domain.ErrNetwork)
	}

	switch data := result.Data.(type) {
	case lavalink.Track:
		return data, nil
	case lavalink.Search:
		if len(data) == 0 {
			return lavalink.Track{}, domain.ErrNotFound
		}
		return data[0], nil
	case lavalink.Playlist:
		if len(data.Tracks) == 0 {
			return lavalink.Track{}, domain.ErrNotFound
		}
		return data.Tracks[0], nil
	case lavalink.Empty:
		return lavalink.Track{}, domain.ErrNotFound
	case lavalink.Exception:
		return lavalink.Track{}, fmt.Errorf("%s: %w", data.Message, classifyException(data.Message))
	default:
		return lavalink.Track{}, domain.ErrMalformed
	}
}

func getStringPtr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// OnVoiceServerUpdate handles Discord voice server updates.
// This must be called from the Discord event handler.
func (c *LavalinkTransport) OnVoiceServerUpdate(event *discordgo.VoiceServerUpdate) {
	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice server update", "error", err)
		return
	}

	buffer := c.getOrCreateVoiceBuffer(guildID)
	if buffer.setVoiceServer(event.Token, event.Endpoint) {
		c.forwardBufferedVoiceEvents(guildID, buffer)
	}

	c.pendingMu.Lock()
	pending := c.pending[guildID]
	c.pendingMu.Unlock()

	if pending != nil {
		pending.onEvent(false)
	}
}

// OnVoiceStateUpdate handles Discord voice state updates.
// This must be called from the Discord event handler.
func (c *LavalinkTransport) OnVoiceStateUpdate(event *discordgo.VoiceStateUpdate) {
	// Only handle updates for the bot itself
	if event.UserID != c.botID.String() {
		return
	}

	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice state update", "error", err)
		return
	}

	sessionID := event.SessionID

	// Parse the channel ID - if empty, the bot is disconnecting
	var channelID *snowflake.ID
	if event.ChannelID != "" {
		id, err := snowflake.Parse(event.ChannelID)
		if err != nil {
			slog.Error("failed to parse channel ID in voice state update", "error", err)
			return
		}
		channelID = &id
	}

	// Handle disconnect immediately (no need to wait for VoiceServerUpdate)
	if channelID == nil {
		c.link.OnVoiceStateUpdate(context.Background(), guildID, nil, sessionID)
		c.clearVoiceBuffer(guildID)
		c.streamMu.Lock()
		delete(c.attached, guildID)
		c.streamMu.Unlock()
		return
	}

	buffer := c.getOrCreateVoiceBuffer(guildID)
	if buffer.setVoiceState(channelID, sessionID) {
		c.forwardBufferedVoiceEvents(guildID, buffer)
	}

	c.pendingMu.Lock()
	pending := c.pending[guildID]
	c.pendingMu.Unlock()

	if pending != nil {
		pending.onEvent(true)
	}
}

// getOrCreateVoiceBuffer returns the voice buffer for a guild, creating one if needed.
func (c *LavalinkTransport) getOrCreateVoiceBuffer(guildID snowflake.ID) *voiceEventBuffer {
	c.voiceBufferMu.Lock()
	defer c.voiceBufferMu.Unlock()

	buffer, exists := c.voiceBuffers[guildID]
	if !exists {
		buffer = &voiceEventBuffer{}
		c.voiceBuffers[guildID] = buffer
	}
	return buffer
}

// clearVoiceBuffer removes the voice buffer for a guild.
func (c *LavalinkTransport) clearVoiceBuffer(guildID snowflake.ID) {
	c.voiceBufferMu.Lock()
	defer c.voiceBufferMu.Unlock()
	delete(c.voiceBuffers, guildID)
}

// forwardBufferedVoiceEvents sends the buffered voice events to Lavalink.
func (c *LavalinkTransport) forwardBufferedVoiceEvents(
	guildID snowflake.ID,
	buffer *voiceEventBuffer,
) {
	channelID, sessionID, token, endpoint := buffer.getData()

	slog.Debug("forwarding buffered voice events to Lavalink",
		"guild", guildID,
		"channel", channelID,
		"hasSessionID", sessionID != "",
	)

	// Forward to Lavalink in the correct order
	c.link.OnVoiceStateUpdate(context.Background(), guildID, channelID, sessionID)
	c.link.OnVoiceServerUpdate(context.Background(), guildID, token, endpoint)
}

func (c *LavalinkTransport) onTrackStart(player disgolink.Player, event lavalink.TrackStartEvent) {
	slog.Debug("track started", "guild", player.GuildID(), "track", event.Track.Info.Title)
}

func (c *LavalinkTransport) onTrackEnd(player disgolink.Player, event lavalink.TrackEndEvent) {
	slog.Debug("track ended", "guild", player.GuildID(), "reason", event.Reason)

	// A replaced stream was already settled by the Play call that
	// replaced it; delivering here would hit the new stream's channel.
	if event.Reason == lavalink.TrackEndReasonReplaced {
		return
	}

	c.deliver(player.GuildID(), convertEndReason(player.GuildID(), event.Reason, c.takeException(player.GuildID())))
}

func (c *LavalinkTransport) onTrackException(
	player disgolink.Player,
	event lavalink.TrackExceptionEvent,
) {
	slog.Warn("track exception", "guild", player.GuildID(), "error", event.Exception.Message)
	c.streamMu.Lock()
	c.lastException[player.GuildID()] = event.Exception.Message
	c.streamMu.Unlock()
}

func (c *LavalinkTransport) onTrackStuck(player disgolink.Player, event lavalink.TrackStuckEvent) {
	slog.Warn("track stuck", "guild", player.GuildID(), "threshold", event.Threshold)
}

// deliver completes the guild's pending stream with the given outcome.
func (c *LavalinkTransport) deliver(guildID snowflake.ID, err error) {
	c.streamMu.Lock()
	results, ok := c.streams[guildID]
	if ok {
		delete(c.streams, guildID)
	}
	c.streamMu.Unlock()

	if !ok {
		return
	}
	select {
	case results <- ports.PlayResult{Err: err}:
	default:
	}
}

func (c *LavalinkTransport) takeException(guildID snowflake.ID) string {
	c.streamMu.Lock()
	defer c.streamMu.Unlock()
	msg := c.lastException[guildID]
	delete(c.lastException, guildID)
	return msg
}

// convertEndReason maps a Lavalink end reason to a stream outcome.
func convertEndReason(guildID snowflake.ID, reason lavalink.TrackEndReason, exception string) error {
	switch reason {
	case lavalink.TrackEndReasonFinished:
		return nil
	case lavalink.TrackEndReasonLoadFailed:
		err := classifyException(exception)
		slog.Warn("track load failed", "guild", guildID, "exception", exception)
		return err
	case lavalink.TrackEndReasonStopped, lavalink.TrackEndReasonCleanup:
		return domain.ErrCancelled
	default:
		return domain.ErrTransport
	}
}

// classifyException maps a node exception message to an error kind.
// Expired CDN links surface as 403 responses from the upstream.
func classifyException(message string) error {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "expired") || strings.Contains(lower, "403"):
		return domain.ErrExpired
	case strings.Contains(lower, "not found") || strings.Contains(lower, "404"):
		return domain.ErrNotFound
	case strings.Contains(lower, "region") || strings.Contains(lower, "geo"):
		return domain.ErrGeoBlocked
	default:
		return domain.ErrTransport
	}
}

// Ensure LavalinkTransport implements port interfaces.
var (
	_ ports.VoiceTransport = (*LavalinkTransport)(nil)
	_ ports.MediaLookup    = (*LavalinkTransport)(nil)
)
