package music_player

import (
	"context"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/caarlos0/env/v11"
	"github.com/disgoorg/snowflake/v2"

	"github.com/hikawa-dev/cadenza/internal/bot"
	"github.com/hikawa-dev/cadenza/internal/modules/music_player/application/events"
	"github.com/hikawa-dev/cadenza/internal/modules/music_player/application/ports"
	"github.com/hikawa-dev/cadenza/internal/modules/music_player/application/usecases"
	"github.com/hikawa-dev/cadenza/internal/modules/music_player/domain"
	"github.com/hikawa-dev/cadenza/internal/modules/music_player/infrastructure"
	"github.com/hikawa-dev/cadenza/internal/modules/music_player/infrastructure/providers"
	"github.com/hikawa-dev/cadenza/internal/modules/music_player/presentation"
)

func init() {
	bot.Register(&MusicPlayerModule{})
}

// Compile-time interface checks.
var _ bot.ConfigurableModule = (*MusicPlayerModule)(nil)

// MusicPlayerModule provides queue-based music playback commands.
type MusicPlayerModule struct {
	config   *Config
	handlers *presentation.Handlers

	botID     snowflake.ID
	transport *infrastructure.LavalinkTransport
	engine    *usecases.Engine

	// Event-driven notification pipeline.
	eventBus            *events.Bus
	notificationHandler *events.NotificationEventHandler

	ctx    context.Context
	cancel context.CancelFunc
}

// Name returns the module name.
func (m *MusicPlayerModule) Name() string {
	return "music_player"
}

// Commands returns the slash commands for this module.
func (m *MusicPlayerModule) Commands() []*discordgo.ApplicationCommand {
	return presentation.Commands()
}

// CommandHandlers returns the command handlers for this module.
func (m *MusicPlayerModule) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"play":     m.handlers.HandlePlay,
		"skip":     m.handlers.HandleSkip,
		"stop":     m.handlers.HandleStop,
		"queue":    m.handlers.HandleQueue,
		"mystatus": m.handlers.HandleMyStatus,
	}
}

// EventHandlers returns the gateway event handlers for this module.
func (m *MusicPlayerModule) EventHandlers() []bot.EventHandler {
	return []bot.EventHandler{
		func(s *discordgo.Session, event *discordgo.VoiceServerUpdate) {
			m.handleVoiceServerUpdate(event)
		},
		func(s *discordgo.Session, event *discordgo.VoiceStateUpdate) {
			m.handleVoiceStateUpdate(event)
		},
	}
}

// LoadConfig loads module-specific configuration from environment variables.
func (m *MusicPlayerModule) LoadConfig() error {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "MUSIC_"}); err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Init initializes the module.
func (m *MusicPlayerModule) Init(deps bot.ModuleDependencies) error {
	if deps.Session == nil {
		slog.Warn("music_player module initialized without session, playback disabled")
		return m.initWithoutVoice()
	}
	return m.initWithVoice(deps)
}

// initWithoutVoice wires the module without a Discord session. Queue
// state is still restored, but anything touching voice fails at runtime
// if called.
func (m *MusicPlayerModule) initWithoutVoice() error {
	m.ctx, m.cancel = context.WithCancel(context.Background())

	store, err := infrastructure.NewFileSnapshotStore(m.config.DataDir)
	if err != nil {
		return err
	}

	m.eventBus = events.NewBus(events.DefaultEventBufferSize)
	m.engine = usecases.NewEngine(
		m.engineConfig(),
		providers.NewRegistry(m.providerList(nil)...),
		store,
		nil,
		nil,
		m.eventBus,
	)
	m.handlers = presentation.NewHandlers(m.engine, nil)

	return m.engine.Start(m.ctx)
}

func (m *MusicPlayerModule) initWithVoice(deps bot.ModuleDependencies) error {
	m.ctx, m.cancel = context.WithCancel(context.Background())

	botID, err := snowflake.Parse(deps.Session.State.User.ID)
	if err != nil {
		return err
	}
	m.botID = botID

	transport, err := infrastructure.NewLavalinkTransport(deps.Session, infrastructure.LavalinkConfig{
		Address:  m.config.LavalinkAddress,
		Password: m.config.LavalinkPassword,
		Secure:   m.config.LavalinkSecure,
	})
	if err != nil {
		return err
	}
	m.transport = transport

	store, err := infrastructure.NewFileSnapshotStore(m.config.DataDir)
	if err != nil {
		return err
	}

	voiceState := infrastructure.NewVoiceStateProvider(deps.Session)
	notifier := infrastructure.NewNotifier(deps.Session)

	m.eventBus = events.NewBus(events.DefaultEventBufferSize)
	m.engine = usecases.NewEngine(
		m.engineConfig(),
		providers.NewRegistry(m.providerList(transport)...),
		store,
		transport,
		voiceState,
		m.eventBus,
	)

	// The engine doubles as the notification channel resolver: /play
	// records the invoking text channel per guild.
	m.notificationHandler = events.NewNotificationEventHandler(notifier, m.engine, m.eventBus)
	m.notificationHandler.Start(m.ctx)

	m.handlers = presentation.NewHandlers(m.engine, voiceState)

	if err := m.engine.Start(m.ctx); err != nil {
		return err
	}

	slog.Info("music_player module initialized", "lavalink", m.config.LavalinkAddress)

	return nil
}

func (m *MusicPlayerModule) engineConfig() usecases.EngineConfig {
	return usecases.EngineConfig{
		MaxQueueLength:     m.config.MaxQueueLength,
		MaxTrackDuration:   m.config.MaxTrackDuration,
		MaxPendingPerUser:  m.config.MaxPendingPerUser,
		DuplicateThreshold: m.config.DuplicateThreshold,
		FairnessMode:       domain.FairnessMode(m.config.FairnessMode),
		IdleTimeout:        m.config.IdleTimeout,
	}
}

// providerList builds the provider chain in priority order. More specific
// providers come before the generic audio-file fallback. YouTube and
// SoundCloud resolve metadata through the Lavalink node, so they are
// omitted when no transport exists.
func (m *MusicPlayerModule) providerList(lookup *infrastructure.LavalinkTransport) []ports.Provider {
	var list []ports.Provider
	if m.config.YouTubeEnabled && lookup != nil {
		list = append(list, providers.NewYouTube(lookup))
	}
	if m.config.BilibiliEnabled {
		list = append(list, providers.NewBilibili())
	}
	if m.config.NetEaseEnabled {
		list = append(list, providers.NewNetEase(providers.NetEaseConfig{
			ProxyHost:      m.config.NetEaseProxyHost,
			ProxyHTTPS:     m.config.NetEaseProxyHTTPS,
			MemberCookie:   m.config.NetEaseMemberCookie,
			UsePlaybackAPI: m.config.NetEaseUsePlaybackAPI,
		}))
	}
	if m.config.SoundCloudEnabled && lookup != nil {
		list = append(list, providers.NewSoundCloud(lookup))
	}
	if m.config.CatboxEnabled {
		list = append(list, providers.NewCatbox())
	}
	if m.config.GenericEnabled {
		list = append(list, providers.NewGeneric())
	}
	return list
}

// Shutdown cleans up module resources. The engine snapshots every guild
// before the event pipeline is torn down.
func (m *MusicPlayerModule) Shutdown() error {
	if m.engine != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := m.engine.Shutdown(ctx); err != nil {
			slog.Error("music player engine shutdown", "error", err)
		}
	}

	if m.cancel != nil {
		m.cancel()
	}
	if m.notificationHandler != nil {
		m.notificationHandler.Stop()
	}
	if m.eventBus != nil {
		m.eventBus.Close()
	}
	if m.transport != nil {
		m.transport.Close()
	}

	return nil
}

// Gateway event handlers.

func (m *MusicPlayerModule) handleVoiceServerUpdate(event *discordgo.VoiceServerUpdate) {
	if m.transport != nil {
		m.transport.OnVoiceServerUpdate(event)
	}
}

func (m *MusicPlayerModule) handleVoiceStateUpdate(event *discordgo.VoiceStateUpdate) {
	if m.transport == nil {
		return
	}
	m.transport.OnVoiceStateUpdate(event)

	// A forced disconnect parks the guild's playback without draining the
	// queue; rejoining resumes it.
	if event.UserID != m.botID.String() {
		return
	}
	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		return
	}
	if event.ChannelID == "" {
		m.engine.Suspend(guildID)
	} else {
		m.engine.Resume(guildID)
	}
}
