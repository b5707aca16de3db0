package music_player

import (
	"testing"
	"time"

	"github.com/hikawa-dev/cadenza/internal/modules/music_player/domain"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("MUSIC_LAVALINK_ADDRESS", "localhost:2333")
	t.Setenv("MUSIC_LAVALINK_PASSWORD", "youshallnotpass")

	m := &MusicPlayerModule{}
	if err := m.LoadConfig(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg := m.config

	if cfg.MaxPendingPerUser != 1 {
		t.Errorf("expected pending cap 1, got %d", cfg.MaxPendingPerUser)
	}
	if cfg.DuplicateThreshold != 5 {
		t.Errorf("expected duplicate threshold 5, got %d", cfg.DuplicateThreshold)
	}
	if domain.FairnessMode(cfg.FairnessMode) != domain.FairnessStrict {
		t.Errorf("expected strict fairness, got %q", cfg.FairnessMode)
	}
	if cfg.IdleTimeout != 5*time.Minute {
		t.Errorf("expected 5m idle timeout, got %v", cfg.IdleTimeout)
	}
	if cfg.MaxTrackDuration != time.Hour {
		t.Errorf("expected 1h max track duration, got %v", cfg.MaxTrackDuration)
	}
	if cfg.MaxQueueLength != 100 {
		t.Errorf("expected queue cap 100, got %d", cfg.MaxQueueLength)
	}
}

func TestLoadConfig_MissingLavalinkAddress(t *testing.T) {
	t.Setenv("MUSIC_LAVALINK_ADDRESS", "")
	t.Setenv("MUSIC_LAVALINK_PASSWORD", "youshallnotpass")

	m := &MusicPlayerModule{}
	if err := m.LoadConfig(); err == nil {
		t.Error("expected error for missing Lavalink address, got nil")
	}
}

func TestProviderList_WithoutTransport(t *testing.T) {
	m := &MusicPlayerModule{config: &Config{
		YouTubeEnabled:    true,
		SoundCloudEnabled: true,
		NetEaseEnabled:    true,
		BilibiliEnabled:   true,
		CatboxEnabled:     true,
		GenericEnabled:    true,
	}}

	// Lavalink-backed providers need a node for metadata lookups; without
	// one they must not be registered at all.
	for _, p := range m.providerList(nil) {
		switch p.Name() {
		case "youtube", "soundcloud":
			t.Errorf("provider %q registered without a transport", p.Name())
		}
	}
}
