package music_player

import "time"

// Config holds the music player module configuration. All variables are
// read under the MUSIC_ prefix (MUSIC_LAVALINK_ADDRESS and so on).
type Config struct {
	LavalinkAddress  string `env:"LAVALINK_ADDRESS,notEmpty"`
	LavalinkPassword string `env:"LAVALINK_PASSWORD,notEmpty"`
	LavalinkSecure   bool   `env:"LAVALINK_SECURE" envDefault:"false"`

	// DataDir is where queue snapshots are persisted across restarts.
	DataDir string `env:"DATA_DIR" envDefault:"data"`

	MaxQueueLength     int           `env:"MAX_QUEUE_LENGTH" envDefault:"100"`
	MaxTrackDuration   time.Duration `env:"MAX_TRACK_DURATION" envDefault:"1h"`
	MaxPendingPerUser  int           `env:"MAX_PENDING_PER_USER" envDefault:"1"`
	DuplicateThreshold int           `env:"DUPLICATE_THRESHOLD" envDefault:"5"`
	FairnessMode       string        `env:"FAIRNESS_MODE" envDefault:"strict"`
	IdleTimeout        time.Duration `env:"IDLE_TIMEOUT" envDefault:"5m"`

	YouTubeEnabled    bool `env:"YOUTUBE_ENABLED" envDefault:"true"`
	SoundCloudEnabled bool `env:"SOUNDCLOUD_ENABLED" envDefault:"true"`
	NetEaseEnabled    bool `env:"NETEASE_ENABLED" envDefault:"true"`
	BilibiliEnabled   bool `env:"BILIBILI_ENABLED" envDefault:"true"`
	CatboxEnabled     bool `env:"CATBOX_ENABLED" envDefault:"true"`
	GenericEnabled    bool `env:"GENERIC_ENABLED" envDefault:"true"`

	// NetEase provider options. The proxy host substitutes the playback
	// host for regions where the catalog is blocked.
	NetEaseProxyHost      string `env:"NETEASE_PROXY_HOST"`
	NetEaseProxyHTTPS     bool   `env:"NETEASE_PROXY_HTTPS" envDefault:"true"`
	NetEaseMemberCookie   string `env:"NETEASE_MEMBER_COOKIE"`
	NetEaseUsePlaybackAPI bool   `env:"NETEASE_USE_PLAYBACK_API" envDefault:"false"`
}
