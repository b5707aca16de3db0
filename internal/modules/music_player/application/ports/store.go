package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/hikawa-dev/cadenza/internal/modules/music_player/domain"
)

// SnapshotStore persists per-guild queue snapshots.
type SnapshotStore interface {
	// Save durably replaces the guild's snapshot.
	Save(ctx context.Context, snap domain.Snapshot) error

	// Load reads the guild's snapshot. found is false when no usable
	// snapshot exists; a corrupt or unreadable snapshot is treated as
	// absent rather than fatal.
	Load(ctx context.Context, guildID snowflake.ID) (snap domain.Snapshot, found bool, err error)

	// ListGuilds returns the guild IDs that have stored snapshots.
	ListGuilds(ctx context.Context) ([]snowflake.ID, error)

	// Clear removes the guild's snapshot.
	Clear(ctx context.Context, guildID snowflake.ID) error
}
