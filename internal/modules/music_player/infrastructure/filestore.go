package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/disgoorg/snowflake/v2"
	"github.com/goccy/go-json"
	"github.com/google/renameio/v2"

	"github.com/hikawa-dev/cadenza/internal/modules/music_player/application/ports"
	"github.com/hikawa-dev/cadenza/internal/modules/music_player/domain"
)

// Compile-time check that FileSnapshotStore implements ports.SnapshotStore.
var _ ports.SnapshotStore = (*FileSnapshotStore)(nil)

// FileSnapshotStore persists queue snapshots as one JSON file per guild
// under <root>/queues/. Writes go through a temp file and an atomic
// rename so a crash never leaves a torn snapshot behind.
type FileSnapshotStore struct {
	dir string
}

// NewFileSnapshotStore creates the store and its directory.
func NewFileSnapshotStore(root string) (*FileSnapshotStore, error) {
	dir := filepath.Join(root, "queues")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}
	return &FileSnapshotStore{dir: dir}, nil
}

// Save durably replaces the guild's snapshot file.
func (s *FileSnapshotStore) Save(ctx context.Context, snap domain.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	path := s.path(snap.GuildID)
	pf, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending snapshot file: %w", err)
	}
	defer pf.Cleanup() //nolint:errcheck

	if _, err := pf.Write(data); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Load reads the guild's snapshot. Missing, corrupt, or unknown-schema
// files report found=false; corruption is logged, never fatal.
func (s *FileSnapshotStore) Load(ctx context.Context, guildID snowflake.ID) (domain.Snapshot, bool, error) {
	data, err := os.ReadFile(s.path(guildID.String()))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Snapshot{}, false, nil
		}
		return domain.Snapshot{}, false, fmt.Errorf("read snapshot: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		slog.Warn("discarding corrupt queue snapshot", "guild", guildID, "error", err)
		return domain.Snapshot{}, false, nil
	}
	if snap.Schema != domain.SnapshotSchemaVersion {
		slog.Warn("discarding queue snapshot with unknown schema",
			"guild", guildID, "schema", snap.Schema)
		return domain.Snapshot{}, false, nil
	}
	return snap, true, nil
}

// ListGuilds returns the guild IDs that have snapshot files.
func (s *FileSnapshotStore) ListGuilds(ctx context.Context) ([]snowflake.ID, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list snapshot directory: %w", err)
	}

	var ids []snowflake.ID
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id, err := snowflake.Parse(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			slog.Warn("ignoring stray file in snapshot directory", "name", entry.Name())
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Clear removes the guild's snapshot file.
func (s *FileSnapshotStore) Clear(ctx context.Context, guildID snowflake.ID) error {
	err := os.Remove(s.path(guildID.String()))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove snapshot: %w", err)
	}
	return nil
}

func (s *FileSnapshotStore) path(guildID string) string {
	return filepath.Join(s.dir, guildID+".json")
}
