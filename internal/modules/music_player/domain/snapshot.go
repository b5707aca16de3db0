package domain

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// SnapshotSchemaVersion is the current on-disk snapshot format version.
const SnapshotSchemaVersion = 1

// Snapshot is the durable form of one guild's queue.
type Snapshot struct {
	Schema  int           `json:"schema"`
	GuildID string        `json:"guild_id"`
	Current *EntryRecord  `json:"current,omitempty"`
	Pending []EntryRecord `json:"pending"`
}

// EntryRecord is the wire form of a queue entry. It deliberately carries
// the canonical URL only; playable URLs are re-resolved on restore.
type EntryRecord struct {
	Title            string `json:"title"`
	DurationMS       int64  `json:"duration_ms"`
	CanonicalURL     string `json:"canonical_url"`
	Uploader         string `json:"uploader,omitempty"`
	SourceTag        string `json:"source_tag"`
	ThumbnailURL     string `json:"thumbnail_url,omitempty"`
	RequesterID      string `json:"requester_id"`
	RequesterDisplay string `json:"requester_display"`
	EnqueuedAtMS     int64  `json:"enqueued_at_ms"`
}

// NewSnapshot captures the queue's current state for a guild.
func NewSnapshot(guildID snowflake.ID, q *Queue) Snapshot {
	snap := Snapshot{
		Schema:  SnapshotSchemaVersion,
		GuildID: guildID.String(),
		Pending: make([]EntryRecord, 0, q.Len()),
	}
	if cur, ok := q.Current(); ok {
		rec := entryToRecord(cur)
		snap.Current = &rec
	}
	for _, e := range q.Entries() {
		snap.Pending = append(snap.Pending, entryToRecord(e))
	}
	return snap
}

// RestoreQueue rebuilds a queue from a snapshot. A snapshot with an
// unknown schema version yields ErrSchemaMismatch; individual entries
// with unparsable fields yield ErrCorruptSnapshot.
func (s Snapshot) RestoreQueue() (*Queue, error) {
	if s.Schema != SnapshotSchemaVersion {
		return nil, ErrSchemaMismatch
	}

	guildID, err := snowflake.Parse(s.GuildID)
	if err != nil {
		return nil, ErrCorruptSnapshot
	}

	var current *QueueEntry
	if s.Current != nil {
		e, err := recordToEntry(*s.Current, guildID)
		if err != nil {
			return nil, err
		}
		current = &e
	}

	pending := make([]QueueEntry, 0, len(s.Pending))
	for _, rec := range s.Pending {
		e, err := recordToEntry(rec, guildID)
		if err != nil {
			return nil, err
		}
		pending = append(pending, e)
	}

	q := NewQueue()
	q.Restore(current, pending)
	return q, nil
}

func entryToRecord(e QueueEntry) EntryRecord {
	return EntryRecord{
		Title:            e.Descriptor.Title,
		DurationMS:       e.Descriptor.Duration.Milliseconds(),
		CanonicalURL:     e.Descriptor.CanonicalURL,
		Uploader:         e.Descriptor.Uploader,
		SourceTag:        string(e.Descriptor.Source),
		ThumbnailURL:     e.Descriptor.ThumbnailURL,
		RequesterID:      e.RequesterID.String(),
		RequesterDisplay: e.RequesterDisplay,
		EnqueuedAtMS:     e.EnqueuedAt.UnixMilli(),
	}
}

func recordToEntry(rec EntryRecord, guildID snowflake.ID) (QueueEntry, error) {
	requester, err := snowflake.Parse(rec.RequesterID)
	if err != nil {
		return QueueEntry{}, ErrCorruptSnapshot
	}
	return QueueEntry{
		Descriptor: TrackDescriptor{
			Title:        rec.Title,
			Duration:     time.Duration(rec.DurationMS) * time.Millisecond,
			CanonicalURL: rec.CanonicalURL,
			Uploader:     rec.Uploader,
			ThumbnailURL: rec.ThumbnailURL,
			Source:       ParseSourceTag(rec.SourceTag),
		},
		RequesterID:      requester,
		RequesterDisplay: rec.RequesterDisplay,
		GuildID:          guildID,
		EnqueuedAt:       time.UnixMilli(rec.EnqueuedAtMS),
	}, nil
}
