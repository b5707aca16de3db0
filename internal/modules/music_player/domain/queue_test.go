package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

func testEntry(title string, requester snowflake.ID) QueueEntry {
	return QueueEntry{
		Descriptor: TrackDescriptor{
			Title:        title,
			Duration:     3 * time.Minute,
			CanonicalURL: "https://example.com/" + title,
			Source:       SourceGeneric,
		},
		RequesterID:      requester,
		RequesterDisplay: "user",
		EnqueuedAt:       time.Now(),
	}
}

func TestQueue_Enqueue_ReturnsPosition(t *testing.T) {
	q := NewQueue()

	if pos := q.Enqueue(testEntry("a", 1)); pos != 1 {
		t.Errorf("expected position 1, got %d", pos)
	}
	if pos := q.Enqueue(testEntry("b", 2)); pos != 2 {
		t.Errorf("expected position 2, got %d", pos)
	}
}

func TestQueue_PeekNext_DoesNotMutate(t *testing.T) {
	q := NewQueue()
	q.Enqueue(testEntry("a", 1))
	rev := q.Revision()

	e, ok := q.PeekNext()
	if !ok {
		t.Fatal("expected an entry")
	}
	if e.Descriptor.Title != "a" {
		t.Errorf("expected title %q, got %q", "a", e.Descriptor.Title)
	}
	if q.Len() != 1 {
		t.Errorf("expected length 1 after peek, got %d", q.Len())
	}
	if q.Revision() != rev {
		t.Error("expected revision unchanged after peek")
	}
}

func TestQueue_Advance_PromotesHead(t *testing.T) {
	q := NewQueue()
	q.Enqueue(testEntry("a", 1))
	q.Enqueue(testEntry("b", 2))

	e, ok := q.Advance()
	if !ok {
		t.Fatal("expected an entry")
	}
	if e.Descriptor.Title != "a" {
		t.Errorf("expected %q, got %q", "a", e.Descriptor.Title)
	}

	cur, ok := q.Current()
	if !ok || cur.Descriptor.Title != "a" {
		t.Errorf("expected current %q, got %+v ok=%v", "a", cur, ok)
	}
	if q.Len() != 1 {
		t.Errorf("expected 1 pending, got %d", q.Len())
	}
}

func TestQueue_Advance_EmptyClearsCurrent(t *testing.T) {
	q := NewQueue()
	q.Enqueue(testEntry("a", 1))
	q.Advance()

	_, ok := q.Advance()
	if ok {
		t.Fatal("expected no entry from empty queue")
	}
	if _, ok := q.Current(); ok {
		t.Error("expected current to be cleared")
	}
}

func TestQueue_Advance_EmptyIdempotentRevision(t *testing.T) {
	q := NewQueue()
	q.Advance()
	rev := q.Revision()

	q.Advance()
	if q.Revision() != rev {
		t.Error("expected no revision change when advance is a no-op")
	}
}

func TestQueue_RemoveAt(t *testing.T) {
	q := NewQueue()
	q.Enqueue(testEntry("a", 1))
	q.Enqueue(testEntry("b", 2))
	q.Enqueue(testEntry("c", 3))

	removed, err := q.RemoveAt(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed.Descriptor.Title != "b" {
		t.Errorf("expected to remove %q, got %q", "b", removed.Descriptor.Title)
	}

	entries := q.Entries()
	if len(entries) != 2 || entries[0].Descriptor.Title != "a" || entries[1].Descriptor.Title != "c" {
		t.Errorf("unexpected remaining order: %+v", entries)
	}
}

func TestQueue_RemoveAt_OutOfRange(t *testing.T) {
	q := NewQueue()
	q.Enqueue(testEntry("a", 1))

	for _, pos := range []int{0, 2, -1} {
		if _, err := q.RemoveAt(pos); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("RemoveAt(%d): expected ErrOutOfRange, got %v", pos, err)
		}
	}
}

func TestQueue_Clear_LeavesCurrent(t *testing.T) {
	q := NewQueue()
	q.Enqueue(testEntry("a", 1))
	q.Advance()
	q.Enqueue(testEntry("b", 2))
	q.Enqueue(testEntry("c", 3))

	removed := q.Clear()
	if len(removed) != 2 {
		t.Errorf("expected 2 removed, got %d", len(removed))
	}
	if q.Len() != 0 {
		t.Errorf("expected empty pending list, got %d", q.Len())
	}
	if _, ok := q.Current(); !ok {
		t.Error("expected current to survive a clear")
	}
}

func TestQueue_Revision_IncrementsOnMutation(t *testing.T) {
	q := NewQueue()
	rev := q.Revision()

	q.Enqueue(testEntry("a", 1))
	if q.Revision() <= rev {
		t.Error("expected revision bump on enqueue")
	}

	rev = q.Revision()
	q.Advance()
	if q.Revision() <= rev {
		t.Error("expected revision bump on advance")
	}
}

func TestQueue_TotalDuration(t *testing.T) {
	q := NewQueue()
	q.Enqueue(testEntry("a", 1))
	q.Enqueue(testEntry("b", 2))

	if got := q.TotalDuration(); got != 6*time.Minute {
		t.Errorf("expected 6m, got %v", got)
	}
}

func TestQueue_Restore(t *testing.T) {
	q := NewQueue()
	cur := testEntry("playing", 1)
	q.Restore(&cur, []QueueEntry{testEntry("a", 2), testEntry("b", 3)})

	got, ok := q.Current()
	if !ok || got.Descriptor.Title != "playing" {
		t.Errorf("expected restored current, got %+v ok=%v", got, ok)
	}
	if q.Len() != 2 {
		t.Errorf("expected 2 pending, got %d", q.Len())
	}
	if q.Revision() != 0 {
		t.Errorf("expected revision reset to 0, got %d", q.Revision())
	}
}
