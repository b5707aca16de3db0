package domain

import "time"

// Queue is a single guild's FIFO playback queue. It is not safe for
// concurrent use; callers serialize access per guild.
//
// The current entry is distinct from the pending list: Advance pops the
// head into current, and the previous current is discarded at that point.
type Queue struct {
	pending  []QueueEntry
	current  *QueueEntry
	revision uint64
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends an entry and returns its 1-based position among pending
// entries.
func (q *Queue) Enqueue(e QueueEntry) int {
	q.pending = append(q.pending, e)
	q.revision++
	return len(q.pending)
}

// PeekNext returns the head of the pending list without removing it.
func (q *Queue) PeekNext() (QueueEntry, bool) {
	if len(q.pending) == 0 {
		return QueueEntry{}, false
	}
	return q.pending[0], true
}

// Advance discards the current entry and promotes the head of the pending
// list to current. It returns the new current entry, or false when the
// pending list is empty (current becomes nil).
func (q *Queue) Advance() (QueueEntry, bool) {
	changed := q.current != nil
	q.current = nil

	if len(q.pending) == 0 {
		if changed {
			q.revision++
		}
		return QueueEntry{}, false
	}

	head := q.pending[0]
	q.pending = q.pending[1:]
	q.current = &head
	q.revision++
	return head, true
}

// ClearCurrent discards the current entry without promoting a successor.
func (q *Queue) ClearCurrent() (QueueEntry, bool) {
	if q.current == nil {
		return QueueEntry{}, false
	}
	prev := *q.current
	q.current = nil
	q.revision++
	return prev, true
}

// RemoveAt removes the pending entry at the given 1-based position.
func (q *Queue) RemoveAt(pos int) (QueueEntry, error) {
	if pos < 1 || pos > len(q.pending) {
		return QueueEntry{}, ErrOutOfRange
	}
	removed := q.pending[pos-1]
	q.pending = append(q.pending[:pos-1], q.pending[pos:]...)
	q.revision++
	return removed, nil
}

// Clear empties the pending list, leaving the current entry untouched.
// It returns the removed entries.
func (q *Queue) Clear() []QueueEntry {
	if len(q.pending) == 0 {
		return nil
	}
	removed := q.pending
	q.pending = nil
	q.revision++
	return removed
}

// Current returns the currently playing entry, if any.
func (q *Queue) Current() (QueueEntry, bool) {
	if q.current == nil {
		return QueueEntry{}, false
	}
	return *q.current, true
}

// Len returns the number of pending entries.
func (q *Queue) Len() int {
	return len(q.pending)
}

// Revision returns the mutation counter. It increments on every change
// that alters queue contents and never on reads.
func (q *Queue) Revision() uint64 {
	return q.revision
}

// TotalDuration sums the durations of all pending entries.
func (q *Queue) TotalDuration() time.Duration {
	var total time.Duration
	for _, e := range q.pending {
		total += e.Descriptor.Duration
	}
	return total
}

// Entries returns a copy of the pending list in play order.
func (q *Queue) Entries() []QueueEntry {
	out := make([]QueueEntry, len(q.pending))
	copy(out, q.pending)
	return out
}

// Restore replaces the queue contents from a snapshot. The revision
// counter restarts from zero; it is process-local state.
func (q *Queue) Restore(current *QueueEntry, pending []QueueEntry) {
	q.current = current
	q.pending = append([]QueueEntry(nil), pending...)
	q.revision = 0
}
