package domain

import "github.com/disgoorg/snowflake/v2"

// FairnessMode controls whether a user may enqueue while their own track
// is playing.
type FairnessMode string

const (
	// FairnessStrict rejects a request while the requester's track plays.
	FairnessStrict FairnessMode = "strict"
	// FairnessLenient only enforces the pending cap and duplicate rule.
	FairnessLenient FairnessMode = "lenient"
)

// TrackerConfig tunes admission control for one guild.
type TrackerConfig struct {
	// MaxPendingPerUser caps how many unplayed entries one user may hold.
	// Zero disables the cap.
	MaxPendingPerUser int
	// DuplicateThreshold exempts duplicate requests while the pending list
	// is shorter than this. Zero disables the exemption so duplicates are
	// always rejected.
	DuplicateThreshold int
	Mode               FairnessMode
}

// Tracker enforces per-user admission rules for one guild's queue. All
// state is reference counted so the exemption path, which can admit the
// same identity key twice for one user, unwinds cleanly as entries
// finish. Not safe for concurrent use.
type Tracker struct {
	cfg TrackerConfig

	userKeys     map[snowflake.ID]map[IdentityKey]int
	keyUsers     map[IdentityKey]map[snowflake.ID]int
	pendingCount map[snowflake.ID]int
	playingUser  snowflake.ID
	playing      bool
}

// NewTracker creates a tracker with the given configuration.
func NewTracker(cfg TrackerConfig) *Tracker {
	return &Tracker{
		cfg:          cfg,
		userKeys:     make(map[snowflake.ID]map[IdentityKey]int),
		keyUsers:     make(map[IdentityKey]map[snowflake.ID]int),
		pendingCount: make(map[snowflake.ID]int),
	}
}

// CanAdmit checks whether user may enqueue the descriptor given the
// current pending list length. Rules apply in order: duplicate, pending
// cap, then the strict-mode playing rule. The short-queue exemption
// applies only to the duplicate rule.
func (t *Tracker) CanAdmit(user snowflake.ID, d TrackDescriptor, pendingLen int) error {
	key := d.Identity()

	if t.userKeys[user][key] > 0 {
		exempt := t.cfg.DuplicateThreshold > 0 && pendingLen < t.cfg.DuplicateThreshold
		if !exempt {
			return ErrDuplicate
		}
	}

	if t.cfg.MaxPendingPerUser > 0 && t.pendingCount[user] >= t.cfg.MaxPendingPerUser {
		return ErrFairnessPending
	}

	if t.cfg.Mode == FairnessStrict && t.playing && t.playingUser == user {
		return ErrFairnessPlaying
	}

	return nil
}

// OnEnqueued records an admitted entry.
func (t *Tracker) OnEnqueued(e QueueEntry) {
	key := e.Descriptor.Identity()

	if t.userKeys[e.RequesterID] == nil {
		t.userKeys[e.RequesterID] = make(map[IdentityKey]int)
	}
	t.userKeys[e.RequesterID][key]++

	if t.keyUsers[key] == nil {
		t.keyUsers[key] = make(map[snowflake.ID]int)
	}
	t.keyUsers[key][e.RequesterID]++

	t.pendingCount[e.RequesterID]++
}

// OnStartPlay marks an entry as the one currently playing. The entry
// leaves the pending count but keeps holding its identity key until it
// finishes.
func (t *Tracker) OnStartPlay(e QueueEntry) {
	if n := t.pendingCount[e.RequesterID]; n > 1 {
		t.pendingCount[e.RequesterID] = n - 1
	} else {
		delete(t.pendingCount, e.RequesterID)
	}
	t.playingUser = e.RequesterID
	t.playing = true
}

// OnFinished releases an entry's identity key. Used both when playback
// completes and when a pending entry is removed before playing; removed
// pending entries must be released with OnRemoved instead so the pending
// count also unwinds.
func (t *Tracker) OnFinished(e QueueEntry) {
	t.releaseKey(e)
	if t.playing && t.playingUser == e.RequesterID {
		t.playing = false
		t.playingUser = 0
	}
}

// OnRemoved releases a pending entry that was removed without playing.
func (t *Tracker) OnRemoved(e QueueEntry) {
	t.releaseKey(e)
	if n := t.pendingCount[e.RequesterID]; n > 1 {
		t.pendingCount[e.RequesterID] = n - 1
	} else {
		delete(t.pendingCount, e.RequesterID)
	}
}

func (t *Tracker) releaseKey(e QueueEntry) {
	key := e.Descriptor.Identity()

	if keys := t.userKeys[e.RequesterID]; keys != nil {
		if n := keys[key]; n > 1 {
			keys[key] = n - 1
		} else {
			delete(keys, key)
			if len(keys) == 0 {
				delete(t.userKeys, e.RequesterID)
			}
		}
	}

	if users := t.keyUsers[key]; users != nil {
		if n := users[e.RequesterID]; n > 1 {
			users[e.RequesterID] = n - 1
		} else {
			delete(users, e.RequesterID)
			if len(users) == 0 {
				delete(t.keyUsers, key)
			}
		}
	}
}

// PendingCount returns how many unplayed entries the user holds.
func (t *Tracker) PendingCount(user snowflake.ID) int {
	return t.pendingCount[user]
}

// PlayingUser returns the requester of the current track, if any.
func (t *Tracker) PlayingUser() (snowflake.ID, bool) {
	return t.playingUser, t.playing
}
