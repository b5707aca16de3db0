package domain

import "errors"

// Provider and transport failure kinds. These form a closed set; callers
// branch with errors.Is and new kinds require touching every switch that
// consumes them.
var (
	// ErrNetwork is returned when a provider or transport call fails at the
	// network level.
	ErrNetwork = errors.New("network failure")

	// ErrRateLimited is returned when an upstream catalog throttles us.
	ErrRateLimited = errors.New("rate limited")

	// ErrNotFound is returned when a catalog has no entry for the URL.
	ErrNotFound = errors.New("track not found")

	// ErrUnsupported is returned when no provider recognizes the URL.
	ErrUnsupported = errors.New("unsupported url")

	// ErrMalformed is returned when an upstream response cannot be parsed.
	ErrMalformed = errors.New("malformed upstream response")

	// ErrExpired signals that a playable URL went stale mid-stream. The pump
	// re-resolves once before giving up on the entry.
	ErrExpired = errors.New("playable url expired")

	// ErrGeoBlocked is returned when the catalog refuses the request for the
	// host's region.
	ErrGeoBlocked = errors.New("geo blocked")

	// ErrDRMBlocked is returned for DRM-protected catalog entries.
	ErrDRMBlocked = errors.New("drm protected")
)

// Admission rejection kinds.
var (
	// ErrDuplicate is returned when the requester already has an entry with
	// the same identity key in the queue.
	ErrDuplicate = errors.New("duplicate request")

	// ErrFairnessPending is returned when the requester is at their pending
	// entry cap.
	ErrFairnessPending = errors.New("pending track limit reached")

	// ErrFairnessPlaying is returned in strict mode when the requester's
	// track is currently playing.
	ErrFairnessPlaying = errors.New("requester track currently playing")

	// ErrQueueFull is returned when the guild queue is at capacity.
	ErrQueueFull = errors.New("queue is full")

	// ErrTrackTooLong is returned when the extracted duration exceeds the
	// configured maximum.
	ErrTrackTooLong = errors.New("track exceeds maximum duration")
)

// Queue and persistence kinds.
var (
	// ErrOutOfRange is returned for an invalid 1-based queue position.
	ErrOutOfRange = errors.New("position out of range")

	// ErrSchemaMismatch is returned when a snapshot carries an unknown
	// schema version.
	ErrSchemaMismatch = errors.New("snapshot schema mismatch")

	// ErrCorruptSnapshot is returned when a snapshot cannot be decoded.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
)

// Playback kinds.
var (
	// ErrCancelled signals that a stream was terminated on purpose (skip,
	// stop, shutdown). Never surfaced to submitters.
	ErrCancelled = errors.New("cancelled")

	// ErrTransport covers any other failure reported by the voice transport.
	ErrTransport = errors.New("transport error")

	// ErrNotPlaying is returned when a skip arrives with no current track.
	ErrNotPlaying = errors.New("nothing is currently playing")

	// ErrNotAttached is returned when playback is requested without a voice
	// attachment.
	ErrNotAttached = errors.New("not attached to a voice channel")
)
