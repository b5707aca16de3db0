package usecases

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/hikawa-dev/cadenza/internal/modules/music_player/application/ports"
	"github.com/hikawa-dev/cadenza/internal/modules/music_player/domain"
)

const testGuild = snowflake.ID(100)

// mockResolver serves descriptors from a fixed URL table.
type mockResolver struct {
	mu           sync.Mutex
	tracks       map[string]domain.TrackDescriptor
	extractErr   error
	resolveErr   error
	resolveCalls int
}

func newMockResolver() *mockResolver {
	return &mockResolver{tracks: make(map[string]domain.TrackDescriptor)}
}

func (r *mockResolver) add(url, title string, duration time.Duration) {
	r.tracks[url] = domain.TrackDescriptor{
		Title:        title,
		Duration:     duration,
		CanonicalURL: url,
		Source:       domain.SourceGeneric,
	}
}

func (r *mockResolver) Recognize(url string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tracks[url]
	return "mock", ok
}

func (r *mockResolver) Extract(ctx context.Context, url string) (domain.TrackDescriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.extractErr != nil {
		return domain.TrackDescriptor{}, r.extractErr
	}
	return r.tracks[url], nil
}

func (r *mockResolver) ResolvePlayable(ctx context.Context, d domain.TrackDescriptor) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolveCalls++
	if r.resolveErr != nil {
		return "", r.resolveErr
	}
	return "media://" + d.CanonicalURL, nil
}

func (r *mockResolver) resolveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolveCalls
}

// mockStore keeps snapshots in memory.
type mockStore struct {
	mu        sync.Mutex
	snapshots map[string]domain.Snapshot
	saveErr   error
	saves     int
}

func newMockStore() *mockStore {
	return &mockStore{snapshots: make(map[string]domain.Snapshot)}
}

func (s *mockStore) Save(ctx context.Context, snap domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.snapshots[snap.GuildID] = snap
	s.saves++
	return nil
}

func (s *mockStore) Load(ctx context.Context, guildID snowflake.ID) (domain.Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snapshots[guildID.String()]
	return snap, ok, nil
}

func (s *mockStore) ListGuilds(ctx context.Context) ([]snowflake.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []snowflake.ID
	for raw := range s.snapshots {
		id, err := snowflake.Parse(raw)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *mockStore) Clear(ctx context.Context, guildID snowflake.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, guildID.String())
	return nil
}

func (s *mockStore) snapshot(guildID snowflake.ID) (domain.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snapshots[guildID.String()]
	return snap, ok
}

// mockVoice simulates the audio transport. Each Play hands the test a
// result channel through plays so it can end the stream on demand.
type mockVoice struct {
	mu         sync.Mutex
	attached   map[snowflake.ID]bool
	current    chan ports.PlayResult
	plays      chan chan ports.PlayResult
	playErr    error
	stopBroken bool
	stops      int
	detaches   int
}

func newMockVoice() *mockVoice {
	return &mockVoice{
		attached: make(map[snowflake.ID]bool),
		plays:    make(chan chan ports.PlayResult, 16),
	}
}

func (v *mockVoice) Attach(ctx context.Context, guildID, channelID snowflake.ID) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.attached[guildID] = true
	return nil
}

func (v *mockVoice) Detach(ctx context.Context, guildID snowflake.ID) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.attached, guildID)
	v.detaches++
	return nil
}

func (v *mockVoice) IsAttached(guildID snowflake.ID) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.attached[guildID]
}

func (v *mockVoice) Play(ctx context.Context, guildID snowflake.ID, playableURL string) (<-chan ports.PlayResult, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.playErr != nil {
		return nil, v.playErr
	}
	ch := make(chan ports.PlayResult, 1)
	v.current = ch
	v.plays <- ch
	return ch, nil
}

func (v *mockVoice) Stop(ctx context.Context, guildID snowflake.ID) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stops++
	if v.stopBroken {
		// An unreachable node: the stream never settles.
		return domain.ErrTransport
	}
	if v.current != nil {
		v.current <- ports.PlayResult{Err: domain.ErrCancelled}
		v.current = nil
	}
	return nil
}

func (v *mockVoice) breakStop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopBroken = true
}

func (v *mockVoice) stopCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stops
}

func (v *mockVoice) detachCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.detaches
}

// mockPresence reports every user present unless marked absent.
type mockPresence struct {
	mu     sync.Mutex
	absent map[snowflake.ID]bool
}

func newMockPresence() *mockPresence {
	return &mockPresence{absent: make(map[snowflake.ID]bool)}
}

func (p *mockPresence) markAbsent(userID snowflake.ID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.absent[userID] = true
}

func (p *mockPresence) InVoice(guildID, userID snowflake.ID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.absent[userID]
}

// mockPublisher exposes published events as buffered channels so tests
// can wait on them.
type mockPublisher struct {
	enqueued chan ports.TrackEnqueuedEvent
	started  chan ports.PlaybackStartedEvent
	finished chan ports.PlaybackFinishedEvent
	absent   chan ports.RequesterAbsentSkipEvent
	upNext   chan ports.UpNextReminderEvent
}

func newMockPublisher() *mockPublisher {
	return &mockPublisher{
		enqueued: make(chan ports.TrackEnqueuedEvent, 16),
		started:  make(chan ports.PlaybackStartedEvent, 16),
		finished: make(chan ports.PlaybackFinishedEvent, 16),
		absent:   make(chan ports.RequesterAbsentSkipEvent, 16),
		upNext:   make(chan ports.UpNextReminderEvent, 16),
	}
}

func (p *mockPublisher) PublishTrackEnqueued(event ports.TrackEnqueuedEvent) {
	p.enqueued <- event
}

func (p *mockPublisher) PublishPlaybackStarted(event ports.PlaybackStartedEvent) {
	p.started <- event
}

func (p *mockPublisher) PublishPlaybackFinished(event ports.PlaybackFinishedEvent) {
	p.finished <- event
}

func (p *mockPublisher) PublishRequesterAbsentSkip(event ports.RequesterAbsentSkipEvent) {
	p.absent <- event
}

func (p *mockPublisher) PublishUpNextReminder(event ports.UpNextReminderEvent) {
	p.upNext <- event
}

// testEnv bundles an engine with all its mocked dependencies.
type testEnv struct {
	engine    *Engine
	resolver  *mockResolver
	store     *mockStore
	voice     *mockVoice
	presence  *mockPresence
	publisher *mockPublisher
}

func newTestEnv(t *testing.T, cfg EngineConfig) *testEnv {
	t.Helper()

	env := &testEnv{
		resolver:  newMockResolver(),
		store:     newMockStore(),
		voice:     newMockVoice(),
		presence:  newMockPresence(),
		publisher: newMockPublisher(),
	}
	env.engine = NewEngine(cfg, env.resolver, env.store, env.voice, env.presence, env.publisher)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = env.engine.Shutdown(ctx)
	})
	return env
}

func (env *testEnv) submit(t *testing.T, url string, requester snowflake.ID) SubmitResult {
	t.Helper()
	result, err := env.engine.Submit(context.Background(), SubmitInput{
		GuildID:          testGuild,
		RequesterID:      requester,
		RequesterDisplay: "user",
		URL:              url,
	})
	if err != nil {
		t.Fatalf("submit %q: unexpected error: %v", url, err)
	}
	return result
}

func waitFor[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
		panic("unreachable")
	}
}

func expectNone[T any](t *testing.T, ch <-chan T, what string) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("unexpected %s: %+v", what, v)
	case <-time.After(50 * time.Millisecond):
	}
}
