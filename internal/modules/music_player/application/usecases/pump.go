package usecases

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hikawa-dev/cadenza/internal/modules/music_player/application/ports"
	"github.com/hikawa-dev/cadenza/internal/modules/music_player/domain"
)

// DefaultIdleTimeout is how long a pump lingers on an empty queue before
// leaving the voice channel.
const DefaultIdleTimeout = 5 * time.Minute

// stopSettleTimeout bounds how long the pump waits for a stopped stream
// to deliver its result. A var so tests can shorten it.
var stopSettleTimeout = 5 * time.Second

type pumpSignal int

const (
	// pumpKick wakes a parked or idling pump to re-check the queue.
	pumpKick pumpSignal = iota
	// pumpSkip terminates the current track and advances.
	pumpSkip
	// pumpStop terminates the current track without advancing.
	pumpStop
)

// pump is the mailbox for one guild's playback goroutine. At most one
// pump goroutine runs per guild at any time.
type pump struct {
	mailbox chan pumpSignal
}

func newPump() *pump {
	return &pump{mailbox: make(chan pumpSignal, 8)}
}

func (p *pump) signal(s pumpSignal) {
	select {
	case p.mailbox <- s:
	default:
		slog.Warn("pump mailbox full, dropping signal", "signal", int(s))
	}
}

// ensurePump starts the guild's pump goroutine if one is not already
// running, or wakes the existing one. A pump is only started while the
// guild has a voice attachment.
func (e *Engine) ensurePump(g *guildSession) {
	if e.ctx.Err() != nil || e.voice == nil || !e.voice.IsAttached(g.guildID) {
		return
	}

	g.mu.Lock()
	if g.pump != nil {
		p := g.pump
		g.mu.Unlock()
		p.signal(pumpKick)
		return
	}
	if g.suspended {
		g.mu.Unlock()
		return
	}
	p := newPump()
	g.pump = p
	g.mu.Unlock()

	e.wg.Add(1)
	go e.runPump(g, p)
}

// runPump drains the guild's queue one track at a time. It exits when
// the queue stays empty past the idle timeout, the voice attachment is
// lost, or the engine shuts down.
func (e *Engine) runPump(g *guildSession, p *pump) {
	defer e.wg.Done()
	defer func() {
		g.mu.Lock()
		if g.pump == p {
			g.pump = nil
		}
		g.mu.Unlock()
	}()

	slog.Debug("playback pump started", "guild", g.guildID)
	defer slog.Debug("playback pump stopped", "guild", g.guildID)

	for {
		if e.ctx.Err() != nil {
			return
		}

		g.mu.Lock()
		parked := g.suspended
		g.mu.Unlock()
		if parked || !e.voice.IsAttached(g.guildID) {
			select {
			case <-e.ctx.Done():
				return
			case sig := <-p.mailbox:
				if sig == pumpStop {
					return
				}
				continue
			}
		}

		g.mu.Lock()
		before := g.queue.Revision()
		entry, ok := g.queue.Advance()
		if ok {
			g.tracker.OnStartPlay(entry)
		}
		changed := g.queue.Revision() != before
		snap := domain.NewSnapshot(g.guildID, g.queue)
		g.mu.Unlock()

		if changed {
			e.saveSnapshot(e.ctx, snap)
		}

		if !ok {
			if exit := e.idleWait(g, p); exit {
				return
			}
			continue
		}

		e.playEntry(g, p, entry)
	}
}

// idleWait lingers on an empty queue. It returns true when the pump
// should exit, having detached from the voice channel on timeout.
func (e *Engine) idleWait(g *guildSession, p *pump) bool {
	timer := time.NewTimer(e.idleTimeout())
	defer timer.Stop()

	select {
	case <-e.ctx.Done():
		return true
	case <-timer.C:
		slog.Info("queue idle, leaving voice channel", "guild", g.guildID)
		if err := e.voice.Detach(e.ctx, g.guildID); err != nil {
			slog.Warn("failed to detach after idle timeout", "guild", g.guildID, "error", err)
		}
		return true
	case sig := <-p.mailbox:
		return sig == pumpStop
	}
}

// playEntry resolves and streams one track, then finalizes it. The
// playable URL is resolved fresh for every play and re-resolved once if
// it expires mid-stream.
func (e *Engine) playEntry(g *guildSession, p *pump, entry domain.QueueEntry) {
	if !e.presence.InVoice(g.guildID, entry.RequesterID) {
		slog.Info("skipping track, requester not in voice channel",
			"guild", g.guildID,
			"track", entry.Descriptor.Title,
			"requester", entry.RequesterID,
		)
		e.publisher.PublishRequesterAbsentSkip(ports.RequesterAbsentSkipEvent{
			GuildID: g.guildID,
			Entry:   entry,
		})
		e.finalizeEntry(g, entry, nil, false)
		return
	}

	playable, err := e.resolver.ResolvePlayable(e.ctx, entry.Descriptor)
	if err != nil {
		slog.Error("failed to resolve playable url",
			"guild", g.guildID,
			"track", entry.Descriptor.Title,
			"error", err,
		)
		e.finalizeEntry(g, entry, err, true)
		return
	}

	results, err := e.voice.Play(e.ctx, g.guildID, playable)
	if err != nil {
		e.finalizeEntry(g, entry, err, true)
		return
	}

	e.publisher.PublishPlaybackStarted(ports.PlaybackStartedEvent{
		GuildID: g.guildID,
		Entry:   entry,
	})

	g.mu.Lock()
	next, hasNext := g.queue.PeekNext()
	g.mu.Unlock()
	if hasNext {
		e.publisher.PublishUpNextReminder(ports.UpNextReminderEvent{
			GuildID: g.guildID,
			Next:    next,
		})
	}

	reResolved := false
	for {
		select {
		case <-e.ctx.Done():
			// Shutdown snapshots the queue with the entry still current,
			// so it replays after restart.
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := e.voice.Stop(stopCtx, g.guildID); err != nil {
				slog.Warn("failed to stop playback on shutdown", "guild", g.guildID, "error", err)
			}
			cancel()
			return

		case sig := <-p.mailbox:
			if sig == pumpKick {
				continue
			}
			if err := e.voice.Stop(e.ctx, g.guildID); err != nil {
				slog.Warn("failed to stop playback", "guild", g.guildID, "error", err)
			}
			// The stream normally settles right after Stop, but a broken
			// node may never deliver; don't let that wedge the pump.
			settle := time.NewTimer(stopSettleTimeout)
			select {
			case <-results:
			case <-e.ctx.Done():
			case <-settle.C:
				slog.Warn("timed out waiting for stopped stream to settle", "guild", g.guildID)
			}
			settle.Stop()
			e.finalizeEntry(g, entry, nil, true)
			return

		case res := <-results:
			if errors.Is(res.Err, domain.ErrExpired) && !reResolved {
				reResolved = true
				slog.Info("playable url expired, re-resolving",
					"guild", g.guildID,
					"track", entry.Descriptor.Title,
				)
				playable, err = e.resolver.ResolvePlayable(e.ctx, entry.Descriptor)
				if err == nil {
					results, err = e.voice.Play(e.ctx, g.guildID, playable)
				}
				if err != nil {
					e.finalizeEntry(g, entry, err, true)
					return
				}
				continue
			}

			playErr := res.Err
			if errors.Is(playErr, domain.ErrCancelled) {
				playErr = nil
			}
			e.finalizeEntry(g, entry, playErr, true)
			return
		}
	}
}

// finalizeEntry releases the finished entry, persists the queue, and
// optionally publishes a PlaybackFinished event.
func (e *Engine) finalizeEntry(g *guildSession, entry domain.QueueEntry, playErr error, notify bool) {
	g.mu.Lock()
	if prev, ok := g.queue.ClearCurrent(); ok {
		g.tracker.OnFinished(prev)
	}
	snap := domain.NewSnapshot(g.guildID, g.queue)
	g.mu.Unlock()

	e.saveSnapshot(e.ctx, snap)

	if notify {
		e.publisher.PublishPlaybackFinished(ports.PlaybackFinishedEvent{
			GuildID: g.guildID,
			Entry:   entry,
			Err:     playErr,
		})
	}
}

func (e *Engine) idleTimeout() time.Duration {
	if e.cfg.IdleTimeout > 0 {
		return e.cfg.IdleTimeout
	}
	return DefaultIdleTimeout
}
