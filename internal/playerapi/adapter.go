// ABOUTME: PlayerAdapter — uniform capability over Local/Remote underlying players (§4.B)
// ABOUTME: Collapses the source's Local/Remote/Chromecast/HtmlVideo/HtmlAudio dynamic dispatch to one interface, two variants (§9)
package playerapi

import (
	"sync"

	"github.com/go-syncplay/syncplay/internal/events"
	"github.com/go-syncplay/syncplay/internal/ticks"
	"github.com/go-syncplay/syncplay/internal/wire"
)

// PlayerAdapter exposes a uniform capability set over a MediaPlayer,
// whether it is a Local (fully controlled) or Remote (self-managed)
// variant. In Remote mode, every local* method is a no-op that never
// reaches the underlying player — invariant 6 (§8).
type PlayerAdapter struct {
	mu     sync.RWMutex
	player MediaPlayer
	remote bool
	bound  bool
}

// NewLocalAdapter wraps a MediaPlayer the core fully controls.
func NewLocalAdapter(player MediaPlayer) *PlayerAdapter {
	return &PlayerAdapter{player: player, remote: false}
}

// NewRemoteAdapter wraps a MediaPlayer that manages its own SyncPlay
// session; local* operations on this adapter are no-ops.
func NewRemoteAdapter(player MediaPlayer) *PlayerAdapter {
	return &PlayerAdapter{player: player, remote: true}
}

// IsRemote reports whether the underlying player is self-managed.
func (a *PlayerAdapter) IsRemote() bool {
	return a.remote
}

// BindToPlayer marks the adapter as actively driving the underlying
// player. Events() only delivers while bound.
func (a *PlayerAdapter) BindToPlayer() {
	a.mu.Lock()
	a.bound = true
	a.mu.Unlock()
}

// UnbindFromPlayer releases the underlying player; subsequent local*
// calls become no-ops until the next BindToPlayer.
func (a *PlayerAdapter) UnbindFromPlayer() {
	a.mu.Lock()
	a.bound = false
	a.mu.Unlock()
}

func (a *PlayerAdapter) isActive() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return !a.remote && a.bound
}

// IsPlaybackActive, IsPlaying, CurrentTime, HasPlaybackRate and
// GetPlaybackRate are read-only queries: they pass through regardless of
// bind state, since Remote mode still needs to observe the (externally
// driven) player's reported state for bookkeeping.
func (a *PlayerAdapter) IsPlaybackActive() bool {
	return a.player.IsPlaybackActive()
}

func (a *PlayerAdapter) IsPlaying() bool {
	return a.player.IsPlaying()
}

func (a *PlayerAdapter) CurrentTime() ticks.Ticks {
	return a.player.CurrentTime()
}

func (a *PlayerAdapter) HasPlaybackRate() bool {
	return a.player.HasPlaybackRate()
}

func (a *PlayerAdapter) GetPlaybackRate() float64 {
	return a.player.GetPlaybackRate()
}

// SetPlaybackRate is a local* mutating operation and is suppressed in
// Remote mode or while unbound.
func (a *PlayerAdapter) SetPlaybackRate(rate float64) error {
	if !a.isActive() {
		return nil
	}
	return a.player.SetPlaybackRate(rate)
}

func (a *PlayerAdapter) LocalPlay(opts PlayOptions) Completion {
	if !a.isActive() {
		return completed(nil)
	}
	return a.player.Play(opts)
}

func (a *PlayerAdapter) LocalPause() Completion {
	if !a.isActive() {
		return completed(nil)
	}
	return a.player.Pause()
}

func (a *PlayerAdapter) LocalUnpause() Completion {
	if !a.isActive() {
		return completed(nil)
	}
	return a.player.Unpause()
}

func (a *PlayerAdapter) LocalSeek(pos ticks.Ticks) Completion {
	if !a.isActive() {
		return completed(nil)
	}
	return a.player.Seek(pos)
}

func (a *PlayerAdapter) LocalStop() Completion {
	if !a.isActive() {
		return completed(nil)
	}
	return a.player.Stop()
}

func (a *PlayerAdapter) LocalSetCurrentPlaylistItem(id string, item wire.PlaylistItem) Completion {
	if !a.isActive() {
		return completed(nil)
	}
	return a.player.SetCurrentPlaylistItem(id, item)
}

func (a *PlayerAdapter) LocalSetRepeatMode(mode wire.RepeatMode) Completion {
	if !a.isActive() {
		return completed(nil)
	}
	return a.player.SetRepeatMode(mode)
}

func (a *PlayerAdapter) LocalSetShuffleMode(mode wire.ShuffleMode) Completion {
	if !a.isActive() {
		return completed(nil)
	}
	return a.player.SetShuffleMode(mode)
}

// Events forwards the underlying player's normalized event stream while
// bound. It returns a closed channel when unbound or remote, since no
// events should be attributed to a player this adapter isn't driving.
func (a *PlayerAdapter) Events() <-chan events.PlayerEvent {
	a.mu.RLock()
	active := !a.remote && a.bound
	a.mu.RUnlock()
	if !active {
		return closedPlayerEvents
	}
	return a.player.Events()
}

// closedPlayerEvents is returned by Events() whenever the adapter isn't
// actively bound to its underlying player; reads drain it immediately.
var closedPlayerEvents = func() <-chan events.PlayerEvent {
	ch := make(chan events.PlayerEvent)
	close(ch)
	return ch
}()
