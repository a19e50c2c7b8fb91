// ABOUTME: In-memory shared playlist (§4.C QueueModel)
// ABOUTME: Adapted from the teacher's internal/sync/clock.go ring/state-guard pattern
package queue

import (
	"sync"

	"github.com/go-syncplay/syncplay/internal/ticks"
	"github.com/go-syncplay/syncplay/internal/wire"
)

// Model is the in-memory representation of the shared playlist. Updates
// are applied only if strictly newer than the last applied one (spec §3,
// §8 invariant 2); older updates are silently discarded.
type Model struct {
	mu sync.RWMutex

	hasUpdate  bool
	lastUpdate wire.Instant

	playlist     []wire.PlaylistItem
	currentIndex int

	startPositionTicks ticks.Ticks
	repeatMode         wire.RepeatMode
	shuffleMode        wire.ShuffleMode

	// realItemID is the item the local player is actually playing, which
	// may lag currentPlaylistItemId across RemoveItems updates that do
	// not move the cursor (§4.C).
	realItemID string
}

// New returns an empty QueueModel with no update yet applied.
func New() *Model {
	return &Model{
		repeatMode:  wire.RepeatNone,
		shuffleMode: wire.ShuffleSorted,
	}
}

// Apply folds a queue update into the model if it is strictly newer than
// the last one applied. Returns true if applied, false if discarded.
func (m *Model) Apply(u wire.QueueUpdate) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hasUpdate && !u.LastUpdate.Time().After(m.lastUpdate.Time()) {
		return false
	}

	m.hasUpdate = true
	m.lastUpdate = u.LastUpdate
	m.playlist = append([]wire.PlaylistItem(nil), u.Playlist...)
	m.currentIndex = u.CurrentIndex
	m.startPositionTicks = u.StartPositionTicks
	m.repeatMode = u.RepeatMode
	m.shuffleMode = u.ShuffleMode

	if m.realItemID == "" {
		m.realItemID = m.currentItemIDLocked()
	}
	return true
}

// CurrentPlaylistItemID returns the item ID at CurrentIndex, or "" if the
// playlist is empty or the index is out of range.
func (m *Model) CurrentPlaylistItemID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentItemIDLocked()
}

func (m *Model) currentItemIDLocked() string {
	if m.currentIndex < 0 || m.currentIndex >= len(m.playlist) {
		return ""
	}
	return m.playlist[m.currentIndex].PlaylistItemID
}

// RealPlaylistItemID returns the item the local player is actually
// playing, which may lag CurrentPlaylistItemID across a RemoveItems
// update that did not move the cursor.
func (m *Model) RealPlaylistItemID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.realItemID
}

// SetRealPlaylistItemID records the item the local player has switched to
// (called by QueueCore once it drives a cursor change).
func (m *Model) SetRealPlaylistItemID(id string) {
	m.mu.Lock()
	m.realItemID = id
	m.mu.Unlock()
}

// CurrentIndex returns the index of the currently playing item.
func (m *Model) CurrentIndex() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentIndex
}

// PlaylistAsItemIDs returns the ordered list of item IDs in the playlist.
func (m *Model) PlaylistAsItemIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, len(m.playlist))
	for i, item := range m.playlist {
		ids[i] = item.PlaylistItemID
	}
	return ids
}

// StartPositionTicks returns the position the current item should start
// (or resume) from.
func (m *Model) StartPositionTicks() ticks.Ticks {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.startPositionTicks
}

// LastUpdateTime returns the remote instant of the last applied update.
func (m *Model) LastUpdateTime() wire.Instant {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastUpdate
}

// RepeatMode returns the current repeat mode.
func (m *Model) RepeatMode() wire.RepeatMode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.repeatMode
}

// ShuffleMode returns the current shuffle mode.
func (m *Model) ShuffleMode() wire.ShuffleMode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.shuffleMode
}

// Empty reports whether the playlist has no items.
func (m *Model) Empty() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.playlist) == 0
}
