// ABOUTME: Top-level facade owning session state and routing Transport/player traffic (§4.F Manager)
// ABOUTME: Resolves the Manager/PlaybackCore/QueueCore circular dependency via constructor injection (§9)
package manager

import (
	"log"
	"sync"

	"github.com/go-syncplay/syncplay/internal/events"
	"github.com/go-syncplay/syncplay/internal/playback"
	"github.com/go-syncplay/syncplay/internal/playerapi"
	"github.com/go-syncplay/syncplay/internal/queue"
	"github.com/go-syncplay/syncplay/internal/queuecore"
	"github.com/go-syncplay/syncplay/internal/timesync"
	"github.com/go-syncplay/syncplay/internal/wire"
)

// Transport is the capability set the core consumes (§6). Manager holds
// it behind an accessor rather than a cached field, since the underlying
// connection may be swapped atomically (§5 "Shared resources").
type Transport interface {
	RequestSyncPlayUnpause() error
	RequestSyncPlayPause() error
	RequestSyncPlaySeek(positionTicks int64) error
	RequestSyncPlayStop() error
	RequestSyncPlayPlay(playingQueue []string, playingItemPosition int, startPositionTicks int64) error
	RequestSyncPlaySetPlaylistItem(playlistItemID string) error
	RequestSyncPlayRemoveFromPlaylist(playlistItemIDs []string) error
	RequestSyncPlayMovePlaylistItem(playlistItemID string, newIndex int) error
	RequestSyncPlayQueue(itemIDs []string, mode string) error
	RequestSyncPlayNextTrack(playlistItemID string) error
	RequestSyncPlayPreviousTrack(playlistItemID string) error
	RequestSyncPlaySetRepeatMode(mode wire.RepeatMode) error
	RequestSyncPlaySetShuffleMode(mode wire.ShuffleMode) error
	RequestSyncPlayBuffering(req wire.BufferingRequest) error
	RequestSyncPlaySetIgnoreWait(ignoreWait bool) error
	SendSyncPlayPing(ping int64) error
}

// sessionState is the process-wide singleton described in §3.
type sessionState struct {
	enabledAt      wire.Instant
	enabled        bool
	ready          bool
	followingGroup bool
	queuedCommand  *wire.PlaybackCommand
	lastCommand    *wire.PlaybackCommand
}

// Manager is the top-level facade that owns the session state; its userID
// identifies the local user for access-right lookups.
type Manager struct {
	mu sync.RWMutex

	transport Transport

	session sessionState
	group   *wire.GroupInfo
	userID  string

	timeSync *timesync.TimeSync
	playback *playback.Core
	queue    *queue.Model
	queueCore *queuecore.Core
	adapter  *playerapi.PlayerAdapter

	events chan events.GroupEvent
}

// Deps bundles the singleton component instances constructed around this
// Manager (§9 "Singletons").
type Deps struct {
	TimeSync *timesync.TimeSync
	Playback *playback.Core
	Queue    *queue.Model
	QueueCore *queuecore.Core
	Adapter  *playerapi.PlayerAdapter
}

// New builds a Manager for the given local user, wiring the
// already-constructed singleton cores.
func New(userID string, deps Deps) *Manager {
	return &Manager{
		userID:    userID,
		timeSync:  deps.TimeSync,
		playback:  deps.Playback,
		queue:     deps.Queue,
		queueCore: deps.QueueCore,
		adapter:   deps.Adapter,
		events:    make(chan events.GroupEvent, 32),
	}
}

// Events returns the facade-level event stream (playerchange, enabled,
// group-state-change, show-message, ...).
func (m *Manager) Events() <-chan events.GroupEvent {
	return m.events
}

func (m *Manager) emit(ev events.GroupEvent) {
	select {
	case m.events <- ev:
	default:
	}
}

// Init attaches the Transport used for outgoing requests.
func (m *Manager) Init(transport Transport) {
	m.mu.Lock()
	m.transport = transport
	m.mu.Unlock()
}

// currentTransport re-reads the Transport per use rather than caching it,
// since it may be swapped atomically underneath (§5).
func (m *Manager) currentTransport() Transport {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.transport
}

// Enable transitions into an active SyncPlay session for groupInfo,
// stamping enabledAt from the server-sent group timestamp.
func (m *Manager) Enable(group wire.GroupInfo) {
	m.mu.Lock()
	m.group = &group
	m.session = sessionState{
		enabledAt:      group.LastUpdatedAt,
		enabled:        true,
		followingGroup: true,
	}
	m.mu.Unlock()

	m.playback.Enable()
	m.emit(events.GroupEvent{Type: events.Enabled})
}

// Disable tears down the active session: cancels timers, unbinds the
// PlayerAdapter, clears volatile state (§5 Cancellation, §8 invariant 4).
func (m *Manager) Disable() {
	m.mu.Lock()
	m.session = sessionState{}
	m.group = nil
	m.mu.Unlock()

	m.playback.Disable()
	m.adapter.UnbindFromPlayer()
}

// FollowGroup resumes tracking group playback after a halt.
func (m *Manager) FollowGroup() {
	m.mu.Lock()
	m.session.followingGroup = true
	m.mu.Unlock()
	m.queueCore.SetFollowingGroup(true)
}

// HaltGroup pauses local participation without leaving the group.
func (m *Manager) HaltGroup() {
	m.mu.Lock()
	m.session.followingGroup = false
	m.mu.Unlock()
	m.queueCore.SetFollowingGroup(false)
}

// ProcessGroupUpdate routes an inbound SyncPlayGroupUpdate by type (§4.F,
// §4.E for PlayQueue).
func (m *Manager) ProcessGroupUpdate(update wire.SyncPlayGroupUpdate) {
	switch update.Type {
	case wire.UpdateGroupJoined:
		if g, ok := update.Data.(wire.GroupInfo); ok {
			m.Enable(g)
		}
	case wire.UpdateGroupLeft, wire.UpdateNotInGroup:
		m.Disable()
	case wire.UpdateGroupUpdate:
		if g, ok := update.Data.(wire.GroupInfo); ok {
			m.mu.Lock()
			m.group = &g
			m.mu.Unlock()
		}
	case wire.UpdateStateUpdate:
		state, reason := "", ""
		if m2, ok := update.Data.(map[string]string); ok {
			state, reason = m2["state"], m2["reason"]
		}
		m.emit(events.GroupEvent{Type: events.GroupStateChange, State: state, Reason: reason})
	case wire.UpdatePlayQueue:
		if u, ok := update.Data.(wire.QueueUpdate); ok {
			m.queueCore.UpdatePlayQueue(u)
		}
	default:
		// User join/leave and denial notifications are observable events
		// without state change.
		m.emit(events.GroupEvent{Type: events.NotifyOSD, Action: string(update.Type)})
	}
}

// ProcessCommand routes an inbound PlaybackCommand (§4.F "Command routing").
func (m *Manager) ProcessCommand(cmd wire.PlaybackCommand) {
	m.mu.Lock()
	if !m.session.enabled {
		m.mu.Unlock()
		return
	}
	if cmd.EmittedAt.Time().Before(m.session.enabledAt.Time()) {
		m.mu.Unlock()
		log.Printf("manager: dropping command emitted before session enable")
		return
	}
	if !m.adapter.IsPlaybackActive() && !m.adapter.IsRemote() {
		m.mu.Unlock()
		return
	}
	if !m.session.ready {
		m.session.queuedCommand = &cmd
		m.mu.Unlock()
		return
	}
	current := m.queue.CurrentPlaylistItemID()
	if cmd.PlaylistItemID != current && cmd.Command != wire.CommandStop {
		m.mu.Unlock()
		log.Printf("manager: dropping command for mismatched playlist item")
		return
	}
	m.session.lastCommand = &cmd
	m.mu.Unlock()

	m.queueCore.NoteLastCommand(cmd)
	m.playback.ApplyCommand(cmd)
}

// OnTimeSyncUpdate flips ready true on the first update and flushes any
// queued command (§3 SessionState invariant 5, §4.D "Enabling -> Idle").
func (m *Manager) OnTimeSyncUpdate() {
	m.mu.Lock()
	wasReady := m.session.ready
	m.session.ready = true
	queued := m.session.queuedCommand
	m.session.queuedCommand = nil
	m.mu.Unlock()

	if !wasReady {
		m.playback.MarkReady()
	}
	if queued != nil {
		m.ProcessCommand(*queued)
	}
}

// OnTimeSyncLost reverts ready to false, so subsequent commands queue
// again until a fresh sample arrives (§4.A edge case).
func (m *Manager) OnTimeSyncLost() {
	m.mu.Lock()
	m.session.ready = false
	m.mu.Unlock()
	m.playback.MarkSyncLost()
}

// accessRightsFor looks up the local user's access rights in the current
// group, defaulting to no access if the group or entry is absent.
func (m *Manager) accessRightsFor() (wire.AccessRights, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.group == nil {
		return wire.AccessRights{}, false
	}
	rights, ok := m.group.AccessList[m.userID]
	return rights, ok
}

// checkPlaybackAccess emits a show-message denial and returns false if the
// local user lacks playback access (§4.F, §7 "Access denied").
func (m *Manager) checkPlaybackAccess() bool {
	rights, ok := m.accessRightsFor()
	if !ok || !rights.PlaybackAccess {
		m.emit(events.GroupEvent{Type: events.ShowMessage, Key: "MessageSyncPlayMissingPlaybackAccess"})
		return false
	}
	return true
}

// checkPlaylistAccess emits a show-message denial and returns false if the
// local user lacks playlist access.
func (m *Manager) checkPlaylistAccess() bool {
	rights, ok := m.accessRightsFor()
	if !ok || !rights.PlaylistAccess {
		m.emit(events.GroupEvent{Type: events.ShowMessage, Key: "MessageSyncPlayMissingPlaylistAccess"})
		return false
	}
	return true
}

// Unpause requests a group-wide unpause, subject to playback access.
func (m *Manager) Unpause() {
	if !m.checkPlaybackAccess() {
		return
	}
	if t := m.currentTransport(); t != nil {
		if err := t.RequestSyncPlayUnpause(); err != nil {
			log.Printf("manager: requestSyncPlayUnpause failed: %v", err)
		}
	}
}

// Pause requests a group-wide pause, subject to playback access.
func (m *Manager) Pause() {
	if !m.checkPlaybackAccess() {
		return
	}
	if t := m.currentTransport(); t != nil {
		if err := t.RequestSyncPlayPause(); err != nil {
			log.Printf("manager: requestSyncPlayPause failed: %v", err)
		}
	}
}

// PlayPause toggles between Unpause and Pause based on local player state.
func (m *Manager) PlayPause() {
	if m.adapter.IsPlaying() {
		m.Pause()
		return
	}
	m.Unpause()
}

// Seek requests a group-wide seek, subject to playback access.
func (m *Manager) Seek(positionTicks int64) {
	if !m.checkPlaybackAccess() {
		return
	}
	if t := m.currentTransport(); t != nil {
		if err := t.RequestSyncPlaySeek(positionTicks); err != nil {
			log.Printf("manager: requestSyncPlaySeek failed: %v", err)
		}
	}
}

// SetCurrentPlaylistItem requests switching the active playlist item,
// subject to playlist access.
func (m *Manager) SetCurrentPlaylistItem(playlistItemID string) {
	if !m.checkPlaylistAccess() {
		return
	}
	if t := m.currentTransport(); t != nil {
		if err := t.RequestSyncPlaySetPlaylistItem(playlistItemID); err != nil {
			log.Printf("manager: requestSyncPlaySetPlaylistItem failed: %v", err)
		}
	}
}

// RemoveFromPlaylist requests removing items, subject to playlist access.
func (m *Manager) RemoveFromPlaylist(playlistItemIDs []string) {
	if !m.checkPlaylistAccess() {
		return
	}
	if t := m.currentTransport(); t != nil {
		if err := t.RequestSyncPlayRemoveFromPlaylist(playlistItemIDs); err != nil {
			log.Printf("manager: requestSyncPlayRemoveFromPlaylist failed: %v", err)
		}
	}
}

// MovePlaylistItem requests reordering the playlist, subject to playlist access.
func (m *Manager) MovePlaylistItem(playlistItemID string, newIndex int) {
	if !m.checkPlaylistAccess() {
		return
	}
	if t := m.currentTransport(); t != nil {
		if err := t.RequestSyncPlayMovePlaylistItem(playlistItemID, newIndex); err != nil {
			log.Printf("manager: requestSyncPlayMovePlaylistItem failed: %v", err)
		}
	}
}

// Queue requests appending items to the playlist, subject to playlist access.
func (m *Manager) Queue(itemIDs []string) {
	if !m.checkPlaylistAccess() {
		return
	}
	if t := m.currentTransport(); t != nil {
		if err := t.RequestSyncPlayQueue(itemIDs, "default"); err != nil {
			log.Printf("manager: requestSyncPlayQueue failed: %v", err)
		}
	}
}

// QueueNext requests inserting items to play next, subject to playlist access.
func (m *Manager) QueueNext(itemIDs []string) {
	if !m.checkPlaylistAccess() {
		return
	}
	if t := m.currentTransport(); t != nil {
		if err := t.RequestSyncPlayQueue(itemIDs, "next"); err != nil {
			log.Printf("manager: requestSyncPlayQueue(next) failed: %v", err)
		}
	}
}

// NextTrack requests advancing to the next track, subject to playback access.
func (m *Manager) NextTrack(playlistItemID string) {
	if !m.checkPlaybackAccess() {
		return
	}
	if t := m.currentTransport(); t != nil {
		if err := t.RequestSyncPlayNextTrack(playlistItemID); err != nil {
			log.Printf("manager: requestSyncPlayNextTrack failed: %v", err)
		}
	}
}

// PreviousTrack requests returning to the previous track, subject to playback access.
func (m *Manager) PreviousTrack(playlistItemID string) {
	if !m.checkPlaybackAccess() {
		return
	}
	if t := m.currentTransport(); t != nil {
		if err := t.RequestSyncPlayPreviousTrack(playlistItemID); err != nil {
			log.Printf("manager: requestSyncPlayPreviousTrack failed: %v", err)
		}
	}
}

// SetRepeatMode requests a group-wide repeat-mode change, subject to
// playlist access.
func (m *Manager) SetRepeatMode(mode wire.RepeatMode) {
	if !m.checkPlaylistAccess() {
		return
	}
	if t := m.currentTransport(); t != nil {
		if err := t.RequestSyncPlaySetRepeatMode(mode); err != nil {
			log.Printf("manager: requestSyncPlaySetRepeatMode failed: %v", err)
		}
	}
}

// SetShuffleMode requests a group-wide shuffle-mode change, subject to
// playlist access.
func (m *Manager) SetShuffleMode(mode wire.ShuffleMode) {
	if !m.checkPlaylistAccess() {
		return
	}
	if t := m.currentTransport(); t != nil {
		if err := t.RequestSyncPlaySetShuffleMode(mode); err != nil {
			log.Printf("manager: requestSyncPlaySetShuffleMode failed: %v", err)
		}
	}
}

// ToggleShuffleMode flips between Sorted and Shuffle based on the current
// QueueModel state.
func (m *Manager) ToggleShuffleMode() {
	if m.queue.ShuffleMode() == wire.ShuffleOn {
		m.SetShuffleMode(wire.ShuffleSorted)
		return
	}
	m.SetShuffleMode(wire.ShuffleOn)
}
