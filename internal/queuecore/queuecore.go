// ABOUTME: Applies queue updates to QueueModel and drives playback start/switch (§4.E QueueCore)
package queuecore

import (
	"log"
	"sync"
	"time"

	"github.com/go-syncplay/syncplay/internal/playback"
	"github.com/go-syncplay/syncplay/internal/playerapi"
	"github.com/go-syncplay/syncplay/internal/queue"
	"github.com/go-syncplay/syncplay/internal/ticks"
	"github.com/go-syncplay/syncplay/internal/timesync"
	"github.com/go-syncplay/syncplay/internal/wire"
)

// Requester is the slice of Transport QueueCore needs to follow the group
// after having halted (§4.E "followGroupPlayback").
type Requester interface {
	RequestSyncPlaySetIgnoreWait(ignoreWait bool) error
}

// Core applies PlayQueue updates to a QueueModel and, when the user is
// following the group, drives the PlayerAdapter to start or switch
// playback in step with the shared cursor.
type Core struct {
	model     *queue.Model
	adapter   *playerapi.PlayerAdapter
	playback  *playback.Core
	ts        *timesync.TimeSync
	transport Requester

	// mu guards followingGroup and lastCommand, written from the control
	// goroutine (Manager.FollowGroup/HaltGroup) and the transport-pump
	// goroutine (UpdatePlayQueue, NoteLastCommand) alike.
	mu             sync.RWMutex
	followingGroup bool
	lastCommand    *wire.PlaybackCommand

	haltGroup func()
}

// New builds a QueueCore over the given QueueModel and PlayerAdapter. The
// haltGroup callback is invoked when a ready-on-start listener times out.
func New(model *queue.Model, adapter *playerapi.PlayerAdapter, core *playback.Core, ts *timesync.TimeSync, transport Requester, haltGroup func()) *Core {
	return &Core{
		model:          model,
		adapter:        adapter,
		playback:       core,
		ts:             ts,
		transport:      transport,
		followingGroup: true,
		haltGroup:      haltGroup,
	}
}

// SetFollowingGroup updates the follow/halt preference (§9 glossary).
func (c *Core) SetFollowingGroup(following bool) {
	c.mu.Lock()
	c.followingGroup = following
	c.mu.Unlock()
}

// FollowingGroup reports the current follow/halt preference.
func (c *Core) FollowingGroup() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.followingGroup
}

// NoteLastCommand lets Manager share the last interpreted PlaybackCommand,
// used by startPlayback's position extrapolation (§4.E).
func (c *Core) NoteLastCommand(cmd wire.PlaybackCommand) {
	c.mu.Lock()
	c.lastCommand = &cmd
	c.mu.Unlock()
}

// UpdatePlayQueue dispatches a PlayQueue update by its reason (§4.E).
func (c *Core) UpdatePlayQueue(u wire.QueueUpdate) {
	if !c.model.Apply(u) {
		return
	}

	if c.adapter.IsRemote() {
		// Remote-self-managed short-circuit: the remote player manages
		// its own SyncPlay session.
		return
	}

	switch u.Reason {
	case wire.ReasonNewPlaylist:
		if !c.FollowingGroup() {
			c.followGroupPlayback()
		}
		c.startPlayback(u)

	case wire.ReasonSetCurrentItem, wire.ReasonNextTrack, wire.ReasonPreviousTrack:
		if !c.FollowingGroup() {
			return
		}
		id := c.model.CurrentPlaylistItemID()
		c.model.SetRealPlaylistItemID(id)
		c.playback.SetCurrentPlaylistItemID(id)
		item := wire.PlaylistItem{PlaylistItemID: id}
		<-c.adapter.LocalSetCurrentPlaylistItem(id, item)

	case wire.ReasonRemoveItems:
		real := c.model.RealPlaylistItemID()
		current := c.model.CurrentPlaylistItemID()
		if real != current {
			c.model.SetRealPlaylistItemID(current)
			c.playback.SetCurrentPlaylistItemID(current)
			item := wire.PlaylistItem{PlaylistItemID: current}
			<-c.adapter.LocalSetCurrentPlaylistItem(current, item)
		}

	case wire.ReasonMoveItem, wire.ReasonQueue, wire.ReasonQueueNext:
		// No playback interruption; a real client would surface a
		// playlistitemadd event here for the UI layer to react to.

	case wire.ReasonRepeatMode:
		<-c.adapter.LocalSetRepeatMode(u.RepeatMode)

	case wire.ReasonShuffleMode:
		<-c.adapter.LocalSetShuffleMode(u.ShuffleMode)
	}
}

// followGroupPlayback re-joins group playback after a halt: tell the
// server to stop ignoring this client's wait, then flip the local flag.
func (c *Core) followGroupPlayback() {
	if c.transport != nil {
		if err := c.transport.RequestSyncPlaySetIgnoreWait(false); err != nil {
			log.Printf("queuecore: setIgnoreWait(false) failed: %v", err)
		}
	}
	c.SetFollowingGroup(true)
}

// startPlayback computes the position to resume from and starts the local
// player, per §4.E.
func (c *Core) startPlayback(u wire.QueueUpdate) {
	if c.model.Empty() {
		return
	}

	start := c.computeStartPosition(u)
	ids := c.model.PlaylistAsItemIDs()

	opts := playerapi.PlayOptions{
		ItemIDs:            ids,
		StartPositionTicks: start,
		StartIndex:         c.model.CurrentIndex(),
	}
	<-c.adapter.LocalPlay(opts)

	id := c.model.CurrentPlaylistItemID()
	c.model.SetRealPlaylistItemID(id)
	c.playback.SetCurrentPlaylistItemID(id)

	c.playback.ArmReadyOnStart(func() {
		c.SetFollowingGroup(false)
		if c.transport != nil {
			if err := c.transport.RequestSyncPlaySetIgnoreWait(true); err != nil {
				log.Printf("queuecore: setIgnoreWait(true) failed: %v", err)
			}
		}
		if c.haltGroup != nil {
			c.haltGroup()
		}
	})
}

// computeStartPosition prefers extrapolating from the last playback
// command if it postdates the update; otherwise extrapolates from the
// update's own startPositionTicks (§4.E).
func (c *Core) computeStartPosition(u wire.QueueUpdate) ticks.Ticks {
	remoteNow := c.ts.LocalToRemote(time.Now())

	c.mu.RLock()
	lastCommand := c.lastCommand
	c.mu.RUnlock()

	if lastCommand != nil && !lastCommand.EmittedAt.Time().Before(u.LastUpdate.Time()) && lastCommand.PositionTicks != nil {
		return estimateCurrentTicks(*lastCommand.PositionTicks, lastCommand.When.Time(), remoteNow)
	}
	return estimateCurrentTicks(u.StartPositionTicks, u.LastUpdate.Time(), remoteNow)
}

// estimateCurrentTicks projects pos forward from when to remoteNow, per
// §4.D's estimateCurrentTicks formula shared across components.
func estimateCurrentTicks(pos ticks.Ticks, when time.Time, remoteNow time.Time) ticks.Ticks {
	deltaMs := remoteNow.Sub(when).Milliseconds()
	return pos + ticks.FromMilliseconds(deltaMs)
}
