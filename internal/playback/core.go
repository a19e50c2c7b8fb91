// ABOUTME: Command scheduler and drift corrector (§4.D PlaybackCore — the hard part)
// ABOUTME: Owns the one-shot timer discipline the teacher's internal/sync/clock.go established
package playback

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/go-syncplay/syncplay/internal/events"
	"github.com/go-syncplay/syncplay/internal/playerapi"
	"github.com/go-syncplay/syncplay/internal/settings"
	"github.com/go-syncplay/syncplay/internal/ticks"
	"github.com/go-syncplay/syncplay/internal/timesync"
	"github.com/go-syncplay/syncplay/internal/wire"
)

// BufferingRequester is the slice of Transport PlaybackCore needs to
// report buffering state to the server (§6 requestSyncPlayBuffering).
type BufferingRequester interface {
	RequestSyncPlayBuffering(req wire.BufferingRequest) error
}

type waiter struct {
	evType events.PlayerEventType
	result chan struct{}
}

// Core schedules remote-timed PlaybackCommands against the local player
// and continuously nudges playback rate/position to track the estimated
// remote position until the next command arrives.
type Core struct {
	mu sync.Mutex

	adapter   *playerapi.PlayerAdapter
	ts        *timesync.TimeSync
	cfg       *settings.Store
	transport BufferingRequester
	clock     Clock
	rng       *rand.Rand

	state       State
	lastCommand *wire.PlaybackCommand
	syncEnabled bool

	scheduledTimer  CancelTimer
	syncEnableTimer CancelTimer
	bufferingTimer  CancelTimer

	bufferingActive    bool
	currentItemID      string
	playbackDiffMillis int64
	lastDriftAt        time.Time

	waiters []*waiter

	groupEvents chan events.GroupEvent
}

// New builds a PlaybackCore over the given PlayerAdapter, TimeSync and
// Settings, reporting buffering transitions through transport.
func New(adapter *playerapi.PlayerAdapter, ts *timesync.TimeSync, cfg *settings.Store, transport BufferingRequester) *Core {
	return &Core{
		adapter:     adapter,
		ts:          ts,
		cfg:         cfg,
		transport:   transport,
		clock:       realClock{},
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		state:       StateDisabled,
		groupEvents: make(chan events.GroupEvent, 16),
	}
}

// WithClock overrides the monotonic clock; intended for tests.
func (c *Core) WithClock(clk Clock) {
	c.clock = clk
}

// Events returns the facade-level event stream (notify-osd, syncing, ...).
func (c *Core) Events() <-chan events.GroupEvent {
	return c.groupEvents
}

// State returns the current lifecycle state.
func (c *Core) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// PlaybackDiffMillis exposes the last computed drift, for stats (§4.D).
func (c *Core) PlaybackDiffMillis() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playbackDiffMillis
}

// SetCurrentPlaylistItemID records which item buffering reports should be
// stamped against; called by QueueCore whenever the cursor moves.
func (c *Core) SetCurrentPlaylistItemID(id string) {
	c.mu.Lock()
	c.currentItemID = id
	c.mu.Unlock()
}

// Enable transitions Disabled -> Enabling on GroupJoined.
func (c *Core) Enable() {
	c.mu.Lock()
	c.state = StateEnabling
	c.mu.Unlock()
}

// MarkReady transitions Enabling -> Idle on the first timeSyncUpdate.
func (c *Core) MarkReady() {
	c.mu.Lock()
	if c.state == StateEnabling {
		c.state = StateIdle
	}
	c.mu.Unlock()
}

// MarkSyncLost transitions any state back to Enabling on timeSyncLost.
func (c *Core) MarkSyncLost() {
	c.mu.Lock()
	c.state = StateEnabling
	c.mu.Unlock()
}

// Disable cancels all timers, clears volatile state and transitions to
// Disabled (§5 Cancellation, §8 invariant 4: no further commands issued).
func (c *Core) Disable() {
	c.mu.Lock()
	c.cancelTimersLocked()
	if c.bufferingTimer != nil {
		c.bufferingTimer.Stop()
		c.bufferingTimer = nil
	}
	c.lastCommand = nil
	c.syncEnabled = false
	c.bufferingActive = false
	c.state = StateDisabled
	c.mu.Unlock()
}

func (c *Core) cancelTimersLocked() {
	if c.scheduledTimer != nil {
		c.scheduledTimer.Stop()
		c.scheduledTimer = nil
	}
	if c.syncEnableTimer != nil {
		c.syncEnableTimer.Stop()
		c.syncEnableTimer = nil
	}
}

// Run drains the PlayerAdapter's event stream until ctx is canceled. This
// is PlaybackCore's single logical executor (§5): every player event is
// handled serially here, never concurrently with itself.
func (c *Core) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-c.adapter.Events():
			if !ok {
				return
			}
			c.handlePlayerEvent(ev)
		}
	}
}

func (c *Core) handlePlayerEvent(ev events.PlayerEvent) {
	c.mu.Lock()
	var fired []*waiter
	remaining := c.waiters[:0]
	for _, w := range c.waiters {
		if w.evType == ev.Type {
			fired = append(fired, w)
		} else {
			remaining = append(remaining, w)
		}
	}
	c.waiters = remaining
	c.mu.Unlock()

	for _, w := range fired {
		close(w.result)
	}

	switch ev.Type {
	case events.Waiting:
		c.onWaiting()
	case events.Playing:
		c.onPlayingAfterBuffering()
	case events.TimeUpdate:
		c.onTimeUpdate(ev.CurrentTicks)
	}
}

// waitForEvent blocks until evType is observed on the player's event
// stream or timeout elapses, whichever comes first. Each waiter is a
// cancellation token held by the scheduler, per §9's cooperative
// cancellation design note.
func (c *Core) waitForEvent(evType events.PlayerEventType, timeout time.Duration) bool {
	w := &waiter{evType: evType, result: make(chan struct{})}
	c.mu.Lock()
	c.waiters = append(c.waiters, w)
	c.mu.Unlock()

	select {
	case <-w.result:
		return true
	case <-time.After(timeout):
		c.removeWaiter(w)
		return false
	}
}

func (c *Core) removeWaiter(target *waiter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, w := range c.waiters {
		if w == target {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			return
		}
	}
}

func (c *Core) emit(ev events.GroupEvent) {
	select {
	case c.groupEvents <- ev:
	default:
	}
}

// estimateCurrentTicks projects a recorded position forward to the
// current remote instant: ticks + (localToRemote(now) - when) * ticksPerMs.
func (c *Core) estimateCurrentTicks(pos ticks.Ticks, when time.Time) ticks.Ticks {
	remoteNow := c.ts.LocalToRemote(c.clock.Now())
	deltaMs := remoteNow.Sub(when).Milliseconds()
	return pos + ticks.FromMilliseconds(deltaMs)
}

// ApplyCommand is PlaybackCore's scheduling entry point (§4.D).
func (c *Core) ApplyCommand(cmd wire.PlaybackCommand) {
	c.mu.Lock()

	if c.lastCommand != nil && cmd.Equal(*c.lastCommand) {
		fireAt := c.ts.RemoteToLocal(cmd.When.Time())
		if fireAt.After(c.clock.Now()) {
			// Already scheduled; a duplicate with a future fire time is
			// simply ignored.
			c.mu.Unlock()
			return
		}
		if !c.playerDivergesLocked(cmd) {
			c.mu.Unlock()
			return
		}
		c.cancelTimersLocked()
		copyCmd := cmd
		c.lastCommand = &copyCmd
		c.mu.Unlock()
		c.dispatchRepair(cmd)
		return
	}

	c.cancelTimersLocked()
	copyCmd := cmd
	c.lastCommand = &copyCmd

	if c.adapter.IsRemote() {
		// Remote-self-managed short-circuit (§4.D step 3): record the
		// command for bookkeeping but never drive the local player.
		c.state = StateIdle
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.dispatch(cmd)
}

// playerDivergesLocked compares the adapter's reported state against what
// cmd implies, for the duplicate-with-past-fireAt repair path (§4.D step 1).
func (c *Core) playerDivergesLocked(cmd wire.PlaybackCommand) bool {
	switch cmd.Command {
	case wire.CommandUnpause:
		return !c.adapter.IsPlaying()
	case wire.CommandPause:
		return c.adapter.IsPlaying()
	case wire.CommandStop:
		return c.adapter.IsPlaybackActive()
	case wire.CommandSeek:
		if cmd.PositionTicks == nil {
			return false
		}
		diff := (c.adapter.CurrentTime() - *cmd.PositionTicks).Abs()
		return diff.Milliseconds() > 250
	default:
		return false
	}
}

func (c *Core) dispatch(cmd wire.PlaybackCommand) {
	fireAt := c.ts.RemoteToLocal(cmd.When.Time())
	now := c.clock.Now()
	if !fireAt.After(now) {
		// fireAt was already past by the time we got to dispatch it.
		c.fire(cmd, true)
		return
	}

	c.mu.Lock()
	c.state = StateScheduled
	c.scheduledTimer = c.clock.AfterFunc(fireAt.Sub(now), func() {
		c.mu.Lock()
		c.scheduledTimer = nil
		c.mu.Unlock()
		c.fire(cmd, false)
	})
	c.mu.Unlock()
}

// dispatchRepair re-dispatches a duplicate command whose local state
// diverged; Seek gets a random jitter so the player can't no-op an
// identical seek (§4.D "Duplicate-with-past-fireAt repair").
func (c *Core) dispatchRepair(cmd wire.PlaybackCommand) {
	if cmd.Command == wire.CommandSeek && cmd.PositionTicks != nil {
		jitterMs := int64(c.rng.Float64()*100) - 50 // ±50ms
		jittered := *cmd.PositionTicks + ticks.FromMilliseconds(jitterMs)
		cmd.PositionTicks = &jittered
	}
	c.fire(cmd, true)
}

func (c *Core) fire(cmd wire.PlaybackCommand, wasPast bool) {
	switch cmd.Command {
	case wire.CommandUnpause:
		c.fireUnpause(cmd, wasPast)
	case wire.CommandPause:
		c.firePause(cmd)
	case wire.CommandStop:
		c.fireStop()
	case wire.CommandSeek:
		c.fireSeek(cmd)
	}
}

func (c *Core) fireUnpause(cmd wire.PlaybackCommand, wasPast bool) {
	if cmd.PositionTicks != nil {
		minSkip := ticks.FromMilliseconds(c.cfg.DurationMillis(settings.KeyMinDelaySkipToSync).Milliseconds())
		if (c.adapter.CurrentTime() - *cmd.PositionTicks).Abs() > minSkip {
			if err := <-c.adapter.LocalSeek(*cmd.PositionTicks); err != nil {
				log.Printf("playback: seek before unpause failed: %v", err)
			}
		}
	}
	if err := <-c.adapter.LocalUnpause(); err != nil {
		log.Printf("playback: unpause failed: %v", err)
	}
	c.emit(events.GroupEvent{Type: events.NotifyOSD, Action: "unpause"})

	if wasPast && cmd.PositionTicks != nil {
		pos := *cmd.PositionTicks
		when := cmd.When.Time()
		go func() {
			if c.waitForEvent(events.Unpause, 2*time.Second) {
				est := c.estimateCurrentTicks(pos, when)
				<-c.adapter.LocalSeek(est)
			}
		}()
	}

	c.armSyncEnable()
}

func (c *Core) armSyncEnable() {
	c.mu.Lock()
	if c.syncEnableTimer != nil {
		c.syncEnableTimer.Stop()
	}
	half := c.cfg.DurationMillis(settings.KeyMaxDelaySpeedToSync) / 2
	c.state = StateScheduled
	c.syncEnableTimer = c.clock.AfterFunc(half, func() {
		c.mu.Lock()
		c.syncEnabled = true
		c.state = StateSyncing
		c.syncEnableTimer = nil
		c.mu.Unlock()
	})
	c.mu.Unlock()
}

func (c *Core) firePause(cmd wire.PlaybackCommand) {
	if err := <-c.adapter.LocalPause(); err != nil {
		log.Printf("playback: pause failed: %v", err)
	}
	c.waitForEvent(events.Pause, 500*time.Millisecond)
	if cmd.PositionTicks != nil {
		if err := <-c.adapter.LocalSeek(*cmd.PositionTicks); err != nil {
			log.Printf("playback: seek after pause failed: %v", err)
		}
	}
	c.mu.Lock()
	c.state = StateIdle
	c.syncEnabled = false
	c.mu.Unlock()
}

func (c *Core) fireStop() {
	if err := <-c.adapter.LocalStop(); err != nil {
		log.Printf("playback: stop failed: %v", err)
	}
	c.mu.Lock()
	c.state = StateIdle
	c.syncEnabled = false
	c.mu.Unlock()
}

func (c *Core) fireSeek(cmd wire.PlaybackCommand) {
	if err := <-c.adapter.LocalUnpause(); err != nil {
		log.Printf("playback: unpause before seek failed: %v", err)
	}
	if cmd.PositionTicks != nil {
		if err := <-c.adapter.LocalSeek(*cmd.PositionTicks); err != nil {
			log.Printf("playback: seek failed: %v", err)
		}
	}
	if !c.waitForEvent(events.Playing, 30*time.Second) && cmd.PositionTicks != nil {
		<-c.adapter.LocalSeek(*cmd.PositionTicks)
	}
	<-c.adapter.LocalPause()
	c.sendBuffering(true)

	c.mu.Lock()
	c.state = StateIdle
	c.mu.Unlock()
}

// onTimeUpdate implements the drift-correction loop (§4.D "Drift correction").
func (c *Core) onTimeUpdate(currentTicks ticks.Ticks) {
	c.mu.Lock()
	if !c.syncEnabled || c.bufferingActive || c.lastCommand == nil || c.lastCommand.Command != wire.CommandUnpause {
		c.mu.Unlock()
		return
	}
	throttle := c.cfg.DurationMillis(settings.KeyMaxDelaySpeedToSync) / 2
	now := c.clock.Now()
	if !c.lastDriftAt.IsZero() && now.Sub(c.lastDriftAt) < throttle {
		c.mu.Unlock()
		return
	}
	c.lastDriftAt = now
	cmd := *c.lastCommand
	c.mu.Unlock()

	if cmd.PositionTicks == nil {
		return
	}
	serverTicks := c.estimateCurrentTicks(*cmd.PositionTicks, cmd.When.Time())
	diffMillis := (serverTicks - currentTicks).Milliseconds()

	c.mu.Lock()
	c.playbackDiffMillis = diffMillis
	c.mu.Unlock()

	c.correct(diffMillis, serverTicks)
}

// correct picks the drift-correction strategy per §4.D / §8's boundary
// table: SpeedToSync first, then SkipToSync, else no-op.
func (c *Core) correct(diffMillis int64, serverTicks ticks.Ticks) {
	absDiff := diffMillis
	if absDiff < 0 {
		absDiff = -absDiff
	}

	minSpeed := c.cfg.DurationMillis(settings.KeyMinDelaySpeedToSync).Milliseconds()
	maxSpeed := c.cfg.DurationMillis(settings.KeyMaxDelaySpeedToSync).Milliseconds()
	minSkip := c.cfg.DurationMillis(settings.KeyMinDelaySkipToSync).Milliseconds()

	if c.cfg.Bool(settings.KeyUseSpeedToSync) && c.adapter.HasPlaybackRate() &&
		absDiff >= minSpeed && absDiff < maxSpeed {
		c.speedToSync(diffMillis)
		return
	}
	if c.cfg.Bool(settings.KeyUseSkipToSync) && absDiff >= minSkip {
		c.skipToSync(serverTicks)
		return
	}
	// In sync; no correction needed.
}

func (c *Core) speedToSync(diffMillis int64) {
	T := float64(c.cfg.DurationMillis(settings.KeySpeedToSyncDuration).Milliseconds())
	diff := float64(diffMillis)
	if diff <= -T*0.1 {
		T = -diff / 0.9
	}
	rate := 1 + diff/T

	if err := c.adapter.SetPlaybackRate(rate); err != nil {
		log.Printf("playback: setPlaybackRate(%v) failed: %v", rate, err)
	}
	c.emit(events.GroupEvent{Type: events.Syncing, Active: true, Action: "SpeedToSync"})

	c.mu.Lock()
	c.syncEnabled = false
	c.mu.Unlock()

	c.clock.AfterFunc(time.Duration(T)*time.Millisecond, func() {
		if err := c.adapter.SetPlaybackRate(1.0); err != nil {
			log.Printf("playback: restoring playback rate failed: %v", err)
		}
		c.mu.Lock()
		c.syncEnabled = true
		c.mu.Unlock()
		c.emit(events.GroupEvent{Type: events.Syncing, Active: false, Action: "SpeedToSync"})
	})
}

func (c *Core) skipToSync(serverTicks ticks.Ticks) {
	if err := <-c.adapter.LocalSeek(serverTicks); err != nil {
		log.Printf("playback: skipToSync seek failed: %v", err)
	}
	c.emit(events.GroupEvent{Type: events.Syncing, Active: true, Action: "SkipToSync"})

	c.mu.Lock()
	c.syncEnabled = false
	c.mu.Unlock()

	half := c.cfg.DurationMillis(settings.KeyMaxDelaySpeedToSync) / 2
	c.clock.AfterFunc(half, func() {
		c.mu.Lock()
		c.syncEnabled = true
		c.mu.Unlock()
		c.emit(events.GroupEvent{Type: events.Syncing, Active: false, Action: "SkipToSync"})
	})
}

// onWaiting implements the buffering-start half of the buffering protocol
// (§4.D "Buffering protocol").
func (c *Core) onWaiting() {
	c.mu.Lock()
	if c.bufferingTimer != nil {
		c.bufferingTimer.Stop()
	}
	threshold := c.cfg.DurationMillis(settings.KeyMinBufferingThreshold)
	c.bufferingTimer = c.clock.AfterFunc(threshold, func() {
		c.mu.Lock()
		c.bufferingActive = true
		c.state = StateBuffering
		c.bufferingTimer = nil
		c.mu.Unlock()
		c.sendBuffering(false)
	})
	c.mu.Unlock()
}

func (c *Core) onPlayingAfterBuffering() {
	c.mu.Lock()
	wasBuffering := c.bufferingActive
	if c.bufferingTimer != nil {
		c.bufferingTimer.Stop()
		c.bufferingTimer = nil
	}
	c.bufferingActive = false
	if wasBuffering {
		c.state = StateSyncing
	}
	c.mu.Unlock()

	if wasBuffering {
		c.sendBuffering(true)
	}
}

func (c *Core) sendBuffering(done bool) {
	if c.transport == nil {
		return
	}
	c.mu.Lock()
	itemID := c.currentItemID
	c.mu.Unlock()

	req := wire.BufferingRequest{
		When:           wire.Instant(c.ts.LocalToRemote(c.clock.Now())),
		PositionTicks:  c.adapter.CurrentTime(),
		IsPlaying:      c.adapter.IsPlaying(),
		PlaylistItemID: itemID,
		BufferingDone:  done,
	}
	if err := c.transport.RequestSyncPlayBuffering(req); err != nil {
		log.Printf("playback: requestSyncPlayBuffering failed: %v", err)
	}
}

// ArmReadyOnStart registers a one-shot listener for the next
// playbackstart event (§4.D "Ready-on-start"). On fire, it pauses locally
// and reports buffering-done; on timeout it invokes onTimeout, which the
// caller (QueueCore/Manager) uses to halt the group.
func (c *Core) ArmReadyOnStart(onTimeout func()) {
	go func() {
		if c.waitForEvent(events.PlaybackStart, 30*time.Second) {
			<-c.adapter.LocalPause()
			c.sendBuffering(true)
			return
		}
		if onTimeout != nil {
			onTimeout()
		}
	}()
}
