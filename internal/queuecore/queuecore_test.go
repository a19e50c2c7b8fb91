// ABOUTME: Tests for QueueCore's reason dispatch and startPlayback position extrapolation
package queuecore

import (
	"testing"
	"time"

	"github.com/go-syncplay/syncplay/internal/events"
	"github.com/go-syncplay/syncplay/internal/playback"
	"github.com/go-syncplay/syncplay/internal/playerapi"
	"github.com/go-syncplay/syncplay/internal/queue"
	"github.com/go-syncplay/syncplay/internal/settings"
	"github.com/go-syncplay/syncplay/internal/ticks"
	"github.com/go-syncplay/syncplay/internal/timesync"
	"github.com/go-syncplay/syncplay/internal/wire"
)

type noopBufferingRequester struct{}

func (noopBufferingRequester) RequestSyncPlayBuffering(req wire.BufferingRequest) error {
	return nil
}

func newNoopPlaybackCore(adapter *playerapi.PlayerAdapter, ts *timesync.TimeSync) *playback.Core {
	return playback.New(adapter, ts, settings.New(), noopBufferingRequester{})
}

type fakePlayer struct {
	playing   bool
	current   ticks.Ticks
	evCh      chan events.PlayerEvent
	playCalls int
	repeat    wire.RepeatMode
	shuffle   wire.ShuffleMode
	setItemID string
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{evCh: make(chan events.PlayerEvent, 4)}
}

func (f *fakePlayer) IsPlaybackActive() bool   { return f.playing }
func (f *fakePlayer) IsPlaying() bool          { return f.playing }
func (f *fakePlayer) CurrentTime() ticks.Ticks { return f.current }
func (f *fakePlayer) HasPlaybackRate() bool    { return true }
func (f *fakePlayer) GetPlaybackRate() float64 { return 1.0 }
func (f *fakePlayer) SetPlaybackRate(r float64) error { return nil }

func (f *fakePlayer) Play(opts playerapi.PlayOptions) playerapi.Completion {
	f.playCalls++
	f.playing = true
	f.current = opts.StartPositionTicks
	return resolved(nil)
}
func (f *fakePlayer) Pause() playerapi.Completion    { f.playing = false; return resolved(nil) }
func (f *fakePlayer) Unpause() playerapi.Completion  { f.playing = true; return resolved(nil) }
func (f *fakePlayer) Seek(pos ticks.Ticks) playerapi.Completion {
	f.current = pos
	return resolved(nil)
}
func (f *fakePlayer) Stop() playerapi.Completion { f.playing = false; return resolved(nil) }

func (f *fakePlayer) SetCurrentPlaylistItem(id string, item wire.PlaylistItem) playerapi.Completion {
	f.setItemID = id
	return resolved(nil)
}
func (f *fakePlayer) SetRepeatMode(mode wire.RepeatMode) playerapi.Completion {
	f.repeat = mode
	return resolved(nil)
}
func (f *fakePlayer) SetShuffleMode(mode wire.ShuffleMode) playerapi.Completion {
	f.shuffle = mode
	return resolved(nil)
}
func (f *fakePlayer) Events() <-chan events.PlayerEvent { return f.evCh }

func resolved(err error) playerapi.Completion {
	ch := make(chan error, 1)
	ch <- err
	return ch
}

type noopRequester struct{ calls int }

func (n *noopRequester) RequestSyncPlaySetIgnoreWait(ignoreWait bool) error {
	n.calls++
	return nil
}

func playlistUpdate(lastUpdate int64, reason wire.QueueUpdateReason, items ...string) wire.QueueUpdate {
	playlist := make([]wire.PlaylistItem, len(items))
	for i, id := range items {
		playlist[i] = wire.PlaylistItem{PlaylistItemID: id}
	}
	return wire.QueueUpdate{
		Reason:       reason,
		LastUpdate:   wire.Instant(time.Unix(lastUpdate, 0).UTC()),
		Playlist:     playlist,
		CurrentIndex: 0,
	}
}

func newTestCore(follow bool) (*Core, *fakePlayer, *noopRequester) {
	fp := newFakePlayer()
	adapter := playerapi.NewLocalAdapter(fp)
	adapter.BindToPlayer()
	model := queue.New()
	ts := timesync.New()
	req := &noopRequester{}
	c := New(model, adapter, newNoopPlaybackCore(adapter, ts), ts, req, nil)
	c.SetFollowingGroup(follow)
	return c, fp, req
}

func TestNewPlaylistStartsPlayback(t *testing.T) {
	c, fp, _ := newTestCore(true)
	u := playlistUpdate(100, wire.ReasonNewPlaylist, "a", "b")

	c.UpdatePlayQueue(u)

	if fp.playCalls != 1 {
		t.Fatalf("expected localPlay to be called once, got %d", fp.playCalls)
	}
}

func TestNewPlaylistWhileHaltedFollowsGroupFirst(t *testing.T) {
	c, _, req := newTestCore(false)
	u := playlistUpdate(100, wire.ReasonNewPlaylist, "a")

	c.UpdatePlayQueue(u)

	if req.calls != 1 {
		t.Fatalf("expected setIgnoreWait(false) to be requested, got %d calls", req.calls)
	}
	if !c.FollowingGroup() {
		t.Fatal("expected followingGroup to flip true after a NewPlaylist while halted")
	}
}

func TestSetCurrentItemIgnoredWhenHalted(t *testing.T) {
	c, fp, _ := newTestCore(false)
	c.UpdatePlayQueue(playlistUpdate(100, wire.ReasonNewPlaylist, "a", "b"))
	// The NewPlaylist above re-follows the group; halt again.
	c.SetFollowingGroup(false)
	fp.setItemID = ""

	u := playlistUpdate(200, wire.ReasonSetCurrentItem, "a", "b")
	u.CurrentIndex = 1
	c.UpdatePlayQueue(u)

	if fp.setItemID != "" {
		t.Fatalf("expected no localSetCurrentPlaylistItem while halted, got %q", fp.setItemID)
	}
}

func TestSetCurrentItemAppliedWhenFollowing(t *testing.T) {
	c, fp, _ := newTestCore(true)
	c.UpdatePlayQueue(playlistUpdate(100, wire.ReasonNewPlaylist, "a", "b"))

	u := playlistUpdate(200, wire.ReasonSetCurrentItem, "a", "b")
	u.CurrentIndex = 1
	c.UpdatePlayQueue(u)

	if fp.setItemID != "b" {
		t.Fatalf("expected localSetCurrentPlaylistItem(b), got %q", fp.setItemID)
	}
}

func TestRepeatAndShuffleForwarded(t *testing.T) {
	c, fp, _ := newTestCore(true)
	c.UpdatePlayQueue(playlistUpdate(100, wire.ReasonNewPlaylist, "a"))

	u := playlistUpdate(200, wire.ReasonRepeatMode, "a")
	u.RepeatMode = wire.RepeatAll
	c.UpdatePlayQueue(u)
	if fp.repeat != wire.RepeatAll {
		t.Errorf("repeat = %v, want RepeatAll", fp.repeat)
	}

	u2 := playlistUpdate(300, wire.ReasonShuffleMode, "a")
	u2.ShuffleMode = wire.ShuffleOn
	c.UpdatePlayQueue(u2)
	if fp.shuffle != wire.ShuffleOn {
		t.Errorf("shuffle = %v, want Shuffle", fp.shuffle)
	}
}

func TestRemoteSelfManagedNeverDrivesPlayer(t *testing.T) {
	fp := newFakePlayer()
	adapter := playerapi.NewRemoteAdapter(fp)
	adapter.BindToPlayer()
	model := queue.New()
	ts := timesync.New()
	c := New(model, adapter, newNoopPlaybackCore(adapter, ts), ts, &noopRequester{}, nil)

	c.UpdatePlayQueue(playlistUpdate(100, wire.ReasonNewPlaylist, "a"))

	if fp.playCalls != 0 {
		t.Fatalf("expected no localPlay for a remote-self-managed player, got %d calls", fp.playCalls)
	}
}

func TestEmptyPlaylistDoesNotStartPlayback(t *testing.T) {
	c, fp, _ := newTestCore(true)
	c.UpdatePlayQueue(playlistUpdate(100, wire.ReasonNewPlaylist))

	if fp.playCalls != 0 {
		t.Fatalf("expected no localPlay for an empty playlist, got %d calls", fp.playCalls)
	}
}
