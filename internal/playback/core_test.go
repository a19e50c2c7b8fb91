// ABOUTME: Tests for PlaybackCore's scheduling, duplicate detection and drift correction
package playback

import (
	"testing"
	"time"

	"github.com/go-syncplay/syncplay/internal/playerapi"
	"github.com/go-syncplay/syncplay/internal/settings"
	"github.com/go-syncplay/syncplay/internal/ticks"
	"github.com/go-syncplay/syncplay/internal/timesync"
	"github.com/go-syncplay/syncplay/internal/wire"
)

func newTestCore() (*Core, *fakePlayer, *fakeClock, *fakeTransport) {
	fp := newFakePlayer()
	adapter := playerapi.NewLocalAdapter(fp)
	adapter.BindToPlayer()

	clk := newFakeClock(time.Unix(1_700_000_000, 0).UTC())
	cfg := settings.New()
	tp := &fakeTransport{}
	core := New(adapter, timesync.New(), cfg, tp)
	core.WithClock(clk)
	return core, fp, clk, tp
}

func cmdAt(kind wire.CommandType, whenOffset time.Duration, base time.Time, pos *ticks.Ticks) wire.PlaybackCommand {
	return wire.PlaybackCommand{
		Command:        kind,
		When:           wire.Instant(base.Add(whenOffset)),
		EmittedAt:      wire.Instant(base),
		PositionTicks:  pos,
		PlaylistItemID: "item-a",
	}
}

func tp(v int64) *ticks.Ticks {
	t := ticks.Ticks(v)
	return &t
}

func TestApplyCommandFiresImmediatelyWhenFireAtPast(t *testing.T) {
	core, fp, clk, _ := newTestCore()
	cmd := cmdAt(wire.CommandUnpause, -1*time.Second, clk.Now(), tp(0))

	core.ApplyCommand(cmd)

	if !fp.playing {
		t.Fatal("expected player to be unpaused immediately")
	}
}

func TestApplyCommandArmsTimerForFutureFireAt(t *testing.T) {
	core, fp, clk, _ := newTestCore()
	cmd := cmdAt(wire.CommandUnpause, 1*time.Second, clk.Now(), tp(0))

	core.ApplyCommand(cmd)
	if fp.playing {
		t.Fatal("expected no immediate unpause for a future fireAt")
	}
	if core.State() != StateScheduled {
		t.Fatalf("State() = %v, want Scheduled", core.State())
	}

	clk.Advance(1 * time.Second)
	if !fp.playing {
		t.Fatal("expected player unpaused after timer fires")
	}
}

func TestDuplicateCommandFutureFireIgnored(t *testing.T) {
	core, fp, clk, _ := newTestCore()
	cmd := cmdAt(wire.CommandUnpause, 5*time.Second, clk.Now(), tp(0))

	core.ApplyCommand(cmd)
	core.ApplyCommand(cmd) // duplicate, still in the future

	if fp.unpauseCalls != 0 {
		t.Fatal("duplicate with future fireAt must not re-dispatch")
	}
}

func TestDuplicatePastFireDroppedWhenNotDiverged(t *testing.T) {
	core, fp, clk, _ := newTestCore()
	cmd := cmdAt(wire.CommandUnpause, -1*time.Second, clk.Now(), tp(0))

	core.ApplyCommand(cmd)
	callsAfterFirst := fp.unpauseCalls

	core.ApplyCommand(cmd) // duplicate, fireAt in the past, but player already matches
	if fp.unpauseCalls != callsAfterFirst {
		t.Fatalf("expected no re-dispatch when state matches, got %d calls", fp.unpauseCalls)
	}
}

func TestDuplicatePastFireRepairsOnDivergence(t *testing.T) {
	core, fp, clk, _ := newTestCore()
	cmd := cmdAt(wire.CommandUnpause, -1*time.Second, clk.Now(), tp(0))
	core.ApplyCommand(cmd)

	// Something paused the player behind the core's back.
	fp.mu.Lock()
	fp.playing = false
	fp.mu.Unlock()

	core.ApplyCommand(cmd)
	if !fp.playing {
		t.Fatal("expected repair dispatch to re-unpause a diverged player")
	}
}

func TestRemoteSelfManagedShortCircuit(t *testing.T) {
	fp := newFakePlayer()
	adapter := playerapi.NewRemoteAdapter(fp)
	adapter.BindToPlayer()
	clk := newFakeClock(time.Unix(1_700_000_000, 0).UTC())
	core := New(adapter, timesync.New(), settings.New(), &fakeTransport{})
	core.WithClock(clk)

	cmd := cmdAt(wire.CommandSeek, 2*time.Second, clk.Now(), tp(60*ticks.PerSecond))
	core.ApplyCommand(cmd)
	clk.Advance(3 * time.Second)

	if fp.seekCalls != 0 {
		t.Fatalf("expected no local seek for a remote-self-managed player, got %d calls", fp.seekCalls)
	}
}

func TestStopCommand(t *testing.T) {
	core, fp, clk, _ := newTestCore()
	fp.playing = true
	cmd := cmdAt(wire.CommandStop, -time.Second, clk.Now(), nil)

	core.ApplyCommand(cmd)
	if fp.stopCalls != 1 || fp.playing {
		t.Fatalf("expected stop to be called once and player idle, stopCalls=%d playing=%v", fp.stopCalls, fp.playing)
	}
}

func TestPauseCommandSeeksAfterPauseTimeout(t *testing.T) {
	core, fp, clk, _ := newTestCore()
	fp.playing = true
	cmd := cmdAt(wire.CommandPause, -time.Second, clk.Now(), tp(1000*10_000)) // 1000ms in ticks

	done := make(chan struct{})
	go func() {
		core.ApplyCommand(cmd)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ApplyCommand(Pause) did not return; pause-event wait should time out at 500ms")
	}

	if fp.pauseCalls != 1 {
		t.Errorf("pauseCalls = %d, want 1", fp.pauseCalls)
	}
	if fp.seekCalls != 1 {
		t.Errorf("seekCalls = %d, want 1 (seek-after-pause-timeout)", fp.seekCalls)
	}
}

func TestSpeedToSyncBoundary(t *testing.T) {
	core, fp, _, _ := newTestCore()

	// diff = minDelaySpeedToSync - 1ms = 199ms: no correction.
	core.correct(199, ticks.Ticks(0))
	if len(fp.rateCalls) != 0 {
		t.Fatalf("expected no rate change at diff=199ms, got %v", fp.rateCalls)
	}

	// diff = minDelaySpeedToSync = 200ms: SpeedToSync engages.
	core.correct(200, ticks.Ticks(0))
	if len(fp.rateCalls) == 0 {
		t.Fatal("expected SetPlaybackRate to be called at diff=200ms")
	}
}

func TestSkipToSyncAtMaxDelayBoundary(t *testing.T) {
	core, fp, _, _ := newTestCore()

	// diff = maxDelaySpeedToSync = 3000ms: SkipToSync, not SpeedToSync.
	rateCallsBefore := len(fp.rateCalls)
	core.correct(3000, ticks.Ticks(5*ticks.PerSecond))

	if len(fp.rateCalls) != rateCallsBefore {
		t.Errorf("expected no rate change at diff=3000ms, got %v", fp.rateCalls)
	}
	if fp.seekCalls != 1 {
		t.Errorf("expected a single seek (SkipToSync) at diff=3000ms, got %d", fp.seekCalls)
	}
}

func TestSkipToSyncWhenSpeedToSyncDisabled(t *testing.T) {
	core, fp, _, _ := newTestCore()
	core.cfg.SetBool(settings.KeyUseSpeedToSync, false)

	// diff = minDelaySkipToSync = 3000ms, useSpeedToSync=false: SkipToSync.
	core.correct(3000, ticks.Ticks(5*ticks.PerSecond))

	if len(fp.rateCalls) != 0 {
		t.Error("expected no SpeedToSync when useSpeedToSync is disabled")
	}
	if fp.seekCalls != 1 {
		t.Errorf("expected SkipToSync seek, got %d seek calls", fp.seekCalls)
	}
}

func TestDriftOvershootScenario(t *testing.T) {
	// §8 scenario 2: diff=+300ms, speedToSyncDuration=1000ms -> rate 1.3,
	// then restored to 1.0 after 1s.
	core, fp, clk, _ := newTestCore()

	core.correct(300, ticks.Ticks(0))
	if len(fp.rateCalls) == 0 || fp.rateCalls[len(fp.rateCalls)-1] != 1.3 {
		t.Fatalf("expected setPlaybackRate(1.3), got %v", fp.rateCalls)
	}

	clk.Advance(1 * time.Second)
	if fp.rateCalls[len(fp.rateCalls)-1] != 1.0 {
		t.Fatalf("expected rate restored to 1.0 after speedToSyncDuration, got %v", fp.rateCalls)
	}
}

func TestSkipCorrectionScenario(t *testing.T) {
	// §8 scenario 3: diff=+5s -> seek(5s ticks), no rate change.
	core, fp, _, _ := newTestCore()
	fiveSecTicks := ticks.Ticks(5 * ticks.PerSecond)

	core.correct(5000, fiveSecTicks)

	if fp.seekCalls != 1 {
		t.Fatalf("expected exactly one seek, got %d", fp.seekCalls)
	}
	if fp.current != fiveSecTicks {
		t.Fatalf("expected seek to land on %d ticks, got %d", fiveSecTicks, fp.current)
	}
	if len(fp.rateCalls) != 0 {
		t.Fatalf("expected no rate change on SkipToSync, got %v", fp.rateCalls)
	}
}

func TestDisableCancelsTimersAndStopsCommands(t *testing.T) {
	core, fp, clk, _ := newTestCore()
	cmd := cmdAt(wire.CommandUnpause, 5*time.Second, clk.Now(), tp(0))
	core.ApplyCommand(cmd)

	core.Disable()
	clk.Advance(10 * time.Second)

	if fp.playing {
		t.Fatal("expected no player action after Disable, even once the original fireAt has elapsed")
	}
	if core.State() != StateDisabled {
		t.Fatalf("State() = %v, want Disabled", core.State())
	}
}

func TestBufferingReportsStartAndDone(t *testing.T) {
	core, _, clk, transport := newTestCore()
	core.SetCurrentPlaylistItemID("item-a")

	core.onWaiting()
	clk.Advance(1 * time.Second)

	if len(transport.requests) != 1 || transport.requests[0].BufferingDone {
		t.Fatalf("expected one buffering-start request, got %+v", transport.requests)
	}

	core.onPlayingAfterBuffering()
	if len(transport.requests) != 2 || !transport.requests[1].BufferingDone {
		t.Fatalf("expected a buffering-done request to follow, got %+v", transport.requests)
	}
}
