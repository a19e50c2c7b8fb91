// ABOUTME: Fake MediaPlayer, Clock and BufferingRequester test doubles
package playback

import (
	"sync"
	"time"

	"github.com/go-syncplay/syncplay/internal/events"
	"github.com/go-syncplay/syncplay/internal/playerapi"
	"github.com/go-syncplay/syncplay/internal/ticks"
	"github.com/go-syncplay/syncplay/internal/wire"
)

type fakePlayer struct {
	mu sync.Mutex

	playing bool
	rate    float64
	current ticks.Ticks
	hasRate bool
	evCh    chan events.PlayerEvent

	playCalls    int
	pauseCalls   int
	unpauseCalls int
	seekCalls    int
	stopCalls    int
	rateCalls    []float64
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{rate: 1.0, hasRate: true, evCh: make(chan events.PlayerEvent, 16)}
}

func (f *fakePlayer) IsPlaybackActive() bool { f.mu.Lock(); defer f.mu.Unlock(); return f.playing }
func (f *fakePlayer) IsPlaying() bool        { f.mu.Lock(); defer f.mu.Unlock(); return f.playing }
func (f *fakePlayer) CurrentTime() ticks.Ticks {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}
func (f *fakePlayer) HasPlaybackRate() bool { return f.hasRate }
func (f *fakePlayer) GetPlaybackRate() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rate
}
func (f *fakePlayer) SetPlaybackRate(r float64) error {
	f.mu.Lock()
	f.rate = r
	f.rateCalls = append(f.rateCalls, r)
	f.mu.Unlock()
	return nil
}

func (f *fakePlayer) Play(opts playerapi.PlayOptions) playerapi.Completion {
	f.mu.Lock()
	f.playCalls++
	f.playing = true
	f.mu.Unlock()
	return resolved(nil)
}

func (f *fakePlayer) Pause() playerapi.Completion {
	f.mu.Lock()
	f.pauseCalls++
	f.playing = false
	f.mu.Unlock()
	return resolved(nil)
}

func (f *fakePlayer) Unpause() playerapi.Completion {
	f.mu.Lock()
	f.unpauseCalls++
	f.playing = true
	f.mu.Unlock()
	return resolved(nil)
}

func (f *fakePlayer) Seek(pos ticks.Ticks) playerapi.Completion {
	f.mu.Lock()
	f.seekCalls++
	f.current = pos
	f.mu.Unlock()
	return resolved(nil)
}

func (f *fakePlayer) Stop() playerapi.Completion {
	f.mu.Lock()
	f.stopCalls++
	f.playing = false
	f.mu.Unlock()
	return resolved(nil)
}

func (f *fakePlayer) SetCurrentPlaylistItem(id string, item wire.PlaylistItem) playerapi.Completion {
	return resolved(nil)
}
func (f *fakePlayer) SetRepeatMode(mode wire.RepeatMode) playerapi.Completion {
	return resolved(nil)
}
func (f *fakePlayer) SetShuffleMode(mode wire.ShuffleMode) playerapi.Completion {
	return resolved(nil)
}

func (f *fakePlayer) Events() <-chan events.PlayerEvent { return f.evCh }

func resolved(err error) playerapi.Completion {
	ch := make(chan error, 1)
	ch <- err
	return ch
}

// fakeClock is a manually-advanced Clock: AfterFunc records the callback
// instead of scheduling it on a real timer; Advance fires any callback
// whose deadline has passed.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	at      time.Time
	fn      func()
	fired   bool
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	if t.fired {
		return false
	}
	t.stopped = true
	return true
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) CancelTimer {
	c.mu.Lock()
	t := &fakeTimer{at: c.now.Add(d), fn: f}
	c.timers = append(c.timers, t)
	c.mu.Unlock()
	return t
}

// Advance moves the clock forward by d and synchronously fires any timer
// whose deadline has elapsed.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	due := make([]*fakeTimer, 0)
	for _, t := range c.timers {
		if !t.fired && !t.stopped && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

type fakeTransport struct {
	mu       sync.Mutex
	requests []wire.BufferingRequest
}

func (f *fakeTransport) RequestSyncPlayBuffering(req wire.BufferingRequest) error {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	return nil
}
