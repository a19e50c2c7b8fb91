// ABOUTME: Fake MediaPlayer for adapter tests
package playerapi

import (
	"github.com/go-syncplay/syncplay/internal/events"
	"github.com/go-syncplay/syncplay/internal/ticks"
	"github.com/go-syncplay/syncplay/internal/wire"
)

type fakePlayer struct {
	playing   bool
	rate      float64
	current   ticks.Ticks
	evCh      chan events.PlayerEvent
	playCalls int
	pauseCalls int
	seekCalls int
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{rate: 1.0, evCh: make(chan events.PlayerEvent, 8)}
}

func (f *fakePlayer) IsPlaybackActive() bool    { return f.playing }
func (f *fakePlayer) IsPlaying() bool           { return f.playing }
func (f *fakePlayer) CurrentTime() ticks.Ticks  { return f.current }
func (f *fakePlayer) HasPlaybackRate() bool     { return true }
func (f *fakePlayer) GetPlaybackRate() float64  { return f.rate }
func (f *fakePlayer) SetPlaybackRate(r float64) error {
	f.rate = r
	return nil
}

func (f *fakePlayer) Play(opts PlayOptions) Completion {
	f.playCalls++
	f.playing = true
	return completed(nil)
}

func (f *fakePlayer) Pause() Completion {
	f.pauseCalls++
	f.playing = false
	return completed(nil)
}

func (f *fakePlayer) Unpause() Completion {
	f.playing = true
	return completed(nil)
}

func (f *fakePlayer) Seek(pos ticks.Ticks) Completion {
	f.seekCalls++
	f.current = pos
	return completed(nil)
}

func (f *fakePlayer) Stop() Completion {
	f.playing = false
	return completed(nil)
}

func (f *fakePlayer) SetCurrentPlaylistItem(id string, item wire.PlaylistItem) Completion {
	return completed(nil)
}

func (f *fakePlayer) SetRepeatMode(mode wire.RepeatMode) Completion {
	return completed(nil)
}

func (f *fakePlayer) SetShuffleMode(mode wire.ShuffleMode) Completion {
	return completed(nil)
}

func (f *fakePlayer) Events() <-chan events.PlayerEvent {
	return f.evCh
}
