// ABOUTME: Simulated MediaPlayer for the syncplay-demo harness
// ABOUTME: Advances a virtual playback cursor in real time and emits normalized events
package demoplayer

import (
	"sync"
	"time"

	"github.com/go-syncplay/syncplay/internal/events"
	"github.com/go-syncplay/syncplay/internal/playerapi"
	"github.com/go-syncplay/syncplay/internal/ticks"
	"github.com/go-syncplay/syncplay/internal/wire"
)

// timeUpdateInterval mirrors a typical media element's timeupdate cadence.
const timeUpdateInterval = 250 * time.Millisecond

// Player simulates local media playback: no real decoding, just a virtual
// position clock that advances while playing and emits the normalized
// events PlaybackCore expects (§4.B, §6 "Emitted events").
type Player struct {
	mu       sync.Mutex
	playing  bool
	rate     float64
	position ticks.Ticks
	lastTick time.Time

	evCh chan events.PlayerEvent

	stopTicker chan struct{}
}

// New creates an idle, unbound demo player.
func New() *Player {
	p := &Player{
		rate: 1.0,
		evCh: make(chan events.PlayerEvent, 32),
	}
	return p
}

func (p *Player) Events() <-chan events.PlayerEvent { return p.evCh }

func (p *Player) emit(ev events.PlayerEvent) {
	select {
	case p.evCh <- ev:
	default:
	}
}

// advanceLocked folds elapsed wall-clock time into position at the current
// rate. Caller must hold p.mu.
func (p *Player) advanceLocked() {
	if !p.playing {
		return
	}
	now := time.Now()
	elapsedMs := now.Sub(p.lastTick).Milliseconds()
	p.position += ticks.FromMilliseconds(int64(float64(elapsedMs) * p.rate))
	p.lastTick = now
}

func (p *Player) IsPlaybackActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *Player) IsPlaying() bool {
	return p.IsPlaybackActive()
}

func (p *Player) CurrentTime() ticks.Ticks {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advanceLocked()
	return p.position
}

func (p *Player) HasPlaybackRate() bool { return true }

func (p *Player) SetPlaybackRate(rate float64) error {
	p.mu.Lock()
	p.advanceLocked()
	p.rate = rate
	p.mu.Unlock()
	return nil
}

func (p *Player) GetPlaybackRate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rate
}

func (p *Player) Play(opts playerapi.PlayOptions) playerapi.Completion {
	p.mu.Lock()
	p.position = opts.StartPositionTicks
	p.playing = true
	p.rate = 1.0
	p.lastTick = time.Now()
	p.startTickerLocked()
	p.mu.Unlock()

	p.emit(events.PlayerEvent{Type: events.PlaybackStart, CurrentTicks: opts.StartPositionTicks})
	p.emit(events.PlayerEvent{Type: events.Playing, CurrentTicks: opts.StartPositionTicks})
	return resolved(nil)
}

func (p *Player) Pause() playerapi.Completion {
	p.mu.Lock()
	p.advanceLocked()
	p.playing = false
	pos := p.position
	p.stopTickerLocked()
	p.mu.Unlock()

	p.emit(events.PlayerEvent{Type: events.Pause, CurrentTicks: pos, Paused: true})
	return resolved(nil)
}

func (p *Player) Unpause() playerapi.Completion {
	p.mu.Lock()
	p.playing = true
	p.lastTick = time.Now()
	pos := p.position
	p.startTickerLocked()
	p.mu.Unlock()

	p.emit(events.PlayerEvent{Type: events.Unpause, CurrentTicks: pos})
	return resolved(nil)
}

func (p *Player) Seek(pos ticks.Ticks) playerapi.Completion {
	p.mu.Lock()
	p.position = pos
	p.lastTick = time.Now()
	p.mu.Unlock()

	p.emit(events.PlayerEvent{Type: events.TimeUpdate, CurrentTicks: pos})
	return resolved(nil)
}

func (p *Player) Stop() playerapi.Completion {
	p.mu.Lock()
	p.playing = false
	p.position = 0
	p.stopTickerLocked()
	p.mu.Unlock()

	p.emit(events.PlayerEvent{Type: events.PlaybackStop})
	return resolved(nil)
}

func (p *Player) SetCurrentPlaylistItem(id string, item wire.PlaylistItem) playerapi.Completion {
	return resolved(nil)
}

func (p *Player) SetRepeatMode(mode wire.RepeatMode) playerapi.Completion {
	return resolved(nil)
}

func (p *Player) SetShuffleMode(mode wire.ShuffleMode) playerapi.Completion {
	return resolved(nil)
}

// startTickerLocked launches the periodic timeupdate emitter. Caller must
// hold p.mu.
func (p *Player) startTickerLocked() {
	if p.stopTicker != nil {
		return
	}
	stop := make(chan struct{})
	p.stopTicker = stop
	go p.tickLoop(stop)
}

func (p *Player) stopTickerLocked() {
	if p.stopTicker != nil {
		close(p.stopTicker)
		p.stopTicker = nil
	}
}

func (p *Player) tickLoop(stop chan struct{}) {
	ticker := time.NewTicker(timeUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.mu.Lock()
			p.advanceLocked()
			pos := p.position
			p.mu.Unlock()
			p.emit(events.PlayerEvent{Type: events.TimeUpdate, CurrentTicks: pos})
		}
	}
}

func resolved(err error) playerapi.Completion {
	ch := make(chan error, 1)
	ch <- err
	return ch
}
