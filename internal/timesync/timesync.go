// ABOUTME: Remote/local clock synchronization (§4.A TimeSync)
// ABOUTME: Adapted from the teacher's internal/sync/clock.go NTP-style offset estimator
package timesync

import (
	"context"
	"log"
	"math"
	"sync"
	"time"
)

// sampleCount is the size of the rolling sample ring (spec: N=8).
const sampleCount = 8

// deadBand is the minimum change in the best sample before a timeSyncUpdate
// event fires (spec: default 50ms).
const deadBand = 50 * time.Millisecond

// missedIntervalsBeforeLost is how many probe intervals may pass with no
// new sample before timeSyncLost fires (spec: 10).
const missedIntervalsBeforeLost = 10

// Prober performs one round-trip time probe and returns the remote instant
// stamped by the server in its response. It blocks until the response
// arrives or ctx is canceled.
type Prober interface {
	Ping(ctx context.Context) (remoteAt time.Time, err error)
}

// Event is emitted on Events() whenever the best sample changes by more
// than the dead-band, or when sampling is declared lost.
type Event struct {
	Offset time.Duration
	Ping   time.Duration
	Lost   bool
}

type sample struct {
	localSendAt    time.Time
	remoteAt       time.Time
	localReceiveAt time.Time
}

func (s sample) rtt() time.Duration {
	return s.localReceiveAt.Sub(s.localSendAt)
}

// offset is (remote - local) estimated at the sample's midpoint, per
// spec §3: offset = remoteAt - (localSendAt+localReceiveAt)/2.
func (s sample) offset() time.Duration {
	mid := s.localSendAt.Add(s.localReceiveAt.Sub(s.localSendAt) / 2)
	return s.remoteAt.Sub(mid)
}

// TimeSync maintains a rolling set of round-trip samples and exposes the
// current best estimate of the offset between the local and remote clocks.
type TimeSync struct {
	mu          sync.RWMutex
	samples     []sample
	bestOffset  time.Duration
	bestPing    time.Duration
	hasSample   bool
	missedTicks int

	events chan Event

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a TimeSync with no samples yet. Until the first sample
// arrives, Offset() is 0 and Ping() is +Inf (spec §4.A edge case).
func New() *TimeSync {
	return &TimeSync{
		bestPing: time.Duration(math.MaxInt64),
		events:   make(chan Event, 8),
	}
}

// Events returns the channel on which timeSyncUpdate/timeSyncLost are
// delivered.
func (ts *TimeSync) Events() <-chan Event {
	return ts.events
}

// Offset returns the current estimated (remote - local) duration.
func (ts *TimeSync) Offset() time.Duration {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.bestOffset
}

// Ping returns the RTT of the currently chosen sample, or +Inf if no
// sample has ever been collected.
func (ts *TimeSync) Ping() time.Duration {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.bestPing
}

// Ready reports whether at least one sample has been collected.
func (ts *TimeSync) Ready() bool {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.hasSample
}

// LocalToRemote converts a local instant to the estimated remote instant.
func (ts *TimeSync) LocalToRemote(local time.Time) time.Time {
	return local.Add(ts.Offset())
}

// RemoteToLocal converts a remote instant to the estimated local instant.
func (ts *TimeSync) RemoteToLocal(remote time.Time) time.Time {
	return remote.Add(-ts.Offset())
}

// Start begins periodic background sampling at the given interval
// (spec: 5-30s, configurable) using prober to perform each round trip.
func (ts *TimeSync) Start(ctx context.Context, interval time.Duration, prober Prober) {
	ts.Stop()

	runCtx, cancel := context.WithCancel(ctx)
	ts.mu.Lock()
	ts.cancel = cancel
	ts.mu.Unlock()

	ts.wg.Add(1)
	go ts.run(runCtx, interval, prober)
}

// Stop halts background sampling. Safe to call when not started.
func (ts *TimeSync) Stop() {
	ts.mu.Lock()
	cancel := ts.cancel
	ts.cancel = nil
	ts.mu.Unlock()

	if cancel != nil {
		cancel()
		ts.wg.Wait()
	}
}

// ForceUpdate discards all collected samples and resets to the pre-sample
// state, so Ready() is false again until a new probe succeeds.
func (ts *TimeSync) ForceUpdate() {
	ts.mu.Lock()
	ts.samples = nil
	ts.hasSample = false
	ts.bestOffset = 0
	ts.bestPing = time.Duration(math.MaxInt64)
	ts.missedTicks = 0
	ts.mu.Unlock()
}

func (ts *TimeSync) run(ctx context.Context, interval time.Duration, prober Prober) {
	defer ts.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ts.probeOnce(ctx, prober)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ts.probeOnce(ctx, prober)
		}
	}
}

func (ts *TimeSync) probeOnce(ctx context.Context, prober Prober) {
	localSendAt := time.Now()
	remoteAt, err := prober.Ping(ctx)
	localReceiveAt := time.Now()

	if err != nil {
		ts.recordMiss()
		return
	}

	ts.addSample(sample{
		localSendAt:    localSendAt,
		remoteAt:       remoteAt,
		localReceiveAt: localReceiveAt,
	})
}

func (ts *TimeSync) recordMiss() {
	ts.mu.Lock()
	ts.missedTicks++
	lost := ts.missedTicks >= missedIntervalsBeforeLost
	if lost {
		ts.hasSample = false
		ts.bestOffset = 0
		ts.bestPing = time.Duration(math.MaxInt64)
		ts.samples = nil
		ts.missedTicks = 0
	}
	ts.mu.Unlock()

	if lost {
		ts.emit(Event{Lost: true})
		log.Printf("timesync: lost after %d missed intervals", missedIntervalsBeforeLost)
	}
}

// addSample folds a new sample into the ring, recomputes the best (min
// RTT) sample, and emits a timeSyncUpdate event if it moved beyond the
// dead-band.
func (ts *TimeSync) addSample(s sample) {
	ts.mu.Lock()

	ts.missedTicks = 0
	ts.samples = append(ts.samples, s)
	if len(ts.samples) > sampleCount {
		ts.samples = ts.samples[len(ts.samples)-sampleCount:]
	}

	best := ts.samples[0]
	for _, candidate := range ts.samples[1:] {
		if candidate.rtt() < best.rtt() {
			best = candidate
		}
	}

	prevOffset := ts.bestOffset
	wasReady := ts.hasSample

	ts.bestOffset = best.offset()
	ts.bestPing = best.rtt()
	ts.hasSample = true

	changed := !wasReady || absDuration(ts.bestOffset-prevOffset) > deadBand
	offset, ping := ts.bestOffset, ts.bestPing
	ts.mu.Unlock()

	if changed {
		ts.emit(Event{Offset: offset, Ping: ping})
	}
}

func (ts *TimeSync) emit(ev Event) {
	select {
	case ts.events <- ev:
	default:
		// Drop if the consumer is behind; the next update supersedes it.
	}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
