// ABOUTME: Tests for the typed Settings store's defaults and change notification
package settings

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	s := New()
	if !s.Bool(KeyUseSpeedToSync) {
		t.Error("expected useSpeedToSync default true")
	}
	if got := s.DurationMillis(KeyMinDelaySpeedToSync); got != 200*time.Millisecond {
		t.Errorf("MinDelaySpeedToSync = %v, want 200ms", got)
	}
	if got := s.DurationMillis(KeyMaxDelaySpeedToSync); got != 3000*time.Millisecond {
		t.Errorf("MaxDelaySpeedToSync = %v, want 3000ms", got)
	}
	if got := s.DurationMillis(KeyMinDelaySkipToSync); got != 3000*time.Millisecond {
		t.Errorf("MinDelaySkipToSync = %v, want 3000ms", got)
	}
}

func TestSetBoolNotifiesSubscribers(t *testing.T) {
	s := New()
	ch := s.Subscribe()

	s.SetBool(KeyUseSkipToSync, false)

	select {
	case key := <-ch:
		if key != KeyUseSkipToSync {
			t.Errorf("notified key = %q, want %q", key, KeyUseSkipToSync)
		}
	default:
		t.Fatal("expected a notification on Subscribe channel")
	}

	if s.Bool(KeyUseSkipToSync) {
		t.Error("expected useSkipToSync to be false after SetBool")
	}
}

func TestSetMillisRoundTrip(t *testing.T) {
	s := New()
	s.SetMillis(KeySpeedToSyncDuration, 1500)
	if got := s.DurationMillis(KeySpeedToSyncDuration); got != 1500*time.Millisecond {
		t.Errorf("SpeedToSyncDuration = %v, want 1500ms", got)
	}
}

func TestDurationSeconds(t *testing.T) {
	s := New()
	if got := s.Duration(KeyTimeSyncIntervalSec); got != 10*time.Second {
		t.Errorf("TimeSyncIntervalSec = %v, want 10s", got)
	}
}
