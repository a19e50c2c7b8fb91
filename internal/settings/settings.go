// ABOUTME: Typed key/value tuning store with change notification (§4.G Settings)
// ABOUTME: Defaults load through koanf/toml, following the config layering go-musicfox wires up
package settings

import (
	"fmt"
	"sync"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

func confmapProvider(m map[string]any) *confmap.Confmap {
	return confmap.Provider(m, ".")
}

// Keys for the tunables named across §4.D and §8.
const (
	KeyUseSpeedToSync        = "sync.use_speed_to_sync"
	KeyUseSkipToSync         = "sync.use_skip_to_sync"
	KeyMinDelaySpeedToSync   = "sync.min_delay_speed_to_sync_ms"
	KeyMaxDelaySpeedToSync   = "sync.max_delay_speed_to_sync_ms"
	KeyMinDelaySkipToSync    = "sync.min_delay_skip_to_sync_ms"
	KeySpeedToSyncDuration   = "sync.speed_to_sync_duration_ms"
	KeyMinBufferingThreshold = "sync.min_buffering_threshold_ms"
	KeyTimeSyncIntervalSec   = "sync.time_sync_interval_sec"
)

// defaults mirrors the literal boundary values used in §8's scenarios and
// boundary table.
var defaults = map[string]any{
	KeyUseSpeedToSync:        true,
	KeyUseSkipToSync:         true,
	KeyMinDelaySpeedToSync:   200,
	KeyMaxDelaySpeedToSync:   3000,
	KeyMinDelaySkipToSync:    3000,
	KeySpeedToSyncDuration:   1000,
	KeyMinBufferingThreshold: 1000,
	KeyTimeSyncIntervalSec:   10,
}

// Store is a typed key/value tuning store. Reads take a shared read lock;
// writes notify subscribers on the returned channel.
type Store struct {
	mu   sync.RWMutex
	k    *koanf.Koanf
	subs []chan string
}

// New returns a Store seeded with the built-in defaults.
func New() *Store {
	k := koanf.New(".")
	if err := k.Load(confmapProvider(defaults), nil); err != nil {
		// defaults are a static literal map; a load failure here is a
		// programmer error, not a runtime condition.
		panic(fmt.Sprintf("settings: loading built-in defaults: %v", err))
	}
	return &Store{k: k}
}

// LoadTOMLFile merges a TOML file on top of the current values, following
// the same koanf file+parser provider pattern go-musicfox uses for its
// own settings file. Missing keys in the file leave the existing (or
// default) value untouched.
func (s *Store) LoadTOMLFile(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.k.Load(file.Provider(path), toml.Parser()); err != nil {
		return fmt.Errorf("settings: loading %s: %w", path, err)
	}
	s.notifyAllLocked()
	return nil
}

// Subscribe returns a channel that receives the dotted key path of every
// setting written via SetBool or SetMillis; LoadTOMLFile sends every known
// key, whether or not its value changed.
func (s *Store) Subscribe() <-chan string {
	ch := make(chan string, 16)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}

func (s *Store) notifyAllLocked() {
	for _, k := range s.k.Keys() {
		s.notifyLocked(k)
	}
}

func (s *Store) notifyLocked(key string) {
	for _, ch := range s.subs {
		select {
		case ch <- key:
		default:
		}
	}
}

// Bool returns a boolean setting.
func (s *Store) Bool(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.k.Bool(key)
}

// SetBool sets a boolean setting and notifies subscribers.
func (s *Store) SetBool(key string, v bool) {
	s.mu.Lock()
	s.k.Set(key, v)
	s.notifyLocked(key)
	s.mu.Unlock()
}

// DurationMillis returns a millisecond-valued setting as a time.Duration.
func (s *Store) DurationMillis(key string) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Duration(s.k.Int64(key)) * time.Millisecond
}

// SetMillis sets a millisecond-valued setting and notifies subscribers.
func (s *Store) SetMillis(key string, ms int64) {
	s.mu.Lock()
	s.k.Set(key, ms)
	s.notifyLocked(key)
	s.mu.Unlock()
}

// Duration returns a second-valued setting as a time.Duration.
func (s *Store) Duration(key string) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Duration(s.k.Int64(key)) * time.Second
}
