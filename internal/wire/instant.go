// ABOUTME: Instant is the wire representation of a remote-clock timestamp
// ABOUTME: Marshaled as an ISO-8601 UTC string, matching the SyncPlay wire format
package wire

import (
	"fmt"
	"time"
)

// Instant is a point on the remote (server) clock, as carried on the wire.
type Instant time.Time

// Zero reports whether the instant is the zero value.
func (i Instant) Zero() bool {
	return time.Time(i).IsZero()
}

// Time returns the underlying time.Time.
func (i Instant) Time() time.Time {
	return time.Time(i)
}

// Before reports whether i is strictly before o.
func (i Instant) Before(o Instant) bool {
	return time.Time(i).Before(time.Time(o))
}

// After reports whether i is strictly after o.
func (i Instant) After(o Instant) bool {
	return time.Time(i).After(time.Time(o))
}

// Sub returns the duration i-o.
func (i Instant) Sub(o Instant) time.Duration {
	return time.Time(i).Sub(time.Time(o))
}

// Add returns i+d.
func (i Instant) Add(d time.Duration) Instant {
	return Instant(time.Time(i).Add(d))
}

// MarshalJSON encodes the instant as an ISO-8601 UTC string.
func (i Instant) MarshalJSON() ([]byte, error) {
	s := time.Time(i).UTC().Format(time.RFC3339Nano)
	return []byte(`"` + s + `"`), nil
}

// UnmarshalJSON decodes an ISO-8601 UTC string into the instant.
func (i *Instant) UnmarshalJSON(data []byte) error {
	if len(data) < 2 {
		return fmt.Errorf("wire: invalid instant %q", data)
	}
	s := string(data[1 : len(data)-1])
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("wire: parse instant %q: %w", s, err)
		}
	}
	*i = Instant(t)
	return nil
}

func (i Instant) String() string {
	return time.Time(i).UTC().Format(time.RFC3339Nano)
}
