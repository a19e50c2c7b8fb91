// ABOUTME: MediaPlayer capability contract consumed by PlayerAdapter (§4.B, §6)
// ABOUTME: The underlying player is a collaborator; this package only defines the shape
package playerapi

import (
	"github.com/go-syncplay/syncplay/internal/events"
	"github.com/go-syncplay/syncplay/internal/ticks"
	"github.com/go-syncplay/syncplay/internal/wire"
)

// PlayOptions is the argument to a localPlay request.
type PlayOptions struct {
	ItemIDs            []string
	StartPositionTicks ticks.Ticks
	StartIndex         int
	ServerID           string
}

// FailureKind categorizes a player-command failure (§7).
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureNotSeekable
	FailureRejected
	FailureTimeout
	FailureNotConnected
)

func (k FailureKind) String() string {
	switch k {
	case FailureNotSeekable:
		return "not-seekable"
	case FailureRejected:
		return "rejected"
	case FailureTimeout:
		return "timeout"
	case FailureNotConnected:
		return "not-connected"
	default:
		return "none"
	}
}

// CommandFailure is the categorized error a local* operation's completion
// may carry.
type CommandFailure struct {
	Kind FailureKind
	Err  error
}

func (f *CommandFailure) Error() string {
	if f.Err != nil {
		return f.Kind.String() + ": " + f.Err.Error()
	}
	return f.Kind.String()
}

// Completion is returned by every local* operation. Successful completion
// means the underlying player acknowledged the request, not that it has
// visibly completed it (§4.B).
type Completion <-chan error

// completed returns an already-resolved Completion.
func completed(err error) Completion {
	ch := make(chan error, 1)
	ch <- err
	return ch
}

// MediaPlayer is the capability the core consumes over the underlying
// media engine. Implementations may be local (full control) or may back a
// remote-controlled player where these calls are never reached (the
// PlayerAdapter enforces that — see adapter.go).
type MediaPlayer interface {
	IsPlaybackActive() bool
	IsPlaying() bool
	CurrentTime() ticks.Ticks
	HasPlaybackRate() bool
	SetPlaybackRate(rate float64) error
	GetPlaybackRate() float64

	Play(opts PlayOptions) Completion
	Pause() Completion
	Unpause() Completion
	Seek(pos ticks.Ticks) Completion
	Stop() Completion
	SetCurrentPlaylistItem(id string, item wire.PlaylistItem) Completion
	SetRepeatMode(mode wire.RepeatMode) Completion
	SetShuffleMode(mode wire.ShuffleMode) Completion

	// Events delivers normalized player events for as long as the player
	// is bound (see PlayerAdapter.BindToPlayer).
	Events() <-chan events.PlayerEvent
}

// NotSeekable wraps an error as a non-seekable failure completion.
func NotSeekable(err error) Completion {
	return completed(&CommandFailure{Kind: FailureNotSeekable, Err: err})
}
