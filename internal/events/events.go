// ABOUTME: Normalized player event types shared by PlayerAdapter and the cores
// ABOUTME: Mirrors the event-channel style of the teacher's internal/client message routing
package events

import "github.com/go-syncplay/syncplay/internal/ticks"

// PlayerEventType enumerates the normalized events a MediaPlayer emits,
// per §6 "Emitted events".
type PlayerEventType string

const (
	Unpause       PlayerEventType = "unpause"
	Pause         PlayerEventType = "pause"
	TimeUpdate    PlayerEventType = "timeupdate"
	Playing       PlayerEventType = "playing"
	Waiting       PlayerEventType = "waiting"
	PlaybackStart PlayerEventType = "playbackstart"
	PlaybackStop  PlayerEventType = "playbackstop"
)

// PlayerEvent is a single normalized event from the underlying media player.
type PlayerEvent struct {
	Type          PlayerEventType
	CurrentTicks  ticks.Ticks
	Paused        bool
	PlaylistItemID string
}

// GroupEventType enumerates the facade-level events Manager emits (§6).
type GroupEventType string

const (
	PlayerChange      GroupEventType = "playerchange"
	Enabled           GroupEventType = "enabled"
	GroupStateChange  GroupEventType = "group-state-change"
	GroupStateUpdate  GroupEventType = "group-state-update"
	Syncing           GroupEventType = "syncing"
	NotifyOSD         GroupEventType = "notify-osd"
	ShowMessage       GroupEventType = "show-message"
	TimeSyncServerUpd GroupEventType = "time-sync-server-update"
)

// GroupEvent is a single facade-level event observed by collaborators.
type GroupEvent struct {
	Type     GroupEventType
	Action   string // notify-osd action / syncing method
	Key      string // show-message symbolic key
	Args     []string
	Active   bool // syncing(active, ...)
	State    string
	Reason   string
}
