// ABOUTME: SyncPlay wire message and data-model struct definitions
// ABOUTME: Mirrors internal/protocol/messages.go's layering in the teacher repo
package wire

import "github.com/go-syncplay/syncplay/internal/ticks"

// CommandType enumerates the playback commands a group can issue.
type CommandType string

const (
	CommandUnpause CommandType = "Unpause"
	CommandPause   CommandType = "Pause"
	CommandSeek    CommandType = "Seek"
	CommandStop    CommandType = "Stop"
)

// QueueUpdateReason enumerates why a PlayQueue update was sent.
type QueueUpdateReason string

const (
	ReasonNewPlaylist    QueueUpdateReason = "NewPlaylist"
	ReasonSetCurrentItem QueueUpdateReason = "SetCurrentItem"
	ReasonNextTrack      QueueUpdateReason = "NextTrack"
	ReasonPreviousTrack  QueueUpdateReason = "PreviousTrack"
	ReasonRemoveItems    QueueUpdateReason = "RemoveItems"
	ReasonMoveItem       QueueUpdateReason = "MoveItem"
	ReasonQueue          QueueUpdateReason = "Queue"
	ReasonQueueNext      QueueUpdateReason = "QueueNext"
	ReasonRepeatMode     QueueUpdateReason = "RepeatMode"
	ReasonShuffleMode    QueueUpdateReason = "ShuffleMode"
)

// RepeatMode mirrors the wire strings for repeat behavior.
type RepeatMode string

const (
	RepeatNone RepeatMode = "RepeatNone"
	RepeatOne  RepeatMode = "RepeatOne"
	RepeatAll  RepeatMode = "RepeatAll"
)

// ShuffleMode mirrors the wire strings for shuffle behavior.
type ShuffleMode string

const (
	ShuffleSorted ShuffleMode = "Sorted"
	ShuffleOn     ShuffleMode = "Shuffle"
)

// GroupUpdateType enumerates the Type field of SyncPlayGroupUpdate.
type GroupUpdateType string

const (
	UpdatePlayQueue            GroupUpdateType = "PlayQueue"
	UpdateUserJoined           GroupUpdateType = "UserJoined"
	UpdateUserLeft             GroupUpdateType = "UserLeft"
	UpdateGroupJoined          GroupUpdateType = "GroupJoined"
	UpdateSyncPlayIsDisabled   GroupUpdateType = "SyncPlayIsDisabled"
	UpdateNotInGroup           GroupUpdateType = "NotInGroup"
	UpdateGroupLeft            GroupUpdateType = "GroupLeft"
	UpdateGroupUpdate          GroupUpdateType = "GroupUpdate"
	UpdateStateUpdate          GroupUpdateType = "StateUpdate"
	UpdateGroupDoesNotExist    GroupUpdateType = "GroupDoesNotExist"
	UpdateCreateGroupDenied    GroupUpdateType = "CreateGroupDenied"
	UpdateJoinGroupDenied      GroupUpdateType = "JoinGroupDenied"
	UpdateLibraryAccessDenied  GroupUpdateType = "LibraryAccessDenied"
)

// PlaybackCommand is the immutable command payload of a SyncPlayCommand message.
type PlaybackCommand struct {
	Command        CommandType  `json:"Command"`
	When           Instant      `json:"When"`
	EmittedAt      Instant      `json:"EmittedAt"`
	PositionTicks  *ticks.Ticks `json:"PositionTicks,omitempty"`
	PlaylistItemID string       `json:"PlaylistItemId"`
}

// Equal reports whether two commands match on the duplicate-detection fields
// named in §4.D: when, positionTicks, command, playlistItemId.
func (c PlaybackCommand) Equal(o PlaybackCommand) bool {
	if c.Command != o.Command || c.PlaylistItemID != o.PlaylistItemID {
		return false
	}
	if !c.When.Time().Equal(o.When.Time()) {
		return false
	}
	switch {
	case c.PositionTicks == nil && o.PositionTicks == nil:
		return true
	case c.PositionTicks == nil || o.PositionTicks == nil:
		return false
	default:
		return *c.PositionTicks == *o.PositionTicks
	}
}

// PlaylistItem is a single entry in the shared playlist.
type PlaylistItem struct {
	PlaylistItemID string `json:"PlaylistItemId"`
}

// QueueUpdate is the payload of a PlayQueue group update.
type QueueUpdate struct {
	Reason            QueueUpdateReason `json:"Reason"`
	LastUpdate        Instant           `json:"LastUpdate"`
	Playlist          []PlaylistItem    `json:"Playlist"`
	CurrentIndex      int               `json:"PlayingItemIndex"`
	StartPositionTicks ticks.Ticks      `json:"StartPositionTicks"`
	RepeatMode        RepeatMode        `json:"RepeatMode"`
	ShuffleMode       ShuffleMode       `json:"ShuffleMode"`
}

// AccessRights describes a single user's permissions within a group.
type AccessRights struct {
	PlaybackAccess bool `json:"PlaybackAccess"`
	PlaylistAccess bool `json:"PlaylistAccess"`
}

// GroupInfo describes the group a client currently belongs to.
type GroupInfo struct {
	GroupID        string                  `json:"GroupId"`
	Participants   []string                `json:"Participants"`
	Administrators []string                `json:"Administrators"`
	AccessList     map[string]AccessRights `json:"AccessList"`
	LastUpdatedAt  Instant                 `json:"LastUpdatedAt"`
}

// SyncPlayCommand is one of the two inbound message kinds (§6).
type SyncPlayCommand struct {
	Data PlaybackCommand `json:"Data"`
}

// SyncPlayGroupUpdate is the other inbound message kind (§6).
type SyncPlayGroupUpdate struct {
	Type GroupUpdateType `json:"Type"`
	Data any             `json:"Data"`
}

// BufferingRequest is the payload of requestSyncPlayBuffering.
type BufferingRequest struct {
	When           Instant      `json:"When"`
	PositionTicks  ticks.Ticks  `json:"PositionTicks"`
	IsPlaying      bool         `json:"IsPlaying"`
	PlaylistItemID string       `json:"PlaylistItemId"`
	BufferingDone  bool         `json:"BufferingDone"`
}

// PingRequest is the payload of sendSyncPlayPing.
type PingRequest struct {
	Ping int64 `json:"Ping"`
}
