// ABOUTME: Tests for TUI model and state management
// ABOUTME: Tests status updates, message handling, and state transitions
package ui

import (
	"strings"
	"testing"
)

func TestNewModel(t *testing.T) {
	model := NewModel(nil)

	if model.connected {
		t.Error("expected connected to be false initially")
	}
	if model.enabled {
		t.Error("expected enabled to be false initially")
	}
	if model.showDebug {
		t.Error("expected showDebug to be false initially")
	}
	if model.playbackState != "disabled" {
		t.Errorf("expected initial playbackState 'disabled', got %q", model.playbackState)
	}
}

func TestStatusMsgConnected(t *testing.T) {
	model := NewModel(nil)

	connected := true
	model.applyStatus(StatusMsg{Connected: &connected, ServerName: "test-server"})

	if !model.connected {
		t.Error("expected connected to be true after status update")
	}
	if model.serverName != "test-server" {
		t.Errorf("expected serverName 'test-server', got %q", model.serverName)
	}
}

func TestStatusMsgDisconnected(t *testing.T) {
	model := NewModel(nil)

	connected := true
	model.applyStatus(StatusMsg{Connected: &connected})

	disconnected := false
	model.applyStatus(StatusMsg{Connected: &disconnected})

	if model.connected {
		t.Error("expected connected to be false after disconnect")
	}
}

func TestStatusMsgGroupAndFollow(t *testing.T) {
	model := NewModel(nil)

	model.applyStatus(StatusMsg{
		GroupID:           "group-1",
		EnabledSet:        true,
		Enabled:           true,
		FollowingGroupSet: true,
		FollowingGroup:    true,
	})

	if model.groupID != "group-1" {
		t.Errorf("expected groupID 'group-1', got %q", model.groupID)
	}
	if !model.enabled {
		t.Error("expected enabled to be true")
	}
	if !model.followingGroup {
		t.Error("expected followingGroup to be true")
	}

	model.applyStatus(StatusMsg{FollowingGroupSet: true, FollowingGroup: false})
	if model.followingGroup {
		t.Error("expected followingGroup to flip false after halt")
	}
}

func TestStatusMsgSyncStats(t *testing.T) {
	model := NewModel(nil)

	model.applyStatus(StatusMsg{
		SyncReady:    true,
		SyncOffsetMs: -25,
		SyncPingMs:   40,
	})

	if !model.syncReady {
		t.Error("expected syncReady to be true")
	}
	if model.syncOffsetMs != -25 {
		t.Errorf("expected syncOffsetMs -25, got %d", model.syncOffsetMs)
	}
	if model.syncPingMs != 40 {
		t.Errorf("expected syncPingMs 40, got %d", model.syncPingMs)
	}
}

func TestStatusMsgPlaybackAndDrift(t *testing.T) {
	model := NewModel(nil)

	model.applyStatus(StatusMsg{
		PlaybackState:  "syncing",
		CurrentItemID:  "item-7",
		PlaylistLength: 3,
		PlayingIndex:   1,
		Buffering:      true,
		SyncingActive:  true,
		SyncingMethod:  "speedtosync",
		DiffMs:         300,
	})

	if model.playbackState != "syncing" {
		t.Errorf("playbackState = %q, want syncing", model.playbackState)
	}
	if model.currentItemID != "item-7" {
		t.Errorf("currentItemID = %q, want item-7", model.currentItemID)
	}
	if model.playlistLength != 3 || model.playingIndex != 1 {
		t.Errorf("playlist = (%d, %d), want (3, 1)", model.playlistLength, model.playingIndex)
	}
	if !model.buffering {
		t.Error("expected buffering to be true")
	}
	if !model.syncingActive || model.syncingMethod != "speedtosync" || model.diffMs != 300 {
		t.Errorf("drift fields not applied: active=%v method=%q diff=%d",
			model.syncingActive, model.syncingMethod, model.diffMs)
	}
}

func TestStatusMsgSyncingActiveClearsOnFollowupUpdate(t *testing.T) {
	model := NewModel(nil)

	model.applyStatus(StatusMsg{SyncingActive: true, SyncingMethod: "skiptosync"})
	if !model.syncingActive {
		t.Fatal("expected syncingActive true")
	}

	model.applyStatus(StatusMsg{SyncingActive: false})
	if model.syncingActive {
		t.Error("expected syncingActive to clear once correction ends")
	}
}

func TestStatusMsgLastMessage(t *testing.T) {
	model := NewModel(nil)

	model.applyStatus(StatusMsg{LastMessage: "MessageSyncPlayMissingPlaybackAccess"})
	if model.lastMessage != "MessageSyncPlayMissingPlaybackAccess" {
		t.Errorf("lastMessage = %q, want the symbolic key", model.lastMessage)
	}
}

func TestMultipleStatusUpdatesRetainPreviousValues(t *testing.T) {
	model := NewModel(nil)

	connected := true
	model.applyStatus(StatusMsg{Connected: &connected, GroupID: "group-1"})
	if model.groupID != "group-1" {
		t.Error("first update failed")
	}

	model.applyStatus(StatusMsg{PlaybackState: "idle"})
	if model.groupID != "group-1" {
		t.Error("previous groupID value was lost")
	}
	if model.playbackState != "idle" {
		t.Error("new playbackState not applied")
	}
}

func TestTruncateFunction(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly ten c", 14, "exactly ten c"},
		{"this is longer than allowed", 10, "this is..."},
		{"this is longer than allowed", 15, "this is long..."},
		{"", 10, ""},
		{"a", 10, "a"},
		{"abc", 3, "abc"},
		{"abcd", 4, "abcd"},
		{"abcde", 4, "a..."},
	}

	for _, tt := range tests {
		result := truncate(tt.input, tt.maxLen)
		if result != tt.expected {
			t.Errorf("truncate(%q, %d) = %q, expected %q",
				tt.input, tt.maxLen, result, tt.expected)
		}
	}
}

func TestViewRendersGroupAndHelp(t *testing.T) {
	model := NewModel(nil)
	model.width, model.height = 80, 24
	model.applyStatus(StatusMsg{EnabledSet: true, Enabled: true, GroupID: "group-9", FollowingGroupSet: true, FollowingGroup: true})

	out := model.View()
	if out == "" {
		t.Fatal("expected non-empty view once sized")
	}
	if !strings.Contains(out, "group-9") {
		t.Errorf("expected view to render group id, got:\n%s", out)
	}
	if !strings.Contains(out, "q:Quit") {
		t.Errorf("expected view to render help line, got:\n%s", out)
	}
}
