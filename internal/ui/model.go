// ABOUTME: Bubbletea model for the SyncPlay demo TUI
// ABOUTME: Defines application state and update logic
package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Model represents the TUI state.
type Model struct {
	// Connection
	connected  bool
	serverName string

	// Group session
	groupID        string
	enabled        bool
	followingGroup bool

	// Time sync
	syncOffsetMs int64
	syncPingMs   int64
	syncReady    bool

	// Playback
	playbackState  string
	currentItemID  string
	playlistLength int
	playingIndex   int
	buffering      bool

	// Drift correction
	syncingActive bool
	syncingMethod string
	diffMs        int64

	// Last observed notification
	lastMessage string

	// Debug
	showDebug bool

	// Dimensions
	width  int
	height int

	control *Control
}

// Control lets the TUI forward user intent (unpause/pause/follow toggle)
// back to the owning Manager without importing it directly.
type Control struct {
	Quit           chan QuitMsg
	PlayPause      chan struct{}
	ToggleFollow   chan struct{}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := ""
	s += m.renderHeader()
	s += m.renderGroup()
	s += m.renderPlayback()

	if m.showDebug {
		s += m.renderDebug()
	}

	s += m.renderHelp()

	return s
}

func (m Model) innerWidth() (width, inner int) {
	width = m.width
	if width < 60 {
		width = 60
	}
	return width, width - 4
}

// renderHeader renders connection and time-sync status.
func (m Model) renderHeader() string {
	connStatus := "Disconnected"
	if m.connected {
		connStatus = fmt.Sprintf("Connected to %s", m.serverName)
	}

	syncIcon := "✗"
	syncText := "No samples yet"
	switch {
	case m.syncReady:
		syncIcon = "✓"
		syncText = fmt.Sprintf("offset %+dms  ping %dms", m.syncOffsetMs, m.syncPingMs)
	}

	width, innerWidth := m.innerWidth()
	titleWidth := width - 18
	title := "┌─ SyncPlay Client " + repeatString("─", titleWidth) + "┐\n"

	statusLine := fmt.Sprintf("│ Status: %-*s │\n", innerWidth-9, truncate(connStatus, innerWidth-9))
	syncLine := fmt.Sprintf("│ Sync:   %s %-*s │\n", syncIcon, innerWidth-11, truncate(syncText, innerWidth-11))
	separator := "├" + repeatString("─", width-2) + "┤\n"

	return title + statusLine + syncLine + separator
}

// renderGroup renders the current group membership and follow state.
func (m Model) renderGroup() string {
	_, innerWidth := m.innerWidth()

	if !m.enabled {
		return fmt.Sprintf("│ %-*s │\n", innerWidth, "Not in a SyncPlay group")
	}

	follow := "halted (not following group)"
	if m.followingGroup {
		follow = "following group"
	}

	groupLine := fmt.Sprintf("│ Group:  %-*s │\n", innerWidth-9, truncate(m.groupID, innerWidth-9))
	followLine := fmt.Sprintf("│ Mode:   %-*s │\n", innerWidth-9, truncate(follow, innerWidth-9))

	return groupLine + followLine
}

// renderPlayback renders playback state, current item, and drift correction.
func (m Model) renderPlayback() string {
	width, innerWidth := m.innerWidth()

	item := m.currentItemID
	if item == "" {
		item = "(none)"
	}
	itemLine := fmt.Sprintf("│ Item:   %-*s │\n", innerWidth-9, truncate(item, innerWidth-9))

	stateStr := m.playbackState
	if m.buffering {
		stateStr += " (buffering)"
	}
	stateLine := fmt.Sprintf("│ State:  %-*s │\n", innerWidth-9, truncate(stateStr, innerWidth-9))

	driftStr := "none"
	if m.syncingActive {
		driftStr = fmt.Sprintf("%s (diff %+dms)", m.syncingMethod, m.diffMs)
	}
	driftLine := fmt.Sprintf("│ Drift:  %-*s │\n", innerWidth-9, truncate(driftStr, innerWidth-9))

	separator := "├" + repeatString("─", width-2) + "┤\n"
	msgLine := fmt.Sprintf("│ %-*s │\n", innerWidth, truncate(m.lastMessage, innerWidth))

	return itemLine + stateLine + driftLine + separator + msgLine
}

// renderHelp renders keyboard shortcuts.
func (m Model) renderHelp() string {
	width, innerWidth := m.innerWidth()

	helpStr := "space:Play/Pause  f:Follow/Halt  d:Debug  q:Quit"
	helpLine := fmt.Sprintf("│ %-*s │\n", innerWidth, helpStr)
	bottom := "└" + repeatString("─", width-2) + "┘\n"

	return helpLine + bottom
}

// renderDebug renders debug information.
func (m Model) renderDebug() string {
	_, innerWidth := m.innerWidth()

	debugTitle := fmt.Sprintf("│ %-*s │\n", innerWidth, "DEBUG:")
	playlistStr := fmt.Sprintf("  Playlist: %d items, playing index %d", m.playlistLength, m.playingIndex)
	playlistLine := fmt.Sprintf("│ %-*s │\n", innerWidth, playlistStr)
	offsetStr := fmt.Sprintf("  Raw offset: %+dms", m.syncOffsetMs)
	offsetLine := fmt.Sprintf("│ %-*s │\n", innerWidth, offsetStr)

	return debugTitle + playlistLine + offsetLine
}

// handleKey handles keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.control != nil {
			select {
			case m.control.Quit <- QuitMsg{}:
			default:
			}
		}
		return m, tea.Quit
	case " ":
		if m.control != nil {
			select {
			case m.control.PlayPause <- struct{}{}:
			default:
			}
		}
	case "f":
		if m.control != nil {
			select {
			case m.control.ToggleFollow <- struct{}{}:
			default:
			}
		}
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

// applyStatus updates model fields from a StatusMsg. Zero-valued fields are
// treated as "not sent", mirroring the teacher's partial-update convention,
// with two exceptions: Buffering and SyncingActive are overwritten by every
// message, and PlayingIndex is applied only together with a non-zero
// PlaylistLength.
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Connected != nil {
		m.connected = *msg.Connected
	}
	if msg.ServerName != "" {
		m.serverName = msg.ServerName
	}
	if msg.GroupID != "" {
		m.groupID = msg.GroupID
	}
	if msg.EnabledSet {
		m.enabled = msg.Enabled
	}
	if msg.FollowingGroupSet {
		m.followingGroup = msg.FollowingGroup
	}
	if msg.SyncReady {
		m.syncReady = true
		m.syncOffsetMs = msg.SyncOffsetMs
		m.syncPingMs = msg.SyncPingMs
	}
	if msg.PlaybackState != "" {
		m.playbackState = msg.PlaybackState
	}
	if msg.CurrentItemID != "" {
		m.currentItemID = msg.CurrentItemID
	}
	if msg.PlaylistLength != 0 {
		m.playlistLength = msg.PlaylistLength
		m.playingIndex = msg.PlayingIndex
	}
	m.buffering = msg.Buffering
	m.syncingActive = msg.SyncingActive
	if msg.SyncingMethod != "" {
		m.syncingMethod = msg.SyncingMethod
	}
	if msg.DiffMs != 0 {
		m.diffMs = msg.DiffMs
	}
	if msg.LastMessage != "" {
		m.lastMessage = msg.LastMessage
	}
}

// StatusMsg updates TUI state.
type StatusMsg struct {
	Connected  *bool
	ServerName string

	GroupID           string
	EnabledSet        bool
	Enabled           bool
	FollowingGroupSet bool
	FollowingGroup    bool

	SyncReady    bool
	SyncOffsetMs int64
	SyncPingMs   int64

	PlaybackState  string
	CurrentItemID  string
	PlaylistLength int
	PlayingIndex   int
	Buffering      bool

	SyncingActive bool
	SyncingMethod string
	DiffMs        int64

	LastMessage string
}

// QuitMsg signals the player should quit.
type QuitMsg struct{}

// Utility functions
func truncate(s string, length int) string {
	if length <= 0 {
		return ""
	}
	if len(s) <= length {
		return s
	}
	if length <= 3 {
		return s[:length]
	}
	return s[:length-3] + "..."
}

func repeatString(s string, count int) string {
	if count <= 0 {
		return ""
	}
	return strings.Repeat(s, count)
}
