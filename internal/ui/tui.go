// ABOUTME: TUI initialization and control
// ABOUTME: Wraps bubbletea program for the SyncPlay demo client
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// NewControl allocates the channels the TUI uses to forward key presses
// back to the demo harness.
func NewControl() *Control {
	return &Control{
		Quit:         make(chan QuitMsg, 1),
		PlayPause:    make(chan struct{}, 1),
		ToggleFollow: make(chan struct{}, 1),
	}
}

// NewModel creates a new TUI model. control may be nil for tests that don't
// exercise key handling.
func NewModel(control *Control) Model {
	return Model{
		playbackState: "disabled",
		control:       control,
	}
}

// Run starts the TUI.
func Run(control *Control) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(control), tea.WithAltScreen())
	return p, nil
}
