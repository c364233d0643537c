// ABOUTME: TUI program setup for interactive playback
// ABOUTME: Wires the bridge into a bubbletea program running on the alt screen
package ui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the TUI until the user quits or ctx ends
func Run(ctx context.Context, model Model, bridge *Bridge) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	go bridge.Run(ctx, p.Send)

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
