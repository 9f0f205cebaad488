// Package bubbletea provides a Bubble Tea TUI that simulates the WhatsApp
// conversation with the SDR persona.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/sdr"
)

// Agent is the conversation driver the TUI talks to. It is satisfied by
// *agent.Agent.
type Agent interface {
	Select(ctx context.Context, target sdr.Target)
	Greet() (sdr.Turn, error)
	Send(ctx context.Context, text string) (sdr.Turn, error)
	Snapshot() sdr.Snapshot
	Target() sdr.Target
}

// Roster is the outreach lead list. It is satisfied by *sdr.Roster.
type Roster interface {
	List() []sdr.Lead
	Add(lead sdr.Lead) (sdr.Lead, error)
}

// Run creates and runs the Bubble Tea TUI program. It blocks until the program
// exits. When ctx is cancelled, the program quits.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// Forward returns an event handler that delivers events to ch without
// blocking. Events are dropped when ch is full; every delivered event makes
// the view re-read the agent snapshot.
func Forward(ch chan<- sdr.Event) func(sdr.Event) {
	return func(e sdr.Event) {
		select {
		case ch <- e:
		default:
		}
	}
}

// EventMsg wraps a conversation event for delivery to the Bubble Tea model.
type EventMsg struct {
	Event sdr.Event
}

// SelectedMsg signals that a conversation target was selected and, when
// requested, greeted.
type SelectedMsg struct {
	Target sdr.Target
	Err    error
}

// GreetedMsg signals that the opening line was requested.
type GreetedMsg struct {
	Err error
}

// SendDoneMsg signals that a send completed.
type SendDoneMsg struct {
	Turn sdr.Turn
	Err  error
}
