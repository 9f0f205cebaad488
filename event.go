package sdr

// Event is a sealed interface describing a change to the conversation held by
// an agent. Presentation layers re-render on every event.
// The unexported marker method prevents external implementations.
type Event interface {
	event()
}

// EventTurn signals that a turn was appended.
type EventTurn struct {
	Turn Turn
}

func (EventTurn) event() {}

// EventTerminal signals that the conversation was handed off. It is emitted
// before the delayed hand-off turn is appended.
type EventTerminal struct{}

func (EventTerminal) event() {}

// EventReset signals that a new conversation target was selected.
type EventReset struct {
	Target     Target
	Generation uint64
}

func (EventReset) event() {}

// Interface compliance checks.
var (
	_ Event = EventTurn{}
	_ Event = EventTerminal{}
	_ Event = EventReset{}
)
