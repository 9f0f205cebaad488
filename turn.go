package sdr

import "time"

// Speaker identifies who produced a turn.
type Speaker string

const (
	SpeakerAssistant   Speaker = "assistant"
	SpeakerCounterpart Speaker = "counterpart"
)

// Turn is one message exchanged in a conversation. Turns are values and are
// never modified after creation.
type Turn struct {
	ID      string
	Text    string
	Speaker Speaker
	SentAt  time.Time
}

// FromAssistant reports whether the turn was produced by the assistant persona.
func (t Turn) FromAssistant() bool { return t.Speaker == SpeakerAssistant }
