package sdr

import (
	"fmt"
	"strings"
	"time"
)

// MatchMode controls how outgoing text is compared against the trigger
// phrase and the canned phrases.
type MatchMode int

const (
	MatchExact   MatchMode = iota // Byte-for-byte comparison.
	MatchTrimmed                  // Surrounding whitespace ignored.
	MatchFold                     // Whitespace ignored, Unicode case-insensitive.
)

// ParseMatchMode parses "exact", "trimmed" or "fold".
func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exact":
		return MatchExact, nil
	case "trimmed", "trim":
		return MatchTrimmed, nil
	case "fold", "insensitive":
		return MatchFold, nil
	default:
		return 0, fmt.Errorf("unknown match mode %q: %w", s, ErrValidation)
	}
}

func (m MatchMode) String() string {
	switch m {
	case MatchExact:
		return "exact"
	case MatchTrimmed:
		return "trimmed"
	case MatchFold:
		return "fold"
	default:
		return fmt.Sprintf("MatchMode(%d)", int(m))
	}
}

func (m MatchMode) equal(a, b string) bool {
	switch m {
	case MatchTrimmed:
		return strings.TrimSpace(a) == strings.TrimSpace(b)
	case MatchFold:
		return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
	default:
		return a == b
	}
}

// Policy is the routing table applied to every outgoing counterpart message.
type Policy struct {
	// Trigger is the immediate purchase intent phrase. Sending it hands the
	// conversation off and locks it.
	Trigger      string
	HandoffReply string
	HandoffDelay time.Duration

	// Canned maps quick-action phrases to pre-authored replies.
	Canned      map[string]string
	CannedDelay time.Duration

	Match MatchMode

	// UnavailableReply is used when no external session could be created.
	UnavailableReply string
}

// Decision is a sealed interface describing how a message is answered.
// The unexported marker method prevents external implementations.
type Decision interface {
	decision()
}

// Handoff flips the conversation to terminal and answers with Reply after Delay.
type Handoff struct {
	Reply string
	Delay time.Duration
}

func (Handoff) decision() {}

// Canned answers with a pre-authored Reply after Delay.
type Canned struct {
	Phrase string
	Reply  string
	Delay  time.Duration
}

func (Canned) decision() {}

// Forward sends the text to the external chat session.
type Forward struct{}

func (Forward) decision() {}

// Interface compliance checks.
var (
	_ Decision = Handoff{}
	_ Decision = Canned{}
	_ Decision = Forward{}
)

// Classify routes text. The trigger wins over canned phrases, and anything
// unmatched is forwarded.
func (p Policy) Classify(text string) Decision {
	if p.Trigger != "" && p.Match.equal(text, p.Trigger) {
		return Handoff{Reply: p.HandoffReply, Delay: p.HandoffDelay}
	}
	if reply, ok := p.Canned[text]; ok {
		return Canned{Phrase: text, Reply: reply, Delay: p.CannedDelay}
	}
	if p.Match != MatchExact {
		for phrase, reply := range p.Canned {
			if p.Match.equal(text, phrase) {
				return Canned{Phrase: phrase, Reply: reply, Delay: p.CannedDelay}
			}
		}
	}
	return Forward{}
}

// RouteName returns a short label for a decision, used in logs and metrics.
func RouteName(d Decision) string {
	switch d.(type) {
	case Handoff:
		return "handoff"
	case Canned:
		return "canned"
	case Forward:
		return "forward"
	default:
		return "unknown"
	}
}
