package sdr

import (
	"fmt"
	"sync"
)

// State is the lifecycle state of a Conversation.
type State int

const (
	StateEmpty    State = iota // No turns yet.
	StateOpen                  // Accepting sends.
	StateTerminal              // Handed off; absorbing.
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateOpen:
		return "open"
	case StateTerminal:
		return "terminal"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Snapshot is a point-in-time copy of a Conversation.
type Snapshot struct {
	Turns      []Turn
	Terminal   bool
	State      State
	Generation uint64
}

// Conversation is an append-only turn log with a monotonic terminal flag.
//
// Every mutation names the generation it was issued against. Reset bumps the
// generation, so results computed for an earlier incarnation of the
// conversation are rejected with ErrStale instead of leaking into the new one.
//
// A Conversation is safe for concurrent use.
type Conversation struct {
	mu         sync.RWMutex
	turns      []Turn
	terminal   bool
	handedOff  bool
	generation uint64
}

// Generation returns the current generation.
func (c *Conversation) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Terminal reports whether the conversation was handed off.
func (c *Conversation) Terminal() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.terminal
}

// State returns the lifecycle state.
func (c *Conversation) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state()
}

func (c *Conversation) state() State {
	switch {
	case c.terminal:
		return StateTerminal
	case len(c.turns) == 0:
		return StateEmpty
	default:
		return StateOpen
	}
}

// Turns returns a copy of the turn log in conversation order.
func (c *Conversation) Turns() []Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Turn(nil), c.turns...)
}

// Snapshot returns a consistent copy of the turns, flag, state and generation.
func (c *Conversation) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		Turns:      append([]Turn(nil), c.turns...),
		Terminal:   c.terminal,
		State:      c.state(),
		Generation: c.generation,
	}
}

// Append adds a turn. It fails with ErrStale when gen is not the current
// generation and with ErrTerminal once the conversation was handed off.
func (c *Conversation) Append(gen uint64, t Turn) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return fmt.Errorf("append turn: %w", ErrStale)
	}
	if c.terminal {
		return fmt.Errorf("append turn: %w", ErrTerminal)
	}
	c.turns = append(c.turns, t)
	return nil
}

// MarkTerminal flips the terminal flag. Marking an already terminal
// conversation is a no-op.
func (c *Conversation) MarkTerminal(gen uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return fmt.Errorf("mark terminal: %w", ErrStale)
	}
	c.terminal = true
	return nil
}

// AppendHandoff adds the single hand-off turn permitted after the terminal
// flip. It is always the last turn of the conversation.
func (c *Conversation) AppendHandoff(gen uint64, t Turn) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return fmt.Errorf("append hand-off: %w", ErrStale)
	}
	if !c.terminal {
		return fmt.Errorf("append hand-off to open conversation: %w", ErrValidation)
	}
	if c.handedOff {
		return fmt.Errorf("append hand-off: %w", ErrTerminal)
	}
	c.turns = append(c.turns, t)
	c.handedOff = true
	return nil
}

// Reset clears the log and the terminal flag and returns the new generation.
func (c *Conversation) Reset() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = nil
	c.terminal = false
	c.handedOff = false
	c.generation++
	return c.generation
}
