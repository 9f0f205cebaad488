package sdr

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates configuration, a lead, or a policy failed validation.
	ErrValidation = errors.New("validation error")

	// ErrSessionNotInitialized indicates no external chat session could be
	// created, even after a lazy retry.
	ErrSessionNotInitialized = errors.New("chat session not initialized")

	// ErrTerminal indicates the conversation was handed off and accepts no
	// further sends.
	ErrTerminal = errors.New("conversation is terminal")

	// ErrBusy indicates another send is still in flight for the conversation.
	ErrBusy = errors.New("send already in flight")

	// ErrEmptyMessage indicates the outgoing text was blank.
	ErrEmptyMessage = errors.New("empty message")

	// ErrStale indicates a result was issued against a conversation that has
	// since been reset; the result is discarded.
	ErrStale = errors.New("stale conversation generation")

	// ErrConversationStarted indicates an opening turn was requested for a
	// conversation that already has turns.
	ErrConversationStarted = errors.New("conversation already started")
)
