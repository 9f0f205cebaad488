package sdr

import (
	"fmt"
	"strings"
)

// Validate checks universal constraints on SessionConfig.
// Provider implementations may apply additional provider-specific validation.
func (c SessionConfig) Validate() error {
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be in [0, 2], got %g: %w", c.Temperature, ErrValidation)
	}
	if c.MaxOutputTokens < 0 {
		return fmt.Errorf("max_output_tokens must be non-negative, got %d: %w", c.MaxOutputTokens, ErrValidation)
	}
	return nil
}

// Validate checks that the routing table is unambiguous.
func (p Policy) Validate() error {
	if strings.TrimSpace(p.Trigger) == "" {
		return fmt.Errorf("trigger phrase is required: %w", ErrValidation)
	}
	if strings.TrimSpace(p.HandoffReply) == "" {
		return fmt.Errorf("hand-off reply is required: %w", ErrValidation)
	}
	if p.HandoffDelay < 0 || p.CannedDelay < 0 {
		return fmt.Errorf("delays must be non-negative: %w", ErrValidation)
	}
	if p.Match < MatchExact || p.Match > MatchFold {
		return fmt.Errorf("unknown match mode %d: %w", int(p.Match), ErrValidation)
	}
	phrases := make([]string, 0, len(p.Canned))
	for phrase, reply := range p.Canned {
		if strings.TrimSpace(reply) == "" {
			return fmt.Errorf("canned phrase %q has empty reply: %w", phrase, ErrValidation)
		}
		if p.Match.equal(phrase, p.Trigger) {
			return fmt.Errorf("canned phrase %q shadows the trigger: %w", phrase, ErrValidation)
		}
		for _, other := range phrases {
			if p.Match.equal(phrase, other) {
				return fmt.Errorf("canned phrases %q and %q collide under %s matching: %w", phrase, other, p.Match, ErrValidation)
			}
		}
		phrases = append(phrases, phrase)
	}
	return nil
}

// Validate checks that every target has an instruction.
func (p Personas) Validate() error {
	if strings.TrimSpace(p.Inbound) == "" {
		return fmt.Errorf("inbound instruction is required: %w", ErrValidation)
	}
	for _, s := range Segments() {
		if strings.TrimSpace(p.Outreach[s]) == "" {
			return fmt.Errorf("outreach instruction for segment %q is required: %w", s, ErrValidation)
		}
	}
	for s := range p.Openers {
		if !s.Valid() {
			return fmt.Errorf("opener for unknown segment %q: %w", s, ErrValidation)
		}
	}
	return nil
}

// Validate checks the whole configuration.
func (c Config) Validate() error {
	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if err := c.Policy.Validate(); err != nil {
		return fmt.Errorf("policy: %w", err)
	}
	if err := c.Personas.Validate(); err != nil {
		return fmt.Errorf("personas: %w", err)
	}
	if strings.TrimSpace(c.Fallback) == "" {
		return fmt.Errorf("fallback reply is required: %w", ErrValidation)
	}
	return nil
}
