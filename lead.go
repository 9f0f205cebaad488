package sdr

import (
	"fmt"
	"strings"
)

// Segment is the temperature of a lead base.
type Segment string

const (
	SegmentCold Segment = "fria"   // Prospecting.
	SegmentWarm Segment = "morna"  // Reactivation.
	SegmentHot  Segment = "quente" // Closing.
)

// Segments lists every segment from coldest to hottest.
func Segments() []Segment {
	return []Segment{SegmentCold, SegmentWarm, SegmentHot}
}

// ParseSegment accepts the Portuguese segment names and their English
// equivalents, case-insensitively.
func ParseSegment(s string) (Segment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fria", "cold":
		return SegmentCold, nil
	case "morna", "warm":
		return SegmentWarm, nil
	case "quente", "hot":
		return SegmentHot, nil
	default:
		return "", fmt.Errorf("unknown segment %q: %w", s, ErrValidation)
	}
}

// Valid reports whether s is one of the known segments.
func (s Segment) Valid() bool {
	switch s {
	case SegmentCold, SegmentWarm, SegmentHot:
		return true
	}
	return false
}

// Lead is a prospect contacted in outreach mode.
type Lead struct {
	ID      string
	Name    string
	Company string
	Phone   string
	Segment Segment
	Lines   int
}

// Validate checks the fields required to contact a lead.
func (l Lead) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("lead name is required: %w", ErrValidation)
	}
	if strings.TrimSpace(l.Company) == "" {
		return fmt.Errorf("lead company is required: %w", ErrValidation)
	}
	if !l.Segment.Valid() {
		return fmt.Errorf("lead %q has unknown segment %q: %w", l.Name, l.Segment, ErrValidation)
	}
	if l.Lines < 0 {
		return fmt.Errorf("lead %q has negative line count: %w", l.Name, ErrValidation)
	}
	return nil
}

// Mode distinguishes inbound visitors from outreach leads.
type Mode int

const (
	ModeInbound Mode = iota
	ModeOutreach
)

func (m Mode) String() string {
	if m == ModeOutreach {
		return "outreach"
	}
	return "inbound"
}

// Target is whoever the conversation is currently held with.
type Target struct {
	Mode Mode
	Lead Lead // zero for inbound
}

// Inbound returns the default visitor target.
func Inbound() Target { return Target{Mode: ModeInbound} }

// Outreach returns a target for the given lead.
func Outreach(lead Lead) Target { return Target{Mode: ModeOutreach, Lead: lead} }

// Personas holds the persona instructions and opening lines per target.
type Personas struct {
	Inbound  string
	Outreach map[Segment]string
	Greeting string
	Openers  map[Segment]string
}

// Instruction returns the system instruction for a target: the inbound
// persona, or the outreach variant for the lead's segment.
func (p Personas) Instruction(t Target) string {
	if t.Mode == ModeOutreach {
		return p.Outreach[t.Lead.Segment]
	}
	return p.Inbound
}

// Opening returns the first assistant line for a target: the inbound greeting
// or the outreach opener for the lead's segment.
func (p Personas) Opening(t Target) string {
	if t.Mode == ModeOutreach {
		if opener, ok := p.Openers[t.Lead.Segment]; ok {
			return opener
		}
	}
	return p.Greeting
}
