package sdr

// Theme defines semantic color mappings using ANSI color indices (0-15).
// The user's terminal theme determines the actual RGB values, so the app
// automatically matches any color scheme.
type Theme struct {
	Assistant   int // Persona name and assistant turns
	Counterpart int // Counterpart prefix
	Handoff     int // Terminal status and hand-off turn
	Online      int // Online status indicator
	Error       int // Error messages
	Muted       int // Status bar, placeholders, timestamps
	Accent      int // Headings, selected lead
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		Assistant:   5,
		Counterpart: 4,
		Handoff:     3,
		Online:      2,
		Error:       1,
		Muted:       8,
		Accent:      6,
	}
}
