package bubbletea

import (
	"strings"

	"github.com/fwojciec/sdr"
	"github.com/mattn/go-runewidth"
)

// leadPanelWidth is the width of the outreach lead list, excluding the
// one-column gutter between the list and the conversation.
const leadPanelWidth = 28

// renderLeads renders the outreach lead list, two lines per lead, scrolled
// so the selected lead stays visible within height lines.
func renderLeads(leads []sdr.Lead, selected, width, height int, styles Styles) string {
	if len(leads) == 0 {
		return styles.Muted.Render(fit("Nenhum lead", width))
	}
	visible := max(height/2, 1)
	start := 0
	if selected >= visible {
		start = selected - visible + 1
	}
	end := min(start+visible, len(leads))

	var b strings.Builder
	for i := start; i < end; i++ {
		if i > start {
			b.WriteString("\n")
		}
		l := leads[i]
		badge := " " + string(l.Segment)
		name := fit(l.Name, width-2-runewidth.StringWidth(badge))
		if i == selected {
			b.WriteString(styles.Selected.Render("› " + name + badge))
		} else {
			b.WriteString("  " + styles.Accent.Render(name) + styles.Muted.Render(badge))
		}
		b.WriteString("\n")
		b.WriteString("  " + styles.Muted.Render(fit(l.Company, width-2)))
	}
	return b.String()
}

// fit truncates s to w display columns and pads it to exactly w.
func fit(s string, w int) string {
	if w <= 0 {
		return ""
	}
	return runewidth.FillRight(runewidth.Truncate(s, w, "…"), w)
}
