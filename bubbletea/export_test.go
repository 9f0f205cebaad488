package bubbletea

import "github.com/fwojciec/sdr"

// RenderContent exports renderContent for testing.
func RenderContent(m Model) string {
	return m.renderContent()
}

// RenderLeads exports renderLeads for testing.
func RenderLeads(leads []sdr.Lead, selected, width, height int, styles Styles) string {
	return renderLeads(leads, selected, width, height, styles)
}

// Fit exports fit for testing.
var Fit = fit

// LeadPanelWidth exports leadPanelWidth for testing.
const LeadPanelWidth = leadPanelWidth
