package bubbletea

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/sdr"
)

// MessageBlock is a renderable element in the conversation.
// Unlike tea.Model, View takes a width parameter so the root model
// controls layout and blocks are testable in isolation.
type MessageBlock interface {
	Update(tea.Msg) (MessageBlock, tea.Cmd)
	View(width int) string
}

var (
	_ MessageBlock = (*TurnBlock)(nil)
	_ MessageBlock = (*NoticeBlock)(nil)
)

// TurnBlock renders one conversation turn: a header with the speaker label
// and time, followed by the text indented by two columns.
type TurnBlock struct {
	turn   sdr.Turn
	label  string
	styles Styles
}

// NewTurnBlock creates a TurnBlock. Label names the speaker in the header.
func NewTurnBlock(turn sdr.Turn, label string, styles Styles) *TurnBlock {
	return &TurnBlock{turn: turn, label: label, styles: styles}
}

func (b *TurnBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	return b, nil
}

func (b *TurnBlock) View(width int) string {
	name := b.styles.Counterpart
	if b.turn.FromAssistant() {
		name = b.styles.Assistant
	}
	header := name.Render(b.label)
	if !b.turn.SentAt.IsZero() {
		header += " " + b.styles.Muted.Render(b.turn.SentAt.Format("15:04"))
	}
	body := lipgloss.NewStyle().
		Width(max(width, 3)).
		PaddingLeft(2).
		Render(strings.TrimRight(b.turn.Text, "\n"))
	return header + "\n" + body
}

// NoticeBlock renders a single centered line such as the lead header or the
// hand-off banner.
type NoticeBlock struct {
	text  string
	style lipgloss.Style
}

// NewNoticeBlock creates a NoticeBlock rendered with style.
func NewNoticeBlock(text string, style lipgloss.Style) *NoticeBlock {
	return &NoticeBlock{text: text, style: style}
}

func (b *NoticeBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	return b, nil
}

func (b *NoticeBlock) View(width int) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Render(b.style.Render(b.text))
}
