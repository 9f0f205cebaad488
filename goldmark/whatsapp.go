// Package goldmark rewrites markdown from the language model into the
// lightweight markup WhatsApp displays: *bold*, _italic_, ~strike~,
// ```monospace``` and plain "- " lists. Links are spelled out because the
// channel shows no anchors.
package goldmark

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Format converts markdown source to WhatsApp markup. Text without markdown
// passes through unchanged apart from surrounding whitespace.
func Format(source string) string {
	if strings.TrimSpace(source) == "" {
		return ""
	}
	w := &whatsapp{parser: newParser()}
	return w.render([]byte(source))
}

func newParser() parser.Parser {
	return goldmark.New(goldmark.WithExtensions(extension.Strikethrough)).Parser()
}

type whatsapp struct {
	parser parser.Parser
}

func (w *whatsapp) render(source []byte) string {
	doc := w.parser.Parse(text.NewReader(source))
	var buf bytes.Buffer
	w.walkBlock(doc, source, &buf)
	return strings.TrimRight(buf.String(), "\n")
}

func (w *whatsapp) walkBlock(node ast.Node, source []byte, buf *bytes.Buffer) {
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		w.renderBlock(c, source, buf)
	}
}

func (w *whatsapp) renderBlock(node ast.Node, source []byte, buf *bytes.Buffer) {
	switch n := node.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		buf.WriteString(w.collectInline(n, source))
		buf.WriteString("\n")

	case *ast.Heading:
		buf.WriteString(wrap("*", w.collectInline(n, source)))
		buf.WriteString("\n")

	case *ast.FencedCodeBlock:
		w.writeCode(n, source, buf)

	case *ast.CodeBlock:
		w.writeCode(n, source, buf)

	case *ast.List:
		w.renderList(n, source, buf, 0)

	case *ast.Blockquote:
		var inner bytes.Buffer
		w.walkBlock(n, source, &inner)
		for _, line := range strings.Split(strings.TrimRight(inner.String(), "\n"), "\n") {
			buf.WriteString("> " + line + "\n")
		}

	case *ast.ThematicBreak:
		buf.WriteString("---\n")

	case *ast.HTMLBlock:
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(source))
		}

	default:
		w.walkBlock(node, source, buf)
	}
	if node.NextSibling() != nil && node.Parent() != nil && node.Parent().Kind() == ast.KindDocument {
		buf.WriteString("\n")
	}
}

func (w *whatsapp) writeCode(node ast.Node, source []byte, buf *bytes.Buffer) {
	buf.WriteString("```\n")
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.WriteString(strings.TrimRight(string(line.Value(source)), "\n"))
		buf.WriteString("\n")
	}
	buf.WriteString("```\n")
}

func (w *whatsapp) renderList(node *ast.List, source []byte, buf *bytes.Buffer, depth int) {
	indent := strings.Repeat("  ", depth)
	num := node.Start
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		item, ok := c.(*ast.ListItem)
		if !ok {
			continue
		}
		marker := "- "
		if node.IsOrdered() {
			marker = fmt.Sprintf("%d. ", num)
			num++
		}
		for ic := item.FirstChild(); ic != nil; ic = ic.NextSibling() {
			switch in := ic.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				buf.WriteString(indent + marker + w.collectInline(in, source) + "\n")
				marker = strings.Repeat(" ", len(marker))
			case *ast.List:
				w.renderList(in, source, buf, depth+1)
			default:
				w.renderBlock(ic, source, buf)
			}
		}
	}
}

func (w *whatsapp) collectInline(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		w.renderInline(c, source, &buf)
	}
	return buf.String()
}

func (w *whatsapp) renderInline(node ast.Node, source []byte, buf *bytes.Buffer) {
	switch n := node.(type) {
	case *ast.Text:
		buf.Write(n.Segment.Value(source))
		if n.SoftLineBreak() || n.HardLineBreak() {
			buf.WriteByte('\n')
		}

	case *ast.String:
		buf.Write(n.Value)

	case *ast.Emphasis:
		inner := w.collectInline(n, source)
		if n.Level == 1 {
			buf.WriteString(wrap("_", inner))
		} else {
			buf.WriteString(wrap("*", inner))
		}

	case *extast.Strikethrough:
		buf.WriteString(wrap("~", w.collectInline(n, source)))

	case *ast.CodeSpan:
		buf.WriteString(wrap("`", w.collectInline(n, source)))

	case *ast.Link:
		inner := w.collectInline(n, source)
		url := string(n.Destination)
		if inner == "" || inner == url {
			buf.WriteString(url)
		} else {
			buf.WriteString(inner + " (" + url + ")")
		}

	case *ast.AutoLink:
		buf.Write(n.URL(source))

	case *ast.Image:
		alt := w.collectInline(n, source)
		buf.WriteString(strings.TrimSpace(alt + " " + string(n.Destination)))

	case *ast.RawHTML:
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			buf.Write(seg.Value(source))
		}

	default:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			w.renderInline(c, source, buf)
		}
	}
}

// wrap surrounds s with marker. Edge whitespace stays outside the markers;
// WhatsApp only styles markers that touch the text.
func wrap(marker, s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	lead := s[:strings.Index(s, trimmed)]
	trail := s[len(lead)+len(trimmed):]
	return lead + marker + trimmed + marker + trail
}
