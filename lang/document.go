package lang

import (
	"strings"

	"golang.org/x/net/html"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

const doctype = "<!DOCTYPE html>"

// slotKind identifies a placeholder in authored document markup.
type slotKind int

const (
	slotNone slotKind = iota
	slotStyle
	slotScript
)

// part is a run of generated markup or a slot.
type part struct {
	text string
	slot slotKind
}

// markup accumulates generated body markup. Slots mark where the global
// style and script blocks go when the author wrote the html element.
type markup struct {
	parts []part
	sb    strings.Builder
}

func (m *markup) WriteString(s string) (int, error) { return m.sb.WriteString(s) }

func (m *markup) slot(k slotKind) {
	m.flush()
	m.parts = append(m.parts, part{slot: k})
}

func (m *markup) flush() {
	if m.sb.Len() > 0 {
		m.parts = append(m.parts, part{text: m.sb.String()})
		m.sb.Reset()
	}
}

// splitDocument cuts raw markup holding an html element into text runs and
// slots. The style slot precedes the first head end tag, or follows the html
// start tag when there is none. The script slot precedes the first body end
// tag, else the html end tag, else the end of the markup. It reports false
// when src has no html start tag.
func splitDocument(src string) ([]part, bool) {
	toks := tokenize(src)

	find := func(typ html.TokenType, name string) int {
		for i, t := range toks {
			if t.typ == typ && t.name == name {
				return i
			}
		}

		return -1
	}

	start := find(html.StartTagToken, "html")
	if start < 0 {
		return nil, false
	}

	// A slot goes before the token at its index, or at the end when the
	// index is past the last token or -1.
	style := find(html.EndTagToken, "head")
	if style < 0 {
		style = start + 1
	}

	script := find(html.EndTagToken, "body")
	if script < 0 {
		script = find(html.EndTagToken, "html")
	}

	var (
		parts []part
		sb    strings.Builder
	)

	cut := func(k slotKind) {
		if sb.Len() > 0 {
			parts = append(parts, part{text: sb.String()})
			sb.Reset()
		}

		parts = append(parts, part{slot: k})
	}

	for i, t := range toks {
		if i == style {
			cut(slotStyle)
		}

		if i == script {
			cut(slotScript)
		}

		sb.WriteString(t.raw)
	}

	if style >= len(toks) {
		cut(slotStyle)
	}

	if script < 0 {
		cut(slotScript)
	}

	if sb.Len() > 0 {
		parts = append(parts, part{text: sb.String()})
	}

	return parts, true
}

// Document is the assembled output: the head fragments of a synthesized
// document, the collected styles and scripts, and the body markup.
type Document struct {
	Lang    string
	Title   string
	Head    []g.Node
	Styles  []string
	Scripts []string

	body     []part
	authored bool // the body holds an author-written html element
}

func newDocument(opts Options, body *markup, authored bool, styles, scripts []string) *Document {
	body.flush()

	return &Document{
		Lang:  opts.Lang,
		Title: opts.Title,
		Head: []g.Node{
			h.Meta(h.Charset("UTF-8")),
			h.Meta(h.Name("viewport"), h.Content("width=device-width, initial-scale=1.0")),
			h.TitleEl(g.Text(opts.Title)),
		},
		Styles:   styles,
		Scripts:  scripts,
		body:     body.parts,
		authored: authored,
	}
}

// Authored reports whether the document element was written by the author.
func (d *Document) Authored() bool { return d.authored }

// Body returns the generated body markup. For an authored document, the
// style and script blocks are placed in their slots.
func (d *Document) Body() string {
	var sb strings.Builder

	for _, p := range d.body {
		switch p.slot {
		case slotStyle:
			sb.WriteString(d.styleBlock())
		case slotScript:
			sb.WriteString(d.scriptBlock())
		default:
			sb.WriteString(p.text)
		}
	}

	return sb.String()
}

// CSS returns the collected global stylesheet.
func (d *Document) CSS() string { return strings.Join(d.Styles, "\n") }

// JS returns the collected global script.
func (d *Document) JS() string { return strings.Join(d.Scripts, "\n") }

func (d *Document) styleBlock() string {
	if len(d.Styles) == 0 {
		return ""
	}

	return "<style>" + d.CSS() + "</style>"
}

func (d *Document) scriptBlock() string {
	if len(d.Scripts) == 0 {
		return ""
	}

	return "<script>" + d.JS() + "</script>"
}

// Render returns the complete HTML document.
func (d *Document) Render() string {
	var sb strings.Builder

	if d.authored {
		body := d.Body()
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(body)), "<!doctype") {
			sb.WriteString(doctype)
		}

		sb.WriteString(body)

		return sb.String()
	}

	head := append([]g.Node(nil), d.Head...)
	if len(d.Styles) > 0 {
		head = append(head, h.StyleEl(g.Raw(d.CSS())))
	}

	content := []g.Node{g.Raw(d.Body())}
	if len(d.Scripts) > 0 {
		content = append(content, h.Script(g.Raw(d.JS())))
	}

	sb.WriteString(doctype)

	// Rendering into a strings.Builder cannot fail.
	_ = h.HTML(
		h.Lang(d.Lang),
		h.Head(head...),
		h.Body(content...),
	).Render(&sb)

	return sb.String()
}
