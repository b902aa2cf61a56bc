package lang

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

// SelectorKind classifies a style-block rule selector.
type SelectorKind int

const (
	// SelectorClass is a single class, optionally followed by pseudo
	// selectors: ".box", ".box:hover".
	SelectorClass SelectorKind = iota
	// SelectorID is a single id, optionally followed by pseudo selectors.
	SelectorID
	// SelectorContext begins with "&", the enclosing element.
	SelectorContext
	// SelectorPseudo begins with ":" and applies to the enclosing element.
	SelectorPseudo
	// SelectorElement is a plain element type such as "div" or "a:hover".
	SelectorElement
	// SelectorCompound is any other selector: lists, combinators, chains.
	SelectorCompound
)

func (k SelectorKind) String() string {
	switch k {
	case SelectorClass:
		return "class"
	case SelectorID:
		return "id"
	case SelectorContext:
		return "context"
	case SelectorPseudo:
		return "pseudo"
	case SelectorElement:
		return "element"
	case SelectorCompound:
		return "compound"
	default:
		return "unknown"
	}
}

// Selector is a classified rule selector. For class and id selectors, Name is
// the bare name and Suffix the remainder ("" or pseudo selectors). For context
// and pseudo selectors, Suffix is the text following "&" (or the whole
// selector, for pseudo).
type Selector struct {
	Kind   SelectorKind
	Text   string
	Name   string
	Suffix string
}

// ParseSelector classifies selector text.
func ParseSelector(text string) Selector {
	text = strings.TrimSpace(text)
	sel := Selector{Kind: SelectorCompound, Text: text}

	if text == "" {
		return sel
	}

	switch text[0] {
	case '&':
		sel.Kind = SelectorContext
		sel.Suffix = text[1:]

		return sel
	case ':':
		sel.Kind = SelectorPseudo
		sel.Suffix = text

		return sel
	case '.', '#':
		name, rest := splitName(text[1:])
		if name == "" || !isPseudoSuffix(rest) {
			return sel
		}

		sel.Kind = SelectorClass
		if text[0] == '#' {
			sel.Kind = SelectorID
		}

		sel.Name, sel.Suffix = name, rest

		return sel
	}

	if name, rest := splitName(text); name != "" && isPseudoSuffix(rest) {
		sel.Kind = SelectorElement
	}

	return sel
}

// splitName splits s after its leading CSS identifier.
func splitName(s string) (name, rest string) {
	i := 0
	for i < len(s) && isSelectorNameByte(s[i]) {
		i++
	}

	return s[:i], s[i:]
}

func isSelectorNameByte(c byte) bool {
	return c == '-' || c == '_' || c >= 0x80 ||
		(c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// isPseudoSuffix reports whether s is empty or a chain of pseudo-class and
// pseudo-element selectors with no combinator or further simple selectors.
func isPseudoSuffix(s string) bool {
	for s != "" {
		if s[0] != ':' {
			return false
		}

		s = strings.TrimPrefix(s[1:], ":")

		name, rest := splitName(s)
		if name == "" {
			return false
		}

		if strings.HasPrefix(rest, "(") {
			end := strings.IndexByte(rest, ')')
			if end < 0 {
				return false
			}

			rest = rest[end+1:]
		}

		s = rest
	}

	return true
}

// autoSelectors is the selector automation state of one element. It is
// computed before the element's opening tag is written.
type autoSelectors struct {
	class    string // existing or injected class, first token
	id       string // existing or injected id
	hasClass bool   // element declared a class attribute
	hasID    bool   // element declared an id attribute
	addClass string // class to inject
	addID    string // id to inject
}

func newAutoSelectors(elem *Node) *autoSelectors {
	a := &autoSelectors{}

	if v, ok := elem.Attr("class"); ok {
		a.hasClass = true
		if f := strings.Fields(v); len(f) > 0 {
			a.class = f[0]
		}
	}

	if v, ok := elem.Attr("id"); ok {
		a.hasID = true
		a.id = strings.TrimSpace(v)
	}

	return a
}

// offerClass records name as the element's class unless the element already has
// one. Only the first offer is kept.
func (a *autoSelectors) offerClass(name string) {
	if a.hasClass || a.class != "" {
		return
	}

	a.class, a.addClass = name, name
}

// offerID records name as the element's id unless one is already present.
func (a *autoSelectors) offerID(name string) {
	if a.hasID || a.id != "" {
		return
	}

	a.id, a.addID = name, name
}

// existing returns the class or id selector of the element without
// synthesizing one, or fallback when it has neither.
func (a *autoSelectors) existing(fallback string) string {
	switch {
	case a.class != "":
		return "." + a.class
	case a.id != "":
		return "#" + a.id
	}

	return fallback
}

// context returns the selector that "&" denotes, synthesizing a class when the
// element has neither class nor id.
func (a *autoSelectors) context(gc *GenerationContext) string {
	if sel := a.existing(""); sel != "" {
		return sel
	}

	name := gc.nextAutoClass()
	a.class, a.addClass = name, name

	return "." + name
}

// scriptContext returns the selector reference "{{&}}" denotes, preferring
// the id.
func (a *autoSelectors) scriptContext(gc *GenerationContext) string {
	if a.id != "" {
		return "#" + a.id
	}

	return a.context(gc)
}

// selectStyles runs selector automation over the direct style blocks of elem
// in source order, so "&" sees only the class or id established before it,
// and promotes every rule to the global stylesheet.
func (g *generation) selectStyles(elem *Node, auto *autoSelectors) {
	opts := g.gc.Options

	for block := range elem.ChildrenOf(KindStyleBlock) {
		for sel := range block.ChildrenOf(KindSelector) {
			text := sel.Selector.Text

			switch sel.Selector.Kind {
			case SelectorClass:
				if !opts.DisableStyleAutoAddClass {
					auto.offerClass(sel.Selector.Name)
				}
			case SelectorID:
				if !opts.DisableStyleAutoAddID {
					auto.offerID(sel.Selector.Name)
				}
			case SelectorContext:
				text = auto.context(g.gc) + sel.Selector.Suffix
			case SelectorPseudo:
				text = auto.existing(elem.Name) + sel.Selector.Suffix
			}

			g.emitRule(text, sel)
		}
	}

	if auto.addClass != "" {
		g.gc.classes[auto.addClass] = true
	}

	if auto.addID != "" {
		g.gc.ids[auto.addID] = true
	}
}

var scriptSelectorRef = regexp.MustCompile(`\{\{\s*([.#&])([^}\s]*)\s*\}\}`)

// selectScripts runs selector automation over the direct script blocks of
// elem and queues each script, after "{{&}}" substitution, for the global
// script list.
func (g *generation) selectScripts(elem *Node, auto *autoSelectors) {
	opts := g.gc.Options

	for block := range elem.ChildrenOf(KindScriptBlock) {
		for _, m := range scriptSelectorRef.FindAllStringSubmatch(block.Value, -1) {
			switch m[1] {
			case ".":
				if !opts.DisableScriptAutoAddClass && m[2] != "" {
					auto.offerClass(m[2])
				}
			case "#":
				if !opts.DisableScriptAutoAddID && m[2] != "" {
					auto.offerID(m[2])
				}
			}
		}
	}

	for block := range elem.ChildrenOf(KindScriptBlock) {
		src := scriptSelectorRef.ReplaceAllStringFunc(block.Value, func(ref string) string {
			m := scriptSelectorRef.FindStringSubmatch(ref)
			if m[1] != "&" {
				return ref
			}

			return "{{" + auto.scriptContext(g.gc) + m[2] + "}}"
		})

		g.emitScript(src, block)
	}
}

// emitRule formats one rule and appends it to the global stylesheet unless
// the same rule was already promoted.
func (g *generation) emitRule(selector string, rule *Node) {
	var css string

	if rule.Value != "" {
		css = selector + " {" + rule.Value + "}"
	} else {
		props := g.ruleProperties(rule)
		if props.Len() == 0 {
			g.logger.TraceContext(g.ctx, "empty rule",
				slog.String("selector", selector))

			return
		}

		css = selector + " { " + props.CSS() + " }"
	}

	if g.gc.rules[css] {
		g.logger.TraceContext(g.ctx, "duplicate rule",
			slog.String("selector", selector))

		return
	}

	g.gc.rules[css] = true
	g.emitStyle(css, rule)
}

// nextAutoClass returns a fresh synthesized class name.
func (gc *GenerationContext) nextAutoClass() string {
	for {
		gc.autoClass++
		name := "auto-class-" + strconv.Itoa(gc.autoClass)

		if !gc.classes[name] {
			return name
		}
	}
}
