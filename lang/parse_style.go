package lang

import (
	"log/slog"
	"strings"

	"github.com/ardnew/chtl/lang/token"
)

// parseStyle parses a style block. Directly under an element it is a local
// style block subject to selector automation; anywhere else it is a global
// style block whose rules are copied to the stylesheet.
func (b *Builder) parseStyle() *Node {
	n := NewNode(KindStyleBlock, b.next())

	if _, ok := b.expect(token.LBrace); !ok {
		b.syncStatement()

		return nil
	}

	if b.in(stateElement) {
		defer b.enter(stateStyleBlock)()
	} else {
		defer b.enter(stateGlobalStyle)()
	}

	b.parseStyleItems(n, true)
	b.accept(token.RBrace)

	return n
}

// parseScript parses a script block, capturing its body verbatim.
func (b *Builder) parseScript() *Node {
	n := NewNode(KindScriptBlock, b.next())

	defer b.enter(stateScriptBlock)()

	raw, ok := b.captureRaw()
	if !ok {
		b.syncStatement()

		return nil
	}

	n.Value = raw

	return n
}

// parseStyleBody parses the braced body of a @Style or @Var definition.
func (b *Builder) parseStyleBody(n *Node) {
	if _, ok := b.expect(token.LBrace); !ok {
		b.syncStatement()

		return
	}

	b.parseStyleItems(n, true)
	b.accept(token.RBrace)
}

// parseStyleItems parses the items of a style block, a style or var
// definition, a rule body, or a style specialization.
func (b *Builder) parseStyleItems(parent *Node, closing bool) {
	for {
		tok := b.cur()

		switch tok.Kind {
		case token.EOF:
			if closing {
				b.expected(token.RBrace)
			}

			return
		case token.RBrace:
			if closing {
				return
			}

			b.unexpected()

			continue
		case token.Semicolon:
			b.next()

			continue
		case token.LineComment, token.BlockComment, token.GeneratorComment:
			parent.Append(b.parseComment())

			continue
		case token.MarkTemplate, token.MarkCustom:
			parent.Append(b.parseDefinition())

			continue
		case token.TypeTag:
			b.next()
			parent.Append(b.parseReference(tok, tok))

			continue
		case token.KeywordInherit:
			parent.Append(b.parseInherit())

			continue
		case token.KeywordDelete:
			parent.Append(b.parseDelete())

			continue
		}

		if b.in(stateStyleBlock, stateGlobalStyle) && b.startsRule() {
			parent.Append(b.parseRule())

			continue
		}

		parent.Append(b.parseProperties()...)
	}
}

// startsRule reports whether the statement at the cursor is a selector rule,
// that is, whether an opening brace precedes the next semicolon or closing
// brace.
func (b *Builder) startsRule() bool {
	for i := 0; ; i++ {
		switch b.peek(i).Kind {
		case token.LBrace:
			return true
		case token.Semicolon, token.RBrace, token.EOF:
			return false
		}
	}
}

// parseRule parses "selector { properties }". At-rules such as @media keep
// their body verbatim.
func (b *Builder) parseRule() *Node {
	first := b.cur()

	var sel []token.Token

	for !b.at(token.LBrace, token.EOF) {
		if tok := b.next(); !tok.Kind.IsComment() {
			sel = append(sel, tok)
		}
	}

	n := NewNode(KindSelector, first)
	n.Selector = ParseSelector(token.Join(sel))

	if strings.HasPrefix(n.Selector.Text, "@") {
		raw, _ := b.captureRaw()
		n.Value = " " + raw + " "

		return n
	}

	b.next()

	defer b.enter(stateStyleDef)()

	b.parseStyleItems(n, true)
	b.accept(token.RBrace)

	return n
}

// parseProperties parses one property statement:
//
//	name: value;
//	name = value;
//	name, name;   (valueless, custom style definitions only)
func (b *Builder) parseProperties() []*Node {
	start := b.cur()
	toks := b.collectUntil(token.Semicolon)

	if b.at(token.LBrace) {
		b.unexpected()
		b.collectBalanced()

		return nil
	}

	b.accept(token.Semicolon)

	if len(toks) == 0 {
		b.report(ParseError, start.Pos, ErrUnexpectedToken.
			With(slog.String("found", describe(start))))

		return nil
	}

	for i, t := range toks {
		if t.Kind == token.Colon || t.Kind == token.Equal {
			return []*Node{b.property(toks[:i], t, toks[i+1:])}
		}
	}

	if !b.within(stateCustom) && !b.in(stateSpecialization) {
		b.report(ParseError, start.Pos, ErrExpectedToken.With(
			slog.String("expected", ":"),
			slog.String("found", token.Join(toks))))

		return nil
	}

	var (
		props []*Node
		name  []token.Token
	)

	flush := func() {
		if len(name) > 0 {
			p := NewNode(KindProperty, name[0])
			p.Name = token.Join(name)
			props = append(props, p)
		}

		name = nil
	}

	for _, t := range toks {
		if t.Kind == token.Comma {
			flush()

			continue
		}

		name = append(name, t)
	}

	flush()

	return props
}

// property builds a Property node from its name and value tokens.
func (b *Builder) property(name []token.Token, sep token.Token, value []token.Token) *Node {
	if len(name) == 0 {
		b.report(ParseError, sep.Pos, ErrExpectedToken.With(
			slog.String("expected", "property name"),
			slog.String("found", sep.Text)))

		return nil
	}

	p := NewNode(KindProperty, name[0])
	p.Name = token.Join(name)
	p.Equal = sep.Kind == token.Equal
	p.Value = token.Join(value)

	if b.in(stateVarDef) || b.within(stateConfiguration) {
		p.Value = unquoteValue(value)
	}

	if b.within(stateConfiguration) {
		// Option evaluation distinguishes quoted strings from expressions.
		p.Raw = token.Join(value)

		return p
	}

	p.Append(valueSegments(value)...)

	return p
}

// valueSegments splits a property value into Literal and VariableReference
// segments when it contains a variable group reference such as
// "ThemeColor(primary)" or "ThemeColor(primary = red)". It returns nil when
// the value has no such reference.
func valueSegments(toks []token.Token) []*Node {
	var (
		segs  []*Node
		run   []token.Token
		found bool
	)

	flush := func() {
		if len(run) > 0 {
			lit := NewNode(KindLiteral, run[0])
			lit.Value = token.Join(run)
			segs = append(segs, lit)
		}

		run = nil
	}

	for i := 0; i < len(toks); i++ {
		ref, n := varReference(toks[i:])
		if ref == nil {
			run = append(run, toks[i])

			continue
		}

		flush()

		segs = append(segs, ref)
		found = true
		i += n - 1
	}

	if !found {
		return nil
	}

	flush()

	return segs
}

// varReference recognizes "Group(key)" or "Group(key = value)" at the start
// of toks and returns the reference with the number of tokens it spans.
func varReference(toks []token.Token) (*Node, int) {
	if len(toks) < 4 || toks[0].Kind != token.Identifier ||
		toks[1].Kind != token.LParen || toks[1].Lead != "" || !toks[2].IsWord() {
		return nil, 0
	}

	ref := NewNode(KindVariableReference, toks[0])
	ref.Name = toks[0].Text
	ref.Value = toks[2].Text

	switch toks[3].Kind {
	case token.RParen:
		ref.Raw = token.Join(toks[:4])

		return ref, 4
	case token.Equal:
		for j := 4; j < len(toks); j++ {
			if toks[j].Kind == token.RParen {
				if j == 4 {
					return nil, 0
				}

				override := NewNode(KindProperty, toks[2])
				override.Name = ref.Value
				override.Value = unquoteValue(toks[4:j])
				ref.Append(override)
				ref.Raw = token.Join(toks[:j+1])

				return ref, j + 1
			}
		}
	}

	return nil, 0
}

// ownProperties returns the properties a style or var definition declares
// directly, in order.
func ownProperties(n *Node) *Properties {
	props := NewProperties()

	for p := range n.ChildrenOf(KindProperty) {
		props.Set(Property{Name: p.Name, Value: p.Value, Pos: p.Pos()})
	}

	return props
}

// inherits returns the qualified names a definition inherits from or
// composes.
func inherits(n *Node) []string {
	var names []string

	for _, c := range n.Children {
		if c.IsReference() {
			names = append(names, c.QualifiedName())
		}
	}

	return names
}
