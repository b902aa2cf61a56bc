package lang

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/ardnew/chtl/lang/lexer"
	"github.com/ardnew/chtl/lang/token"
)

// Builder turns a token stream into a syntax tree, registering every
// declaration it encounters into its [SymbolMap].
//
// The builder never fails: malformed input is reported to the diagnostics
// sink and the offending token is skipped.
type Builder struct {
	settings

	ctx    context.Context
	stream token.Stream
	file   string
	states []state

	aliases     map[string]string // type tag alias -> canonical tag
	originTypes map[string]bool
	constraints [][]Target
	imports     *importState
	depth       int
}

// NewBuilder returns a builder configured by opts.
func NewBuilder(opts ...Option) *Builder {
	return newBuilder(makeSettings(opts...))
}

func newBuilder(s settings) *Builder {
	return &Builder{
		settings:    s,
		aliases:     make(map[string]string),
		originTypes: make(map[string]bool),
		imports:     newImportState(),
	}
}

// child returns a builder for an imported file. It shares the symbol map,
// configuration, and import state of b.
func (b *Builder) child(symbols *SymbolMap) *Builder {
	c := newBuilder(b.settings)
	c.symbols = symbols
	c.imports = b.imports
	c.depth = b.depth + 1

	return c
}

// Symbols returns the symbol map populated by the builder.
func (b *Builder) Symbols() *SymbolMap { return b.symbols }

// Build parses stream, the tokens of the source file named file.
func (b *Builder) Build(
	ctx context.Context,
	stream token.Stream,
	file string,
) *Node {
	b.ctx, b.stream, b.file = ctx, stream, file
	defer b.imports.visit(file)()

	root := NewNode(KindRoot, token.Token{
		Pos: token.Position{File: file, Line: 1, Column: 1},
	})
	root.Name = file

	defer b.enter(stateTop)()

	b.parseItems(root, false)

	b.logger.TraceContext(ctx, "build complete",
		slog.String("file", file),
		slog.Int("children", len(root.Children)),
		slog.Int("symbols", b.symbols.Len()))

	return root
}

// BuildSource tokenizes and parses src.
func (b *Builder) BuildSource(
	ctx context.Context,
	file string,
	src []byte,
) *Node {
	return b.Build(ctx, lexer.NewStream(file, src), file)
}

// BuildReader reads r fully and parses its content.
func (b *Builder) BuildReader(
	ctx context.Context,
	file string,
	r io.Reader,
) (*Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).With(slog.String("file", file))
	}

	return b.BuildSource(ctx, file, data), nil
}

// parseItems parses block items into parent. When closing is set, parsing
// stops before the closing brace; otherwise it continues to end of input.
func (b *Builder) parseItems(parent *Node, closing bool) {
	b.constraints = append(b.constraints, nil)
	defer func() { b.constraints = b.constraints[:len(b.constraints)-1] }()

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
		}

		n := b.parseItem()
		if n == nil {
			continue
		}

		if n.Kind == KindConstraint {
			top := len(b.constraints) - 1
			b.constraints[top] = append(b.constraints[top], n.Targets...)
		} else if !b.allowed(n) {
			continue
		}

		parent.Append(n)
	}
}

// parseItem parses one item of an element, definition, or the top level.
func (b *Builder) parseItem() *Node {
	tok := b.cur()

	switch tok.Kind {
	case token.LineComment, token.BlockComment, token.GeneratorComment:
		return b.parseComment()
	case token.MarkTemplate, token.MarkCustom:
		return b.parseDefinition()
	case token.MarkOrigin:
		return b.parseOrigin()
	case token.MarkImport:
		return b.parseImport()
	case token.MarkNamespace:
		return b.parseNamespace()
	case token.MarkConfiguration:
		return b.parseConfiguration()
	case token.MarkInfo:
		return b.parseInfo()
	case token.MarkExport:
		return b.parseExport()
	case token.KeywordUse:
		return b.parseUse()
	case token.KeywordText:
		return b.parseText()
	case token.KeywordStyle:
		return b.parseStyle()
	case token.KeywordScript:
		return b.parseScript()
	case token.KeywordInherit:
		return b.parseInherit()
	case token.KeywordDelete:
		return b.parseDelete()
	case token.KeywordInsert:
		return b.parseInsert()
	case token.KeywordExcept:
		return b.parseExcept()
	case token.TypeTag:
		b.next()

		return b.parseReference(tok, tok)
	case token.Identifier:
		return b.parseWordItem()
	case token.String:
		if b.peek(1).Kind == token.LBrace {
			return b.parseElement()
		}
	case token.Semicolon:
		b.next()

		return nil
	}

	b.unexpected()

	return nil
}

// parseComment turns a comment token into a Comment node. Generator comments
// ("-- text") are marked Generated and appear in the output.
func (b *Builder) parseComment() *Node {
	tok := b.next()
	n := NewNode(KindComment, tok)

	switch tok.Kind {
	case token.GeneratorComment:
		n.Generated = true
		n.Value = strings.TrimSpace(strings.TrimPrefix(tok.Text, "--"))
	case token.LineComment:
		n.Value = strings.TrimSpace(strings.TrimPrefix(tok.Text, "//"))
	default:
		n.Value = strings.TrimSpace(
			strings.TrimSuffix(strings.TrimPrefix(tok.Text, "/*"), "*/"))
	}

	return n
}

// parseWordItem parses an item beginning with an identifier: an element, an
// attribute, or, inside a specialization, an index access.
func (b *Builder) parseWordItem() *Node {
	next := b.peek(1)

	switch next.Kind {
	case token.Colon, token.Equal:
		if !b.in(stateElement) {
			b.report(ParseError, b.cur().Pos, ErrMisplacedDeclaration.
				With(slog.String("attribute", b.cur().Text),
					slog.String("state", b.top().String())))
			b.syncStatement()

			return nil
		}

		return b.parseAttribute()

	case token.LBracket:
		return b.parseIndexAccess()

	case token.LBrace:
		if b.in(stateSpecialization) {
			return b.parseIndexAccess()
		}

		return b.parseElement()

	case token.Semicolon:
		// A bodiless element such as "br;".
		tok := b.next()
		b.next()

		n := NewNode(KindElement, tok)
		n.Name = tok.Text
		n.Namespace = b.symbols.Current()

		return n
	}

	b.unexpected()

	return nil
}

// parseElement parses "tag { items }".
func (b *Builder) parseElement() *Node {
	tok := b.next()

	n := NewNode(KindElement, tok)
	n.Name = tok.Unquote()
	n.Namespace = b.symbols.Current()

	if strings.TrimSpace(n.Name) == "" {
		b.report(ValidationWarning, tok.Pos, ErrEmptyTagName)
		b.skipBlock()

		return nil
	}

	defer b.enter(stateElement)()

	b.parseBlock(n)

	return n
}

// parseBlock parses "{ items }" into parent.
func (b *Builder) parseBlock(parent *Node) {
	if _, ok := b.expect(token.LBrace); !ok {
		b.syncStatement()

		return
	}

	b.parseItems(parent, true)
	b.accept(token.RBrace)
}

// parseAttribute parses "name: value;" or "name = value;".
func (b *Builder) parseAttribute() *Node {
	tok := b.next()
	sep := b.next()

	n := NewNode(KindAttribute, tok)
	n.Name = tok.Text
	n.Equal = sep.Kind == token.Equal
	n.Value = unquoteValue(b.collectUntil(token.Semicolon))

	b.expectTerminator()

	return n
}

// parseText parses "text { content }" or the attribute form "text: value;".
func (b *Builder) parseText() *Node {
	tok := b.next()
	n := NewNode(KindText, tok)

	if b.at(token.Colon, token.Equal) {
		n.Equal = b.next().Kind == token.Equal
		n.Value = unquoteValue(b.collectUntil(token.Semicolon))
		b.expectTerminator()

		return n
	}

	if _, ok := b.expect(token.LBrace); !ok {
		b.syncStatement()

		return nil
	}

	toks, _ := b.collectBalanced()

	var content []token.Token

	for _, t := range toks {
		if !t.Kind.IsComment() {
			content = append(content, t)
		}
	}

	n.Value = unquoteValue(content)

	return n
}

// parseDefinition parses a [Template] or [Custom] declaration at declaration
// level, and a prefixed reference ("[Custom] @Element Box;") elsewhere.
func (b *Builder) parseDefinition() *Node {
	marker := b.next()
	tagTok := b.cur()

	def, ok := b.parseDefTag()
	if !ok {
		b.syncStatement()

		return nil
	}

	if !b.declarationLevel() || b.peek(1).Kind != token.LBrace {
		return b.parseReference(marker, tagTok)
	}

	nameTok := b.next()
	custom := marker.Kind == token.MarkCustom

	kind := KindTemplate
	if custom {
		kind = KindCustom
	}

	n := NewNode(kind, marker)
	n.Def = def
	n.Name = nameTok.Text
	n.Namespace = b.symbols.Current()

	if !b.allowed(n) {
		b.skipBlock()

		return nil
	}

	if custom {
		defer b.enter(stateCustom)()
	} else {
		defer b.enter(stateTemplate)()
	}

	switch def {
	case DefStyle:
		defer b.enter(stateStyleDef)()

		b.parseStyleBody(n)
	case DefVar:
		defer b.enter(stateVarDef)()

		b.parseStyleBody(n)
	default:
		defer b.enter(stateElementDef)()

		b.parseBlock(n)
	}

	symKind, _ := DefinitionKind(def, custom)
	b.register(&SymbolInfo{
		Name:       n.Name,
		Namespace:  n.Namespace,
		Kind:       symKind,
		Properties: ownProperties(n),
		Inherits:   inherits(n),
		Node:       n,
		Pos:        marker.Pos,
	})

	return n
}

// parseDefTag consumes a type tag naming a definition type, honoring aliases
// declared in [Name] configuration groups.
func (b *Builder) parseDefTag() (DefType, bool) {
	tok, ok := b.expect(token.TypeTag)
	if !ok {
		return DefNone, false
	}

	def := ParseDefType(b.canonicalTag(tok.Text))
	if def == DefNone {
		b.report(ParseError, tok.Pos, ErrInvalidTypeTag.
			With(slog.String("tag", tok.Text)))

		return DefNone, false
	}

	if !b.cur().IsWord() {
		b.expected(token.Identifier)

		return DefNone, false
	}

	return def, true
}

// canonicalTag resolves a type tag alias.
func (b *Builder) canonicalTag(tag string) string {
	if c, ok := b.aliases[tag]; ok {
		return c
	}

	return tag
}

// parseReference parses the remainder of a reference whose leading tokens
// (an optional marker and the type tag) have been consumed:
//
//	Name [from ns] ;
//	Name [from ns] { specialization }
func (b *Builder) parseReference(lead, tagTok token.Token) *Node {
	def := ParseDefType(b.canonicalTag(tagTok.Text))
	if def == DefNone {
		b.report(ParseError, tagTok.Pos, ErrInvalidTypeTag.
			With(slog.String("tag", tagTok.Text)))
		b.syncStatement()

		return nil
	}

	kind := KindTemplateReference
	if lead.Kind == token.MarkCustom {
		kind = KindCustomReference
	}

	n := NewNode(kind, lead)
	n.Def = def
	n.Namespace = b.symbols.Current()
	n.From, n.Name = ParseQualifiedName(b.parseQualified())

	if n.Name == "" {
		b.expected(token.Identifier)
		b.syncStatement()

		return nil
	}

	if b.accept(token.KeywordFrom) {
		n.From = b.parseQualified()
	}

	if b.at(token.LBrace) {
		n.Append(b.parseSpecialization(def))
	} else {
		b.expectTerminator()
	}

	return n
}

// parseQualified parses a dotted name "a.b.c".
func (b *Builder) parseQualified() string {
	var part []string

	for b.cur().IsWord() {
		part = append(part, b.next().Text)

		if !b.at(token.Dot) || !b.peek(1).IsWord() {
			break
		}

		b.next()
	}

	return strings.Join(part, ".")
}

// parseSpecialization parses the braced body attached to a reference.
func (b *Builder) parseSpecialization(def DefType) *Node {
	n := NewNode(KindSpecialization, b.next())
	n.Def = def

	defer b.enter(stateSpecialization)()

	if def == DefElement {
		b.parseItems(n, true)
	} else {
		b.parseStyleItems(n, true)
	}

	b.accept(token.RBrace)

	return n
}

// parseNamespace parses "[Namespace] name { items }" or the brace-less form
// "[Namespace] name" followed by a single declaration.
func (b *Builder) parseNamespace() *Node {
	tok := b.next()

	nameTok := b.cur()

	name := b.parseQualified()
	if name == "" {
		b.report(ValidationWarning, nameTok.Pos, ErrInvalidNamespace.
			With(slog.String("found", nameTok.Text)))
		b.syncStatement()

		return nil
	}

	n := NewNode(KindNamespace, tok)
	n.Name = b.symbols.Enter(name)

	defer b.symbols.Exit()
	defer b.enter(stateNamespace)()

	if b.accept(token.LBrace) {
		b.parseItems(n, true)
		b.accept(token.RBrace)

		return n
	}

	b.parseOne(n)

	return n
}

// parseOne parses a single item into parent, subject to constraints.
func (b *Builder) parseOne(parent *Node) {
	if b.at(token.EOF, token.RBrace) {
		return
	}

	if item := b.parseItem(); item != nil && b.allowed(item) {
		parent.Append(item)
	}
}

// parseUse parses "use html5;" and "use @Config Name;".
func (b *Builder) parseUse() *Node {
	n := NewNode(KindUse, b.next())

	switch tok := b.cur(); {
	case tok.Kind == token.TypeTag:
		b.next()
		n.Value = b.canonicalTag(tok.Text)
		n.Name = b.parseQualified()

		if n.Value == "@Config" {
			b.useConfig(n)
		}
	case tok.IsWord():
		n.Value = b.parseQualified()
	default:
		b.expected(token.Identifier)
	}

	b.expectTerminator()

	return n
}

// register adds info to the symbol map, warning about replaced definitions.
func (b *Builder) register(info *SymbolInfo) {
	if replaced := b.symbols.Add(info); replaced != nil {
		b.report(ValidationWarning, info.Pos, ErrDuplicateSymbol.With(
			slog.String("name", info.QualifiedName()),
			slog.String("kind", info.Kind.String()),
			slog.String("previous", replaced.Pos.String())))
	}

	b.logger.TraceContext(b.ctx, "register symbol",
		slog.String("name", info.QualifiedName()),
		slog.String("kind", info.Kind.String()))
}

// allowed reports whether n satisfies every constraint of the enclosing
// block, reporting a violation.
func (b *Builder) allowed(n *Node) bool {
	if len(b.constraints) == 0 {
		return true
	}

	for _, t := range b.constraints[len(b.constraints)-1] {
		if b.violates(n, t) {
			b.report(ValidationWarning, n.Pos(), ErrConstraint.With(
				slog.String("except", t.String()),
				slog.String("node", n.Kind.String()),
				slog.String("name", n.Name)))

			return false
		}
	}

	return true
}

// violates reports whether n is excluded by constraint t.
func (b *Builder) violates(n *Node, t Target) bool {
	switch {
	case t.IsElement():
		return n.Kind == KindElement && n.Name == t.Tag
	case t.TypeTag == "@Html" && t.Marker == 0:
		return n.Kind == KindElement
	case t.Marker == token.MarkOrigin:
		return n.Kind == KindOrigin &&
			(t.TypeTag == "" || n.OriginType == strings.TrimPrefix(t.TypeTag, "@"))
	}

	var (
		def    DefType
		custom bool
	)

	switch n.Kind {
	case KindTemplate, KindCustom:
		def, custom = n.Def, n.Kind == KindCustom
	case KindTemplateReference, KindCustomReference, KindInheritance:
		def = n.Def
		custom = n.Kind == KindCustomReference

		if n.Kind != KindCustomReference && n.Token.Kind != token.MarkTemplate {
			s, ok := b.symbols.FindDef(n.QualifiedName(), n.Def, false, n.Namespace)
			custom = ok && s.Kind.IsCustom()
		}
	default:
		return false
	}

	switch t.Marker {
	case token.MarkCustom:
		if !custom {
			return false
		}
	case token.MarkTemplate:
		if custom {
			return false
		}
	}

	if t.Def != DefNone && t.Def != def {
		return false
	}

	return t.Tag == "" || t.Tag == n.Name
}

// Token helpers

func (b *Builder) cur() token.Token { return b.stream.Current() }

func (b *Builder) peek(n int) token.Token { return b.stream.Peek(n) }

func (b *Builder) next() token.Token { return b.stream.Advance() }

func (b *Builder) at(kinds ...token.Kind) bool {
	k := b.cur().Kind

	for _, kk := range kinds {
		if k == kk {
			return true
		}
	}

	return false
}

// accept consumes the current token if it has kind k.
func (b *Builder) accept(k token.Kind) bool {
	if b.cur().Kind != k {
		return false
	}

	b.next()

	return true
}

// expect consumes a token of kind k, or reports the missing token without
// consuming anything.
func (b *Builder) expect(k token.Kind) (token.Token, bool) {
	if tok := b.cur(); tok.Kind == k {
		return b.next(), true
	}

	b.expected(k)

	return token.Token{}, false
}

// expectTerminator consumes a statement-ending semicolon. A closing brace
// also ends a statement.
func (b *Builder) expectTerminator() {
	if b.accept(token.Semicolon) || b.at(token.RBrace) {
		return
	}

	b.expected(token.Semicolon)
}

func (b *Builder) expected(k token.Kind) {
	tok := b.cur()

	b.report(ParseError, tok.Pos, ErrExpectedToken.With(
		slog.String("expected", k.String()),
		slog.String("found", describe(tok))))
}

// unexpected reports the current token and skips it.
func (b *Builder) unexpected() {
	tok := b.next()

	b.report(ParseError, tok.Pos, ErrUnexpectedToken.With(
		slog.String("found", describe(tok)),
		slog.String("state", b.top().String())))
}

func describe(tok token.Token) string {
	if tok.Kind == token.EOF {
		return "end of input"
	}

	return tok.Text
}

// syncStatement skips to the end of the current statement: past the next
// semicolon or braced block, or up to an unmatched closing brace.
func (b *Builder) syncStatement() {
	for {
		switch b.cur().Kind {
		case token.EOF, token.RBrace:
			return
		case token.Semicolon:
			b.next()

			return
		case token.LBrace:
			b.skipBlock()

			return
		}

		b.next()
	}
}

// skipBlock skips tokens through the end of the next braced block.
func (b *Builder) skipBlock() {
	for !b.at(token.LBrace, token.EOF, token.RBrace) {
		b.next()
	}

	if b.accept(token.LBrace) {
		b.collectBalanced()
	}
}

// collectUntil returns the tokens before the first token of kind k (or a
// closing brace) outside parentheses and brackets. The stop token is not
// consumed.
func (b *Builder) collectUntil(k token.Kind) []token.Token {
	var (
		toks  []token.Token
		depth int
	)

	for {
		tok := b.cur()

		switch tok.Kind {
		case token.EOF:
			return toks
		case token.LParen, token.LBracket:
			depth++
		case token.RParen, token.RBracket:
			if depth > 0 {
				depth--
			}
		case token.RBrace, token.LBrace:
			return toks
		case k:
			if depth == 0 {
				return toks
			}
		}

		if !tok.Kind.IsComment() {
			toks = append(toks, tok)
		}

		b.next()
	}
}

// collectBalanced consumes tokens through the brace that closes an already
// consumed opening brace and returns the tokens in between and the closing
// brace.
func (b *Builder) collectBalanced() ([]token.Token, token.Token) {
	var toks []token.Token

	depth := 1

	for {
		tok := b.cur()

		switch tok.Kind {
		case token.EOF:
			b.expected(token.RBrace)

			return toks, tok
		case token.LBrace:
			depth++
		case token.RBrace:
			depth--
			if depth == 0 {
				b.next()

				return toks, tok
			}
		}

		toks = append(toks, b.next())
	}
}

// captureRaw consumes "{ ... }" and returns its content verbatim, without the
// surrounding whitespace.
func (b *Builder) captureRaw() (string, bool) {
	if _, ok := b.expect(token.LBrace); !ok {
		return "", false
	}

	toks, closing := b.collectBalanced()

	var sb strings.Builder

	for _, t := range toks {
		sb.WriteString(t.Raw())
	}

	sb.WriteString(closing.Lead)

	return strings.TrimSpace(sb.String()), true
}

// unquoteValue joins value tokens. A value consisting of a single string
// literal is unquoted.
func unquoteValue(toks []token.Token) string {
	if len(toks) == 1 && toks[0].Kind == token.String {
		return toks[0].Unquote()
	}

	return token.Join(toks)
}

func (b *Builder) report(c Category, pos token.Position, err *Error) {
	report(b.sink, c, pos, err)
}
