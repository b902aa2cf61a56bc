package lang

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/ardnew/chtl/lang/token"
)

// parseInherit parses "inherit @Type Name [from ns] [{ specialization }];".
func (b *Builder) parseInherit() *Node {
	tok := b.next()

	tagTok, ok := b.expect(token.TypeTag)
	if !ok {
		b.syncStatement()

		return nil
	}

	n := b.parseReference(tok, tagTok)
	if n != nil {
		n.Kind = KindInheritance
	}

	return n
}

// parseDelete parses "delete target, target;".
func (b *Builder) parseDelete() *Node {
	n := NewNode(KindDeletion, b.next())
	n.Targets = b.parseTargets()

	if len(n.Targets) == 0 {
		b.expected(token.Identifier)
	}

	b.expectTerminator()

	return n
}

// parseExcept parses "except target, target;".
func (b *Builder) parseExcept() *Node {
	n := NewNode(KindConstraint, b.next())
	n.Targets = b.parseTargets()

	if len(n.Targets) == 0 {
		b.expected(token.Identifier)
	}

	b.expectTerminator()

	return n
}

// parseInsert parses "insert position [target] { content }".
func (b *Builder) parseInsert() *Node {
	n := NewNode(KindInsertion, b.next())

	switch b.next().Kind {
	case token.KeywordAfter:
		n.Position = InsertAfter
	case token.KeywordBefore:
		n.Position = InsertBefore
	case token.KeywordReplace:
		n.Position = InsertReplace
	case token.KeywordAtTop:
		n.Position = InsertAtTop
	case token.KeywordAtBottom:
		n.Position = InsertAtBottom
	default:
		b.report(ParseError, n.Pos(), ErrExpectedToken.With(
			slog.String("expected", "after, before, replace, at top, or at bottom")))
		b.syncStatement()

		return nil
	}

	if n.Position.NeedsTarget() {
		t, ok := b.parseTarget()
		if !ok {
			b.expected(token.Identifier)
			b.syncStatement()

			return nil
		}

		n.Targets = []Target{t}
	}

	defer b.enter(stateInsertion)()

	b.parseBlock(n)

	return n
}

// parseIndexAccess parses "tag[index] { body }" or "tag { body }" inside an
// element specialization.
func (b *Builder) parseIndexAccess() *Node {
	tok := b.cur()

	t, ok := b.parseTarget()
	if !ok {
		b.unexpected()

		return nil
	}

	n := NewNode(KindIndexAccess, tok)
	n.Targets = []Target{t}

	defer b.enter(stateElement)()

	b.parseBlock(n)

	return n
}

// parseTargets parses a comma-separated target list.
func (b *Builder) parseTargets() []Target {
	var targets []Target

	for {
		t, ok := b.parseTarget()
		if !ok {
			return targets
		}

		targets = append(targets, t)

		if !b.accept(token.Comma) {
			return targets
		}
	}
}

// parseTarget parses one target:
//
//	tag  tag[0]  tag[first]  tag[last]
//	@Element Name  [Custom] @Element Name  [Template] @Var  [Custom]  @Html
func (b *Builder) parseTarget() (Target, bool) {
	var t Target

	start := b.cur()

	switch start.Kind {
	case token.MarkTemplate, token.MarkCustom, token.MarkOrigin:
		t.Marker = b.next().Kind
	}

	if b.at(token.TypeTag) {
		tag := b.canonicalTag(b.next().Text)
		if t.Def = ParseDefType(tag); t.Def == DefNone {
			t.TypeTag = tag
		}
	}

	if b.cur().IsWord() && !b.at(token.KeywordFrom, token.KeywordAs) {
		// A property name may be spelled with leading hyphens.
		t.Tag = b.parseQualified()
	} else if b.at(token.Symbol) && b.cur().Text == "-" && t.Marker == 0 {
		var name []token.Token
		for !b.at(token.Comma, token.Semicolon, token.RBrace, token.EOF) {
			name = append(name, b.next())
		}

		t.Tag = token.Join(name)
	}

	if t.Tag != "" && b.at(token.LBracket) {
		b.next()

		switch idx := b.next(); {
		case idx.Kind == token.Number:
			n, err := strconv.Atoi(idx.Text)
			if err != nil {
				b.report(ParseError, idx.Pos, ErrUnexpectedToken.
					With(slog.String("found", idx.Text)))
			}

			t.Mode, t.Index = IndexNumber, n
		case idx.Text == "first":
			t.Mode = IndexFirst
		case idx.Text == "last":
			t.Mode = IndexLast
		default:
			b.report(ParseError, idx.Pos, ErrUnexpectedToken.
				With(slog.String("found", describe(idx))))
		}

		b.expect(token.RBracket)
	}

	if t.Tag != "" && b.accept(token.KeywordFrom) {
		t.Namespace = b.parseQualified()
	}

	ok := t.Tag != "" || t.Marker != 0 || t.Def != DefNone || t.TypeTag != ""

	return t, ok
}

// parseOrigin parses an origin block:
//
//	[Origin] @Type { content }        in-place content
//	[Origin] @Type name { content }   named origin declaration
//	[Origin] @Type name;              use of a named origin
func (b *Builder) parseOrigin() *Node {
	n := NewNode(KindOrigin, b.next())

	tagTok, ok := b.expect(token.TypeTag)
	if !ok {
		b.syncStatement()

		return nil
	}

	tag := b.canonicalTag(tagTok.Text)
	n.Origin = ParseOriginKind(tag)
	n.OriginType = strings.TrimPrefix(tag, "@")
	n.Namespace = b.symbols.Current()

	if n.Origin == OriginCustom && !b.originTypes[n.OriginType] {
		report(b.sink, ValidationWarning, tagTok.Pos, NewError("unregistered origin type").
			With(slog.String("type", tag)))
	}

	if b.cur().IsWord() {
		n.Name = b.parseQualified()
	}

	if !b.at(token.LBrace) {
		if n.Name == "" {
			b.expected(token.LBrace)
			b.syncStatement()

			return nil
		}

		n.Targets = []Target{{Tag: n.Name, TypeTag: tag}}
		b.expectTerminator()

		return n
	}

	raw, _ := b.captureRaw()
	n.Value = raw

	if n.Name != "" {
		b.register(&SymbolInfo{
			Name:       n.Name,
			Namespace:  n.Namespace,
			Kind:       OriginSymbolKind(n.Origin),
			Node:       n,
			Pos:        n.Pos(),
			OriginType: n.OriginType,
		})
	}

	return n
}

// parseConfiguration parses "[Configuration] [@Config Name] { ... }".
func (b *Builder) parseConfiguration() *Node {
	n := NewNode(KindConfiguration, b.next())
	n.Namespace = b.symbols.Current()

	if b.at(token.TypeTag) {
		if tag := b.next(); b.canonicalTag(tag.Text) != "@Config" {
			b.report(ParseError, tag.Pos, ErrInvalidTypeTag.
				With(slog.String("tag", tag.Text)))
		}

		n.Name = b.parseQualified()
	}

	if !b.declarationLevel() {
		b.report(ValidationWarning, n.Pos(), ErrMisplacedDeclaration.
			With(slog.String("declaration", "[Configuration]")))
	}

	defer b.enter(stateConfiguration)()

	if _, ok := b.expect(token.LBrace); !ok {
		b.syncStatement()

		return nil
	}

	b.parseConfigItems(n)
	b.accept(token.RBrace)

	if n.Name != "" {
		b.register(&SymbolInfo{
			Name:       n.Name,
			Namespace:  n.Namespace,
			Kind:       SymbolConfiguration,
			Properties: ownProperties(n),
			Node:       n,
			Pos:        n.Pos(),
		})
	} else {
		b.applyGroups(n)
	}

	return n
}

// parseConfigItems parses "KEY = value;" entries and [Name] and [OriginType]
// groups until a closing brace.
func (b *Builder) parseConfigItems(n *Node) {
	for {
		tok := b.cur()

		switch tok.Kind {
		case token.EOF:
			b.expected(token.RBrace)

			return
		case token.RBrace:
			return
		case token.Semicolon:
			b.next()
		case token.LineComment, token.BlockComment, token.GeneratorComment:
			n.Append(b.parseComment())
		case token.MarkName, token.MarkOriginType:
			group := NewNode(KindConfiguration, b.next())

			if _, ok := b.expect(token.LBrace); ok {
				b.parseConfigItems(group)
				b.accept(token.RBrace)
			}

			n.Append(group)
		default:
			if !tok.IsWord() {
				b.unexpected()

				continue
			}

			n.Append(b.parseProperties()...)
		}
	}
}

// applyGroups applies the [Name] and [OriginType] groups of a configuration
// to the builder.
func (b *Builder) applyGroups(cfg *Node) {
	names := true

	for p := range cfg.ChildrenOf(KindProperty) {
		if strings.EqualFold(p.Name, "DISABLE_NAME_GROUP") {
			names = !ParseValue(p.Raw).Bool()
		}
	}

	for group := range cfg.ChildrenOf(KindConfiguration) {
		if group.Token.Kind == token.MarkName && !names {
			b.logger.DebugContext(b.ctx, "name group disabled",
				slog.String("config", cfg.Name))

			continue
		}

		for p := range group.ChildrenOf(KindProperty) {
			switch group.Token.Kind {
			case token.MarkName:
				b.defineAliases(p)
			case token.MarkOriginType:
				for _, tag := range tagList(p.Value) {
					b.originTypes[strings.TrimPrefix(tag, "@")] = true
				}
			}
		}
	}
}

// aliasKeys maps the suffix of a [Name] key to the canonical tag it renames.
var aliasKeys = []struct{ suffix, tag string }{
	{"_STYLE", "@Style"},
	{"_ELEMENT", "@Element"},
	{"_VAR", "@Var"},
	{"_HTML", "@Html"},
	{"_JAVASCRIPT", "@JavaScript"},
	{"_CONFIG", "@Config"},
	{"_CHTL", "@Chtl"},
	{"_CJMOD", "@CJmod"},
}

// defineAliases records the alternate spellings listed by a [Name] entry such
// as "CUSTOM_STYLE = [@Style, @CSS];".
func (b *Builder) defineAliases(p *Node) {
	key := strings.ToUpper(p.Name)

	for _, ak := range aliasKeys {
		if !strings.HasSuffix(key, ak.suffix) {
			continue
		}

		for _, tag := range tagList(p.Value) {
			if tag != ak.tag {
				b.aliases[tag] = ak.tag
			}
		}

		return
	}

	b.logger.DebugContext(b.ctx, "ignored name group entry",
		slog.String("key", p.Name))
}

// tagList splits "[@A, @B]" or "@A" into its tags.
func tagList(v string) []string {
	v = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(v), "["), "]")

	var tags []string

	for _, f := range strings.Split(v, ",") {
		if f = strings.TrimSpace(f); strings.HasPrefix(f, "@") {
			tags = append(tags, f)
		}
	}

	return tags
}

// useConfig applies the [Name] groups of the configuration named by a
// "use @Config Name;" statement.
func (b *Builder) useConfig(n *Node) {
	s, ok := b.symbols.Find(n.Name, SymbolConfiguration, n.Namespace, b.symbols.Current())
	if !ok {
		report(b.sink, ResolutionError, n.Pos(), ErrUnresolvedSymbol.With(
			slog.String("name", n.Name),
			slog.String("kind", SymbolConfiguration.String())),
			b.symbols.Suggest(n.Name, SymbolConfiguration)...)

		return
	}

	b.applyGroups(s.Node)
}

// parseInfo parses a module "[Info] { key = value; }" block.
func (b *Builder) parseInfo() *Node {
	n := NewNode(KindConfiguration, b.next())

	defer b.enter(stateConfiguration)()

	if _, ok := b.expect(token.LBrace); !ok {
		b.syncStatement()

		return nil
	}

	b.parseConfigItems(n)
	b.accept(token.RBrace)

	return n
}

// parseExport parses a module "[Export] { [Custom] @Style A, B; }" block.
func (b *Builder) parseExport() *Node {
	n := NewNode(KindConfiguration, b.next())

	if _, ok := b.expect(token.LBrace); !ok {
		b.syncStatement()

		return nil
	}

	for !b.at(token.RBrace, token.EOF) {
		if b.cur().Kind.IsComment() || b.accept(token.Semicolon) {
			if b.cur().Kind.IsComment() {
				b.next()
			}

			continue
		}

		head, ok := b.parseTarget()
		if !ok {
			b.unexpected()

			continue
		}

		n.Targets = append(n.Targets, head)

		for b.accept(token.Comma) {
			name := b.parseQualified()
			if name == "" {
				break
			}

			t := head
			t.Tag = name
			n.Targets = append(n.Targets, t)
		}

		b.expectTerminator()
	}

	b.expect(token.RBrace)

	return n
}
