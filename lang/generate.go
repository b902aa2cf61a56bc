package lang

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/net/html"

	"github.com/ardnew/chtl/lang/token"
	"github.com/ardnew/chtl/log"
)

// selfClosing lists the void elements, which are written without a closing
// tag and whose children are never visited.
var selfClosing = map[string]bool{
	"area": true, "base": true, "br": true, "col": true,
	"embed": true, "hr": true, "img": true, "input": true,
	"link": true, "meta": true, "param": true, "source": true,
	"track": true, "wbr": true,
}

// Generator produces HTML from a syntax tree built by a [Builder].
type Generator struct {
	settings
}

// NewGenerator returns a generator configured by opts. The symbol map given
// with [WithSymbols] must be the one the tree was built with.
func NewGenerator(opts ...Option) *Generator {
	return &Generator{settings: makeSettings(opts...)}
}

// Generate returns the HTML document for root.
func (gen *Generator) Generate(ctx context.Context, root *Node) string {
	doc, gc := gen.GenerateDocument(ctx, root)

	return gen.Finish(ctx, doc.Render(), gc.Options)
}

// GenerateDocument walks root and returns the assembled document model along
// with the generation context it used.
func (gen *Generator) GenerateDocument(
	ctx context.Context,
	root *Node,
) (*Document, *GenerationContext) {
	gc := NewGenerationContext(gen.options)

	run := &generation{
		gc:      gc,
		logger:  gen.logger,
		ctx:     ctx,
		sink:    gen.sink,
		symbols: gen.symbols,
		style:   gen.style,
		script:  gen.script,
		out:     &markup{},
		resolver: NewResolver(ctx, gen.symbols, gc,
			WithLogger(gen.logger), WithSink(gen.sink)),
	}

	if root != nil {
		run.visit(root)
	}

	doc := newDocument(gc.Options, run.out, run.authored, gc.Styles(), gc.Scripts())

	gen.logger.DebugContext(ctx, "generated",
		slog.Bool("authored", run.authored),
		slog.Int("styles", len(doc.Styles)),
		slog.Int("scripts", len(doc.Scripts)))

	return doc, gc
}

// Finish post-processes rendered output per opts and validates its tag
// structure.
func (gen *Generator) Finish(ctx context.Context, out string, opts Options) string {
	switch {
	case opts.Minify:
		out = Minify(out)
	case opts.PrettyPrint:
		out = Pretty(out, opts.Indent())
	}

	if n := Validate(out, gen.sink); n > 0 {
		gen.logger.DebugContext(ctx, "unbalanced output",
			slog.Int("issues", n))
	}

	return out
}

// generation is the state of one walk over a syntax tree.
type generation struct {
	gc       *GenerationContext
	resolver *Resolver
	symbols  *SymbolMap
	logger   log.Logger
	ctx      context.Context
	sink     Sink
	style    StyleCompiler
	script   ScriptCompiler

	out      *markup
	authored bool  // an html element was written at the document level
	document *Node // the authored html element
}

func (g *generation) visitAll(nodes []*Node) {
	for _, n := range nodes {
		g.visit(n)
	}
}

func (g *generation) visit(n *Node) {
	switch n.Kind {
	case KindRoot:
		g.visitAll(n.Children)

	case KindElement:
		g.element(n)

	case KindText:
		g.out.WriteString(html.EscapeString(n.Value))

	case KindComment:
		if n.Generated && g.gc.Options.IncludeComments {
			g.comment(n.Value)
		}

	case KindStyleBlock:
		g.globalStyle(n)

	case KindScriptBlock:
		g.emitScript(n.Value, n)

	case KindOrigin:
		g.origin(n)

	case KindImport:
		g.visitAll(n.Children)

	case KindNamespace:
		saved := g.gc.Namespace
		g.gc.Namespace = n.Name
		g.visitAll(n.Children)
		g.gc.Namespace = saved

	case KindConfiguration:
		if n.Token.Kind == token.MarkConfiguration && n.Name == "" {
			g.configure(n)
		}

	case KindUse:
		g.use(n)

	case KindTemplateReference, KindCustomReference, KindInheritance:
		g.reference(n)

	case KindTemplate, KindCustom,
		KindAttribute, KindProperty, KindSelector, KindLiteral,
		KindVariableReference, KindSpecialization,
		KindDeletion, KindInsertion, KindIndexAccess, KindConstraint:
		// Declarations and operations are consumed by their context.

	default:
		report(g.sink, GenerationWarning, n.Pos(), ErrUnhandledNode.
			With(slog.String("kind", n.Kind.String())))
	}
}

// element writes elem, its attributes, and its content.
func (g *generation) element(elem *Node) {
	auto := newAutoSelectors(elem)
	g.selectStyles(elem, auto)
	g.selectScripts(elem, auto)

	inline := g.inlineStyle(elem)

	isDocument := !g.authored && strings.EqualFold(elem.Name, "html") &&
		elem.Element() == nil
	if isDocument {
		g.authored, g.document = true, elem
	}

	attrs := attributes(elem)

	if auto.addClass != "" {
		attrs = attrs.set("class", auto.addClass)
	}

	if auto.addID != "" {
		attrs = attrs.set("id", auto.addID)
	}

	if css := inline.CSS(); css != "" {
		if v, ok := attrs.get("style"); ok && strings.TrimSpace(v) != "" {
			css = strings.TrimRight(strings.TrimSpace(v), ";") + "; " + css
		}

		attrs = attrs.set("style", css)
	}

	g.out.WriteString("<" + elem.Name)

	for _, a := range attrs {
		g.out.WriteString(" " + a.name + `="` + html.EscapeString(a.value) + `"`)
	}

	g.out.WriteString(">")

	if selfClosing[strings.ToLower(elem.Name)] {
		return
	}

	hasHead, hasBody := false, false

	if isDocument {
		for c := range elem.ChildrenOf(KindElement) {
			hasHead = hasHead || strings.EqualFold(c.Name, "head")
			hasBody = hasBody || strings.EqualFold(c.Name, "body")
		}

		if !hasHead {
			g.out.slot(slotStyle)
		}
	}

	for _, c := range elem.Children {
		switch c.Kind {
		case KindAttribute, KindStyleBlock, KindScriptBlock:
			// Consumed by the pre-scan.
		default:
			g.visit(c)
		}
	}

	if g.document != nil && g.document != elem && elem.Parent == g.document {
		switch strings.ToLower(elem.Name) {
		case "head":
			g.out.slot(slotStyle)
		case "body":
			g.out.slot(slotScript)
		}
	}

	if isDocument && !hasBody {
		g.out.slot(slotScript)
	}

	g.out.WriteString("</" + elem.Name + ">")
}

// inlineStyle returns the inline declarations of elem: the properties and
// style references of its style blocks, then style references written
// directly in its body.
func (g *generation) inlineStyle(elem *Node) *Properties {
	props := NewProperties()

	for _, c := range elem.Children {
		switch {
		case c.Kind == KindStyleBlock:
			g.collect(props, c)
		case c.IsReference() && (c.Def == DefStyle || c.Def == DefVar):
			g.merge(props, c)
		}
	}

	return props
}

// collect adds the properties, references, and deletions directly under
// block to props. Later declarations override earlier ones.
func (g *generation) collect(props *Properties, block *Node) {
	for _, c := range block.Children {
		switch {
		case c.Kind == KindProperty:
			if c.Value == "" && len(c.Children) == 0 {
				continue
			}

			props.Set(Property{
				Name:  c.Name,
				Value: g.resolver.PropertyValue(c, g.gc.Namespace),
				Pos:   c.Pos(),
			})
		case c.IsReference() && c.Def != DefElement:
			g.merge(props, c)
		case c.Kind == KindDeletion:
			for _, t := range c.Targets {
				if t.Def == DefNone {
					props.Delete(t.Tag)
				}
			}
		}
	}
}

func (g *generation) merge(props *Properties, ref *Node) {
	for p := range g.resolver.Style(ref, g.gc.Namespace).All() {
		props.Set(p)
	}
}

// ruleProperties returns the declarations of a selector rule.
func (g *generation) ruleProperties(rule *Node) *Properties {
	props := NewProperties()
	g.collect(props, rule)

	return props
}

// globalStyle emits the rules of a style block outside any element.
func (g *generation) globalStyle(block *Node) {
	for _, c := range block.Children {
		switch {
		case c.Kind == KindSelector:
			g.emitRule(c.Selector.Text, c)
		case c.Kind == KindProperty, c.IsReference():
			g.logger.DebugContext(g.ctx, "declaration outside rule ignored",
				slog.String("node", c.String()))
		}
	}
}

// reference expands an element reference in place. Style references are
// only meaningful inside an element, where the pre-scan consumes them.
func (g *generation) reference(ref *Node) {
	switch ref.Def {
	case DefElement:
		if g.gc.Options.Debug {
			g.comment(ref.Def.String() + " " + ref.QualifiedName())
		}

		g.visitAll(g.resolver.Element(ref, g.gc.Namespace))
	case DefStyle, DefVar:
		if ref.Parent == nil || ref.Parent.Kind != KindElement {
			report(g.sink, GenerationWarning, ref.Pos(), ErrMisplacedDeclaration.
				With(slog.String("reference", ref.QualifiedName())))
		}
	}
}

// origin emits foreign content in place or queues it for the global lists.
// A use of a named origin emits the named content.
func (g *generation) origin(n *Node) {
	src := n

	switch {
	case len(n.Targets) > 0:
		name := n.Targets[0].Tag

		s, ok := g.symbols.FindOrigin(name, n.Origin, n.OriginType,
			n.Namespace, g.gc.Namespace)
		if !ok {
			report(g.sink, ResolutionError, n.Pos(), ErrUnresolvedSymbol.With(
				slog.String("name", name),
				slog.String("type", "@"+n.OriginType)),
				g.symbols.Suggest(name, OriginSymbolKind(n.Origin))...)

			return
		}

		src = s.Node
	case n.Name != "":
		// Named declarations are emitted where they are used.
		return
	}

	switch originRoute(src.Origin, src.OriginType) {
	case OriginStyle:
		g.emitStyle(src.Value, n)
	case OriginJavaScript:
		g.emitScript(src.Value, n)
	default:
		g.htmlOrigin(src.Value, n)
	}
}

// htmlOrigin writes raw markup in place. Markup holding the first document
// element at the top level becomes the authored document, with the style
// slot before its head end tag and the script slot before its body end tag.
func (g *generation) htmlOrigin(content string, n *Node) {
	if g.authored || n.Element() != nil {
		g.out.WriteString(content)

		return
	}

	parts, ok := splitDocument(content)
	if !ok {
		g.out.WriteString(content)

		return
	}

	g.authored = true

	for _, p := range parts {
		if p.slot != slotNone {
			g.out.slot(p.slot)
		} else {
			g.out.WriteString(p.text)
		}
	}

	g.logger.DebugContext(g.ctx, "authored document from origin",
		slog.String("pos", n.Pos().String()))
}

// originRoute returns where the content of an origin of kind o goes. Custom
// types are routed by name.
func originRoute(o OriginKind, typ string) OriginKind {
	if o != OriginCustom {
		return o
	}

	switch {
	case strings.Contains(typ, "Style"), strings.Contains(typ, "CSS"):
		return OriginStyle
	case strings.Contains(typ, "Script"), strings.Contains(typ, "JavaScript"):
		return OriginJavaScript
	default:
		return OriginHtml
	}
}

// configure applies the entries of a configuration block.
func (g *generation) configure(cfg *Node) {
	for p := range cfg.ChildrenOf(KindProperty) {
		v, err := optionValue(p, g.gc.assigned)
		if err != nil {
			report(g.sink, GenerationWarning, p.Pos(), err)
		}

		g.gc.set(p.Name, v)

		g.logger.TraceContext(g.ctx, "configure",
			slog.String("key", p.Name),
			slog.String("value", v.String()))
	}
}

func (g *generation) use(n *Node) {
	switch n.Value {
	case "@Config":
		s, ok := g.symbols.Find(n.Name, SymbolConfiguration, n.Namespace, g.gc.Namespace)
		if !ok {
			// The builder reports the unresolved name.
			return
		}

		g.configure(s.Node)
	default:
		g.logger.DebugContext(g.ctx, "use",
			slog.String("value", n.Value))
	}
}

// comment writes an HTML comment containing text.
func (g *generation) comment(text string) {
	text = strings.ReplaceAll(strings.TrimSpace(text), "--", "- -")
	g.out.WriteString("<!-- " + text + " -->")
}

// emitStyle compiles css and appends it to the global stylesheet.
func (g *generation) emitStyle(css string, at *Node) {
	out, err := g.style.Compile(css)
	if err != nil {
		report(g.sink, GenerationWarning, at.Pos(), ErrForeignCompile.Wrap(err).
			With(slog.String("language", "css")))

		out = css
	}

	g.gc.styles = append(g.gc.styles, out)
}

// emitScript compiles src and appends it to the global script list.
func (g *generation) emitScript(src string, at *Node) {
	out, err := g.script.Compile(src)
	if err != nil {
		report(g.sink, GenerationWarning, at.Pos(), ErrForeignCompile.Wrap(err).
			With(slog.String("language", "javascript")))

		out = src
	}

	g.gc.scripts = append(g.gc.scripts, out)
}

// attr is one attribute of an element being written.
type attr struct {
	name  string
	value string
}

type attrList []attr

// attributes returns the attributes declared directly on elem, in order of
// first declaration. A repeated attribute takes its last value.
func attributes(elem *Node) attrList {
	var list attrList

	for a := range elem.ChildrenOf(KindAttribute) {
		list = list.set(a.Name, a.Value)
	}

	return list
}

func (l attrList) get(name string) (string, bool) {
	for _, a := range l {
		if a.name == name {
			return a.value, true
		}
	}

	return "", false
}

func (l attrList) set(name, value string) attrList {
	for i := range l {
		if l[i].name == name {
			l[i].value = value

			return l
		}
	}

	return append(l, attr{name: name, value: value})
}
