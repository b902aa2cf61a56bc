package lang

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ardnew/chtl/log"
)

// Resolver expands references to template and custom definitions into
// concrete content: an ordered property set for @Style and @Var, an element
// list for @Element.
//
// Expansions of unspecialized definitions are memoized in the generation
// context. Every expansion is returned as a fresh copy.
type Resolver struct {
	symbols *SymbolMap
	gc      *GenerationContext
	sink    Sink
	logger  log.Logger
	ctx     context.Context

	visiting map[*SymbolInfo]bool
	cycles   int // cut edges so far; expansions that cut one are not memoized
}

// NewResolver returns a resolver reading symbols and caching into gc.
func NewResolver(
	ctx context.Context,
	symbols *SymbolMap,
	gc *GenerationContext,
	opts ...Option,
) *Resolver {
	s := makeSettings(append([]Option{WithSymbols(symbols)}, opts...)...)

	return &Resolver{
		symbols:  symbols,
		gc:       gc,
		sink:     s.sink,
		logger:   s.logger,
		ctx:      ctx,
		visiting: make(map[*SymbolInfo]bool),
	}
}

// lookup finds the symbol referenced by ref, reporting a resolution error
// with suggestions when there is none.
func (r *Resolver) lookup(ref *Node, hints ...string) (*SymbolInfo, bool) {
	name := ref.QualifiedName()

	s, ok := r.symbols.FindDef(name, ref.Def,
		ref.Kind == KindCustomReference, append([]string{ref.Namespace}, hints...)...)
	if ok {
		return s, true
	}

	report(r.sink, ResolutionError, ref.Pos(), ErrUnresolvedSymbol.With(
		slog.String("name", name),
		slog.String("type", ref.Def.String())),
		r.symbols.Suggest(ref.Name, defKinds(ref.Def)...)...)

	return nil, false
}

// enter guards against inheritance cycles. It returns false, reporting the
// cycle, when s is already being expanded.
func (r *Resolver) enter(s *SymbolInfo, at *Node) (func(), bool) {
	if r.visiting[s] {
		report(r.sink, ResolutionError, at.Pos(), ErrInheritanceCycle.With(
			slog.String("name", s.QualifiedName()),
			slog.String("kind", s.Kind.String())))

		r.cycles++

		return nil, false
	}

	r.visiting[s] = true

	return func() { delete(r.visiting, s) }, true
}

// Style returns the properties of the @Style or @Var definition that ref
// refers to, specialized by ref when it resolves to a custom definition.
// An unresolved reference yields an empty set.
func (r *Resolver) Style(ref *Node, current string) *Properties {
	s, ok := r.lookup(ref, current)
	if !ok {
		return NewProperties()
	}

	spec := ref.Specialization()
	if spec != nil && !s.Kind.IsCustom() {
		report(r.sink, ValidationWarning, spec.Pos(), ErrTemplateSpecialization.
			With(slog.String("name", s.QualifiedName())))

		spec = nil
	}

	if spec == nil {
		return r.properties(s, ref, nil)
	}

	props := r.properties(s, ref, deletedInheritances(spec))
	r.specialize(props, spec, s.Namespace)

	return props
}

// Var returns the value of key in the variable group named group.
func (r *Resolver) Var(group, key string, at *Node, hints ...string) (string, bool) {
	ref := NewNode(KindTemplateReference, at.Token)
	ref.Def = DefVar
	ref.From, ref.Name = ParseQualifiedName(group)

	s, ok := r.lookup(ref, hints...)
	if !ok {
		return "", false
	}

	props := r.properties(s, ref, nil)

	p, ok := props.Get(key)
	if !ok {
		report(r.sink, ResolutionError, at.Pos(), ErrUnresolvedSymbol.With(
			slog.String("name", group+"."+key),
			slog.String("type", DefVar.String())),
			suggestKeys(props, key)...)

		return "", false
	}

	r.logger.TraceContext(r.ctx, "var",
		slog.String("group", s.QualifiedName()),
		slog.String("key", key),
		slog.String("value", p.Value))

	return p.Value, true
}

// properties returns a copy of the merged properties of s, omitting the
// inheritances named in exclude.
func (r *Resolver) properties(s *SymbolInfo, at *Node, exclude map[string]bool) *Properties {
	if len(exclude) == 0 {
		if memo, ok := r.gc.styleMemo[s]; ok {
			return memo.Clone()
		}
	}

	leave, ok := r.enter(s, at)
	if !ok {
		return NewProperties()
	}

	defer leave()

	cycles := r.cycles
	props := NewProperties()

	for _, c := range s.Node.Children {
		if c.Kind == KindProperty {
			props.Set(Property{
				Name:  c.Name,
				Value: r.PropertyValue(c, s.Namespace),
				Pos:   c.Pos(),
			})
		}
	}

	deleted := deletedInheritances(s.Node)

	for _, c := range s.Node.Children {
		if !c.IsReference() || c.Def != s.Kind.Def() {
			continue
		}

		if deleted[c.QualifiedName()] || exclude[c.QualifiedName()] {
			continue
		}

		for p := range r.inherited(c, s.Namespace).All() {
			props.SetIfAbsent(p)
		}
	}

	for d := range s.Node.ChildrenOf(KindDeletion) {
		for _, t := range d.Targets {
			if t.Def == DefNone {
				props.Delete(t.Tag)
			}
		}
	}

	if len(exclude) == 0 && r.cycles == cycles {
		r.gc.styleMemo[s] = props.Clone()
	}

	return props
}

// inherited returns the properties contributed by an inheritance or
// composition inside a definition in namespace ns.
func (r *Resolver) inherited(ref *Node, ns string) *Properties {
	s, ok := r.lookup(ref, ns)
	if !ok {
		return NewProperties()
	}

	spec := ref.Specialization()
	if spec != nil && !s.Kind.IsCustom() {
		report(r.sink, ValidationWarning, spec.Pos(), ErrTemplateSpecialization.
			With(slog.String("name", s.QualifiedName())))

		spec = nil
	}

	props := r.properties(s, ref, deletedInheritances(spec))
	if spec != nil {
		r.specialize(props, spec, s.Namespace)
	}

	return props
}

// specialize applies the overrides of spec to props, then its deletions.
// References inside spec add properties that are not already set.
func (r *Resolver) specialize(props *Properties, spec *Node, ns string) {
	for _, c := range spec.Children {
		switch {
		case c.Kind == KindProperty && c.Value != "":
			props.Set(Property{
				Name:  c.Name,
				Value: r.PropertyValue(c, ns),
				Pos:   c.Pos(),
			})
		case c.Kind == KindProperty:
			r.logger.TraceContext(r.ctx, "valueless specialization property",
				slog.String("name", c.Name))
		case c.IsReference() && c.Def != DefElement:
			for p := range r.inherited(c, ns).All() {
				props.SetIfAbsent(p)
			}
		}
	}

	for d := range spec.ChildrenOf(KindDeletion) {
		for _, t := range d.Targets {
			if t.Def != DefNone {
				continue
			}

			if !props.Delete(t.Tag) {
				r.logger.DebugContext(r.ctx, "deleted property not present",
					slog.String("name", t.Tag))
			}
		}
	}
}

// deletedInheritances returns the qualified names removed by
// "delete @Style X;" statements directly under n.
func deletedInheritances(n *Node) map[string]bool {
	if n == nil {
		return nil
	}

	var del map[string]bool

	for d := range n.ChildrenOf(KindDeletion) {
		for _, t := range d.Targets {
			if t.Def == DefNone || t.Tag == "" {
				continue
			}

			if del == nil {
				del = make(map[string]bool)
			}

			name := t.Tag
			if t.Namespace != "" {
				name = t.Namespace + "." + name
			}

			del[name] = true
		}
	}

	return del
}

// PropertyValue returns the value of property p with its variable group
// references substituted.
func (r *Resolver) PropertyValue(p *Node, ns string) string {
	if len(p.Children) == 0 {
		return p.Value
	}

	var sb strings.Builder

	for i, seg := range p.Children {
		if i > 0 && seg.Token.Lead != "" {
			sb.WriteByte(' ')
		}

		switch seg.Kind {
		case KindLiteral:
			sb.WriteString(seg.Value)
		case KindVariableReference:
			if o, ok := overrideOf(seg); ok {
				sb.WriteString(o)

				continue
			}

			v, ok := r.Var(seg.Name, seg.Value, seg, ns, r.gc.Namespace)
			if !ok {
				v = seg.Raw
			}

			sb.WriteString(v)
		}
	}

	return sb.String()
}

// overrideOf returns the value given by "Group(key = value)".
func overrideOf(ref *Node) (string, bool) {
	for o := range ref.ChildrenOf(KindProperty) {
		return o.Value, true
	}

	return "", false
}

func suggestKeys(props *Properties, key string) []string {
	m := NewSymbolMap()

	for _, k := range props.Keys() {
		m.Add(&SymbolInfo{Name: k, Kind: SymbolTemplateVar})
	}

	return m.Suggest(key)
}

// Element returns the expanded children of the @Element definition that ref
// refers to, specialized by ref when it resolves to a custom definition.
// Each top-level node of the result has its parent set to ref's parent.
func (r *Resolver) Element(ref *Node, current string) []*Node {
	s, ok := r.lookup(ref, current)
	if !ok {
		return nil
	}

	nodes := r.elements(s, ref)

	if spec := ref.Specialization(); spec != nil {
		if s.Kind.IsCustom() {
			nodes = r.specializeElements(nodes, spec)
		} else {
			report(r.sink, ValidationWarning, spec.Pos(), ErrTemplateSpecialization.
				With(slog.String("name", s.QualifiedName())))
		}
	}

	for _, n := range nodes {
		n.Parent = ref.Parent
	}

	return nodes
}

// elements returns a copy of the expanded body of element definition s.
func (r *Resolver) elements(s *SymbolInfo, at *Node) []*Node {
	if memo, ok := r.gc.elementMemo[s]; ok {
		return cloneAll(memo)
	}

	leave, ok := r.enter(s, at)
	if !ok {
		return nil
	}

	defer leave()

	cycles := r.cycles

	var nodes []*Node

	for _, c := range s.Node.Children {
		switch {
		case c.IsReference() && c.Def == DefElement:
			sub := r.Element(c, s.Namespace)
			name := c.QualifiedName()

			for _, n := range sub {
				n.expandedFrom = name
			}

			nodes = append(nodes, sub...)
		case c.Kind == KindDeletion, c.Kind == KindInsertion,
			c.Kind == KindIndexAccess, c.Kind == KindConstraint:
		default:
			nodes = append(nodes, c.Clone())
		}
	}

	// Structural operations written in the definition body apply to the
	// definition's own expansion.
	nodes = r.specializeElements(nodes, s.Node)

	if r.cycles == cycles {
		r.gc.elementMemo[s] = cloneAll(nodes)
	}

	return nodes
}

// specializeElements applies the structural operations under spec to nodes:
// deletions, then index-access bodies, then insertions. Remaining content of
// spec is merged as by an index access.
func (r *Resolver) specializeElements(nodes []*Node, spec *Node) []*Node {
	base := r.gc.Options.IndexInitialCount

	for d := range spec.ChildrenOf(KindDeletion) {
		for _, t := range d.Targets {
			idx := t.match(nodes, base, false)
			if len(idx) == 0 {
				report(r.sink, ValidationWarning, d.Pos(), ErrTargetNotFound.
					With(slog.String("delete", t.String())))

				continue
			}

			nodes = removeAt(nodes, idx)
		}
	}

	for ia := range spec.ChildrenOf(KindIndexAccess) {
		t := ia.Targets[0]

		idx := t.match(nodes, base, true)
		if len(idx) == 0 {
			report(r.sink, ValidationWarning, ia.Pos(), ErrTargetNotFound.
				With(slog.String("target", t.String())))

			continue
		}

		for _, i := range idx {
			r.merge(nodes[i], ia)
		}
	}

	for ins := range spec.ChildrenOf(KindInsertion) {
		nodes = r.insert(nodes, ins, base)
	}

	if spec.Kind == KindSpecialization || spec.Kind == KindIndexAccess {
		for _, c := range spec.Children {
			if isContent(c) {
				nodes = append(nodes, c.Clone())
			}
		}
	}

	return nodes
}

// merge applies an index-access body to elem: attributes replace attributes
// of the same name, structural operations apply to elem's children, and any
// other content is appended.
func (r *Resolver) merge(elem, body *Node) {
	children := r.specializeElements(elem.Children, withoutContent(body))

	for _, c := range body.Children {
		switch {
		case c.Kind == KindAttribute:
			children = setAttr(children, c.Clone())
		case isContent(c):
			children = append(children, c.Clone())
		}
	}

	elem.Children = nil
	elem.Append(children...)
}

// insert splices the content of ins into nodes.
func (r *Resolver) insert(nodes []*Node, ins *Node, base int) []*Node {
	var content []*Node

	for _, c := range ins.Children {
		if c.Kind != KindComment || c.Generated {
			content = append(content, c.Clone())
		}
	}

	switch ins.Position {
	case InsertAtTop:
		return append(content, nodes...)
	case InsertAtBottom:
		return append(nodes, content...)
	}

	t := ins.Targets[0]

	idx := t.match(nodes, base, t.Def != DefElement)
	if len(idx) == 0 {
		report(r.sink, ValidationWarning, ins.Pos(), ErrTargetNotFound.With(
			slog.String("insert", ins.Position.String()),
			slog.String("target", t.String())))

		return nodes
	}

	first, last := idx[0], idx[len(idx)-1]

	switch ins.Position {
	case InsertBefore:
		return splice(nodes, first, first, content)
	case InsertAfter:
		return splice(nodes, last+1, last+1, content)
	default:
		return splice(removeAt(nodes, idx[1:]), first, first+1, content)
	}
}

// isContent reports whether c is element content rather than a structural
// operation.
func isContent(c *Node) bool {
	switch c.Kind {
	case KindDeletion, KindInsertion, KindIndexAccess, KindConstraint,
		KindAttribute, KindComment:
		return false
	default:
		return true
	}
}

// withoutContent returns a shallow node holding only the structural
// operations of n.
func withoutContent(n *Node) *Node {
	ops := &Node{Kind: KindConfiguration, Token: n.Token}

	for _, c := range n.Children {
		switch c.Kind {
		case KindDeletion, KindInsertion, KindIndexAccess:
			ops.Children = append(ops.Children, c)
		}
	}

	return ops
}

func setAttr(nodes []*Node, attr *Node) []*Node {
	for i, n := range nodes {
		if n.Kind == KindAttribute && n.Name == attr.Name {
			nodes[i] = attr

			return nodes
		}
	}

	// Attributes precede content.
	at := 0
	for at < len(nodes) && nodes[at].Kind == KindAttribute {
		at++
	}

	return splice(nodes, at, at, []*Node{attr})
}

func cloneAll(nodes []*Node) []*Node {
	out := make([]*Node, len(nodes))

	for i, n := range nodes {
		out[i] = n.Clone()
	}

	return out
}

// removeAt returns nodes without the elements at the sorted indices idx.
func removeAt(nodes []*Node, idx []int) []*Node {
	if len(idx) == 0 {
		return nodes
	}

	out := make([]*Node, 0, len(nodes)-len(idx))
	j := 0

	for i, n := range nodes {
		if j < len(idx) && idx[j] == i {
			j++

			continue
		}

		out = append(out, n)
	}

	return out
}

// splice replaces nodes[i:j] with content.
func splice(nodes []*Node, i, j int, content []*Node) []*Node {
	out := make([]*Node, 0, len(nodes)-(j-i)+len(content))
	out = append(out, nodes[:i]...)
	out = append(out, content...)

	return append(out, nodes[j:]...)
}
