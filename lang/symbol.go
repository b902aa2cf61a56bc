package lang

import (
	"iter"
	"slices"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/ardnew/chtl/lang/token"
)

// SymbolKind identifies the kind of a registered definition.
type SymbolKind int

const (
	SymbolTemplateStyle SymbolKind = iota
	SymbolTemplateElement
	SymbolTemplateVar
	SymbolCustomStyle
	SymbolCustomElement
	SymbolCustomVar
	SymbolOriginHtml
	SymbolOriginStyle
	SymbolOriginJavaScript
	SymbolOriginCustom
	SymbolConfiguration
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolTemplateStyle:
		return "[Template] @Style"
	case SymbolTemplateElement:
		return "[Template] @Element"
	case SymbolTemplateVar:
		return "[Template] @Var"
	case SymbolCustomStyle:
		return "[Custom] @Style"
	case SymbolCustomElement:
		return "[Custom] @Element"
	case SymbolCustomVar:
		return "[Custom] @Var"
	case SymbolOriginHtml:
		return "[Origin] @Html"
	case SymbolOriginStyle:
		return "[Origin] @Style"
	case SymbolOriginJavaScript:
		return "[Origin] @JavaScript"
	case SymbolOriginCustom:
		return "[Origin]"
	case SymbolConfiguration:
		return "[Configuration] @Config"
	default:
		return "unknown"
	}
}

// DefinitionKind returns the symbol kind for a template (custom == false) or
// custom definition of type def.
func DefinitionKind(def DefType, custom bool) (SymbolKind, bool) {
	switch def {
	case DefStyle:
		if custom {
			return SymbolCustomStyle, true
		}

		return SymbolTemplateStyle, true
	case DefElement:
		if custom {
			return SymbolCustomElement, true
		}

		return SymbolTemplateElement, true
	case DefVar:
		if custom {
			return SymbolCustomVar, true
		}

		return SymbolTemplateVar, true
	default:
		return 0, false
	}
}

// OriginSymbolKind returns the symbol kind for a named origin of kind o.
func OriginSymbolKind(o OriginKind) SymbolKind {
	switch o {
	case OriginHtml:
		return SymbolOriginHtml
	case OriginStyle:
		return SymbolOriginStyle
	case OriginJavaScript:
		return SymbolOriginJavaScript
	default:
		return SymbolOriginCustom
	}
}

// Def returns the definition type of k, or [DefNone].
func (k SymbolKind) Def() DefType {
	switch k {
	case SymbolTemplateStyle, SymbolCustomStyle:
		return DefStyle
	case SymbolTemplateElement, SymbolCustomElement:
		return DefElement
	case SymbolTemplateVar, SymbolCustomVar:
		return DefVar
	default:
		return DefNone
	}
}

// IsCustom reports whether k is a Custom definition.
func (k SymbolKind) IsCustom() bool {
	return k == SymbolCustomStyle || k == SymbolCustomElement ||
		k == SymbolCustomVar
}

// IsTemplate reports whether k is a Template definition.
func (k SymbolKind) IsTemplate() bool {
	return k == SymbolTemplateStyle || k == SymbolTemplateElement ||
		k == SymbolTemplateVar
}

// IsOrigin reports whether k is a named origin.
func (k SymbolKind) IsOrigin() bool {
	return k >= SymbolOriginHtml && k <= SymbolOriginCustom
}

// SymbolInfo describes one registered definition.
type SymbolInfo struct {
	Name       string
	Namespace  string
	Kind       SymbolKind
	Properties *Properties
	Inherits   []string
	Node       *Node
	Pos        token.Position
	OriginType string
}

// QualifiedName returns the namespace-qualified name of s.
func (s *SymbolInfo) QualifiedName() string {
	if s.Namespace == "" {
		return s.Name
	}

	return s.Namespace + "." + s.Name
}

type symbolKey struct {
	namespace string
	name      string
	kind      SymbolKind
	origin    string
}

func (s *SymbolInfo) key() symbolKey {
	k := symbolKey{namespace: s.Namespace, name: s.Name, kind: s.Kind}
	if s.Kind == SymbolOriginCustom {
		k.origin = s.OriginType
	}

	return k
}

// SymbolMap is the namespace-aware registry of every definition seen during a
// compilation. It is populated by the builder and only read by the generator.
type SymbolMap struct {
	symbols map[symbolKey]*SymbolInfo
	order   []symbolKey
	stack   []string
}

// NewSymbolMap returns an empty symbol map.
func NewSymbolMap() *SymbolMap {
	return &SymbolMap{symbols: make(map[symbolKey]*SymbolInfo)}
}

// Add registers info under its (namespace, name, kind) identity and returns
// the symbol it replaced, if any. The last registration wins.
func (m *SymbolMap) Add(info *SymbolInfo) (replaced *SymbolInfo) {
	k := info.key()

	if prev, ok := m.symbols[k]; ok {
		m.symbols[k] = info

		return prev
	}

	m.symbols[k] = info
	m.order = append(m.order, k)

	return nil
}

// Len returns the number of registered symbols.
func (m *SymbolMap) Len() int { return len(m.order) }

// ParseQualifiedName splits "a.b.Name" into namespace "a.b" and name "Name".
func ParseQualifiedName(text string) (namespace, name string) {
	text = strings.TrimSpace(text)

	if i := strings.LastIndexByte(text, '.'); i >= 0 {
		return text[:i], text[i+1:]
	}

	return "", text
}

// searchOrder returns the namespaces consulted for a lookup of name, in
// precedence order: the namespace qualifying name, each hint with its
// ancestors, then the global namespace.
func searchOrder(explicit string, hints ...string) []string {
	var (
		order []string
		seen  = make(map[string]bool)
	)

	add := func(ns string) {
		if !seen[ns] {
			seen[ns] = true
			order = append(order, ns)
		}
	}

	if explicit != "" {
		add(explicit)
	}

	for _, h := range hints {
		for ns := h; ns != ""; {
			add(ns)

			i := strings.LastIndexByte(ns, '.')
			if i < 0 {
				break
			}

			ns = ns[:i]
		}
	}

	add("")

	return order
}

// Find returns the symbol named name of the given kind. A qualified name
// ("ns.Name") is searched in its own namespace first; then each namespace in
// hints (with its ancestors) and finally the global namespace are tried.
func (m *SymbolMap) Find(
	name string,
	kind SymbolKind,
	hints ...string,
) (*SymbolInfo, bool) {
	explicit, base := ParseQualifiedName(name)

	for _, ns := range searchOrder(explicit, hints...) {
		if s, ok := m.symbols[symbolKey{namespace: ns, name: base, kind: kind}]; ok {
			return s, true
		}
	}

	return nil, false
}

// FindDef returns the template or custom symbol named name of definition type
// def. Within each namespace, the custom symbol is preferred over the template
// when preferCustom is set, and the template otherwise.
func (m *SymbolMap) FindDef(
	name string,
	def DefType,
	preferCustom bool,
	hints ...string,
) (*SymbolInfo, bool) {
	tk, ok := DefinitionKind(def, false)
	if !ok {
		return nil, false
	}

	ck, _ := DefinitionKind(def, true)

	kinds := [2]SymbolKind{tk, ck}
	if preferCustom {
		kinds = [2]SymbolKind{ck, tk}
	}

	explicit, base := ParseQualifiedName(name)

	for _, ns := range searchOrder(explicit, hints...) {
		for _, k := range kinds {
			if s, ok := m.symbols[symbolKey{namespace: ns, name: base, kind: k}]; ok {
				return s, true
			}
		}
	}

	return nil, false
}

// FindOrigin returns the named origin of kind o. For custom origins, typ is
// the origin type name without its "@".
func (m *SymbolMap) FindOrigin(
	name string,
	o OriginKind,
	typ string,
	hints ...string,
) (*SymbolInfo, bool) {
	kind := OriginSymbolKind(o)
	explicit, base := ParseQualifiedName(name)

	for _, ns := range searchOrder(explicit, hints...) {
		k := symbolKey{namespace: ns, name: base, kind: kind}
		if kind == SymbolOriginCustom {
			k.origin = typ
		}

		if s, ok := m.symbols[k]; ok {
			return s, true
		}
	}

	return nil, false
}

// Enter pushes a namespace nested under the current one and returns its fully
// qualified name.
func (m *SymbolMap) Enter(namespace string) string {
	if cur := m.Current(); cur != "" {
		namespace = cur + "." + namespace
	}

	m.stack = append(m.stack, namespace)

	return namespace
}

// Exit pops the current namespace.
func (m *SymbolMap) Exit() {
	if len(m.stack) > 0 {
		m.stack = m.stack[:len(m.stack)-1]
	}
}

// Current returns the fully qualified current namespace, or "" when global.
func (m *SymbolMap) Current() string {
	if len(m.stack) == 0 {
		return ""
	}

	return m.stack[len(m.stack)-1]
}

// All returns an iterator over every symbol in registration order.
func (m *SymbolMap) All() iter.Seq[*SymbolInfo] {
	return func(yield func(*SymbolInfo) bool) {
		for _, k := range m.order {
			if !yield(m.symbols[k]) {
				return
			}
		}
	}
}

// Names returns the sorted qualified names of every symbol whose kind is one
// of kinds, or of all symbols when kinds is empty.
func (m *SymbolMap) Names(kinds ...SymbolKind) []string {
	var names []string

	seen := make(map[string]bool)

	for s := range m.All() {
		if len(kinds) > 0 && !slices.Contains(kinds, s.Kind) {
			continue
		}

		if q := s.QualifiedName(); !seen[q] {
			seen[q] = true
			names = append(names, q)
		}
	}

	sort.Strings(names)

	return names
}

// Suggest returns up to three names of the given kinds that fuzzily match
// name, best match first.
func (m *SymbolMap) Suggest(name string, kinds ...SymbolKind) []string {
	candidates := m.Names(kinds...)
	if len(candidates) == 0 || name == "" {
		return nil
	}

	matches := fuzzy.Find(name, candidates)

	// fuzzy only matches candidates containing every rune of name in order;
	// fall back to the reverse direction so that "Boxx" still suggests "Box".
	if len(matches) == 0 {
		for _, c := range candidates {
			if len(fuzzy.Find(c, []string{name})) > 0 {
				matches = append(matches, fuzzy.Match{Str: c})
			}
		}
	}

	out := make([]string, 0, 3)

	for _, match := range matches {
		if len(out) == cap(out) {
			break
		}

		out = append(out, match.Str)
	}

	return out
}

// Merge registers every symbol of other into m. Symbols of other replace
// existing symbols with the same identity.
func (m *SymbolMap) Merge(other *SymbolMap) {
	for s := range other.All() {
		m.Add(s)
	}
}

// defKinds returns both symbol kinds of definition type def.
func defKinds(def DefType) []SymbolKind {
	t, ok := DefinitionKind(def, false)
	if !ok {
		return nil
	}

	c, _ := DefinitionKind(def, true)

	return []SymbolKind{t, c}
}
