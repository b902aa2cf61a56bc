package lang

import (
	"iter"
	"strconv"

	"github.com/ardnew/chtl/lang/token"
)

// NodeKind identifies the variant of a [Node].
type NodeKind int

const (
	KindRoot NodeKind = iota
	KindElement
	KindText
	KindAttribute
	KindStyleBlock
	KindScriptBlock
	KindSelector
	KindProperty
	KindTemplate
	KindCustom
	KindOrigin
	KindImport
	KindNamespace
	KindConfiguration
	KindInheritance
	KindDeletion
	KindInsertion
	KindIndexAccess
	KindConstraint
	KindVariableReference
	KindTemplateReference
	KindCustomReference
	KindSpecialization
	KindComment
	KindLiteral
	KindUse
)

var nodeKindName = [...]string{
	KindRoot:              "Root",
	KindElement:           "Element",
	KindText:              "Text",
	KindAttribute:         "Attribute",
	KindStyleBlock:        "StyleBlock",
	KindScriptBlock:       "ScriptBlock",
	KindSelector:          "Selector",
	KindProperty:          "Property",
	KindTemplate:          "Template",
	KindCustom:            "Custom",
	KindOrigin:            "Origin",
	KindImport:            "Import",
	KindNamespace:         "Namespace",
	KindConfiguration:     "Configuration",
	KindInheritance:       "Inheritance",
	KindDeletion:          "Deletion",
	KindInsertion:         "Insertion",
	KindIndexAccess:       "IndexAccess",
	KindConstraint:        "Constraint",
	KindVariableReference: "VariableReference",
	KindTemplateReference: "TemplateReference",
	KindCustomReference:   "CustomReference",
	KindSpecialization:    "Specialization",
	KindComment:           "Comment",
	KindLiteral:           "Literal",
	KindUse:               "Use",
}

func (k NodeKind) String() string {
	if k >= 0 && int(k) < len(nodeKindName) {
		return nodeKindName[k]
	}

	return "NodeKind(" + strconv.Itoa(int(k)) + ")"
}

// DefType is the definition type named by a @Style, @Element, or @Var tag.
type DefType int

const (
	DefNone DefType = iota
	DefStyle
	DefElement
	DefVar
)

func (d DefType) String() string {
	switch d {
	case DefStyle:
		return "@Style"
	case DefElement:
		return "@Element"
	case DefVar:
		return "@Var"
	default:
		return ""
	}
}

// ParseDefType maps a type tag such as "@Style" to its [DefType].
func ParseDefType(tag string) DefType {
	switch tag {
	case "@Style":
		return DefStyle
	case "@Element":
		return DefElement
	case "@Var":
		return DefVar
	default:
		return DefNone
	}
}

// OriginKind classifies the foreign content of an Origin node.
type OriginKind int

const (
	OriginNone OriginKind = iota
	OriginHtml
	OriginStyle
	OriginJavaScript
	OriginCustom
)

func (o OriginKind) String() string {
	switch o {
	case OriginHtml:
		return "@Html"
	case OriginStyle:
		return "@Style"
	case OriginJavaScript:
		return "@JavaScript"
	case OriginCustom:
		return "custom"
	default:
		return ""
	}
}

// ParseOriginKind maps an origin type tag to its [OriginKind]. Any tag other
// than @Html, @Style, and @JavaScript is a custom origin type.
func ParseOriginKind(tag string) OriginKind {
	switch tag {
	case "@Html":
		return OriginHtml
	case "@Style", "@Css", "@CSS":
		return OriginStyle
	case "@JavaScript", "@Js", "@JS":
		return OriginJavaScript
	case "":
		return OriginNone
	default:
		return OriginCustom
	}
}

// Node is a single vertex of the syntax tree. Kind selects which of the
// payload fields are meaningful:
//
//	Element            Name is the tag
//	Text, Literal      Value is the content
//	Attribute          Name, Value, Equal
//	Property           Name, Value, Equal; Children hold value segments
//	StyleBlock         Children hold properties, selectors, references
//	ScriptBlock        Value is the verbatim script
//	Selector           Selector; Children hold the rule properties
//	Template, Custom   Def, Name; Children hold the body
//	Origin             Origin, OriginType, Name, Value
//	Import             Targets[0] describes what is imported, From, Alias
//	Namespace          Name is the fully qualified namespace
//	Configuration      Name (for @Config Name); Children hold properties
//	Inheritance        Def, Name, From
//	Deletion           Targets
//	Insertion          Position, Targets, Children hold the content
//	IndexAccess        Targets[0]; Children hold the body
//	Constraint         Targets
//	VariableReference  Name is the group, Value the key, Raw the spelling
//	*Reference         Def, Name, From; optional Specialization child
//	Comment            Value, Generated
//	Use                Value ("html5" or "@Config"), Name
type Node struct {
	Kind     NodeKind
	Token    token.Token
	Parent   *Node
	Children []*Node

	Name       string
	Value      string
	Raw        string
	Def        DefType
	Origin     OriginKind
	OriginType string
	From       string
	Alias      string
	Namespace  string
	Equal      bool
	Generated  bool
	Selector   Selector
	Targets    []Target
	Position   InsertPosition

	// expandedFrom names the element symbol whose expansion produced this
	// node, so that "delete @Element X" can find it.
	expandedFrom string
}

// NewNode returns a node of kind k located at tok.
func NewNode(k NodeKind, tok token.Token) *Node {
	return &Node{Kind: k, Token: tok}
}

// Pos returns the source position of n.
func (n *Node) Pos() token.Position { return n.Token.Pos }

// Append adds children to n and sets their parent.
func (n *Node) Append(children ...*Node) *Node {
	for _, c := range children {
		if c == nil {
			continue
		}

		c.Parent = n
		n.Children = append(n.Children, c)
	}

	return n
}

// Clone returns a deep copy of n. The copy's Parent is nil; every descendant
// is re-parented within the copy.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}

	c := *n
	c.Parent = nil
	c.Children = make([]*Node, 0, len(n.Children))
	c.Targets = append([]Target(nil), n.Targets...)

	for _, child := range n.Children {
		c.Append(child.Clone())
	}

	return &c
}

// All returns a pre-order iterator over n and its descendants.
func (n *Node) All() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		n.walk(yield)
	}
}

func (n *Node) walk(yield func(*Node) bool) bool {
	if !yield(n) {
		return false
	}

	for _, c := range n.Children {
		if !c.walk(yield) {
			return false
		}
	}

	return true
}

// ChildrenOf returns an iterator over the direct children of n with kind k.
func (n *Node) ChildrenOf(k NodeKind) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for _, c := range n.Children {
			if c.Kind == k && !yield(c) {
				return
			}
		}
	}
}

// Attr returns the value of the attribute named name declared directly on n.
// When an attribute is declared more than once, the last declaration wins.
func (n *Node) Attr(name string) (string, bool) {
	var (
		val   string
		found bool
	)

	for a := range n.ChildrenOf(KindAttribute) {
		if a.Name == name {
			val, found = a.Value, true
		}
	}

	return val, found
}

// Element returns the nearest enclosing Element of n, excluding n itself.
func (n *Node) Element() *Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Kind == KindElement {
			return p
		}
	}

	return nil
}

// Specialization returns the Specialization child of a reference or
// inheritance node, or nil.
func (n *Node) Specialization() *Node {
	for s := range n.ChildrenOf(KindSpecialization) {
		return s
	}

	return nil
}

// IsReference reports whether n refers to a template or custom definition.
func (n *Node) IsReference() bool {
	return n.Kind == KindTemplateReference ||
		n.Kind == KindCustomReference ||
		n.Kind == KindInheritance
}

// QualifiedName returns Name qualified by From, if set.
func (n *Node) QualifiedName() string {
	if n.From == "" {
		return n.Name
	}

	return n.From + "." + n.Name
}

// String returns a short debugging description of n.
func (n *Node) String() string {
	s := n.Kind.String()

	if n.Def != DefNone {
		s += " " + n.Def.String()
	}

	if n.Name != "" {
		s += " " + n.Name
	}

	return s + " @" + n.Token.Pos.String()
}
