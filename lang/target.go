package lang

import (
	"strconv"
	"strings"

	"github.com/ardnew/chtl/lang/token"
)

// IndexMode selects how the index of a [Target] is interpreted.
type IndexMode int

const (
	IndexNone IndexMode = iota
	IndexNumber
	IndexFirst
	IndexLast
)

// Target names the subject of a deletion, insertion, index access,
// constraint, or selective import.
//
// A plain target such as "div" or "div[1]" sets Tag and optionally an index.
// Typed targets such as "@Element Box" or "[Custom] @Style" set Def (and
// Marker, when bracketed) with Tag holding the optional symbol name. TypeTag
// holds a tag that is not a definition type, such as "@Html" or "@Chtl".
type Target struct {
	Tag       string
	Mode      IndexMode
	Index     int
	Def       DefType
	Marker    token.Kind
	TypeTag   string
	Namespace string
}

// IsElement reports whether t names plain elements by tag.
func (t Target) IsElement() bool {
	return t.Def == DefNone && t.Marker == 0 && t.TypeTag == "" && t.Tag != ""
}

// String returns the canonical source spelling of t.
func (t Target) String() string {
	var part []string

	if t.Marker != 0 {
		part = append(part, t.Marker.String())
	}

	if t.Def != DefNone {
		part = append(part, t.Def.String())
	} else if t.TypeTag != "" {
		part = append(part, t.TypeTag)
	}

	if t.Tag != "" {
		name := t.Tag

		switch t.Mode {
		case IndexNumber:
			name += "[" + strconv.Itoa(t.Index) + "]"
		case IndexFirst:
			name += "[first]"
		case IndexLast:
			name += "[last]"
		}

		part = append(part, name)
	}

	s := strings.Join(part, " ")

	if t.Namespace != "" {
		s += " from " + t.Namespace
	}

	return s
}

// InsertPosition selects where an Insertion places its content.
type InsertPosition int

const (
	InsertAfter InsertPosition = iota
	InsertBefore
	InsertReplace
	InsertAtTop
	InsertAtBottom
)

func (p InsertPosition) String() string {
	switch p {
	case InsertAfter:
		return "after"
	case InsertBefore:
		return "before"
	case InsertReplace:
		return "replace"
	case InsertAtTop:
		return "at top"
	case InsertAtBottom:
		return "at bottom"
	default:
		return ""
	}
}

// NeedsTarget reports whether p is relative to a target element.
func (p InsertPosition) NeedsTarget() bool {
	return p == InsertAfter || p == InsertBefore || p == InsertReplace
}

// match returns the indices into nodes of the elements selected by t. A
// numeric index is offset by base. When first is true and t has no index,
// only the first element with the tag is selected; otherwise all are.
func (t Target) match(nodes []*Node, base int, first bool) []int {
	var idx []int

	for i, n := range nodes {
		switch {
		case t.Def == DefElement:
			if n.expandedFrom != "" && (t.Tag == "" || n.expandedFrom == t.Tag ||
				strings.HasSuffix(n.expandedFrom, "."+t.Tag)) {
				idx = append(idx, i)
			}
		case n.Kind == KindElement && n.Name == t.Tag:
			idx = append(idx, i)
		}
	}

	if len(idx) == 0 {
		return nil
	}

	switch t.Mode {
	case IndexNumber:
		k := t.Index - base
		if k < 0 || k >= len(idx) {
			return nil
		}

		return idx[k : k+1]
	case IndexFirst:
		return idx[:1]
	case IndexLast:
		return idx[len(idx)-1:]
	}

	if first {
		return idx[:1]
	}

	return idx
}
