package lang

import (
	"encoding/json"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// MarshalJSON implements json.Marshaler for Node.
func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.ToMap())
}

// ToMap converts the tree rooted at n to plain maps and slices. Only the
// payload fields meaningful for each node kind are included.
func (n *Node) ToMap() map[string]any {
	if n == nil {
		return nil
	}

	m := map[string]any{"kind": n.Kind.String()}

	put := func(key, val string) {
		if val != "" {
			m[key] = val
		}
	}

	put("name", n.Name)
	put("value", n.Value)
	put("from", n.From)
	put("alias", n.Alias)
	put("namespace", n.Namespace)
	put("def", n.Def.String())

	if n.Kind == KindOrigin {
		put("origin", "@"+n.OriginType)
	}

	if n.Kind == KindSelector {
		m["selector"] = map[string]any{
			"kind": n.Selector.Kind.String(),
			"text": n.Selector.Text,
		}
	}

	if n.Kind == KindInsertion {
		m["position"] = n.Position.String()
	}

	if n.Kind == KindConfiguration && n.Token.Kind.IsMarker() {
		m["block"] = n.Token.Kind.String()
	}

	if n.Generated {
		m["generated"] = true
	}

	if len(n.Targets) > 0 {
		targets := make([]any, len(n.Targets))
		for i, t := range n.Targets {
			targets[i] = t.String()
		}

		m["targets"] = targets
	}

	if pos := n.Pos(); pos.Line > 0 {
		m["pos"] = pos.String()
	}

	if len(n.Children) > 0 {
		children := make([]any, len(n.Children))
		for i, c := range n.Children {
			children[i] = c.ToMap()
		}

		m["children"] = children
	}

	return m
}

// ToMap converts the symbols of m to plain maps keyed by symbol kind.
func (m *SymbolMap) ToMap() map[string]any {
	out := make(map[string]any)

	for s := range m.All() {
		list, _ := out[s.Kind.String()].([]any)

		entry := map[string]any{
			"name": s.QualifiedName(),
			"pos":  s.Pos.String(),
		}

		if s.OriginType != "" {
			entry["origin"] = "@" + s.OriginType
		}

		out[s.Kind.String()] = append(list, entry)
	}

	return out
}

// ToProto converts the tree rooted at n to a protobuf Struct.
func (n *Node) ToProto() (*structpb.Struct, error) {
	return structpb.NewStruct(n.ToMap())
}

// MarshalProto encodes the tree rooted at n in protobuf wire format.
func (n *Node) MarshalProto() ([]byte, error) {
	s, err := n.ToProto()
	if err != nil {
		return nil, err
	}

	return proto.MarshalOptions{Deterministic: true}.Marshal(s)
}
