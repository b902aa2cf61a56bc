package lang

import (
	"iter"
	"strings"

	"github.com/ardnew/chtl/lang/token"
)

// Property is a single CSS declaration or variable binding.
// An empty Value marks a valueless property that a reference must fill in.
type Property struct {
	Name  string
	Value string
	Pos   token.Position
}

// Properties is an insertion-ordered map of property name to [Property].
// Replacing an existing name keeps its original position.
type Properties struct {
	keys []string
	vals map[string]Property
}

// NewProperties returns an empty property set.
func NewProperties() *Properties {
	return &Properties{vals: make(map[string]Property)}
}

// Len returns the number of properties.
func (p *Properties) Len() int {
	if p == nil {
		return 0
	}

	return len(p.keys)
}

// Get returns the property named name.
func (p *Properties) Get(name string) (Property, bool) {
	if p == nil {
		return Property{}, false
	}

	v, ok := p.vals[name]

	return v, ok
}

// Has reports whether a property named name is present.
func (p *Properties) Has(name string) bool {
	_, ok := p.Get(name)

	return ok
}

// Set replaces the value of prop.Name, or appends prop if absent.
func (p *Properties) Set(prop Property) {
	if _, ok := p.vals[prop.Name]; !ok {
		p.keys = append(p.keys, prop.Name)
	}

	p.vals[prop.Name] = prop
}

// SetIfAbsent appends prop unless its name is already present. It reports
// whether prop was added.
func (p *Properties) SetIfAbsent(prop Property) bool {
	if _, ok := p.vals[prop.Name]; ok {
		return false
	}

	p.keys = append(p.keys, prop.Name)
	p.vals[prop.Name] = prop

	return true
}

// Delete removes the property named name. It reports whether it was present.
func (p *Properties) Delete(name string) bool {
	if _, ok := p.vals[name]; !ok {
		return false
	}

	delete(p.vals, name)

	for i, k := range p.keys {
		if k == name {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)

			break
		}
	}

	return true
}

// Merge sets every property of other into p, replacing existing values.
func (p *Properties) Merge(other *Properties) {
	for prop := range other.All() {
		p.Set(prop)
	}
}

// All returns an iterator over the properties in order.
func (p *Properties) All() iter.Seq[Property] {
	return func(yield func(Property) bool) {
		if p == nil {
			return
		}

		for _, k := range p.keys {
			if !yield(p.vals[k]) {
				return
			}
		}
	}
}

// Keys returns the property names in order.
func (p *Properties) Keys() []string {
	if p == nil {
		return nil
	}

	return append([]string(nil), p.keys...)
}

// Clone returns an independent copy of p.
func (p *Properties) Clone() *Properties {
	c := NewProperties()

	for prop := range p.All() {
		c.Set(prop)
	}

	return c
}

// Map returns the properties as a plain map.
func (p *Properties) Map() map[string]string {
	m := make(map[string]string, p.Len())

	for prop := range p.All() {
		m[prop.Name] = prop.Value
	}

	return m
}

// CSS formats p as a declaration list "a: 1; b: 2;". Valueless properties
// are omitted.
func (p *Properties) CSS() string {
	var sb strings.Builder

	for prop := range p.All() {
		if prop.Value == "" {
			continue
		}

		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}

		sb.WriteString(prop.Name)
		sb.WriteString(": ")
		sb.WriteString(prop.Value)
		sb.WriteByte(';')
	}

	return sb.String()
}
