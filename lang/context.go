package lang

import (
	"maps"
	"slices"
	"strings"
)

// GenerationContext is the mutable state of one generation run. A fresh
// context is created for every call to [Generator.Generate].
type GenerationContext struct {
	Options Options

	// Namespace is the namespace of the subtree being generated.
	Namespace string
	// Vars holds configuration entries that are not known options.
	Vars map[string]Value

	classes map[string]bool
	ids     map[string]bool
	styles  []string
	scripts []string
	rules   map[string]bool // promoted rule text already emitted

	autoClass int

	// option values in assignment order, visible to later expressions
	assigned map[string]Value

	styleMemo   map[*SymbolInfo]*Properties
	elementMemo map[*SymbolInfo][]*Node
}

// NewGenerationContext returns an empty context starting from opts.
func NewGenerationContext(opts Options) *GenerationContext {
	return &GenerationContext{
		Options:     opts,
		Vars:        make(map[string]Value),
		classes:     make(map[string]bool),
		ids:         make(map[string]bool),
		rules:       make(map[string]bool),
		assigned:    make(map[string]Value),
		styleMemo:   make(map[*SymbolInfo]*Properties),
		elementMemo: make(map[*SymbolInfo][]*Node),
	}
}

// Styles returns the global style fragments in emission order.
func (gc *GenerationContext) Styles() []string { return slices.Clone(gc.styles) }

// Scripts returns the global script fragments in emission order.
func (gc *GenerationContext) Scripts() []string { return slices.Clone(gc.scripts) }

// Classes returns the sorted class names applied by selector automation.
func (gc *GenerationContext) Classes() []string {
	return slices.Sorted(maps.Keys(gc.classes))
}

// IDs returns the sorted id names applied by selector automation.
func (gc *GenerationContext) IDs() []string {
	return slices.Sorted(maps.Keys(gc.ids))
}

// Var returns the configuration variable named name.
func (gc *GenerationContext) Var(name string) (Value, bool) {
	v, ok := gc.Vars[name]

	return v, ok
}

// set records a configuration entry: an option when key is known, a context
// variable otherwise.
func (gc *GenerationContext) set(key string, v Value) {
	gc.assigned[key] = v

	if builderKeys[strings.ToUpper(key)] {
		return
	}

	if !gc.Options.Set(key, v) {
		gc.Vars[key] = v
	}
}
