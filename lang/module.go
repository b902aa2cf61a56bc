package lang

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/ardnew/chtl/lang/token"
)

// ModuleExports is the public surface of a module.
type ModuleExports struct {
	Name    string
	Info    map[string]string // [Info] entries
	Symbols *SymbolMap
}

// Names returns the exported names of the given kind.
func (e *ModuleExports) Names(kind SymbolKind) []string {
	if e == nil || e.Symbols == nil {
		return nil
	}

	return e.Symbols.Names(kind)
}

// ModuleProvider finds modules by name.
type ModuleProvider interface {
	FindModule(name string) (*ModuleExports, bool)
}

// DirModuleProvider provides modules stored as CHTL sources on the module
// search path, as either "name.chtl" or "name/src/name.chtl". A module's
// [Export] block, when present, limits the symbols it exports.
type DirModuleProvider struct {
	loader Loader
	cache  map[string]*ModuleExports
}

// NewDirModuleProvider returns a provider reading modules through loader.
func NewDirModuleProvider(loader Loader) *DirModuleProvider {
	return &DirModuleProvider{
		loader: loader,
		cache:  make(map[string]*ModuleExports),
	}
}

// FindModule implements [ModuleProvider].
func (p *DirModuleProvider) FindModule(name string) (*ModuleExports, bool) {
	if e, ok := p.cache[name]; ok {
		return e, e != nil
	}

	base := filepath.Base(strings.ReplaceAll(name, ".", "/"))
	dir := strings.ReplaceAll(name, ".", "/")

	for _, path := range []string{
		dir + ".chtl",
		filepath.Join(dir, "src", base+".chtl"),
	} {
		src, err := p.loader.Load(context.Background(), path, "")
		if err != nil {
			continue
		}

		e := p.build(name, src)
		p.cache[name] = e

		return e, true
	}

	p.cache[name] = nil

	return nil, false
}

func (p *DirModuleProvider) build(name string, src Source) *ModuleExports {
	all := NewSymbolMap()
	root := NewBuilder(
		WithLoader(p.loader),
		WithModules(p),
		WithSymbols(all),
	).BuildSource(context.Background(), src.Path, src.Data)

	e := &ModuleExports{
		Name:    name,
		Info:    make(map[string]string),
		Symbols: all,
	}

	var export *Node

	for c := range root.ChildrenOf(KindConfiguration) {
		switch c.Token.Kind {
		case token.MarkInfo:
			for prop := range c.ChildrenOf(KindProperty) {
				e.Info[prop.Name] = prop.Value
			}
		case token.MarkExport:
			export = c
		}
	}

	if export != nil {
		e.Symbols = exported(all, export.Targets)
	}

	return e
}

// exported returns the symbols of all selected by the [Export] targets.
func exported(all *SymbolMap, targets []Target) *SymbolMap {
	out := NewSymbolMap()

	for s := range all.All() {
		for _, t := range targets {
			if t.selects(s) && (t.Tag == "" || t.Tag == s.Name) {
				out.Add(s)

				break
			}
		}
	}

	return out
}

// MapModuleProvider serves a fixed set of modules, for embedding and tests.
type MapModuleProvider map[string]*ModuleExports

// FindModule implements [ModuleProvider].
func (m MapModuleProvider) FindModule(name string) (*ModuleExports, bool) {
	e, ok := m[name]

	return e, ok
}
