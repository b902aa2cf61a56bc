package lang

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ardnew/chtl/lang/token"
)

// ModulePathEnv names the environment variable holding additional module
// search directories, separated by the OS path list separator.
const ModulePathEnv = "CHTL_MODULE_PATH"

// Source is the content of a loaded file.
type Source struct {
	Path string // cleaned absolute path
	Data []byte
}

// Loader reads files named by import statements.
type Loader interface {
	// Load reads path as imported by the file from.
	Load(ctx context.Context, path, from string) (Source, error)
	// Glob expands a wildcard import path as imported by the file from.
	Glob(ctx context.Context, pattern, from string) ([]string, error)
}

// FileLoader loads imports from the file system. A relative path is searched
// in the importing file's directory, its "module" subdirectory, and then each
// directory of the module search path.
type FileLoader struct {
	dirs []string
}

// NewFileLoader returns a loader searching dirs followed by the directories
// listed in CHTL_MODULE_PATH.
func NewFileLoader(dirs ...string) *FileLoader {
	return &FileLoader{dirs: searchPath(dirs...)}
}

// SearchPath returns the module search path.
func (l *FileLoader) SearchPath() []string { return slices.Clone(l.dirs) }

func (l *FileLoader) roots(from string) []string {
	base := "."
	if from != "" {
		base = filepath.Dir(from)
	}

	return append([]string{base, filepath.Join(base, "module")}, l.dirs...)
}

// Load implements [Loader].
func (l *FileLoader) Load(_ context.Context, path, from string) (Source, error) {
	candidates := []string{path}
	if !filepath.IsAbs(path) {
		candidates = candidates[:0]
		for _, root := range l.roots(from) {
			candidates = append(candidates, filepath.Join(root, path))
		}
	}

	for _, c := range candidates {
		data, err := os.ReadFile(c)
		if err == nil {
			return Source{Path: pathAbs(c), Data: data}, nil
		}

		if !errors.Is(err, fs.ErrNotExist) {
			return Source{}, ErrImport.Wrap(err).With(slog.String("path", c))
		}
	}

	return Source{}, ErrImport.Wrap(fs.ErrNotExist).With(
		slog.String("path", path),
		slog.Any("searched", candidates))
}

// Glob implements [Loader]. The first search root with any match wins.
func (l *FileLoader) Glob(_ context.Context, pattern, from string) ([]string, error) {
	roots := []string{""}
	if !filepath.IsAbs(pattern) {
		roots = l.roots(from)
	}

	for _, root := range roots {
		matches, err := filepath.Glob(filepath.Join(root, pattern))
		if err != nil {
			return nil, ErrImport.Wrap(err).With(slog.String("pattern", pattern))
		}

		var files []string

		for _, m := range matches {
			if !fileIsDir(m) {
				files = append(files, pathAbs(m))
			}
		}

		if len(files) > 0 {
			slices.Sort(files)

			return files, nil
		}
	}

	return nil, nil
}

// importState is shared by a builder and the builders of every file it
// imports.
type importState struct {
	active map[string]bool // files being built
	done   map[string]bool // files already built
}

func newImportState() *importState {
	return &importState{
		active: make(map[string]bool),
		done:   make(map[string]bool),
	}
}

// visit marks file as being built and returns the function that marks it
// done.
func (s *importState) visit(file string) func() {
	key := pathAbs(file)
	s.active[key] = true

	return func() {
		delete(s.active, key)
		s.done[key] = true
	}
}

// fileExtensions lists the extensions tried for an import path without one.
var fileExtensions = map[string][]string{
	"@Html":       {".html", ".htm"},
	"@Style":      {".css"},
	"@JavaScript": {".js"},
	"@Chtl":       {".chtl"},
	"@Config":     {".chtl"},
}

// parseImport parses an import statement and resolves it immediately:
//
//	[Import] @Html|@Style|@JavaScript from path [as name];
//	[Import] @Chtl from path;
//	[Import] @CJmod from name;
//	[Import] @Config [Name] from path [as alias];
//	[Import] [Template]|[Custom]|[Origin] [@Type [Name]] from path [as alias];
func (b *Builder) parseImport() *Node {
	n := NewNode(KindImport, b.next())
	n.Namespace = b.symbols.Current()

	var t Target

	if b.at(token.MarkTemplate, token.MarkCustom, token.MarkOrigin) {
		t.Marker = b.next().Kind
	}

	if b.at(token.TypeTag) {
		t.TypeTag = b.canonicalTag(b.next().Text)
		t.Def = ParseDefType(t.TypeTag)
	}

	if b.cur().IsWord() && !b.at(token.KeywordFrom) {
		t.Tag = b.parseQualified()
	}

	n.Targets = []Target{t}

	if t.Marker == 0 && t.TypeTag == "" {
		b.report(ParseError, n.Pos(), ErrImport.With(
			slog.String("reason", "missing import type")))
		b.syncStatement()

		return nil
	}

	if _, ok := b.expect(token.KeywordFrom); !ok {
		b.syncStatement()

		return nil
	}

	n.From = importPath(b.collectImportPath(), t.TypeTag)

	if b.accept(token.KeywordAs) {
		n.Alias = b.parseQualified()
	}

	b.expectTerminator()

	if n.From == "" {
		b.report(ParseError, n.Pos(), ErrImport.With(
			slog.String("reason", "missing import path")))

		return n
	}

	b.resolveImport(n)

	return n
}

// collectImportPath consumes the path operand of an import.
func (b *Builder) collectImportPath() string {
	if b.at(token.String) {
		return b.next().Unquote()
	}

	var sb strings.Builder

	for !b.at(token.KeywordAs, token.Semicolon, token.RBrace, token.LBrace, token.EOF) {
		tok := b.next()
		if sb.Len() > 0 && tok.Lead != "" {
			break
		}

		sb.WriteString(tok.Text)
	}

	return sb.String()
}

// importPath normalizes an import path. An unquoted dotted module name such
// as "Chtholly.Space" or "styles.*" uses dots as separators.
func importPath(path, typeTag string) string {
	if path == "" || strings.ContainsAny(path, `/\`) {
		return path
	}

	ext := filepath.Ext(path)
	for _, known := range fileExtensions {
		if slices.Contains(known, ext) {
			return path
		}
	}

	if ext == ".cmod" || ext == ".cjmod" || typeTag == "@CJmod" {
		return path
	}

	return strings.ReplaceAll(path, ".", "/")
}

// resolveImport performs the import described by n.
func (b *Builder) resolveImport(n *Node) {
	t := n.Targets[0]

	if b.depth >= b.maxImportDepth {
		b.report(ResolutionError, n.Pos(), ErrImport.With(
			slog.String("path", n.From),
			slog.Int("depth", b.depth)))

		return
	}

	b.logger.DebugContext(b.ctx, "import",
		slog.String("type", t.String()),
		slog.String("from", n.From),
		slog.String("as", n.Alias))

	switch {
	case t.Marker == 0 && t.TypeTag == "@CJmod":
		b.importModule(n, n.From)
	case t.Marker == 0 && isFileOrigin(t.TypeTag):
		b.importFiles(n, fileExtensions[ParseOriginKind(t.TypeTag).String()], b.importOrigin)
	case t.Marker == 0 && t.TypeTag == "@Chtl":
		b.importFiles(n, fileExtensions["@Chtl"], b.importChtl)
	case t.Marker == 0 && t.TypeTag == "@Config":
		b.importFiles(n, fileExtensions["@Config"], func(n *Node, src Source, name, alias string) {
			b.importSymbols(n, src, name, alias, func(s *SymbolInfo) bool {
				return s.Kind == SymbolConfiguration
			})
		})
	case t.Marker != 0:
		b.importFiles(n, fileExtensions["@Chtl"], func(n *Node, src Source, name, alias string) {
			b.importSymbols(n, src, name, alias, t.selects)
		})
	default:
		b.report(ParseError, n.Pos(), ErrInvalidTypeTag.With(
			slog.String("tag", t.TypeTag)))
	}
}

func isFileOrigin(tag string) bool {
	switch ParseOriginKind(tag) {
	case OriginHtml, OriginStyle, OriginJavaScript:
		return true
	default:
		return false
	}
}

// importFunc imports one loaded file. Name and alias are empty for every
// file of a batch import.
type importFunc func(n *Node, src Source, name, alias string)

// importFiles loads the file or, for a wildcard path, every matching file
// named by n and passes each to fn.
func (b *Builder) importFiles(n *Node, exts []string, fn importFunc) {
	name, alias := n.Targets[0].Tag, n.Alias

	if !strings.ContainsAny(n.From, "*?[") {
		src, err := b.load(n.From, exts)
		if err != nil {
			if n.Targets[0].TypeTag == "@Chtl" && b.importModule(n, filepath.Base(n.From)) {
				return
			}

			b.report(ResolutionError, n.Pos(), WrapError(err))

			return
		}

		fn(n, src, name, alias)

		return
	}

	if name != "" || alias != "" {
		b.report(ValidationWarning, n.Pos(), ErrBatchImportName.With(
			slog.String("path", n.From),
			slog.String("name", name),
			slog.String("as", alias)))
	}

	matches, err := b.loader.Glob(b.ctx, n.From, b.file)
	if err != nil {
		b.report(ResolutionError, n.Pos(), WrapError(err))

		return
	}

	found := 0

	for _, path := range matches {
		if len(exts) > 0 && filepath.Ext(path) != "" && !slices.Contains(exts, filepath.Ext(path)) {
			continue
		}

		src, err := b.loader.Load(b.ctx, path, b.file)
		if err != nil {
			b.report(ResolutionError, n.Pos(), WrapError(err))

			continue
		}

		found++

		fn(n, src, "", "")
	}

	if found == 0 {
		b.report(ResolutionError, n.Pos(), ErrImport.Wrap(fs.ErrNotExist).
			With(slog.String("pattern", n.From)))
	}
}

// load reads path, trying each of exts when path has no extension.
func (b *Builder) load(path string, exts []string) (Source, error) {
	if filepath.Ext(path) != "" || len(exts) == 0 {
		return b.loader.Load(b.ctx, path, b.file)
	}

	var first error

	for _, ext := range exts {
		src, err := b.loader.Load(b.ctx, path+ext, b.file)
		if err == nil {
			return src, nil
		}

		if first == nil || !errors.Is(err, fs.ErrNotExist) {
			first = err
		}
	}

	return Source{}, first
}

// enterFile reports whether src may be built now. A file that is still being
// built is an import cycle. When once is set, a file already built is
// skipped.
func (b *Builder) enterFile(n *Node, src Source, once bool) bool {
	key := pathAbs(src.Path)

	switch {
	case b.imports.active[key]:
		b.report(ValidationWarning, n.Pos(), ErrImportCycle.
			With(slog.String("path", src.Path)))

		return false
	case once && b.imports.done[key]:
		b.logger.DebugContext(b.ctx, "already imported",
			slog.String("path", src.Path))

		return false
	}

	return true
}

// importOrigin imports an HTML, CSS, or JavaScript file as origin content:
// named when aliased, in place otherwise.
func (b *Builder) importOrigin(n *Node, src Source, _, alias string) {
	o := NewNode(KindOrigin, n.Token)
	o.Origin = ParseOriginKind(n.Targets[0].TypeTag)
	o.OriginType = strings.TrimPrefix(n.Targets[0].TypeTag, "@")
	o.Namespace = n.Namespace
	o.Value = string(src.Data)

	if alias == "" {
		n.Append(o)

		return
	}

	o.Name = alias
	b.register(&SymbolInfo{
		Name:       alias,
		Namespace:  n.Namespace,
		Kind:       OriginSymbolKind(o.Origin),
		Node:       o,
		Pos:        n.Pos(),
		OriginType: o.OriginType,
	})
}

// importChtl builds a CHTL file into the importer's symbol map.
func (b *Builder) importChtl(n *Node, src Source, _, _ string) {
	if !b.enterFile(n, src, true) {
		return
	}

	b.child(b.symbols).BuildSource(b.ctx, src.Path, src.Data)
}

// importSymbols builds a CHTL file into a private symbol map and registers
// the symbols accepted by match and, when set, named name. A named import
// may be renamed by alias.
func (b *Builder) importSymbols(
	n *Node,
	src Source,
	name, alias string,
	match func(*SymbolInfo) bool,
) {
	if !b.enterFile(n, src, false) {
		return
	}

	private := NewSymbolMap()
	b.child(private).BuildSource(b.ctx, src.Path, src.Data)

	var kinds []SymbolKind

	for s := range private.All() {
		if !match(s) {
			continue
		}

		kinds = append(kinds, s.Kind)

		if name != "" && s.Name != name && s.QualifiedName() != name {
			continue
		}

		imported := *s
		if imported.Namespace == "" {
			imported.Namespace = n.Namespace
		}

		if name != "" && alias != "" {
			imported.Name = alias
		}

		b.register(&imported)

		if name != "" {
			return
		}
	}

	if name != "" {
		report(b.sink, ResolutionError, n.Pos(), ErrUnresolvedSymbol.With(
			slog.String("name", name),
			slog.String("path", src.Path)),
			private.Suggest(name, kinds...)...)
	}
}

// importModule merges the exports of the named module. It reports whether
// the module was found; a missing @CJmod module is an error.
func (b *Builder) importModule(n *Node, name string) bool {
	exports, ok := b.modules.FindModule(name)
	if !ok {
		if n.Targets[0].TypeTag == "@CJmod" {
			b.report(ResolutionError, n.Pos(), ErrModuleNotFound.
				With(slog.String("name", name)))
		}

		return false
	}

	for s := range exports.Symbols.All() {
		b.register(s)
	}

	b.logger.DebugContext(b.ctx, "module imported",
		slog.String("name", exports.Name),
		slog.Int("symbols", exports.Symbols.Len()))

	return true
}

// selects reports whether s is selected by the selective import target t.
func (t Target) selects(s *SymbolInfo) bool {
	switch t.Marker {
	case token.MarkTemplate:
		if !s.Kind.IsTemplate() {
			return false
		}
	case token.MarkCustom:
		if !s.Kind.IsCustom() {
			return false
		}
	case token.MarkOrigin:
		if !s.Kind.IsOrigin() {
			return false
		}

		if t.TypeTag != "" {
			o := ParseOriginKind(t.TypeTag)
			if s.Kind != OriginSymbolKind(o) {
				return false
			}

			if o == OriginCustom && s.OriginType != strings.TrimPrefix(t.TypeTag, "@") {
				return false
			}
		}

		return true
	}

	return t.Def == DefNone || s.Kind.Def() == t.Def
}
