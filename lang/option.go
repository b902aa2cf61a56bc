package lang

import (
	"github.com/ardnew/chtl/log"
)

// Option configures a [Builder], [Generator], or [Compile].
type Option func(*settings)

// settings is the configuration shared by every stage of one compilation.
type settings struct {
	logger         log.Logger
	sink           Sink
	loader         Loader
	modules        ModuleProvider
	style          StyleCompiler
	script         ScriptCompiler
	options        Options
	symbols        *SymbolMap
	modulePath     []string
	maxImportDepth int
}

// DefaultMaxImportDepth bounds the nesting of recursive imports.
const DefaultMaxImportDepth = 32

func makeSettings(opts ...Option) settings {
	s := settings{
		options:        DefaultOptions(),
		style:          IdentityCompiler{},
		script:         SelectorScript{},
		maxImportDepth: DefaultMaxImportDepth,
	}

	for _, opt := range opts {
		opt(&s)
	}

	if s.symbols == nil {
		s.symbols = NewSymbolMap()
	}

	if s.loader == nil {
		s.loader = NewFileLoader(s.modulePath...)
	}

	if s.modules == nil {
		s.modules = NewDirModuleProvider(s.loader)
	}

	return s
}

// WithLogger sets the logger used for trace and debug output.
func WithLogger(logger log.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithSink sets an additional receiver for every diagnostic.
func WithSink(sink Sink) Option {
	return func(s *settings) { s.sink = sink }
}

// WithLoader sets the loader used to read imported files.
func WithLoader(loader Loader) Option {
	return func(s *settings) { s.loader = loader }
}

// WithModules sets the provider of precompiled module exports.
func WithModules(modules ModuleProvider) Option {
	return func(s *settings) { s.modules = modules }
}

// WithModulePath appends directories to the module search path of the
// default loader.
func WithModulePath(dirs ...string) Option {
	return func(s *settings) { s.modulePath = append(s.modulePath, dirs...) }
}

// WithSymbols sets the symbol map that declarations are registered into.
func WithSymbols(symbols *SymbolMap) Option {
	return func(s *settings) { s.symbols = symbols }
}

// WithStyleCompiler sets the compiler applied to collected CSS.
func WithStyleCompiler(c StyleCompiler) Option {
	return func(s *settings) { s.style = c }
}

// WithScriptCompiler sets the compiler applied to collected scripts.
func WithScriptCompiler(c ScriptCompiler) Option {
	return func(s *settings) { s.script = c }
}

// WithMaxImportDepth bounds the nesting of recursive imports.
func WithMaxImportDepth(depth int) Option {
	return func(s *settings) { s.maxImportDepth = depth }
}

// WithOptions applies fn to the initial output options. In-source
// [Configuration] blocks are applied afterward and take precedence.
func WithOptions(fn func(*Options)) Option {
	return func(s *settings) { fn(&s.options) }
}

// WithPrettyPrint enables or disables indented output.
func WithPrettyPrint(pretty bool) Option {
	return WithOptions(func(o *Options) { o.PrettyPrint = pretty })
}

// WithMinify enables or disables whitespace collapsing.
func WithMinify(minify bool) Option {
	return WithOptions(func(o *Options) { o.Minify = minify })
}

// WithIncludeComments controls whether generator comments are emitted.
func WithIncludeComments(include bool) Option {
	return WithOptions(func(o *Options) { o.IncludeComments = include })
}

// WithIndent sets the pretty-print indent width and character.
func WithIndent(size int, char rune) Option {
	return WithOptions(func(o *Options) {
		o.IndentSize = size
		o.IndentChar = char
	})
}

// WithDebug enables debug mode.
func WithDebug(debug bool) Option {
	return WithOptions(func(o *Options) { o.Debug = debug })
}
