package lang

import (
	"context"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
)

// Result is the outcome of one compilation.
type Result struct {
	// HTML is the complete post-processed document.
	HTML string

	Document    *Document
	Root        *Node
	Symbols     *SymbolMap
	Context     *GenerationContext
	Diagnostics *Diagnostics
}

// Err returns an error wrapping every error-severity diagnostic, or nil.
func (r *Result) Err() error { return r.Diagnostics.Err() }

// Compile builds and generates the CHTL source src read from file. It never
// fails; problems are recorded in the result's diagnostics.
func Compile(ctx context.Context, file string, src []byte, opts ...Option) *Result {
	s, diags := compileSettings(opts)

	return compile(ctx, s, diags, file, src)
}

// CompileReader reads r fully and compiles its content.
func CompileReader(
	ctx context.Context,
	file string,
	r io.Reader,
	opts ...Option,
) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).With(slog.String("file", file))
	}

	return Compile(ctx, file, data, opts...), nil
}

// CompileFile reads and compiles the file at path.
func CompileFile(ctx context.Context, path string, opts ...Option) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).With(slog.String("file", path))
	}

	return Compile(ctx, path, data, opts...), nil
}

// compileSettings returns the settings for one compilation, with a fresh
// diagnostics collector in front of any configured sink.
func compileSettings(opts []Option) (settings, *Diagnostics) {
	s := makeSettings(opts...)
	diags := &Diagnostics{}

	if s.sink != nil {
		s.sink = multiSink{diags, s.sink}
	} else {
		s.sink = diags
	}

	return s, diags
}

func compile(
	ctx context.Context,
	s settings,
	diags *Diagnostics,
	file string,
	src []byte,
) *Result {
	root := newBuilder(s).BuildSource(ctx, file, src)

	gen := &Generator{settings: s}
	doc, gc := gen.GenerateDocument(ctx, root)

	res := &Result{
		HTML:        gen.Finish(ctx, doc.Render(), gc.Options),
		Document:    doc,
		Root:        root,
		Symbols:     s.symbols,
		Context:     gc,
		Diagnostics: diags,
	}

	s.logger.DebugContext(ctx, "compiled",
		slog.String("file", file),
		slog.Any("diagnostics", diags))

	return res
}

// Session compiles a sequence of inputs that share one symbol map, so that
// later inputs can use declarations made by earlier ones.
type Session struct {
	opts    []Option
	symbols *SymbolMap
	inputs  int
}

// NewSession returns a session configured by opts.
func NewSession(opts ...Option) *Session {
	return &Session{opts: opts, symbols: NewSymbolMap()}
}

// Symbols returns the declarations accumulated by the session.
func (s *Session) Symbols() *SymbolMap { return s.symbols }

// Eval compiles src in the context of every earlier input.
func (s *Session) Eval(ctx context.Context, src string) *Result {
	s.inputs++

	set, diags := compileSettings(slices.Concat(s.opts, []Option{WithSymbols(s.symbols)}))

	return compile(ctx, set, diags, sessionFile(s.inputs), []byte(src))
}

func sessionFile(n int) string {
	return "<input-" + strconv.Itoa(n) + ">"
}
