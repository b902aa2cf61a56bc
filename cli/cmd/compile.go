package cmd

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/ardnew/chtl/lang"
	"github.com/ardnew/chtl/log"
)

// Compile generates HTML from CHTL sources.
type Compile struct {
	Output   string `help:"Write output to file, or to a directory when compiling several sources." placeholder:"PATH" short:"o" type:"path"`
	Pretty   bool   `help:"Indent the generated document."                                                                   short:"p"`
	Minify   bool   `help:"Remove insignificant whitespace from the generated document."                                     short:"m"`
	Indent   int    `help:"Indent width used with --pretty (0 keeps the source or default setting)."`
	Comments bool   `help:"Emit generator comments and source position markers."`
	Fragment bool   `help:"Write only the body markup, without the document shell."`
	Strict   bool   `help:"Fail when any diagnostic has error severity."`

	Sources []string `arg:"" default:"-" help:"Source files, or '-' for stdin." name:"source" optional:""`
}

// Run executes the compile command.
func (c *Compile) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	sources, err := readSources(ctx, c.Sources)
	if err != nil {
		return err
	}

	streams := streamsFrom(ctx)
	opts := compileOptions(ctx, c.options()...)

	count := make(tally)

	for _, src := range sources {
		res := lang.Compile(ctx, src.name, src.data, opts...)

		for s, n := range writeDiagnostics(streams.Err, res.Diagnostics) {
			count[s] += n
		}

		out := c.outputPath(src.name, len(sources))
		if err := writeFile(streams.Out, out, []byte(c.render(res))); err != nil {
			return err
		}

		log.DebugContext(ctx, "compiled",
			slog.String("source", src.name),
			slog.String("output", out),
			slog.Int("diagnostics", res.Diagnostics.Len()))
	}

	if c.Strict && count[lang.SeverityError] > 0 {
		return ErrCompile.With(slog.String("diagnostics", count.String()))
	}

	return nil
}

func (c *Compile) options() []lang.Option {
	var opts []lang.Option

	if c.Pretty {
		opts = append(opts, lang.WithPrettyPrint(true))
	}

	if c.Minify {
		opts = append(opts, lang.WithMinify(true))
	}

	if c.Indent > 0 {
		opts = append(opts, lang.WithIndent(c.Indent, ' '))
	}

	if c.Comments {
		opts = append(opts, lang.WithIncludeComments(true))
	}

	return opts
}

// render returns the text written for res.
func (c *Compile) render(res *lang.Result) string {
	out := res.HTML

	if c.Fragment {
		out = res.Document.Body()

		switch opts := res.Context.Options; {
		case opts.Minify:
			out = lang.Minify(out)
		case opts.PrettyPrint:
			out = lang.Pretty(out, opts.Indent())
		}
	}

	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}

	return out
}

// outputPath returns where the output for the source named name is written,
// or "" for standard output. Several sources compiled with --output are
// written to that directory, each named after its source.
func (c *Compile) outputPath(name string, sources int) string {
	if c.Output == "" || sources == 1 {
		return c.Output
	}

	base := filepath.Base(name)
	if name == stdinName {
		base = "stdin"
	}

	return filepath.Join(c.Output, strings.TrimSuffix(base, filepath.Ext(base))+".html")
}
