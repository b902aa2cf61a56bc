package cmd

import (
	"bytes"
	"context"
	"io"

	"github.com/ardnew/chtl/cli/cmd/repl"
	"github.com/ardnew/chtl/lang"
	"github.com/ardnew/chtl/log"
)

// Repl starts an interactive session that compiles each input line.
type Repl struct {
	Pretty bool `help:"Indent the markup of each input." short:"p"`

	Preload []string `arg:"" help:"Source files declaring templates for the session, or '-' for stdin." name:"source" optional:""`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	var cacheDir string
	if ktx := kongContextFrom(ctx); ktx != nil {
		cacheDir = ktx.Model.Vars()[CacheIdentifier]
	}

	var preload io.Reader

	if len(r.Preload) > 0 {
		sources, err := readSources(ctx, r.Preload)
		if err != nil {
			return err
		}

		var buf bytes.Buffer

		for _, src := range sources {
			buf.Write(src.data)
			buf.WriteByte('\n')
		}

		preload = &buf
	}

	opts := compileOptions(ctx, lang.WithPrettyPrint(r.Pretty))

	return repl.Run(ctx, cacheDir, log.Default(), preload, opts...)
}
