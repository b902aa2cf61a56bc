package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ardnew/chtl/lang"
)

// Check compiles sources and reports their diagnostics without writing
// output.
type Check struct {
	Quiet bool `help:"Do not print the summary line." short:"q"`

	Sources []string `arg:"" default:"-" help:"Source files, or '-' for stdin." name:"source" optional:""`
}

// Run executes the check command.
func (c *Check) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	sources, err := readSources(ctx, c.Sources)
	if err != nil {
		return err
	}

	streams := streamsFrom(ctx)
	opts := compileOptions(ctx)
	count := make(tally)

	for _, src := range sources {
		res := lang.Compile(ctx, src.name, src.data, opts...)

		for s, n := range writeDiagnostics(streams.Err, res.Diagnostics) {
			count[s] += n
		}
	}

	if !c.Quiet {
		summary := count.String()
		if summary == "" {
			summary = "no problems"
		}

		_, _ = fmt.Fprintf(streams.Err, "%s: %s\n", plural(len(sources), "source"), summary)
	}

	if count[lang.SeverityError] > 0 {
		return ErrCompile.With(slog.String("diagnostics", count.String()))
	}

	return nil
}
