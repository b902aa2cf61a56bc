package cli

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/chtl/lang"
	"github.com/ardnew/chtl/log"
)

// resolve returns a [kong.ConfigurationLoader] reading flag values from the
// configuration block named name of a CHTL file:
//
//	[Configuration] @Config cli {
//	    log_level = "debug";
//	    log_pretty = false;
//	    module_path = "./lib,./vendor";
//	}
//
// Property names may use underscores or hyphens. Each property is evaluated
// like any configuration option, so it can be an expression over earlier
// properties and the environment. Command-line flags override the file.
//
// A file that does not parse, or that lacks the block, resolves nothing.
func resolve(ctx context.Context, name string) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		b := lang.NewBuilder(lang.WithLogger(log.Default()))

		root, err := b.BuildReader(ctx, baseConfig, r)
		if err != nil {
			return nil, err
		}

		s, ok := b.Symbols().Find(name, lang.SymbolConfiguration)
		if !ok || root == nil {
			log.DebugContext(ctx, "configuration block not found",
				slog.String("name", name))

			return config{}, nil
		}

		values, err := lang.Evaluate(s.Node)
		if err != nil {
			log.WarnContext(ctx, "configuration evaluated with errors",
				slog.String("name", name), log.Err(err))
		}

		return makeConfig(values), nil
	}
}

// config implements [kong.Resolver] over evaluated configuration values.
type config map[string]any

// makeConfig converts values to the forms kong decodes: booleans stay
// booleans and everything else is text.
func makeConfig(values map[string]lang.Value) config {
	c := make(config, len(values))

	for k, v := range values {
		if v.Kind == lang.ValueBool {
			c[k] = v.Bool()
		} else {
			c[k] = v.String()
		}
	}

	return c
}

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
	if v, ok := c[flag.Name]; ok {
		return v, nil
	}

	if v, ok := c[strings.ReplaceAll(flag.Name, "-", "_")]; ok {
		return v, nil
	}

	return nil, nil
}
