package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"slices"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/chtl/lang"
)

// Symbols lists the declarations made by a source and its imports.
type Symbols struct {
	Format string   `default:"yaml" enum:"yaml,json"                                  help:"Output format (${enum})."            short:"f"`
	Kind   []string `               enum:"template,custom,origin,configuration" help:"Only list these kinds of declaration." short:"k"`

	Input `embed:""`
}

// Run executes the symbols command.
func (s *Symbols) Run(ctx context.Context) error {
	sources, err := readSources(ctx, []string{s.Source})
	if err != nil {
		return err
	}

	src := sources[0]
	diags := &lang.Diagnostics{}
	b := lang.NewBuilder(compileOptions(ctx, lang.WithSink(diags))...)
	b.BuildSource(ctx, src.name, src.data)

	writeDiagnostics(streamsFrom(ctx).Err, diags)

	table := s.filter(b.Symbols()).ToMap()

	var buf bytes.Buffer

	switch s.Format {
	case "json":
		data, err := json.MarshalIndent(table, "", "  ")
		if err != nil {
			return ErrJSONMarshal.Wrap(err)
		}

		buf.Write(data)
		buf.WriteByte('\n')
	default:
		data, err := yaml.MarshalContext(ctx, table, yaml.Indent(2))
		if err != nil {
			return ErrYAMLMarshal.Wrap(err)
		}

		buf.Write(data)
	}

	return s.write(ctx, &buf)
}

// filter returns the symbols of m whose kind was selected with --kind, or m
// itself when no kind was given.
func (s *Symbols) filter(m *lang.SymbolMap) *lang.SymbolMap {
	if len(s.Kind) == 0 {
		return m
	}

	out := lang.NewSymbolMap()

	for info := range m.All() {
		if slices.Contains(s.Kind, kindClass(info.Kind)) {
			out.Add(info)
		}
	}

	return out
}

func kindClass(k lang.SymbolKind) string {
	switch {
	case k.IsTemplate():
		return "template"
	case k.IsCustom():
		return "custom"
	case k.IsOrigin():
		return "origin"
	default:
		return "configuration"
	}
}
