package cmd

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/ardnew/chtl/lang"
)

// Fmt parses a source and writes its syntax tree in the chosen format.
type Fmt struct {
	Native Native `cmd:"" default:"withargs" help:"Format as canonical CHTL (default)."`
	JSON   JSON   `cmd:""                    help:"Format the syntax tree as JSON."`
	YAML   YAML   `cmd:""                    help:"Format the syntax tree as YAML."`
	Proto  Proto  `cmd:""                    help:"Encode the syntax tree as a protobuf Struct."`
}

// Input is the source and destination shared by the fmt subcommands.
type Input struct {
	Output string `help:"Write output to file." placeholder:"PATH" short:"o" type:"path"`

	Source string `arg:"" default:"-" help:"Source file, or '-' for stdin." name:"source"`
}

// build parses the source. Sources with errors are rejected so that
// formatting never drops the text the builder skipped.
func (f Input) build(ctx context.Context, format string) (*lang.Node, error) {
	sources, err := readSources(ctx, []string{f.Source})
	if err != nil {
		return nil, err
	}

	src := sources[0]
	diags := &lang.Diagnostics{}
	root := lang.NewBuilder(compileOptions(ctx, lang.WithSink(diags))...).
		BuildSource(ctx, src.name, src.data)

	writeDiagnostics(streamsFrom(ctx).Err, diags)

	if diags.HasErrors() {
		return nil, ErrParse.Wrap(diags.Err()).With(
			slog.String("format", format),
			slog.String("source", src.name),
		)
	}

	return root, nil
}

func (f Input) write(ctx context.Context, buf *bytes.Buffer) error {
	return writeFile(streamsFrom(ctx).Out, f.Output, buf.Bytes())
}

// Native formats a source as canonical CHTL.
type Native struct {
	Indent int `default:"4" help:"Indent width; 0 writes a single line." short:"i"`

	Input `embed:""`
}

// Run executes the native command.
func (n *Native) Run(ctx context.Context) error {
	root, err := n.build(ctx, "native")
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := root.Format(ctx, &buf, n.Indent); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return n.write(ctx, &buf)
}

// JSON writes the syntax tree of a source as JSON.
type JSON struct {
	Indent int `default:"2" help:"Indent width; 0 writes compact JSON." short:"i"`

	Input `embed:""`
}

// Run executes the json command.
func (j *JSON) Run(ctx context.Context) error {
	root, err := j.build(ctx, "json")
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := root.FormatJSON(ctx, &buf, j.Indent); err != nil {
		return ErrJSONMarshal.Wrap(err)
	}

	return j.write(ctx, &buf)
}

// YAML writes the syntax tree of a source as YAML.
type YAML struct {
	Indent int `default:"2" help:"Indent width; 0 writes flow style." short:"i"`

	Input `embed:""`
}

// Run executes the yaml command.
func (y *YAML) Run(ctx context.Context) error {
	root, err := y.build(ctx, "yaml")
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := root.FormatYAML(ctx, &buf, y.Indent); err != nil {
		return ErrYAMLMarshal.Wrap(err)
	}

	return y.write(ctx, &buf)
}

// Proto writes the syntax tree of a source in protobuf wire format.
type Proto struct {
	Input `embed:""`
}

// Run executes the proto command.
func (p *Proto) Run(ctx context.Context) error {
	root, err := p.build(ctx, "proto")
	if err != nil {
		return err
	}

	data, err := root.MarshalProto()
	if err != nil {
		return ErrProtoMarshal.Wrap(err)
	}

	return p.write(ctx, bytes.NewBuffer(data))
}
