package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/ardnew/chtl/lang"
	"github.com/ardnew/chtl/log"
)

type (
	contextKey struct{}
	optionsKey struct{}
	streamsKey struct{}
)

// WithContext returns a copy of ctx holding the parsed command line.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// WithOptions returns a copy of ctx holding compiler options shared by every
// command, such as the module search path. Options given by an individual
// command are applied after them.
func WithOptions(ctx context.Context, opts ...lang.Option) context.Context {
	return context.WithValue(ctx, optionsKey{}, slices.Concat(optionsFrom(ctx), opts))
}

func optionsFrom(ctx context.Context) []lang.Option {
	opts, _ := ctx.Value(optionsKey{}).([]lang.Option)

	return opts
}

// compileOptions returns the shared options of ctx followed by opts, with the
// default logger attached.
func compileOptions(ctx context.Context, opts ...lang.Option) []lang.Option {
	return slices.Concat(
		[]lang.Option{lang.WithLogger(log.Default())},
		optionsFrom(ctx),
		opts,
	)
}

// Streams are the standard streams used by commands.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// WithStreams returns a copy of ctx whose commands use s in place of the
// process's standard streams. Nil members keep their defaults.
func WithStreams(ctx context.Context, s Streams) context.Context {
	return context.WithValue(ctx, streamsKey{}, s)
}

func streamsFrom(ctx context.Context) Streams {
	s := Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}

	if o, ok := ctx.Value(streamsKey{}).(Streams); ok {
		if o.In != nil {
			s.In = o.In
		}

		if o.Out != nil {
			s.Out = o.Out
		}

		if o.Err != nil {
			s.Err = o.Err
		}
	}

	return s
}

// source is one named input.
type source struct {
	name string
	data []byte
}

// stdinSource names standard input on the command line.
const stdinSource = "-"

// stdinName is the file name reported in diagnostics for standard input.
const stdinName = "<stdin>"

// fileKey identifies a file by device and inode, so that one file reached
// through symlinks or different relative paths is read once.
type fileKey struct {
	dev uint64
	ino uint64
}

// readSources reads every path in order, skipping repeated files. All
// occurrences of "-" read standard input once, after the named files.
func readSources(ctx context.Context, paths []string) ([]source, error) {
	if len(paths) == 0 {
		paths = []string{stdinSource}
	}

	var (
		out      = make([]source, 0, len(paths))
		seen     = make(map[fileKey]struct{})
		useStdin bool
	)

	for _, path := range paths {
		if path == stdinSource {
			useStdin = true

			continue
		}

		src, ok, err := readUnique(path, seen)
		if err != nil {
			return nil, ErrReadSource.Wrap(err).With(slog.String("file", path))
		}

		if !ok {
			log.DebugContext(ctx, "skip repeated source", slog.String("file", path))

			continue
		}

		out = append(out, src)
	}

	if useStdin {
		data, err := io.ReadAll(streamsFrom(ctx).In)
		if err != nil {
			return nil, ErrReadSource.Wrap(err).With(slog.String("file", stdinName))
		}

		out = append(out, source{name: stdinName, data: data})
	}

	return out, nil
}

// readUnique reads the file at path unless a file with the same identity is
// already in seen.
func readUnique(
	path string,
	seen map[fileKey]struct{},
) (src source, ok bool, err error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return src, false, err
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return src, false, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return src, false, err
	}

	if key, known := makeFileKey(info); known {
		if _, dup := seen[key]; dup {
			return src, false, nil
		}

		seen[key] = struct{}{}
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return src, false, err
	}

	return source{name: path, data: data}, true, nil
}

// makeFileKey returns the identity of info, or false when the platform does
// not expose one.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: uint64(stat.Ino)}, true //nolint:unconvert
}

// writeFile writes data to path, or to w when path is empty.
func writeFile(w io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := w.Write(data)
		if err != nil {
			return ErrWriteOutput.Wrap(err)
		}

		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ErrWriteOutput.Wrap(err).With(slog.String("file", path))
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ErrWriteOutput.Wrap(err).With(slog.String("file", path))
	}

	return nil
}
