package cmd

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/chtl/lang"
	"github.com/ardnew/chtl/lang/token"
	"github.com/ardnew/chtl/log"
	"github.com/ardnew/chtl/profile"
)

// defaultConfigIndent is the indent width of the generated configuration
// file.
const defaultConfigIndent = 4

// Init writes a configuration file holding the current global flag values.
type Init struct {
	Force bool `help:"Overwrite an existing configuration file." short:"f"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ktx := kongContextFrom(ctx)
	if ktx == nil {
		panic("internal error: command line context undefined")
	}

	confPath, ok := ktx.Model.Vars()[ConfigIdentifier]
	if !ok {
		panic("internal error: configuration path undefined")
	}

	if _, err := os.Stat(confPath); err == nil && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", confPath), slog.Bool("exists", true)).
			Wrap(ErrFileExists)
	}

	var buf bytes.Buffer
	if err := configTree(ktx).Format(ctx, &buf, defaultConfigIndent); err != nil {
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(err)
	}

	if err := os.MkdirAll(filepath.Dir(confPath), 0o700); err != nil {
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(err)
	}

	if err := os.WriteFile(confPath, buf.Bytes(), 0o600); err != nil {
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(err)
	}

	log.InfoContext(ctx, "initialized configuration file",
		slog.String("path", confPath))

	return nil
}

// configTree returns the syntax tree of a named configuration block
// assigning each global flag its current value. Flag names are written with
// underscores, which the configuration resolver maps back to hyphens.
func configTree(ktx *kong.Context) *lang.Node {
	block := lang.NewNode(lang.KindConfiguration, token.Token{Kind: token.MarkConfiguration})
	block.Name = ConfigName

	ignore := []string{"help", "version", profile.Tag}

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || slices.ContainsFunc(ignore, func(s string) bool {
			return strings.HasPrefix(flag.Name, s)
		}) {
			continue
		}

		raw, ok := configValue(ktx.FlagValue(flag))
		if !ok {
			continue
		}

		prop := lang.NewNode(lang.KindProperty, token.Token{Kind: token.Identifier})
		prop.Name = strings.ReplaceAll(flag.Name, "-", "_")
		prop.Raw = raw
		prop.Value = lang.ParseValue(raw).String()
		prop.Equal = true

		block.Append(prop)
	}

	root := lang.NewNode(lang.KindRoot, token.Token{})

	return root.Append(block)
}

// configValue returns the CHTL spelling of a flag value. Lists are written
// as one comma-separated string, as kong accepts them for slice flags.
func configValue(val any) (raw string, ok bool) {
	switch v := val.(type) {
	case nil:
		return "", false
	case bool:
		return strconv.FormatBool(v), true
	case string:
		if v == "" {
			return "", false
		}

		return strconv.Quote(v), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return fmt.Sprint(v), true
	case []string:
		if len(v) == 0 {
			return "", false
		}

		return strconv.Quote(strings.Join(v, ",")), true
	case fmt.Stringer:
		return configValue(v.String())
	default:
		return configValue(fmt.Sprint(v))
	}
}
