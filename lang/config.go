package lang

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/expr-lang/expr"
)

// Options control the generated output. The zero value is not useful; start
// from [DefaultOptions].
type Options struct {
	PrettyPrint     bool
	Minify          bool
	IncludeComments bool
	Debug           bool
	IndentSize      int
	IndentChar      rune

	// IndexInitialCount is the number that addresses the first element in
	// "tag[n]" targets.
	IndexInitialCount int

	DisableStyleAutoAddClass  bool
	DisableStyleAutoAddID     bool
	DisableScriptAutoAddClass bool
	DisableScriptAutoAddID    bool

	Lang  string
	Title string
}

// DefaultOptions returns the options used when no configuration overrides
// them.
func DefaultOptions() Options {
	return Options{
		IncludeComments:           true,
		IndentSize:                2,
		IndentChar:                ' ',
		DisableScriptAutoAddClass: true,
		DisableScriptAutoAddID:    true,
		Lang:                      "zh-CN",
		Title:                     "CHTL Generated Page",
	}
}

// Indent returns one level of pretty-print indentation.
func (o Options) Indent() string {
	if o.IndentSize <= 0 {
		return ""
	}

	char := o.IndentChar
	if char == 0 {
		char = ' '
	}

	return strings.Repeat(string(char), o.IndentSize)
}

// Set assigns the option named key, case-insensitively. It reports false when
// key is not a known option.
func (o *Options) Set(key string, v Value) bool {
	switch strings.ToUpper(strings.TrimSpace(key)) {
	case "PRETTY_PRINT", "PRETTY":
		o.PrettyPrint = v.Bool()
	case "MINIFY":
		o.Minify = v.Bool()
	case "INCLUDE_COMMENTS":
		o.IncludeComments = v.Bool()
	case "DEBUG_MODE", "DEBUG":
		o.Debug = v.Bool()
	case "INDENT_SIZE":
		if n, ok := v.Int(); ok {
			o.IndentSize = n
		}
	case "INDENT_CHAR":
		switch s := v.String(); strings.ToLower(s) {
		case "tab", "\\t", "\t":
			o.IndentChar = '\t'
		case "space", "":
			o.IndentChar = ' '
		default:
			o.IndentChar = []rune(s)[0]
		}
	case "INDEX_INITIAL_COUNT":
		if n, ok := v.Int(); ok {
			o.IndexInitialCount = n
		}
	case "DISABLE_STYLE_AUTO_ADD_CLASS":
		o.DisableStyleAutoAddClass = v.Bool()
	case "DISABLE_STYLE_AUTO_ADD_ID":
		o.DisableStyleAutoAddID = v.Bool()
	case "DISABLE_SCRIPT_AUTO_ADD_CLASS":
		o.DisableScriptAutoAddClass = v.Bool()
	case "DISABLE_SCRIPT_AUTO_ADD_ID":
		o.DisableScriptAutoAddID = v.Bool()
	case "HTML_LANG", "LANG":
		o.Lang = v.String()
	case "TITLE", "PAGE_TITLE":
		o.Title = v.String()
	default:
		return false
	}

	return true
}

// builderKeys are configuration keys consumed while building.
var builderKeys = map[string]bool{
	"DISABLE_NAME_GROUP":         true,
	"DISABLE_CUSTOM_ORIGIN_TYPE": true,
}

// optionValue evaluates the value of a configuration property. Quoted values
// are strings and literals are parsed directly; anything else is compiled as
// an expr-lang expression over the built-in environment and the values in
// earlier. An expression that fails is reported with the text taken
// literally.
func optionValue(p *Node, earlier map[string]Value) (Value, *Error) {
	raw := strings.TrimSpace(p.Raw)
	if raw == "" {
		raw = p.Value
	}

	v := ParseValue(raw)
	if v.Kind != ValueString || quotedLiteral(raw) {
		return v, nil
	}

	if _, ref := earlier[raw]; isLiteralWord(raw) && !ref {
		return v, nil
	}

	env := exprEnv(earlier)

	program, err := expr.Compile(raw, expr.Env(env),
		expr.Patch(&hyphenPatcher{env: env}))
	if err != nil {
		return StringValue(p.Value), ErrExprCompile.Wrap(err).
			With(slog.String("key", p.Name), slog.String("source", raw))
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return StringValue(p.Value), ErrExprEvaluate.Wrap(err).
			With(slog.String("key", p.Name), slog.String("source", raw))
	}

	v, ok := ValueOf(out)
	if !ok {
		return StringValue(p.Value), ErrExprEvaluate.With(
			slog.String("key", p.Name),
			slog.String("source", raw),
			slog.Any("result", out))
	}

	return v, nil
}

// Evaluate returns the value of every property of the configuration block
// cfg. Each property can refer to the ones before it. A property that fails
// to evaluate keeps its literal text, and the failures are joined in err.
func Evaluate(cfg *Node) (values map[string]Value, err error) {
	values = make(map[string]Value)

	var errs []error

	for p := range cfg.ChildrenOf(KindProperty) {
		v, perr := optionValue(p, values)
		if perr != nil {
			errs = append(errs, perr.WithPosition(p.Pos()))
		}

		values[p.Name] = v
	}

	return values, errors.Join(errs...)
}

// isLiteralWord reports whether s is a bare word or a CSS-like literal
// ("dark", "12px", "zh-CN", "#fff") rather than an expression.
func isLiteralWord(s string) bool {
	if s == "" {
		return true
	}

	for _, r := range s {
		switch {
		case r == '-' || r == '_' || r == '#' || r == '.' || r == '%':
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= 0x80:
		default:
			return false
		}
	}

	return true
}
