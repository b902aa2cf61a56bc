package lang

import (
	"regexp"
	"strconv"
	"strings"
)

// StyleCompiler compiles CSS collected from style blocks and origins.
type StyleCompiler interface {
	Compile(source string) (string, error)
}

// ScriptCompiler compiles JavaScript collected from script blocks and
// origins.
type ScriptCompiler interface {
	Compile(source string) (string, error)
}

// IdentityCompiler returns its input unchanged.
type IdentityCompiler struct{}

// Compile implements [StyleCompiler] and [ScriptCompiler].
func (IdentityCompiler) Compile(source string) (string, error) { return source, nil }

// CompilerFunc adapts a function to [StyleCompiler] and [ScriptCompiler].
type CompilerFunc func(source string) (string, error)

// Compile implements [StyleCompiler] and [ScriptCompiler].
func (f CompilerFunc) Compile(source string) (string, error) { return f(source) }

// SelectorScript rewrites enhanced selector references such as {{.box}},
// {{#main}}, or {{button}} into document.querySelector calls. A reference
// followed by [n] selects the n-th match of querySelectorAll.
type SelectorScript struct{}

var enhancedSelector = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}(\[(\d+)\])?`)

// Compile implements [ScriptCompiler].
func (SelectorScript) Compile(source string) (string, error) {
	return enhancedSelector.ReplaceAllStringFunc(source, func(ref string) string {
		m := enhancedSelector.FindStringSubmatch(ref)
		sel := strconv.Quote(strings.TrimSpace(m[1]))

		if m[3] != "" {
			return "document.querySelectorAll(" + sel + ")[" + m[3] + "]"
		}

		return "document.querySelector(" + sel + ")"
	}), nil
}
