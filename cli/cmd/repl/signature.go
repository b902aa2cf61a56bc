package repl

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/chtl/lang"
)

var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
)

// functionCall describes the variable group call enclosing the cursor, as in
// "color: Theme(fg" or "color: Theme(fg = red".
type functionCall struct {
	name   string // group name, possibly namespace-qualified
	arg    string // variable name typed so far in the current argument
	inCall bool
}

func isNameRune(r rune) bool {
	return r == '.' || r == '_' || r == '-' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// detectFunctionCall reports whether cursor is inside the parentheses of a
// group call in input, and if so which group and argument.
func detectFunctionCall(input string, cursor int) functionCall {
	cursor = min(cursor, len(input))

	open := -1
	depth := 0

scan:
	for i := cursor; i > 0; {
		r, size := utf8.DecodeLastRuneInString(input[:i])
		i -= size

		switch r {
		case ')':
			depth++
		case '(':
			if depth == 0 {
				open = i

				break scan
			}

			depth--
		case ';', '{', '}':
			break scan
		}
	}

	if open < 0 {
		return functionCall{}
	}

	start := open
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if !isNameRune(r) {
			break
		}

		start -= size
	}

	name := input[start:open]
	if name == "" {
		return functionCall{}
	}

	arg := input[open+1 : cursor]
	if i := strings.LastIndexByte(arg, ','); i >= 0 {
		arg = arg[i+1:]
	}

	arg, _, _ = strings.Cut(arg, "=")

	return functionCall{
		name:   name,
		arg:    strings.TrimSpace(arg),
		inCall: true,
	}
}

// groupVariables returns the variable names of the template or custom @Var
// group called name, or nil when no such group is registered.
func groupVariables(symbols *lang.SymbolMap, name string) []string {
	if symbols == nil {
		return nil
	}

	s, ok := symbols.FindDef(name, lang.DefVar, true)
	if !ok || s.Properties == nil {
		return nil
	}

	keys := s.Properties.Keys()
	if keys == nil {
		keys = []string{}
	}

	return keys
}

// getSignature returns the display form of the group call name, such as
// "Theme(fg, bg)", and its variable names.
func getSignature(
	symbols *lang.SymbolMap,
	name string,
) (signature string, params []string) {
	params = groupVariables(symbols, name)
	if params == nil {
		return "", nil
	}

	return name + "(" + strings.Join(params, ", ") + ")", params
}

// renderSignatureHint renders the signature of a group call with the first
// variable matching the current argument highlighted.
func renderSignatureHint(name string, params []string, arg string) string {
	if name == "" {
		return ""
	}

	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(name))
	b.WriteString(signatureStyle.Render("("))

	current := -1

	if arg != "" {
		for i, p := range params {
			if strings.HasPrefix(p, arg) {
				current = i

				break
			}
		}
	}

	for i, p := range params {
		if i > 0 {
			b.WriteString(signatureStyle.Render(", "))
		}

		if i == current {
			b.WriteString(currentParamStyle.Render(p))
		} else {
			b.WriteString(signatureStyle.Render(p))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}
