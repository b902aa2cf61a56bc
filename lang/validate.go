package lang

import (
	"log/slog"
	"strings"

	"golang.org/x/net/html"

	"github.com/ardnew/chtl/lang/token"
)

// OutputFile is the file name attached to positions in generated output.
const OutputFile = "<output>"

type openTag struct {
	name string
	pos  token.Position
}

// Validate checks that every non-void element of the HTML in src is closed
// in order. Each issue is reported to sink as a [GenerationWarning]; the
// number of issues is returned.
func Validate(src string, sink Sink) int {
	var stack []openTag

	z := html.NewTokenizer(strings.NewReader(src))
	pos := token.Position{File: OutputFile, Line: 1, Column: 1}
	issues := 0

	problem := func(at token.Position, name, issue string) {
		issues++

		report(sink, GenerationWarning, at, ErrUnbalancedTag.With(
			slog.String("tag", name),
			slog.String("issue", issue)))
	}

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}

		at := pos
		pos = advance(pos, z.Raw())

		switch tt {
		case html.StartTagToken:
			name, _ := z.TagName()
			if !selfClosing[string(name)] {
				stack = append(stack, openTag{name: string(name), pos: at})
			}
		case html.EndTagToken:
			name, _ := z.TagName()

			i := len(stack) - 1
			for i >= 0 && stack[i].name != string(name) {
				i--
			}

			if i < 0 {
				if !selfClosing[string(name)] {
					problem(at, string(name), "unexpected end tag")
				}

				continue
			}

			for _, t := range stack[i+1:] {
				problem(t.pos, t.name, "not closed")
			}

			stack = stack[:i]
		}
	}

	for _, t := range stack {
		problem(t.pos, t.name, "not closed")
	}

	return issues
}

// advance returns pos moved past text.
func advance(pos token.Position, text []byte) token.Position {
	for _, c := range text {
		pos.Offset++

		if c == '\n' {
			pos.Line++
			pos.Column = 1
		} else {
			pos.Column++
		}
	}

	return pos
}
