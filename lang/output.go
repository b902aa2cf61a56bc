package lang

import (
	"strings"

	"golang.org/x/net/html"
)

// preserved lists the elements whose content is written untouched by
// [Minify] and [Pretty].
var preserved = map[string]bool{
	"script":   true,
	"style":    true,
	"pre":      true,
	"textarea": true,
}

// Minify collapses runs of whitespace in text content to a single space and
// drops whitespace between tags.
func Minify(src string) string {
	var sb strings.Builder

	z := html.NewTokenizer(strings.NewReader(src))
	raw := 0

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}

		text := string(z.Raw())

		switch tt {
		case html.TextToken:
			if raw == 0 {
				text = collapseSpace(text)
				if strings.TrimSpace(text) == "" {
					continue
				}
			}
		case html.StartTagToken:
			if name, _ := z.TagName(); preserved[string(name)] {
				raw++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); preserved[string(name)] && raw > 0 {
				raw--
			}
		}

		sb.WriteString(text)
	}

	return sb.String()
}

// inlineText lists the elements whose text-only content [Pretty] keeps on the
// line of their tags.
var inlineText = map[string]bool{
	"a": true, "abbr": true, "b": true, "bdi": true, "bdo": true,
	"button": true, "cite": true, "code": true, "data": true, "dfn": true,
	"em": true, "i": true, "kbd": true, "label": true, "mark": true,
	"option": true, "q": true, "s": true, "samp": true, "small": true,
	"span": true, "strong": true, "sub": true, "sup": true, "time": true,
	"title": true, "u": true, "var": true,
}

// htmlToken is one token of markup with its raw text.
type htmlToken struct {
	typ  html.TokenType
	name string // lowercased tag name
	raw  string
}

// tokenize splits src into tokens. Bytes the tokenizer leaves unread follow
// as a final text token.
func tokenize(src string) []htmlToken {
	var (
		toks   []htmlToken
		offset int
	)

	z := html.NewTokenizer(strings.NewReader(src))

	for tt := z.Next(); tt != html.ErrorToken; tt = z.Next() {
		t := htmlToken{typ: tt, raw: string(z.Raw())}
		offset += len(t.raw)

		switch tt {
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			t.name = string(name)
		}

		toks = append(toks, t)
	}

	if offset < len(src) {
		toks = append(toks, htmlToken{typ: html.TextToken, raw: src[offset:]})
	}

	return toks
}

// inlineRun returns the single line for the inline element opened at
// toks[i] when only text precedes its end tag, and the index of that end
// tag.
func inlineRun(toks []htmlToken, i int) (string, int, bool) {
	open := toks[i]
	if !inlineText[open.name] {
		return "", 0, false
	}

	var sb strings.Builder

	sb.WriteString(open.raw)

	for j := i + 1; j < len(toks); j++ {
		switch t := toks[j]; {
		case t.typ == html.TextToken:
			sb.WriteString(collapseSpace(t.raw))
		case t.typ == html.EndTagToken && t.name == open.name:
			sb.WriteString(t.raw)

			return sb.String(), j, true
		default:
			return "", 0, false
		}
	}

	return "", 0, false
}

// Pretty writes each tag, comment, and text run on its own line, indented
// by the nesting depth. An inline element holding only text stays on one
// line.
func Pretty(src, indent string) string {
	var sb strings.Builder

	toks := tokenize(src)
	depth, raw := 0, 0

	line := func(s string) {
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}

		sb.WriteString(strings.Repeat(indent, depth))
		sb.WriteString(s)
	}

	for i := 0; i < len(toks); i++ {
		t := toks[i]

		if raw > 0 {
			switch {
			case t.typ == html.StartTagToken && preserved[t.name]:
				raw++
			case t.typ == html.EndTagToken && preserved[t.name]:
				raw--
			}

			sb.WriteString(t.raw)

			continue
		}

		switch t.typ {
		case html.TextToken:
			if s := strings.TrimSpace(collapseSpace(t.raw)); s != "" {
				line(s)
			}
		case html.StartTagToken:
			if s, end, ok := inlineRun(toks, i); ok {
				line(s)

				i = end

				continue
			}

			line(t.raw)

			switch {
			case preserved[t.name]:
				raw++
			case !selfClosing[t.name]:
				depth++
			}
		case html.EndTagToken:
			if depth > 0 {
				depth--
			}

			line(t.raw)
		default:
			line(t.raw)
		}
	}

	if sb.Len() > 0 {
		sb.WriteByte('\n')
	}

	return sb.String()
}

// collapseSpace replaces each run of HTML whitespace in s with one space.
func collapseSpace(s string) string {
	var sb strings.Builder

	space := false

	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			if !space {
				sb.WriteByte(' ')
			}

			space = true
		default:
			sb.WriteRune(r)

			space = false
		}
	}

	return sb.String()
}
