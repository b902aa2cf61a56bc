// Package token defines the lexical tokens consumed by the CHTL builder and
// the [Stream] interface through which they are delivered.
package token

import (
	"strconv"
	"strings"
)

// Kind identifies the lexical class of a [Token].
type Kind int

const (
	EOF Kind = iota
	Illegal

	Identifier
	String
	Number
	TypeTag // @Style, @Element, @Html, @Vue, ...
	Symbol  // any punctuation without a dedicated kind

	LBrace
	RBrace
	LBracket
	RBracket
	LParen
	RParen
	Colon
	Equal
	Semicolon
	Comma
	Dot
	Hash
	Ampersand

	LineComment
	BlockComment
	GeneratorComment

	// Bracketed declaration markers.
	MarkTemplate
	MarkCustom
	MarkOrigin
	MarkImport
	MarkNamespace
	MarkConfiguration
	MarkName
	MarkOriginType
	MarkInfo
	MarkExport

	// Keywords.
	KeywordText
	KeywordStyle
	KeywordScript
	KeywordInherit
	KeywordDelete
	KeywordInsert
	KeywordAfter
	KeywordBefore
	KeywordReplace
	KeywordAtTop
	KeywordAtBottom
	KeywordFrom
	KeywordAs
	KeywordExcept
	KeywordUse
)

var kindName = map[Kind]string{
	EOF:               "EOF",
	Illegal:           "Illegal",
	Identifier:        "Identifier",
	String:            "String",
	Number:            "Number",
	TypeTag:           "TypeTag",
	Symbol:            "Symbol",
	LBrace:            "{",
	RBrace:            "}",
	LBracket:          "[",
	RBracket:          "]",
	LParen:            "(",
	RParen:            ")",
	Colon:             ":",
	Equal:             "=",
	Semicolon:         ";",
	Comma:             ",",
	Dot:               ".",
	Hash:              "#",
	Ampersand:         "&",
	LineComment:       "LineComment",
	BlockComment:      "BlockComment",
	GeneratorComment:  "GeneratorComment",
	MarkTemplate:      "[Template]",
	MarkCustom:        "[Custom]",
	MarkOrigin:        "[Origin]",
	MarkImport:        "[Import]",
	MarkNamespace:     "[Namespace]",
	MarkConfiguration: "[Configuration]",
	MarkName:          "[Name]",
	MarkOriginType:    "[OriginType]",
	MarkInfo:          "[Info]",
	MarkExport:        "[Export]",
	KeywordText:       "text",
	KeywordStyle:      "style",
	KeywordScript:     "script",
	KeywordInherit:    "inherit",
	KeywordDelete:     "delete",
	KeywordInsert:     "insert",
	KeywordAfter:      "after",
	KeywordBefore:     "before",
	KeywordReplace:    "replace",
	KeywordAtTop:      "at top",
	KeywordAtBottom:   "at bottom",
	KeywordFrom:       "from",
	KeywordAs:         "as",
	KeywordExcept:     "except",
	KeywordUse:        "use",
}

// String returns the canonical spelling of k, or its class name for kinds
// without a fixed spelling.
func (k Kind) String() string {
	if s, ok := kindName[k]; ok {
		return s
	}

	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Markers maps the text between brackets to its marker kind.
var Markers = map[string]Kind{
	"Template":      MarkTemplate,
	"Custom":        MarkCustom,
	"Origin":        MarkOrigin,
	"Import":        MarkImport,
	"Namespace":     MarkNamespace,
	"Configuration": MarkConfiguration,
	"Name":          MarkName,
	"OriginType":    MarkOriginType,
	"Info":          MarkInfo,
	"Export":        MarkExport,
}

// Keywords maps reserved words to their keyword kind.
// The compound keywords "at top" and "at bottom" are recognized by the lexer
// directly.
var Keywords = map[string]Kind{
	"text":    KeywordText,
	"style":   KeywordStyle,
	"script":  KeywordScript,
	"inherit": KeywordInherit,
	"delete":  KeywordDelete,
	"insert":  KeywordInsert,
	"after":   KeywordAfter,
	"before":  KeywordBefore,
	"replace": KeywordReplace,
	"from":    KeywordFrom,
	"as":      KeywordAs,
	"except":  KeywordExcept,
	"use":     KeywordUse,
}

// IsMarker reports whether k is a bracketed declaration marker.
func (k Kind) IsMarker() bool { return k >= MarkTemplate && k <= MarkExport }

// IsKeyword reports whether k is a reserved word.
func (k Kind) IsKeyword() bool { return k >= KeywordText && k <= KeywordUse }

// IsComment reports whether k is any of the comment kinds.
func (k Kind) IsComment() bool {
	return k == LineComment || k == BlockComment || k == GeneratorComment
}

// Position locates a token in its source file.
type Position struct {
	File   string
	Offset int
	Line   int
	Column int
}

// String formats the position as file:line:column.
func (p Position) String() string {
	var sb strings.Builder

	if p.File != "" {
		sb.WriteString(p.File)
		sb.WriteByte(':')
	}

	sb.WriteString(strconv.Itoa(p.Line))
	sb.WriteByte(':')
	sb.WriteString(strconv.Itoa(p.Column))

	return sb.String()
}

// Token is a single lexeme. Text holds the exact source spelling and Lead
// holds the whitespace that preceded it, so that concatenating Lead+Text of
// every token in a stream reproduces the source.
type Token struct {
	Kind Kind
	Text string
	Lead string
	Pos  Position
}

// IsWord reports whether t can serve as a name: an identifier or a keyword.
func (t Token) IsWord() bool {
	return t.Kind == Identifier || t.Kind.IsKeyword()
}

// Is reports whether t has kind k.
func (t Token) Is(k Kind) bool { return t.Kind == k }

// Raw returns the token exactly as it appeared, including leading space.
func (t Token) Raw() string { return t.Lead + t.Text }

// Unquote returns the decoded contents of a String token, or Text for any
// other kind. Both single- and double-quoted strings are accepted; escape
// sequences other than \\ and an escaped quote are kept verbatim.
func (t Token) Unquote() string {
	if t.Kind != String || len(t.Text) < 2 {
		return t.Text
	}

	quote := t.Text[0]
	body := t.Text[1:]

	if body[len(body)-1] == quote {
		body = body[:len(body)-1]
	}

	if !strings.ContainsRune(body, '\\') {
		return body
	}

	var sb strings.Builder

	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) {
			switch next := body[i+1]; next {
			case '\\', quote:
				sb.WriteByte(next)

				i++

				continue
			case 'n':
				sb.WriteByte('\n')

				i++

				continue
			case 't':
				sb.WriteByte('\t')

				i++

				continue
			}
		}

		sb.WriteByte(body[i])
	}

	return sb.String()
}

// String returns a debugging representation of t.
func (t Token) String() string {
	return t.Pos.String() + " " + t.Kind.String() + " " + strconv.Quote(t.Text)
}
