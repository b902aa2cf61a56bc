// Package lexer converts CHTL source text into a lossless sequence of
// [token.Token] values.
//
// Every byte of the input belongs either to a token's Text or to the Lead
// whitespace of the token that follows it, so raw regions (scripts, origin
// bodies) can be reconstructed exactly by the builder.
package lexer

import (
	"iter"
	"unicode"
	"unicode/utf8"

	"github.com/ardnew/chtl/lang/token"
)

// Lexer scans a single source file.
type Lexer struct {
	file  string
	input []byte
	pos   int
	line  int
	col   int
	done  bool
}

// New returns a lexer over src. The file name is recorded in every token
// position.
func New(file string, src []byte) *Lexer {
	return &Lexer{
		file:  file,
		input: src,
		line:  1,
		col:   1,
	}
}

// Tokenize returns all tokens of src, terminated by an EOF token.
func Tokenize(file string, src []byte) []token.Token {
	var toks []token.Token

	for t := range New(file, src).All() {
		toks = append(toks, t)
	}

	return toks
}

// NewStream tokenizes src and returns the result as a [token.Stream].
func NewStream(file string, src []byte) *token.SliceStream {
	return token.NewSliceStream(Tokenize(file, src))
}

// All returns an iterator over the remaining tokens. The final token yielded
// is always of kind EOF.
func (l *Lexer) All() iter.Seq[token.Token] {
	return func(yield func(token.Token) bool) {
		for !l.done {
			if !yield(l.Next()) {
				return
			}
		}
	}
}

// Next scans and returns the next token. Once EOF has been returned, every
// subsequent call returns EOF again.
func (l *Lexer) Next() token.Token {
	leadStart := l.pos

	l.skipWhitespace()

	lead := string(l.input[leadStart:l.pos])
	pos := l.position()

	if l.eof() {
		l.done = true

		return token.Token{Kind: token.EOF, Lead: lead, Pos: pos}
	}

	start := l.pos
	kind := l.scan()

	return token.Token{
		Kind: kind,
		Text: string(l.input[start:l.pos]),
		Lead: lead,
		Pos:  pos,
	}
}

// scan consumes one lexeme and returns its kind.
func (l *Lexer) scan() token.Kind {
	ch := l.peek()

	switch {
	case ch == '/' && l.peekN(2) == "//":
		l.skipLine()

		return token.LineComment

	case ch == '/' && l.peekN(2) == "/*":
		l.skipBlockComment()

		return token.BlockComment

	case ch == '-' && l.isGeneratorComment():
		l.skipLine()

		return token.GeneratorComment

	case ch == '"' || ch == '\'' || ch == '`':
		if l.scanString(ch) {
			return token.String
		}

		return token.Illegal

	case ch == '[':
		if kind, ok := l.scanMarker(); ok {
			return kind
		}

		l.advance()

		return token.LBracket

	case ch == '@':
		l.advance()

		if !isIdentifierStart(l.peek()) {
			return token.Symbol
		}

		l.scanIdentifier()

		return token.TypeTag

	case isDigit(ch):
		l.scanNumber()

		return token.Number

	case isIdentifierStart(ch):
		return l.scanWord()
	}

	if kind, ok := l.scanOperator(); ok {
		return kind
	}

	l.advance()

	switch ch {
	case '{':
		return token.LBrace
	case '}':
		return token.RBrace
	case ']':
		return token.RBracket
	case '(':
		return token.LParen
	case ')':
		return token.RParen
	case ':':
		return token.Colon
	case '=':
		return token.Equal
	case ';':
		return token.Semicolon
	case ',':
		return token.Comma
	case '.':
		return token.Dot
	case '#':
		return token.Hash
	case '&':
		return token.Ampersand
	}

	return token.Symbol
}

var operators = []string{"!=", "==", "<=", ">=", "&&", "||", "->", "=>"}

func (l *Lexer) scanOperator() (token.Kind, bool) {
	two := l.peekN(2)

	for _, op := range operators {
		if two == op {
			l.advance()
			l.advance()

			return token.Symbol, true
		}
	}

	return token.Illegal, false
}

// isGeneratorComment reports whether the cursor is at "--" that begins a
// line (ignoring indentation) and is followed by whitespace or end of input.
func (l *Lexer) isGeneratorComment() bool {
	if l.peekN(2) != "--" {
		return false
	}

	for i := l.pos - 1; i >= 0; i-- {
		c := l.input[i]
		if c == '\n' {
			break
		}

		if c != ' ' && c != '\t' && c != '\r' {
			return false
		}
	}

	if l.pos+2 >= len(l.input) {
		return true
	}

	next := l.input[l.pos+2]

	return next == ' ' || next == '\t' || next == '\n' || next == '\r'
}

// scanMarker recognizes "[Keyword]" declaration markers. The cursor is left
// unchanged when the bracket does not start a known marker.
func (l *Lexer) scanMarker() (token.Kind, bool) {
	end := l.pos + 1
	for end < len(l.input) && isASCIILetter(l.input[end]) {
		end++
	}

	if end >= len(l.input) || l.input[end] != ']' {
		return token.Illegal, false
	}

	kind, ok := token.Markers[string(l.input[l.pos+1:end])]
	if !ok {
		return token.Illegal, false
	}

	for l.pos <= end {
		l.advance()
	}

	return kind, true
}

// scanWord scans an identifier and classifies it as a keyword when reserved.
func (l *Lexer) scanWord() token.Kind {
	start := l.pos

	l.scanIdentifier()

	word := string(l.input[start:l.pos])

	if word == "at" {
		if kind, ok := l.scanAtKeyword(); ok {
			return kind
		}
	}

	if kind, ok := token.Keywords[word]; ok {
		return kind
	}

	return token.Identifier
}

// scanAtKeyword completes the compound keywords "at top" and "at bottom".
func (l *Lexer) scanAtKeyword() (token.Kind, bool) {
	i := l.pos
	for i < len(l.input) && (l.input[i] == ' ' || l.input[i] == '\t') {
		i++
	}

	if i == l.pos {
		return token.Illegal, false
	}

	for word, kind := range map[string]token.Kind{
		"top":    token.KeywordAtTop,
		"bottom": token.KeywordAtBottom,
	} {
		end := i + len(word)
		if end > len(l.input) || string(l.input[i:end]) != word {
			continue
		}

		if end < len(l.input) {
			r, _ := utf8.DecodeRune(l.input[end:])
			if isIdentifierContinue(r) || r == '-' {
				continue
			}
		}

		for l.pos < end {
			l.advance()
		}

		return kind, true
	}

	return token.Illegal, false
}

// scanIdentifier consumes identifier characters. A hyphen is accepted inside
// an identifier when it is followed by another identifier character, so that
// CSS property and custom element names form a single token.
func (l *Lexer) scanIdentifier() {
	for !l.eof() {
		ch := l.peek()

		if isIdentifierContinue(ch) {
			l.advance()

			continue
		}

		if ch == '-' && l.pos+1 < len(l.input) {
			r, _ := utf8.DecodeRune(l.input[l.pos+1:])
			if isIdentifierContinue(r) {
				l.advance()

				continue
			}
		}

		break
	}
}

// scanNumber consumes digits, an optional fraction, and a unit suffix such as
// px or em.
func (l *Lexer) scanNumber() {
	for !l.eof() && isDigit(l.peek()) {
		l.advance()
	}

	if l.peek() == '.' && l.pos+1 < len(l.input) && isDigit(rune(l.input[l.pos+1])) {
		l.advance()

		for !l.eof() && isDigit(l.peek()) {
			l.advance()
		}
	}

	if isIdentifierStart(l.peek()) {
		l.scanIdentifier()
	}
}

// scanString consumes a quoted string. Single- and double-quoted strings end
// at a newline; it reports false when the closing quote is missing.
func (l *Lexer) scanString(quote rune) bool {
	l.advance()

	for !l.eof() {
		ch := l.peek()

		if ch == '\n' && quote != '`' {
			return false
		}

		if ch == '\\' {
			l.advance()

			if !l.eof() {
				l.advance()
			}

			continue
		}

		l.advance()

		if ch == quote {
			return true
		}
	}

	return false
}

// Helper methods

func (l *Lexer) peek() rune {
	if l.eof() {
		return 0
	}

	r, _ := utf8.DecodeRune(l.input[l.pos:])

	return r
}

func (l *Lexer) peekN(n int) string {
	if l.pos+n > len(l.input) {
		return string(l.input[l.pos:])
	}

	return string(l.input[l.pos : l.pos+n])
}

func (l *Lexer) advance() {
	if l.eof() {
		return
	}

	r, size := utf8.DecodeRune(l.input[l.pos:])

	l.pos += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
}

func (l *Lexer) eof() bool {
	return l.pos >= len(l.input)
}

func (l *Lexer) position() token.Position {
	return token.Position{
		File:   l.file,
		Offset: l.pos,
		Line:   l.line,
		Column: l.col,
	}
}

func (l *Lexer) skipWhitespace() {
	for !l.eof() && unicode.IsSpace(l.peek()) {
		l.advance()
	}
}

// skipLine consumes up to, but not including, the next newline.
func (l *Lexer) skipLine() {
	for !l.eof() && l.peek() != '\n' {
		l.advance()
	}
}

func (l *Lexer) skipBlockComment() {
	l.advance() // skip '/'
	l.advance() // skip '*'

	for !l.eof() {
		if l.peekN(2) == "*/" {
			l.advance()
			l.advance()

			return
		}

		l.advance()
	}
}

// Character classification

func isIdentifierStart(r rune) bool {
	return unicode.In(r,
		unicode.L,
		unicode.Nl,
		unicode.Other_ID_Start,
	) || r == '_'
}

func isIdentifierContinue(r rune) bool {
	return unicode.In(r,
		unicode.L,
		unicode.Nl,
		unicode.Other_ID_Start,
		unicode.Mn,
		unicode.Mc,
		unicode.Nd,
		unicode.Pc,
		unicode.Other_ID_Continue,
	)
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
