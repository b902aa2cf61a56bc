package token

import "strings"

// Stream is an ordered, randomly-peekable sequence of tokens.
//
// Current returns the token under the cursor without consuming it.
// Peek returns the token offset positions ahead of the cursor; Peek(0) is
// equivalent to Current. Advance consumes and returns the current token.
// Past the end, every method returns a token of kind [EOF].
type Stream interface {
	Current() Token
	Peek(offset int) Token
	Advance() Token
	AtEnd() bool
}

// SliceStream is a [Stream] backed by a slice of tokens.
type SliceStream struct {
	tokens []Token
	pos    int
	eof    Token
}

// NewSliceStream returns a stream over tokens. A trailing EOF token, if
// present, is used for every read past the end.
func NewSliceStream(tokens []Token) *SliceStream {
	s := &SliceStream{tokens: tokens}

	if n := len(tokens); n > 0 && tokens[n-1].Kind == EOF {
		s.eof = tokens[n-1]
		s.tokens = tokens[:n-1]
	} else if n > 0 {
		last := tokens[n-1].Pos
		s.eof = Token{Kind: EOF, Pos: Position{
			File:   last.File,
			Offset: last.Offset + len(tokens[n-1].Text),
			Line:   last.Line,
			Column: last.Column + len(tokens[n-1].Text),
		}}
	} else {
		s.eof = Token{Kind: EOF, Pos: Position{Line: 1, Column: 1}}
	}

	return s
}

// Current implements [Stream].
func (s *SliceStream) Current() Token { return s.Peek(0) }

// Peek implements [Stream].
func (s *SliceStream) Peek(offset int) Token {
	i := s.pos + offset
	if i < 0 || i >= len(s.tokens) {
		return s.eof
	}

	return s.tokens[i]
}

// Advance implements [Stream].
func (s *SliceStream) Advance() Token {
	t := s.Peek(0)
	if s.pos < len(s.tokens) {
		s.pos++
	}

	return t
}

// AtEnd implements [Stream].
func (s *SliceStream) AtEnd() bool { return s.pos >= len(s.tokens) }

// Len returns the number of tokens remaining before EOF.
func (s *SliceStream) Len() int { return len(s.tokens) - s.pos }

// Join concatenates the raw spelling of toks, including the Lead of every
// token after the first, and trims surrounding whitespace.
func Join(toks []Token) string {
	var sb strings.Builder

	for i, t := range toks {
		if i > 0 {
			sb.WriteString(t.Lead)
		}

		sb.WriteString(t.Text)
	}

	return strings.TrimSpace(sb.String())
}
