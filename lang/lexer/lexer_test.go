package lexer

import (
	"strings"
	"testing"

	"github.com/ardnew/chtl/lang/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, 0, len(toks))
	for _, t := range toks {
		out = append(out, t.Kind)
	}

	return out
}

func TestTokenize_Kinds(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []token.Kind
	}{
		{
			name:  "element with attribute",
			input: `div { id: box; }`,
			want: []token.Kind{
				token.Identifier, token.LBrace, token.Identifier, token.Colon,
				token.Identifier, token.Semicolon, token.RBrace, token.EOF,
			},
		},
		{
			name:  "template header",
			input: `[Template] @Style DefaultText {}`,
			want: []token.Kind{
				token.MarkTemplate, token.TypeTag, token.Identifier,
				token.LBrace, token.RBrace, token.EOF,
			},
		},
		{
			name:  "index access is not a marker",
			input: `div[0]`,
			want: []token.Kind{
				token.Identifier, token.LBracket, token.Number, token.RBracket,
				token.EOF,
			},
		},
		{
			name:  "compound keywords",
			input: `insert at top { } insert at  bottom {}`,
			want: []token.Kind{
				token.KeywordInsert, token.KeywordAtTop, token.LBrace,
				token.RBrace, token.KeywordInsert, token.KeywordAtBottom,
				token.LBrace, token.RBrace, token.EOF,
			},
		},
		{
			name:  "at as plain word",
			input: `at topmost`,
			want:  []token.Kind{token.Identifier, token.Identifier, token.EOF},
		},
		{
			name:  "hyphenated names and units",
			input: `font-size: 1.6em;`,
			want: []token.Kind{
				token.Identifier, token.Colon, token.Number, token.Semicolon,
				token.EOF,
			},
		},
		{
			name:  "comments",
			input: "// line\n/* block */\n-- generated\n",
			want: []token.Kind{
				token.LineComment, token.BlockComment, token.GeneratorComment,
				token.EOF,
			},
		},
		{
			name:  "double hyphen mid-line is not a comment",
			input: `color: var(--main);`,
			want: []token.Kind{
				token.Identifier, token.Colon, token.Identifier, token.LParen,
				token.Symbol, token.Symbol, token.Identifier, token.RParen,
				token.Semicolon, token.EOF,
			},
		},
		{
			name:  "selectors",
			input: `.box #main &:hover`,
			want: []token.Kind{
				token.Dot, token.Identifier, token.Hash, token.Identifier,
				token.Ampersand, token.Colon, token.Identifier, token.EOF,
			},
		},
		{
			name:  "strings",
			input: `"double" 'single' ` + "`back`",
			want:  []token.Kind{token.String, token.String, token.String, token.EOF},
		},
		{
			name:  "unterminated string",
			input: "\"open\nnext",
			want:  []token.Kind{token.Illegal, token.Identifier, token.EOF},
		},
		{
			name:  "operators",
			input: `a != b && c`,
			want: []token.Kind{
				token.Identifier, token.Symbol, token.Identifier, token.Symbol,
				token.Identifier, token.EOF,
			},
		},
		{
			name:  "unicode literal",
			input: `text { 这是文本 }`,
			want: []token.Kind{
				token.KeywordText, token.LBrace, token.Identifier, token.RBrace,
				token.EOF,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := kinds(Tokenize("test.chtl", []byte(tt.input)))

			if len(got) != len(tt.want) {
				t.Fatalf("expected %d tokens %v, got %d %v", len(tt.want), tt.want, len(got), got)
			}

			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token %d: expected %v, got %v", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestTokenize_Positions(t *testing.T) {
	toks := Tokenize("pos.chtl", []byte("div\n  span {}"))

	want := []token.Position{
		{File: "pos.chtl", Offset: 0, Line: 1, Column: 1},
		{File: "pos.chtl", Offset: 6, Line: 2, Column: 3},
		{File: "pos.chtl", Offset: 11, Line: 2, Column: 8},
	}

	for i, pos := range want {
		if toks[i].Pos != pos {
			t.Errorf("token %d: expected %+v, got %+v", i, pos, toks[i].Pos)
		}
	}

	if toks[1].Lead != "\n  " {
		t.Errorf("expected lead %q, got %q", "\n  ", toks[1].Lead)
	}
}

func TestTokenize_Lossless(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		`html { head { } body { div { id: main; text { Hi } } } }`,
		"script {\n  {{.box}} -> listen({ click: () => { } });\n}\n",
		"[Origin] @Html { <div class=\"x\">raw</div> }",
		"\"unterminated\n-- generated comment\n/* open block",
	}

	for _, in := range inputs {
		var sb strings.Builder

		for _, tok := range Tokenize("", []byte(in)) {
			sb.WriteString(tok.Raw())
		}

		if sb.String() != in {
			t.Errorf("expected lossless round trip of %q, got %q", in, sb.String())
		}
	}
}

func TestJoin(t *testing.T) {
	toks := Tokenize("", []byte(`rgb(255, 192, 203);`))
	got := token.Join(toks[:len(toks)-2])

	if got != "rgb(255, 192, 203)" {
		t.Errorf("expected %q, got %q", "rgb(255, 192, 203)", got)
	}
}

func FuzzTokenize_Lossless(f *testing.F) {
	for _, seed := range []string{
		`div { style { .box { width: 10px; } } }`,
		`[Template] @Element Box { span { } }`,
		"-- note\n@Style A;",
		"'\\'",
	} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, in string) {
		var sb strings.Builder

		toks := Tokenize("", []byte(in))
		for _, tok := range toks {
			sb.WriteString(tok.Raw())
		}

		if sb.String() != in {
			t.Fatalf("lexer lost input: %q != %q", sb.String(), in)
		}

		if toks[len(toks)-1].Kind != token.EOF {
			t.Fatalf("expected trailing EOF, got %v", toks[len(toks)-1].Kind)
		}
	})
}
