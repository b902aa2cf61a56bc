package lang

import (
	"context"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func compileString(t *testing.T, src string, opts ...Option) *Result {
	t.Helper()

	return Compile(context.Background(), "test.chtl", []byte(src), opts...)
}

func TestGenerate_DocumentShell(t *testing.T) {
	res := compileString(t, `div { id: main; text { Hi } }`)

	for _, want := range []string{
		"<!DOCTYPE html>",
		`<html lang="zh-CN">`,
		`<meta charset="UTF-8">`,
		"<title>CHTL Generated Page</title>",
		`<div id="main">Hi</div>`,
		"</body></html>",
	} {
		if !strings.Contains(res.HTML, want) {
			t.Errorf("expected output to contain %q, got %q", want, res.HTML)
		}
	}

	if res.Diagnostics.Len() != 0 {
		t.Errorf("expected no diagnostics, got %d: %v", res.Diagnostics.Len(), res.Diagnostics.list)
	}
}

func TestGenerate_Elements(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "nested",
			input: `div { span { text { "a" } } p { text { "b" } } }`,
			want:  `<div><span>a</span><p>b</p></div>`,
		},
		{
			name:  "equal attribute",
			input: `a { href = "/x"; text { "go" } }`,
			want:  `<a href="/x">go</a>`,
		},
		{
			name:  "escaped attribute",
			input: `div { title: "a<b & \"c\""; }`,
			want:  `<div title="a&lt;b &amp; &#34;c&#34;"></div>`,
		},
		{
			name:  "escaped text",
			input: `p { text { "1 < 2 & 3" } }`,
			want:  `<p>1 &lt; 2 &amp; 3</p>`,
		},
		{
			name:  "repeated attribute keeps last value",
			input: `div { class: a; id: x; class: b; }`,
			want:  `<div class="b" id="x"></div>`,
		},
		{
			name:  "text attribute form",
			input: `p { text: "hello"; }`,
			want:  `<p>hello</p>`,
		},
		{
			name:  "quoted tag name",
			input: `"my-widget" { }`,
			want:  `<my-widget></my-widget>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := compileString(t, tt.input)

			if got := res.Document.Body(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestGenerate_SelfClosing(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "img with children",
			input: `img { src: "a.png"; text { "ignored" } span { } }`,
			want:  `<img src="a.png">`,
		},
		{
			name:  "bodiless br",
			input: `p { text { "a" } br; text { "b" } }`,
			want:  `<p>a<br>b</p>`,
		},
		{
			name:  "input",
			input: `input { type: text; }`,
			want:  `<input type="text">`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compileString(t, tt.input).Document.Body()

			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}

			if strings.Contains(got, "</img>") || strings.Contains(got, "</br>") {
				t.Errorf("expected no closing tag for void element, got %q", got)
			}
		})
	}
}

func TestGenerate_InlineStyle(t *testing.T) {
	src := `
[Template] @Style A { color: red; }
[Template] @Style B { inherit @Style A; font-size: 12px; }
div { style { @Style B; margin: 0; } }
`
	got := compileString(t, src).Document.Body()
	want := `<div style="font-size: 12px; color: red; margin: 0;"></div>`

	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestGenerate_ExistingStyleAttribute(t *testing.T) {
	got := compileString(t, `div { style: "display: block"; style { color: red; } }`).
		Document.Body()
	want := `<div style="display: block; color: red;"></div>`

	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestGenerate_UnresolvedReference(t *testing.T) {
	src := `
div { style { @Style Missing; color: blue; } }
p { @Element Nowhere; text { "after" } }
`
	res := compileString(t, src)

	if n := res.Diagnostics.Count(ResolutionError); n != 2 {
		t.Errorf("expected 2 resolution errors, got %d", n)
	}

	want := `<div style="color: blue;"></div><p>after</p>`
	if got := res.Document.Body(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	if res.Err() == nil {
		t.Error("expected Err to report resolution errors")
	}
}

func TestGenerate_ElementTemplate(t *testing.T) {
	src := `
[Template] @Element Pair {
    span { text { "one" } }
    span { text { "two" } }
}
section { @Element Pair; }
`
	want := `<section><span>one</span><span>two</span></section>`

	if got := compileString(t, src).Document.Body(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestGenerate_CustomElementSpecialization(t *testing.T) {
	tests := []struct {
		name string
		use  string
		want string
	}{
		{
			name: "delete by tag",
			use:  `@Element Card { delete span; }`,
			want: `<div>a</div><p>c</p>`,
		},
		{
			name: "delete by index",
			use:  `@Element Card { delete div[0]; }`,
			want: `<span>b</span><p>c</p>`,
		},
		{
			name: "insert after",
			use:  `@Element Card { insert after span[0] { hr; } }`,
			want: `<div>a</div><span>b</span><hr><p>c</p>`,
		},
		{
			name: "insert before",
			use:  `@Element Card { insert before div[0] { br; } }`,
			want: `<br><div>a</div><span>b</span><p>c</p>`,
		},
		{
			name: "replace",
			use:  `@Element Card { insert replace span[0] { em { text { "x" } } } }`,
			want: `<div>a</div><em>x</em><p>c</p>`,
		},
		{
			name: "at top",
			use:  `@Element Card { insert at top { hr; } }`,
			want: `<hr><div>a</div><span>b</span><p>c</p>`,
		},
		{
			name: "at bottom",
			use:  `@Element Card { insert at bottom { hr; } }`,
			want: `<div>a</div><span>b</span><p>c</p><hr>`,
		},
		{
			name: "index access merges attributes",
			use:  `@Element Card { p[0] { id: last; } }`,
			want: `<div>a</div><span>b</span><p id="last">c</p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := `
[Custom] @Element Card {
    div { text { "a" } }
    span { text { "b" } }
    p { text { "c" } }
}
section { ` + tt.use + ` }
`
			res := compileString(t, src)
			want := "<section>" + tt.want + "</section>"

			if got := res.Document.Body(); got != want {
				t.Errorf("expected %q, got %q", want, got)
			}

			if res.Diagnostics.Len() != 0 {
				t.Errorf("expected no diagnostics, got %v", res.Diagnostics.list)
			}
		})
	}
}

func TestGenerate_TemplateSpecializationWarns(t *testing.T) {
	src := `
[Template] @Element Box { div { } span { } }
section { @Element Box { delete span; } }
`
	res := compileString(t, src)

	if n := res.Diagnostics.Count(ValidationWarning); n != 1 {
		t.Errorf("expected 1 validation warning, got %d", n)
	}

	want := `<section><div></div><span></span></section>`
	if got := res.Document.Body(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestGenerate_VarGroups(t *testing.T) {
	src := `
[Template] @Var Theme { primary: "#f00"; size: 12px; }
div { style { color: Theme(primary); font-size: Theme(size = 14px); } }
`
	want := `<div style="color: #f00; font-size: 14px;"></div>`

	if got := compileString(t, src).Document.Body(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestGenerate_Origins(t *testing.T) {
	src := `
[Origin] @Html { <b>raw</b> }
[Origin] @Style { .a { color: red; } }
[Origin] @JavaScript { console.log(1); }
[Origin] @Html banner { <i>named</i> }
div { [Origin] @Html banner; }
`
	res := compileString(t, src)

	if got, want := res.Document.Body(), `<b>raw</b><div><i>named</i></div>`; got != want {
		t.Errorf("expected body %q, got %q", want, got)
	}

	if got := res.Document.CSS(); !strings.Contains(got, ".a { color: red; }") {
		t.Errorf("expected stylesheet to contain origin, got %q", got)
	}

	if got := res.Document.JS(); !strings.Contains(got, "console.log(1);") {
		t.Errorf("expected script to contain origin, got %q", got)
	}
}

func TestGenerate_CustomOriginRouting(t *testing.T) {
	tests := []struct {
		typ    string
		wantIn string
	}{
		{typ: "@MyStyle", wantIn: "css"},
		{typ: "@SCSS", wantIn: "css"},
		{typ: "@TypeScript", wantIn: "js"},
		{typ: "@Vue", wantIn: "body"},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			res := compileString(t, `[Origin] `+tt.typ+` { payload }`)

			got := map[string]string{
				"css":  res.Document.CSS(),
				"js":   res.Document.JS(),
				"body": res.Document.Body(),
			}

			for where, text := range got {
				has := strings.Contains(text, "payload")
				if has != (where == tt.wantIn) {
					t.Errorf("expected payload only in %s, found in %s: %v", tt.wantIn, where, got)
				}
			}
		})
	}
}

func TestGenerate_Namespaces(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name: "braced",
			input: `
[Namespace] ui { [Template] @Element Box { span { text { "ui" } } } }
div { @Element Box from ui; }`,
			want: `<div><span>ui</span></div>`,
		},
		{
			name: "brace-less",
			input: `
[Namespace] ui [Template] @Element Box { span { text { "ui" } } }
div { @Element Box from ui; }`,
			want: `<div><span>ui</span></div>`,
		},
		{
			name: "qualified",
			input: `
[Namespace] ui { [Template] @Element Box { em { } } }
div { @Element ui.Box; }`,
			want: `<div><em></em></div>`,
		},
		{
			name: "current before global",
			input: `
[Template] @Element Box { b { } }
[Namespace] ui {
    [Template] @Element Box { i { } }
    div { @Element Box; }
}`,
			want: `<div><i></i></div>`,
		},
		{
			name: "global fallback",
			input: `
[Template] @Element Box { b { } }
[Namespace] ui { div { @Element Box; } }`,
			want: `<div><b></b></div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := compileString(t, tt.input)

			if got := res.Document.Body(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}

			if res.Diagnostics.HasErrors() {
				t.Errorf("expected no errors, got %v", res.Diagnostics.list)
			}
		})
	}
}

func TestGenerate_AuthoredDocument(t *testing.T) {
	src := `
html {
    head { title { text { "T" } } }
    body {
        div { style { .x { color: red; } } }
        script { let a = 1; }
    }
}
`
	res := compileString(t, src)

	want := `<!DOCTYPE html><html><head><title>T</title>` +
		`<style>.x { color: red; }</style></head>` +
		`<body><div class="x"></div><script>let a = 1;</script></body></html>`

	if res.HTML != want {
		t.Errorf("expected %q, got %q", want, res.HTML)
	}

	if !res.Document.Authored() {
		t.Error("expected document to be authored")
	}
}

func TestGenerate_AuthoredDocumentWithoutHead(t *testing.T) {
	src := `html { body { style { .b { color: red; } } } }`
	res := compileString(t, src)

	want := `<!DOCTYPE html><html><style>.b { color: red; }</style>` +
		`<body class="b"></body></html>`

	if res.HTML != want {
		t.Errorf("expected %q, got %q", want, res.HTML)
	}
}

func TestGenerate_AuthoredDocumentFromOrigin(t *testing.T) {
	src := `[Origin] @Html { <html><head><title>x</title></head><body><p>hi</p></body></html> }
div { style { .a { c: 1; } } script { go(); } }`
	res := compileString(t, src)

	if n := strings.Count(res.HTML, "<html"); n != 1 {
		t.Errorf("expected 1 html element, got %d in %q", n, res.HTML)
	}

	for _, want := range []string{
		"<title>x</title><style>.a { c: 1; }</style></head>",
		"<p>hi</p><script>go();</script></body>",
		`<div class="a"></div>`,
	} {
		if !strings.Contains(res.HTML, want) {
			t.Errorf("expected %q in %q", want, res.HTML)
		}
	}

	if !res.Document.Authored() {
		t.Error("expected document to be authored")
	}
}

func TestSplitDocument(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
		ok   bool
	}{
		{
			name: "head and body",
			src:  "<html><head></head><body></body></html>",
			want: "<html><head>[style]</head><body>[script]</body></html>",
			ok:   true,
		},
		{
			name: "no head",
			src:  "<html><body>x</body></html>",
			want: "<html>[style]<body>x[script]</body></html>",
			ok:   true,
		},
		{
			name: "no body",
			src:  "<!DOCTYPE html><HTML><head></head>x</HTML>",
			want: "<!DOCTYPE html><HTML><head>[style]</head>x[script]</HTML>",
			ok:   true,
		},
		{
			name: "unclosed",
			src:  "<html>",
			want: "<html>[style][script]",
			ok:   true,
		},
		{
			name: "fragment",
			src:  "<p>hi</p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts, ok := splitDocument(tt.src)
			if ok != tt.ok {
				t.Fatalf("expected ok %v, got %v", tt.ok, ok)
			}

			var sb strings.Builder

			for _, p := range parts {
				switch p.slot {
				case slotStyle:
					sb.WriteString("[style]")
				case slotScript:
					sb.WriteString("[script]")
				default:
					sb.WriteString(p.text)
				}
			}

			if got := sb.String(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestGenerate_GeneratorComments(t *testing.T) {
	src := "-- visible\n// hidden\ndiv { }"

	if got := compileString(t, src).Document.Body(); got != "<!-- visible --><div></div>" {
		t.Errorf("expected generator comment only, got %q", got)
	}

	got := compileString(t, src, WithIncludeComments(false)).Document.Body()
	if got != "<div></div>" {
		t.Errorf("expected no comments, got %q", got)
	}
}

func TestGenerate_Scripts(t *testing.T) {
	src := `
div {
    id: box;
    script { {{&}}.addEventListener("click", f); }
}
script { {{.item}}[1].focus(); }
`
	res := compileString(t, src)
	js := res.Document.JS()

	for _, want := range []string{
		`document.querySelector("#box").addEventListener("click", f);`,
		`document.querySelectorAll(".item")[1].focus();`,
	} {
		if !strings.Contains(js, want) {
			t.Errorf("expected script to contain %q, got %q", want, js)
		}
	}
}

func TestGenerate_ForeignCompilerError(t *testing.T) {
	failing := CompilerFunc(func(string) (string, error) {
		return "", ErrUnexpectedToken
	})

	res := compileString(t, `style { .a { color: red; } }`, WithStyleCompiler(failing))

	if n := res.Diagnostics.Count(GenerationWarning); n != 1 {
		t.Errorf("expected 1 generation warning, got %d", n)
	}

	if got := res.Document.CSS(); got != ".a { color: red; }" {
		t.Errorf("expected source used unchanged, got %q", got)
	}
}

func TestGenerate_DebugComments(t *testing.T) {
	src := `[Template] @Element Box { b { } } div { @Element Box; }`

	got := compileString(t, src, WithDebug(true)).Document.Body()
	if want := `<div><!-- @Element Box --><b></b></div>`; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestGenerate_AttributeRoundTrip(t *testing.T) {
	src := `div { id: main; class = "a b"; data-x: "1 & 2"; title: 'q'; }`
	attrs := generatedAttrs(t, compileString(t, src).Document.Body())
	want := map[string]string{
		"id":     "main",
		"class":  "a b",
		"data-x": "1 & 2",
		"title":  "q",
	}

	for k, v := range want {
		if attrs[k] != v {
			t.Errorf("expected %s=%q, got %q", k, v, attrs[k])
		}
	}

	if len(attrs) != len(want) {
		t.Errorf("expected %d attributes, got %d: %v", len(want), len(attrs), attrs)
	}
}

// generatedAttrs returns the attributes of the first start tag in markup.
func generatedAttrs(t *testing.T, markup string) map[string]string {
	t.Helper()

	z := html.NewTokenizer(strings.NewReader(markup))

	for {
		switch z.Next() {
		case html.ErrorToken:
			t.Fatalf("no start tag in %q", markup)

			return nil
		case html.StartTagToken, html.SelfClosingTagToken:
			attrs := make(map[string]string)
			for _, a := range z.Token().Attr {
				attrs[a.Key] = a.Val
			}

			return attrs
		}
	}
}

func TestGenerator_Generate(t *testing.T) {
	symbols := NewSymbolMap()
	root := NewBuilder(WithSymbols(symbols)).BuildSource(context.Background(), "g.chtl",
		[]byte(`[Template] @Style S { color: red; } p { style { @Style S; } }`))

	out := NewGenerator(WithSymbols(symbols), WithMinify(true)).
		Generate(context.Background(), root)

	if !strings.Contains(out, `<p style="color: red;"></p>`) {
		t.Errorf("expected styled paragraph, got %q", out)
	}
}
