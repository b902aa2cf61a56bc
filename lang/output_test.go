package lang

import (
	"strings"
	"testing"
)

func TestMinify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "whitespace between tags",
			input: "<div>\n  <p>a</p>\n  <p>b</p>\n</div>",
			want:  "<div><p>a</p><p>b</p></div>",
		},
		{
			name:  "collapsed text",
			input: "<p>one   two\n\tthree</p>",
			want:  "<p>one two three</p>",
		},
		{
			name:  "preserved script",
			input: "<script>\n  let a  =  1;\n</script>",
			want:  "<script>\n  let a  =  1;\n</script>",
		},
		{
			name:  "preserved pre",
			input: "<div> <pre>  x\n  y</pre> </div>",
			want:  "<div><pre>  x\n  y</pre></div>",
		},
		{
			name:  "comment kept",
			input: "<p>a</p> <!-- c --> <p>b</p>",
			want:  "<p>a</p><!-- c --><p>b</p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Minify(tt.input); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestPretty(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "nested",
			input: "<div><p>a</p><br><span>b</span></div>",
			want:  "<div>\n  <p>\n    a\n  </p>\n  <br>\n  <span>b</span>\n</div>\n",
		},
		{
			name:  "inline text",
			input: "<head><title>CHTL Generated Page</title></head><p><a href=\"#\">go  on</a><em></em></p>",
			want: "<head>\n  <title>CHTL Generated Page</title>\n</head>\n" +
				"<p>\n  <a href=\"#\">go on</a>\n  <em></em>\n</p>\n",
		},
		{
			name:  "inline with children",
			input: "<span><b>x</b> y</span>",
			want:  "<span>\n  <b>x</b>\n  y\n</span>\n",
		},
		{
			name:  "preserved style",
			input: "<head><style>.a { color: red; }</style></head>",
			want:  "<head>\n  <style>.a { color: red; }</style>\n</head>\n",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Pretty(tt.input, "  "); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		issues int
		line   int
	}{
		{name: "balanced", input: "<div><p>a</p><br><img src=x></div>", issues: 0},
		{name: "unclosed", input: "<div>\n<span></div>", issues: 1, line: 2},
		{name: "stray end tag", input: "<p></p>\n\n</b>", issues: 1, line: 3},
		{name: "never closed", input: "<main>", issues: 1, line: 1},
		{name: "void end tag ignored", input: "<p><br></br></p>", issues: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := &Diagnostics{}

			if got := Validate(tt.input, diags); got != tt.issues {
				t.Fatalf("expected %d issues, got %d: %v", tt.issues, got, diags.list)
			}

			if diags.Count(GenerationWarning) != tt.issues {
				t.Errorf("expected %d warnings, got %v", tt.issues, diags.list)
			}

			for d := range diags.All() {
				if d.Pos.File != OutputFile || d.Pos.Line != tt.line {
					t.Errorf("expected position %s:%d, got %v", OutputFile, tt.line, d.Pos)
				}
			}
		})
	}
}

func TestGenerate_PostProcessing(t *testing.T) {
	src := `div { p { text { "a" } } }`

	t.Run("minify", func(t *testing.T) {
		res := compileString(t, src, WithMinify(true), WithPrettyPrint(true))

		if strings.Contains(res.HTML, "\n") {
			t.Errorf("expected minified output, got %q", res.HTML)
		}
	})

	t.Run("pretty", func(t *testing.T) {
		res := compileString(t, src, WithPrettyPrint(true), WithIndent(4, ' '))

		if !strings.Contains(res.HTML, "\n"+strings.Repeat(" ", 12)+"<p>\n") {
			t.Errorf("expected nested indentation, got %q", res.HTML)
		}
	})

	t.Run("configured", func(t *testing.T) {
		res := compileString(t, "[Configuration] { PRETTY_PRINT = true; INDENT_CHAR = tab; INDENT_SIZE = 1; }\n"+src)

		if !strings.Contains(res.HTML, "\n\t\t\t<p>\n") {
			t.Errorf("expected tab indentation, got %q", res.HTML)
		}
	})
}
