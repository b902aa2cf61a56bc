package lang

import (
	"context"
	"io/fs"
	"path"
	"slices"
	"strings"
	"testing"
)

// mapLoader serves imports from memory. Paths are resolved against the
// root regardless of the importing file.
type mapLoader map[string]string

func (m mapLoader) Load(_ context.Context, name, _ string) (Source, error) {
	key := strings.TrimPrefix(path.Clean("/"+name), "/")

	data, ok := m[key]
	if !ok {
		return Source{}, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}

	return Source{Path: "/" + key, Data: []byte(data)}, nil
}

func (m mapLoader) Glob(_ context.Context, pattern, _ string) ([]string, error) {
	var out []string

	for key := range m {
		ok, err := path.Match(pattern, key)
		if err != nil {
			return nil, err
		}

		if ok {
			out = append(out, key)
		}
	}

	slices.Sort(out)

	return out, nil
}

func TestImport_Chtl(t *testing.T) {
	files := mapLoader{
		"lib.chtl":       `[Template] @Element Box { b { } }`,
		"theme/dark.chtl": `[Template] @Var Dark { fg: white; }`,
	}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "quoted path",
			input: `[Import] @Chtl from "lib.chtl"; div { @Element Box; }`,
			want:  `<div><b></b></div>`,
		},
		{
			name:  "extension inferred",
			input: `[Import] @Chtl from lib; div { @Element Box; }`,
			want:  `<div><b></b></div>`,
		},
		{
			name:  "dotted module path",
			input: `[Import] @Chtl from theme.dark; p { style { color: Dark(fg); } }`,
			want:  `<p style="color: white;"></p>`,
		},
		{
			name:  "imported once",
			input: `[Import] @Chtl from lib; [Import] @Chtl from "lib.chtl"; div { @Element Box; }`,
			want:  `<div><b></b></div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := compileString(t, tt.input, WithLoader(files))

			if res.Diagnostics.Len() != 0 {
				t.Errorf("expected no diagnostics, got %v", res.Diagnostics.list)
			}

			if got := res.Document.Body(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestImport_Origins(t *testing.T) {
	files := mapLoader{
		"banner.html": `<header>hi</header>`,
		"site.css":    `p { margin: 0 }`,
		"app.js":      `init();`,
	}

	src := `
[Import] @Html from "banner.html" as banner;
[Import] @Style from site.css;
[Import] @JavaScript from "app.js";
div { [Origin] @Html banner; }
`
	res := compileString(t, src, WithLoader(files))

	if res.Diagnostics.Len() != 0 {
		t.Errorf("expected no diagnostics, got %v", res.Diagnostics.list)
	}

	if got, want := res.Document.Body(), `<div><header>hi</header></div>`; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	if got := res.Document.CSS(); !strings.Contains(got, "p { margin: 0 }") {
		t.Errorf("expected imported stylesheet, got %q", got)
	}

	if got := res.Document.JS(); !strings.Contains(got, "init();") {
		t.Errorf("expected imported script, got %q", got)
	}
}

func TestImport_Selective(t *testing.T) {
	files := mapLoader{
		"lib.chtl": `
[Template] @Style A { color: red; }
[Template] @Style Hidden { color: blue; }
[Custom] @Element C { i { } }
`,
	}

	src := `
[Import] [Template] @Style A from "lib.chtl" as B;
[Import] [Custom] @Element C from "lib.chtl";
div { style { @Style B; } }
p { @Element C; }
`
	res := compileString(t, src, WithLoader(files))

	if res.Diagnostics.Len() != 0 {
		t.Errorf("expected no diagnostics, got %v", res.Diagnostics.list)
	}

	want := `<div style="color: red;"></div><p><i></i></p>`
	if got := res.Document.Body(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	if _, ok := res.Symbols.Find("Hidden", SymbolTemplateStyle); ok {
		t.Error("expected unselected symbol to stay private")
	}

	if _, ok := res.Symbols.Find("A", SymbolTemplateStyle); ok {
		t.Error("expected aliased symbol to be registered under its alias only")
	}
}

func TestImport_SelectiveMissingName(t *testing.T) {
	files := mapLoader{"lib.chtl": `[Template] @Style Alpha { color: red; }`}

	res := compileString(t, `[Import] [Template] @Style Alpa from "lib.chtl";`, WithLoader(files))

	if n := res.Diagnostics.Count(ResolutionError); n != 1 {
		t.Fatalf("expected 1 resolution error, got %v", res.Diagnostics.list)
	}

	for d := range res.Diagnostics.All() {
		if !slices.Contains(d.Suggestions, "Alpha") {
			t.Errorf("expected suggestion %q, got %v", "Alpha", d.Suggestions)
		}
	}
}

func TestImport_Cycle(t *testing.T) {
	files := mapLoader{
		"a.chtl": `[Import] @Chtl from "b.chtl"; [Template] @Element A { i { } }`,
		"b.chtl": `[Import] @Chtl from "a.chtl"; [Template] @Element B { u { } }`,
	}

	res := compileString(t, `[Import] @Chtl from "a.chtl"; div { @Element A; @Element B; }`,
		WithLoader(files))

	if !diagnosed(res, ErrImportCycle) {
		t.Errorf("expected import cycle, got %v", res.Diagnostics.list)
	}

	if res.Diagnostics.HasErrors() {
		t.Errorf("expected cycle to be a warning, got %v", res.Diagnostics.list)
	}

	want := `<div><i></i><u></u></div>`
	if got := res.Document.Body(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestImport_Batch(t *testing.T) {
	files := mapLoader{
		"styles/one.chtl": `[Template] @Style One { color: red; }`,
		"styles/two.chtl": `[Template] @Style Two { margin: 0; }`,
		"styles/note.txt": `not chtl`,
	}

	t.Run("wildcard", func(t *testing.T) {
		res := compileString(t, `
[Import] [Template] @Style from "styles/*";
div { style { @Style One; @Style Two; } }
`, WithLoader(files))

		if res.Diagnostics.Len() != 0 {
			t.Errorf("expected no diagnostics, got %v", res.Diagnostics.list)
		}

		want := `<div style="color: red; margin: 0;"></div>`
		if got := res.Document.Body(); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("name ignored", func(t *testing.T) {
		res := compileString(t, `[Import] [Template] @Style One from "styles/*.chtl" as X;`,
			WithLoader(files))

		if !diagnosed(res, ErrBatchImportName) {
			t.Errorf("expected batch name warning, got %v", res.Diagnostics.list)
		}

		if _, ok := res.Symbols.Find("Two", SymbolTemplateStyle); !ok {
			t.Error("expected every matching symbol to be imported")
		}
	})

	t.Run("no match", func(t *testing.T) {
		res := compileString(t, `[Import] @Chtl from "missing/*.chtl";`, WithLoader(files))

		if n := res.Diagnostics.Count(ResolutionError); n != 1 {
			t.Errorf("expected 1 resolution error, got %v", res.Diagnostics.list)
		}
	})
}

func TestImport_Errors(t *testing.T) {
	files := mapLoader{
		"a.chtl": `[Import] @Chtl from "b.chtl";`,
		"b.chtl": `[Template] @Element B { u { } }`,
	}

	tests := []struct {
		name     string
		input    string
		opts     []Option
		category Category
		err      *Error
	}{
		{
			name:     "missing file",
			input:    `[Import] @Chtl from "nope.chtl";`,
			category: ResolutionError,
			err:      nil,
		},
		{
			name:     "missing type",
			input:    `[Import] from "a.chtl";`,
			category: ParseError,
			err:      ErrImport,
		},
		{
			name:     "missing module",
			input:    `[Import] @CJmod from nothing;`,
			category: ResolutionError,
			err:      ErrModuleNotFound,
		},
		{
			name:     "depth limit",
			input:    `[Import] @Chtl from "a.chtl";`,
			opts:     []Option{WithMaxImportDepth(1)},
			category: ResolutionError,
			err:      ErrImport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := compileString(t, tt.input, append([]Option{WithLoader(files)}, tt.opts...)...)

			if res.Diagnostics.Count(tt.category) == 0 {
				t.Errorf("expected a %v diagnostic, got %v", tt.category, res.Diagnostics.list)
			}

			if tt.err != nil && !diagnosed(res, tt.err) {
				t.Errorf("expected %v, got %v", tt.err, res.Diagnostics.list)
			}
		})
	}
}

func TestImport_Modules(t *testing.T) {
	ui := NewSymbolMap()
	NewBuilder(WithSymbols(ui)).BuildSource(context.Background(), "ui.chtl",
		[]byte(`[Template] @Element Btn { button { } }`))

	modules := MapModuleProvider{
		"ui": &ModuleExports{Name: "ui", Symbols: ui},
	}

	tests := []struct {
		name  string
		input string
	}{
		{"cjmod", `[Import] @CJmod from ui; div { @Element Btn; }`},
		{"chtl fallback", `[Import] @Chtl from ui; div { @Element Btn; }`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := compileString(t, tt.input, WithLoader(mapLoader{}), WithModules(modules))

			if res.Diagnostics.Len() != 0 {
				t.Errorf("expected no diagnostics, got %v", res.Diagnostics.list)
			}

			want := `<div><button></button></div>`
			if got := res.Document.Body(); got != want {
				t.Errorf("expected %q, got %q", want, got)
			}
		})
	}
}

func TestDirModuleProvider(t *testing.T) {
	files := mapLoader{
		"widgets/src/widgets.chtl": `
[Info] { name = "widgets"; version = "1.0.0"; }
[Export] { [Template] @Element Card; }
[Template] @Element Card { article { } }
[Template] @Element Hidden { i { } }
`,
	}

	p := NewDirModuleProvider(files)

	e, ok := p.FindModule("widgets")
	if !ok {
		t.Fatal("expected module widgets")
	}

	if got := e.Names(SymbolTemplateElement); !slices.Equal(got, []string{"Card"}) {
		t.Errorf("expected exports [Card], got %v", got)
	}

	if got := e.Info["version"]; got != "1.0.0" {
		t.Errorf("expected version %q, got %q", "1.0.0", got)
	}

	if _, ok := p.FindModule("absent"); ok {
		t.Error("expected absent module to be missing")
	}

	res := compileString(t, `[Import] @CJmod from widgets; main { @Element Card; }`,
		WithLoader(files), WithModules(p))

	if got, want := res.Document.Body(), `<main><article></article></main>`; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
