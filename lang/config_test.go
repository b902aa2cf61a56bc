package lang

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func configProperty(name, raw string) *Node {
	p := &Node{Kind: KindProperty, Name: name, Raw: raw}
	p.Value = ParseValue(raw).String()

	return p
}

func TestOptionValue(t *testing.T) {
	t.Setenv("CHTL_TEST_FLAG", "1")

	earlier := map[string]Value{
		"theme-color": StringValue("navy"),
		"BASE":        IntValue(2),
	}

	tests := []struct {
		name string
		raw  string
		want Value
		err  *Error
	}{
		{name: "quoted", raw: `"hello world"`, want: StringValue("hello world")},
		{name: "single quoted", raw: `'x'`, want: StringValue("x")},
		{name: "integer", raw: `42`, want: IntValue(42)},
		{name: "float", raw: `1.5`, want: FloatValue(1.5)},
		{name: "boolean", raw: `false`, want: BoolValue(false)},
		{name: "bare word", raw: `dark`, want: StringValue("dark")},
		{name: "css literal", raw: `zh-CN`, want: StringValue("zh-CN")},
		{name: "arithmetic", raw: `1 + 2 * 3`, want: IntValue(7)},
		{name: "concatenation", raw: `"a" + "b"`, want: StringValue("ab")},
		{name: "earlier option", raw: `BASE * 10`, want: IntValue(20)},
		{name: "hyphenated reference", raw: `theme-color`, want: StringValue("navy")},
		{name: "hyphenated in expression", raw: `theme-color + "!"`, want: StringValue("navy!")},
		{name: "environment", raw: `env("CHTL_TEST_FLAG") == "1"`, want: BoolValue(true)},
		{name: "path builtin", raw: `path.ext("a/b.chtl")`, want: StringValue(".chtl")},
		{name: "compile error", raw: `1 +`, want: StringValue("1 +"), err: ErrExprCompile},
		{name: "unknown function", raw: `nope()`, want: StringValue("nope()"), err: ErrExprCompile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := optionValue(configProperty("KEY", tt.raw), earlier)

			switch {
			case tt.err == nil && err != nil:
				t.Fatalf("expected no error, got %v", err)
			case tt.err != nil && (err == nil || !err.Is(tt.err)):
				t.Fatalf("expected %v, got %v", tt.err, err)
			}

			if got.Kind != tt.want.Kind || got.String() != tt.want.String() {
				t.Errorf("expected %v %q, got %v %q", tt.want.Kind, tt.want, got.Kind, got)
			}
		})
	}
}

func TestHyphenPatcher(t *testing.T) {
	tests := []struct {
		raw  string
		env  map[string]any
		want any
	}{
		{"a-b-c", map[string]any{"a-b-c": 1}, 1},
		{"a - b", map[string]any{"a-b": "x"}, "x"},
		{"a - b", map[string]any{"a": 5, "b": 3}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			earlier := make(map[string]Value, len(tt.env))
			for k, v := range tt.env {
				val, _ := ValueOf(v)
				earlier[k] = val
			}

			got, err := optionValue(configProperty("KEY", tt.raw), earlier)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			want, _ := ValueOf(tt.want)
			if got.String() != want.String() {
				t.Errorf("expected %q, got %q", want, got)
			}
		})
	}
}

func TestOptions_Set(t *testing.T) {
	tests := []struct {
		key   string
		value Value
		check func(Options) bool
	}{
		{"PRETTY_PRINT", BoolValue(true), func(o Options) bool { return o.PrettyPrint }},
		{"minify", StringValue("yes"), func(o Options) bool { return o.Minify }},
		{"DEBUG_MODE", IntValue(1), func(o Options) bool { return o.Debug }},
		{"INDENT_SIZE", StringValue("4"), func(o Options) bool { return o.IndentSize == 4 }},
		{"INDENT_CHAR", StringValue("tab"), func(o Options) bool { return o.IndentChar == '\t' }},
		{"INDEX_INITIAL_COUNT", IntValue(1), func(o Options) bool { return o.IndexInitialCount == 1 }},
		{"HTML_LANG", StringValue("en"), func(o Options) bool { return o.Lang == "en" }},
		{"TITLE", StringValue("Home"), func(o Options) bool { return o.Title == "Home" }},
		{"DISABLE_SCRIPT_AUTO_ADD_ID", BoolValue(false), func(o Options) bool { return !o.DisableScriptAutoAddID }},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			o := DefaultOptions()

			if !o.Set(tt.key, tt.value) {
				t.Fatalf("expected %s to be a known option", tt.key)
			}

			if !tt.check(o) {
				t.Errorf("expected %s = %v to apply, got %+v", tt.key, tt.value, o)
			}
		})
	}

	o := DefaultOptions()
	if o.Set("THEME", StringValue("dark")) {
		t.Error("expected THEME to be unknown")
	}

	if got := (Options{IndentSize: 3, IndentChar: '.'}).Indent(); got != "..." {
		t.Errorf("expected %q, got %q", "...", got)
	}
}

func TestConfiguration_Applied(t *testing.T) {
	src := `
[Configuration] {
    TITLE = "Docs: " + "Home";
    HTML_LANG = en;
    THEME = dark;
    INDEX_INITIAL_COUNT = 1;
}
ul { li { text { "a" } } li { text { "b" } } }
`
	res := compileString(t, src)

	if res.Diagnostics.Len() != 0 {
		t.Fatalf("expected no diagnostics, got %v", res.Diagnostics.list)
	}

	for _, want := range []string{`<html lang="en">`, "<title>Docs: Home</title>"} {
		if !strings.Contains(res.HTML, want) {
			t.Errorf("expected output to contain %q, got %q", want, res.HTML)
		}
	}

	if v, ok := res.Context.Var("THEME"); !ok || v.String() != "dark" {
		t.Errorf("expected THEME var %q, got %q (%v)", "dark", v, ok)
	}

	if got := res.Context.Options.IndexInitialCount; got != 1 {
		t.Errorf("expected index base 1, got %d", got)
	}
}

func TestConfiguration_IndexBase(t *testing.T) {
	src := `
[Configuration] { INDEX_INITIAL_COUNT = 1; }
[Custom] @Element L { li { text { "a" } } li { text { "b" } } }
ul { @Element L { delete li[1]; } }
`
	want := `<ul><li>b</li></ul>`

	if got := compileString(t, src).Document.Body(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestConfiguration_Named(t *testing.T) {
	src := `
[Configuration] @Config Dev { DEBUG_MODE = true; TITLE = "Dev"; }
[Template] @Element E { b { } }
use @Config Dev;
div { @Element E; }
`
	res := compileString(t, src)

	if !res.Context.Options.Debug {
		t.Error("expected named configuration to enable debug mode")
	}

	if !strings.Contains(res.HTML, "<title>Dev</title>") {
		t.Errorf("expected title Dev, got %q", res.HTML)
	}

	if got, want := res.Document.Body(), `<div><!-- @Element E --><b></b></div>`; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestConfiguration_NamedNotAppliedImplicitly(t *testing.T) {
	res := compileString(t, `[Configuration] @Config Dev { TITLE = "Dev"; } p { }`)

	if got := res.Context.Options.Title; got != DefaultOptions().Title {
		t.Errorf("expected default title, got %q", got)
	}
}

func TestConfiguration_ExpressionError(t *testing.T) {
	res := compileString(t, `[Configuration] { TITLE = 1 +; } p { }`)

	if n := res.Diagnostics.Count(GenerationWarning); n != 1 {
		t.Errorf("expected 1 generation warning, got %v", res.Diagnostics.list)
	}

	if res.Diagnostics.HasErrors() {
		t.Error("expected expression failure to be a warning")
	}
}

func TestConfiguration_NameGroup(t *testing.T) {
	src := `
[Configuration] {
    [Name] { CUSTOM_STYLE = @Css; }
}
[Template] @Css Pad { padding: 1px; }
div { style { @Css Pad; } }
`
	res := compileString(t, src)

	if res.Diagnostics.Len() != 0 {
		t.Fatalf("expected no diagnostics, got %v", res.Diagnostics.list)
	}

	if got, want := res.Document.Body(), `<div style="padding: 1px;"></div>`; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestBuiltinEnvKeys(t *testing.T) {
	keys := BuiltinEnvKeys()

	for _, want := range []string{"cwd", "env", "file", "mung", "path", "platform"} {
		if !slices.Contains(keys, want) {
			t.Errorf("expected builtin %q, got %v", want, keys)
		}
	}

	if !slices.IsSorted(keys) {
		t.Errorf("expected sorted keys, got %v", keys)
	}
}

func TestEvaluate(t *testing.T) {
	_, b, _ := buildString(t, `
[Configuration] @Config cli {
    log_level = "debug";
    depth = 2 * 4;
    pretty = true;
    broken = 1 +;
}
`)

	s, ok := b.Symbols().Find("cli", SymbolConfiguration)
	if !ok {
		t.Fatal("expected configuration cli")
	}

	values, err := Evaluate(s.Node)
	if err == nil || !errors.Is(err, ErrExprCompile) {
		t.Errorf("expected %v, got %v", ErrExprCompile, err)
	}

	want := map[string]string{
		"log_level": "debug",
		"depth":     "8",
		"pretty":    "true",
		"broken":    "1 +",
	}

	for k, v := range want {
		if got, ok := values[k]; !ok || got.String() != v {
			t.Errorf("expected %s = %q, got %q", k, v, got)
		}
	}

	if values["pretty"].Kind != ValueBool {
		t.Errorf("expected bool, got %v", values["pretty"].Kind)
	}
}
