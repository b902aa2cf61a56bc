package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCompile(t *testing.T) {
	const src = `div { class: box; p { text { "hi" } } }`

	tests := []struct {
		name     string
		cmd      Compile
		contains []string
		excludes []string
	}{
		{
			name:     "document",
			cmd:      Compile{},
			contains: []string{"<!DOCTYPE html>", `<div class="box"><p>hi</p></div>`},
		},
		{
			name:     "fragment",
			cmd:      Compile{Fragment: true},
			contains: []string{`<div class="box"><p>hi</p></div>` + "\n"},
			excludes: []string{"<html"},
		},
		{
			name:     "pretty fragment",
			cmd:      Compile{Fragment: true, Pretty: true, Indent: 3},
			contains: []string{"<div class=\"box\">\n   <p>\n      hi\n   </p>\n</div>\n"},
		},
		{
			name:     "minified",
			cmd:      Compile{Minify: true, Pretty: true},
			contains: []string{`<div class="box"><p>hi</p></div>`},
			excludes: []string{"\n  "},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, out, errs := testContext(src)

			if err := tt.cmd.Run(ctx); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			for _, want := range tt.contains {
				if !strings.Contains(out.String(), want) {
					t.Errorf("expected %q in %q", want, out)
				}
			}

			for _, bad := range tt.excludes {
				if strings.Contains(out.String(), bad) {
					t.Errorf("expected no %q in %q", bad, out)
				}
			}

			if errs.Len() != 0 {
				t.Errorf("expected no diagnostics, got %q", errs)
			}
		})
	}
}

func TestCompile_Diagnostics(t *testing.T) {
	const src = `div { @Element Nope; }`

	t.Run("lenient", func(t *testing.T) {
		ctx, out, errs := testContext(src)

		if err := (&Compile{Fragment: true}).Run(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !strings.Contains(out.String(), "<div>") {
			t.Errorf("expected output despite errors, got %q", out)
		}

		if !strings.Contains(errs.String(), "unresolved symbol") {
			t.Errorf("expected diagnostic, got %q", errs)
		}
	})

	t.Run("strict", func(t *testing.T) {
		ctx, _, _ := testContext(src)

		if err := (&Compile{Strict: true}).Run(ctx); !errors.Is(err, ErrCompile) {
			t.Errorf("expected %v, got %v", ErrCompile, err)
		}
	})
}

func TestCompile_OutputDirectory(t *testing.T) {
	dir := t.TempDir()
	a := writeTemp(t, dir, "a.chtl", `b { }`)
	b := writeTemp(t, dir, "b.chtl", `i { }`)
	dst := filepath.Join(dir, "site")

	ctx, out, _ := testContext("")

	c := &Compile{Fragment: true, Output: dst, Sources: []string{a, b}}
	if err := c.Run(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if out.Len() != 0 {
		t.Errorf("expected nothing on stdout, got %q", out)
	}

	for name, want := range map[string]string{"a.html": "<b></b>\n", "b.html": "<i></i>\n"} {
		data, err := os.ReadFile(filepath.Join(dst, name))
		if err != nil || string(data) != want {
			t.Errorf("expected %s to hold %q, got %q (%v)", name, want, data, err)
		}
	}
}

func TestCompile_OutputPath(t *testing.T) {
	tests := []struct {
		output  string
		name    string
		sources int
		want    string
	}{
		{"", "a.chtl", 2, ""},
		{"out.html", "a.chtl", 1, "out.html"},
		{"site", "src/page.chtl", 2, filepath.Join("site", "page.html")},
		{"site", stdinName, 2, filepath.Join("site", "stdin.html")},
	}

	for _, tt := range tests {
		c := &Compile{Output: tt.output}

		if got := c.outputPath(tt.name, tt.sources); got != tt.want {
			t.Errorf("outputPath(%q, %d): expected %q, got %q", tt.name, tt.sources, tt.want, got)
		}
	}
}
