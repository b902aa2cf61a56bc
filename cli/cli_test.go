package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardnew/chtl/cli/cmd"
	"github.com/ardnew/chtl/pkg"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "chtl-cli-test-")
	if err != nil {
		panic(err)
	}

	// The user directories are resolved once per process.
	os.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	os.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))

	code := m.Run()

	os.RemoveAll(dir)
	os.Exit(code)
}

func noExit(t *testing.T) func(int) {
	return func(code int) { t.Fatalf("unexpected exit %d", code) }
}

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	var out, errs bytes.Buffer

	ctx := cmd.WithStreams(context.Background(), cmd.Streams{
		In:  strings.NewReader(""),
		Out: &out,
		Err: &errs,
	})

	err = Run(ctx, noExit(t), append([]string{"--log-level=error"}, args...)...)

	return out.String(), errs.String(), err
}

func writeSource(t *testing.T, name, src string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestRun_Directories(t *testing.T) {
	if _, _, err := run(t, "check", "-q", writeSource(t, "a.chtl", `p { }`)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	for _, dir := range requiredDirs() {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("expected directory %s, got %v", dir, err)
		}
	}

	if got, want := configPath(baseConfig), filepath.Join(pkg.ConfigDir(), "config.chtl"); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRun_DefaultCompile(t *testing.T) {
	src := writeSource(t, "page.chtl", `div { p { text { "hi" } } }`)

	out, _, err := run(t, src)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	for _, want := range []string{"<html", "<div><p>hi</p></div>"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestRun_CheckErrors(t *testing.T) {
	src := writeSource(t, "bad.chtl", `div { @Element Missing; }`)

	_, errs, err := run(t, "check", src)
	if !errors.Is(err, cmd.ErrCompile) {
		t.Fatalf("expected %v, got %v", cmd.ErrCompile, err)
	}

	if !strings.Contains(errs, "1 source: 1 error") {
		t.Errorf("expected summary, got %q", errs)
	}
}

func TestRun_ModulePath(t *testing.T) {
	lib := t.TempDir()
	if err := os.WriteFile(filepath.Join(lib, "ui.chtl"),
		[]byte(`[Template] @Element Badge { span { text { "new" } } }`), 0o600); err != nil {
		t.Fatal(err)
	}

	src := writeSource(t, "page.chtl", `[Import] @Chtl from ui; p { @Element Badge; }`)

	out, errs, err := run(t, "--module-path", lib, "compile", "--fragment", src)
	if err != nil {
		t.Fatalf("expected no error, got %v (%s)", err, errs)
	}

	if !strings.Contains(out, "<span>new</span>") {
		t.Errorf("expected imported template, got %q (%s)", out, errs)
	}
}

func TestRun_InitAndResolve(t *testing.T) {
	path := configPath(baseConfig)
	t.Cleanup(func() { os.Remove(path) })

	if _, _, err := run(t, "init"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected configuration file, got %v", err)
	}

	for _, want := range []string{"[Configuration] @Config cli {", "log_level = ", "log_pretty = "} {
		if !strings.Contains(string(data), want) {
			t.Errorf("expected %q in %q", want, data)
		}
	}

	if _, _, err := run(t, "init"); !errors.Is(err, cmd.ErrFileExists) {
		t.Errorf("expected %v, got %v", cmd.ErrFileExists, err)
	}

	// The written file parses back as the flag defaults.
	src := writeSource(t, "a.chtl", `p { }`)
	if _, _, err := run(t, "check", "-q", src); err != nil {
		t.Errorf("expected generated configuration to resolve, got %v", err)
	}
}

func TestRun_ConfigurationFile(t *testing.T) {
	path := configPath(baseConfig)
	t.Cleanup(func() { os.Remove(path) })

	conf := `[Configuration] @Config cli { log_level = "error"; module_path = "` + t.TempDir() + `"; }`
	if err := os.WriteFile(path, []byte(conf), 0o600); err != nil {
		t.Fatal(err)
	}

	out, _, err := run(t, "compile", "--fragment", writeSource(t, "a.chtl", `b { }`))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if out != "<b></b>\n" {
		t.Errorf("expected %q, got %q", "<b></b>\n", out)
	}
}
