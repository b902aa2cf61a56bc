package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

func resolveFlag(t *testing.T, r kong.Resolver, name string) any {
	t.Helper()

	v, err := r.Resolve(nil, nil, &kong.Flag{Value: &kong.Value{Name: name}})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	return v
}

func TestResolve(t *testing.T) {
	t.Setenv("CHTL_TEST_LEVEL", "warn")

	src := `
[Configuration] @Config cli {
    log_level = env("CHTL_TEST_LEVEL");
    log_format = text;
    log_pretty = false;
    depth = 2 * 3;
    ratio = 1.5;
    module_path = "a,b";
}
[Configuration] @Config other {
    foo = "bar";
}
`

	r, err := resolve(context.Background(), "cli")(strings.NewReader(src))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	tests := []struct {
		flag string
		want any
	}{
		{"log_level", "warn"},
		{"log-level", "warn"},
		{"log-format", "text"},
		{"log-pretty", false},
		{"depth", "6"},
		{"ratio", "1.5"},
		{"module-path", "a,b"},
		{"foo", nil},
		{"missing", nil},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			if got := resolveFlag(t, r, tt.flag); got != tt.want {
				t.Errorf("expected %#v, got %#v", tt.want, got)
			}
		})
	}

	if err := r.Validate(nil); err != nil {
		t.Errorf("expected no validation error, got %v", err)
	}
}

func TestResolve_Missing(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty", ""},
		{"other block", `[Configuration] @Config other { log_level = "debug"; }`},
		{"unnamed block", `[Configuration] { log_level = "debug"; }`},
		{"invalid syntax", `[Configuration] @Config cli { {`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := resolve(context.Background(), "cli")(strings.NewReader(tt.src))
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if got := resolveFlag(t, r, "log_level"); got != nil {
				t.Errorf("expected nil, got %#v", got)
			}
		})
	}
}

func TestResolve_ExpressionError(t *testing.T) {
	src := `[Configuration] @Config cli { log_level = "debug"; broken = 1 +; }`

	r, err := resolve(context.Background(), "cli")(strings.NewReader(src))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if got := resolveFlag(t, r, "log-level"); got != "debug" {
		t.Errorf("expected debug, got %#v", got)
	}

	if got := resolveFlag(t, r, "broken"); got != "1 +" {
		t.Errorf("expected literal text, got %#v", got)
	}
}
