package cmd

import (
	"errors"
	"strings"
	"testing"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		quiet   bool
		want    string
		wantErr error
	}{
		{name: "clean", input: `p { }`, want: "1 source: no problems\n"},
		{name: "quiet", input: `p { }`, quiet: true, want: ""},
		{name: "errors", input: `p { @Element Nope; }`, wantErr: ErrCompile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, out, errs := testContext(tt.input)

			err := (&Check{Quiet: tt.quiet}).Run(ctx)

			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}

				return
			case err != nil:
				t.Fatalf("expected no error, got %v", err)
			}

			if got := errs.String(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}

			if out.Len() != 0 {
				t.Errorf("expected nothing on stdout, got %q", out)
			}
		})
	}
}

func TestCheck_Summary(t *testing.T) {
	dir := t.TempDir()
	a := writeTemp(t, dir, "a.chtl", `p { @Element Nope; }`)
	b := writeTemp(t, dir, "b.chtl", `p { }`)

	ctx, _, errs := testContext("")

	if err := (&Check{Sources: []string{a, b}}).Run(ctx); !errors.Is(err, ErrCompile) {
		t.Fatalf("expected %v, got %v", ErrCompile, err)
	}

	if got := errs.String(); !strings.Contains(got, "2 sources: 1 error") {
		t.Errorf("expected summary line, got %q", got)
	}
}
