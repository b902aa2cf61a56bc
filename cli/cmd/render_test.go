package cmd

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/ardnew/chtl/lang"
	"github.com/ardnew/chtl/lang/token"
)

func TestTally(t *testing.T) {
	tests := []struct {
		count tally
		want  string
	}{
		{tally{}, ""},
		{tally{lang.SeverityInfo: 1}, "1 info"},
		{tally{lang.SeverityWarning: 2, lang.SeverityError: 1}, "1 error, 2 warnings"},
	}

	for _, tt := range tests {
		if got := tt.count.String(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}

func TestWriteDiagnostics(t *testing.T) {
	diags := &lang.Diagnostics{}

	diags.Report(lang.Diagnostic{
		Severity:    lang.SeverityError,
		Category:    lang.ResolutionError,
		Pos:         token.Position{File: "a.chtl", Line: 2, Column: 5},
		Err:         lang.ErrUnresolvedSymbol.With(slog.String("name", "Crad")),
		Suggestions: []string{"Card"},
	})
	diags.Report(lang.Diagnostic{
		Severity: lang.SeverityWarning,
		Category: lang.ValidationWarning,
		Pos:      token.Position{File: "a.chtl", Line: 3, Column: 1},
	})

	var buf bytes.Buffer

	count := writeDiagnostics(&buf, diags)

	want := "a.chtl:2:5: error: unresolved symbol name=Crad [ResolutionError]\n" +
		"    did you mean Card?\n" +
		"a.chtl:3:1: warning: ValidationWarning [ValidationWarning]\n"

	if got := buf.String(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	if count[lang.SeverityError] != 1 || count[lang.SeverityWarning] != 1 {
		t.Errorf("expected one error and one warning, got %v", count)
	}

	buf.Reset()

	if n := len(writeDiagnostics(&buf, nil)); n != 0 || buf.Len() != 0 {
		t.Errorf("expected nothing for nil diagnostics, got %q", buf.String())
	}
}
