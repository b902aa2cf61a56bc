package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func withDefault(t *testing.T, opts ...Option) *bytes.Buffer {
	t.Helper()

	original := Default()
	t.Cleanup(func() {
		defaultMu.Lock()
		defaultLog = original
		defaultMu.Unlock()
	})

	var buf bytes.Buffer

	Config(append([]Option{WithOutput(&buf), WithPretty(false)}, opts...)...)

	return &buf
}

func TestPackage_Functions(t *testing.T) {
	buf := withDefault(t, WithLevel(LevelTrace))

	tests := []struct {
		name  string
		fn    func(string, ...slog.Attr)
		level string
	}{
		{"Debug", Debug, "DEBUG"},
		{"Info", Info, "INFO"},
		{"Warn", Warn, "WARN"},
		{"Error", Error, "ERROR"},
		{"TraceContext", func(msg string, attrs ...slog.Attr) {
			TraceContext(context.Background(), msg, attrs...)
		}, "TRACE"},
		{"InfoContext", func(msg string, attrs ...slog.Attr) {
			InfoContext(context.Background(), msg, attrs...)
		}, "INFO"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.fn("package message", slog.String("key", "value"))

			out := buf.String()
			for _, want := range []string{"package message", `"level":"` + tt.level + `"`, `"key":"value"`} {
				if !strings.Contains(out, want) {
					t.Errorf("expected %q in %q", want, out)
				}
			}
		})
	}
}

func TestPackage_With(t *testing.T) {
	buf := withDefault(t)

	With(slog.String("cmd", "compile")).Info("start")

	if !strings.Contains(buf.String(), `"cmd":"compile"`) {
		t.Errorf("expected attribute, got %q", buf.String())
	}

	buf.Reset()
	Debug("below default level")

	if buf.Len() != 0 {
		t.Errorf("expected nothing written, got %q", buf.String())
	}
}
