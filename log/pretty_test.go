package log

import (
	"bytes"
	"log/slog"
	"testing"
)

func TestPrettyHandlers(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		log    func(Logger)
		want   string
	}{
		{
			name:   "text",
			format: FormatText,
			log: func(l Logger) {
				l.Info("compiled", slog.String("file", "index.chtl"), slog.Int("count", 3))
			},
			want: "level=INFO msg=compiled file=index.chtl count=3\n",
		},
		{
			name:   "text group",
			format: FormatText,
			log: func(l Logger) {
				l.With(slog.String("a", "1")).WithGroup("g").
					Warn("m", slog.Bool("ok", false), slog.Group("sub", slog.Int("n", 2)))
			},
			want: "level=WARN msg=m a=1 g.ok=false g.sub.n=2\n",
		},
		{
			name:   "json",
			format: FormatJSON,
			log: func(l Logger) {
				l.Debug("compiled", slog.String("file", "index.chtl"))
			},
			want: "{\n  level: DEBUG,\n  msg: compiled,\n  file: index.chtl\n}\n",
		},
		{
			name:   "json group",
			format: FormatJSON,
			log: func(l Logger) {
				l.With(slog.String("a", "1")).WithGroup("g").Info("m", slog.Int("n", 2))
			},
			want: "{\n  level: INFO,\n  msg: m,\n  a: 1,\n  g: {\n    n: 2\n  }\n}\n",
		},
		{
			name:   "trace name",
			format: FormatText,
			log:    func(l Logger) { l.Trace("t") },
			want:   "level=TRACE msg=t\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			tt.log(Make(&buf,
				WithFormat(tt.format),
				WithPretty(true),
				WithTimeLayout("none"),
				WithLevel(LevelTrace),
			))

			if got := buf.String(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelTrace, "trace"},
		{LevelTrace + 1, "trace+1"},
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn + 1, "warn+1"},
		{LevelError, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.level.String(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"trace", LevelTrace},
		{"TRACE", LevelTrace},
		{"debug", LevelDebug},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"info+2", LevelInfo + 2},
		{"loud", DefaultLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"json", FormatJSON},
		{" Text ", FormatText},
		{"yaml", DefaultFormat},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseFormat(tt.in); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}

	var names []string
	for f := range Formats() {
		names = append(names, f)
	}

	if len(names) != 2 || names[0] != "json" || names[1] != "text" {
		t.Errorf("expected [json text], got %v", names)
	}
}
