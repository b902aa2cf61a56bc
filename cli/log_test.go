package cli

import (
	"os"
	"testing"

	"github.com/ardnew/chtl/log"
)

func TestLogConfig_Scan(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want logConfig
	}{
		{
			name: "assigned",
			args: []string{"--log-level=debug", "--log-format=json", "compile"},
			want: logConfig{Level: "debug", Format: "json", Pretty: true},
		},
		{
			name: "separate values",
			args: []string{"check", "--log-level", "warn", "--log-time-layout", "kitchen"},
			want: logConfig{Level: "warn", TimeLayout: "kitchen", Pretty: true},
		},
		{
			name: "booleans",
			args: []string{"--no-log-pretty", "--log-caller"},
			want: logConfig{Caller: true},
		},
		{
			name: "assigned booleans",
			args: []string{"--log-pretty=false", "--no-log-caller=false"},
			want: logConfig{Caller: true},
		},
		{
			name: "invalid boolean ignored",
			args: []string{"--log-caller=maybe"},
			want: logConfig{Pretty: true},
		},
		{
			name: "value flag before another flag",
			args: []string{"--log-level", "--log-caller"},
			want: logConfig{Caller: true, Pretty: true},
		},
		{
			name: "stops at terminator",
			args: []string{"--", "--log-level=error"},
			want: logConfig{Pretty: true},
		},
		{
			name: "unrelated flags",
			args: []string{"--logx", "-p", "--module-path", "lib"},
			want: logConfig{Pretty: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer log.Config(log.WithDefaults(os.Stderr))

			got := logConfig{Pretty: true}
			got.scan(tt.args)

			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestLogConfig_ScanConfiguresLogger(t *testing.T) {
	defer log.Config(log.WithDefaults(os.Stderr))

	var f logConfig
	f.scan([]string{"--log-level=error", "--log-format", "json"})

	l := log.Default()

	if l.Level() != log.LevelError {
		t.Errorf("expected level %v, got %v", log.LevelError, l.Level())
	}

	if l.Format() != log.FormatJSON {
		t.Errorf("expected format %v, got %v", log.FormatJSON, l.Format())
	}
}

func TestLogConfig_Vars(t *testing.T) {
	vars := (&logConfig{}).vars()

	if got, want := vars["logLevelEnum"], "trace,debug,info,warn,error"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	if got, want := vars["logFormatEnum"], "json,text"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
