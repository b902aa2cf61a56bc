package profile

import (
	"slices"
	"testing"
)

func TestProfiler_Enabled(t *testing.T) {
	tests := []struct {
		name string
		p    Profiler
		want bool
	}{
		{"empty", Profiler{}, false},
		{"unknown", Profiler{Mode: "gpu"}, false},
		{"cpu", Profiler{Mode: "cpu"}, slices.Contains(Modes(), "cpu")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Enabled(); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestProfiler_StartDisabled(t *testing.T) {
	s := Profiler{Mode: "gpu", Path: t.TempDir()}.Start()

	if _, ok := s.(ignore); !ok {
		t.Errorf("expected no-op stopper, got %T", s)
	}

	s.Stop()
}

func TestModes_Sorted(t *testing.T) {
	if m := Modes(); !slices.IsSorted(m) {
		t.Errorf("expected sorted modes, got %v", m)
	}
}
