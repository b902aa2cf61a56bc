package repl

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestHistory_Persist(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)
	h := NewHistory(path)

	for _, e := range []HistoryEntry{
		{"div { }", modeEval},
		{"list", modeCtrl},
		{"  p { }  ", modeEval},
		{"p { }", modeEval}, // repeat of the last entry
		{"", modeEval},
	} {
		if err := h.Add(e.Line, e.Mode); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected history file, got %v", err)
	}

	if got, want := string(data), "E:div { }\nC:list\nE:p { }\n"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	loaded := NewHistory(path)
	if err := loaded.Load(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if got := loaded.Entries(); len(got) != 3 || got[1] != (HistoryEntry{"list", modeCtrl}) {
		t.Errorf("expected 3 entries with command second, got %v", got)
	}
}

func TestHistory_MoveDuplicate(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)
	h := NewHistory(path)

	for _, line := range []string{"a { }", "b { }", "a { }"} {
		if err := h.Add(line, modeEval); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}

	// Same line in another mode is a distinct entry.
	if err := h.Add("b { }", modeCtrl); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected history file, got %v", err)
	}

	if got, want := string(data), "E:b { }\nE:a { }\nC:b { }\n"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestHistory_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)

	if err := os.WriteFile(path, []byte("E:x\n\nlegacy\nC:quit\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	h := NewHistory(path)
	if err := h.Load(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := []HistoryEntry{{"x", modeEval}, {"legacy", modeEval}, {"quit", modeCtrl}}

	if h.Len() != len(want) {
		t.Fatalf("expected %d entries, got %v", len(want), h.Entries())
	}

	for i, w := range want {
		if got, err := h.Entry(i); err != nil || got != w {
			t.Errorf("entry %d: expected %v, got %v (%v)", i, w, got, err)
		}
	}

	if _, err := h.Entry(len(want)); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("expected %v, got %v", ErrOutOfBounds, err)
	}

	missing := NewHistory(filepath.Join(t.TempDir(), "none"))
	if err := missing.Load(); err != nil || missing.Len() != 0 {
		t.Errorf("expected empty history, got %d entries (%v)", missing.Len(), err)
	}
}

func TestHistory_InMemory(t *testing.T) {
	h := NewHistory("")

	if err := h.Add("div { }", modeEval); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := h.Load(); err != nil || h.Len() != 0 {
		t.Errorf("expected load to reset in-memory history, got %d (%v)", h.Len(), err)
	}
}
