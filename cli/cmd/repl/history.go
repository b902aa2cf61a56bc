package repl

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"slices"
	"strings"
	"sync"
)

const baseHistory = "history.utf8"

// HistoryEntry is one submitted line and the mode it was submitted in.
type HistoryEntry struct {
	Line string
	Mode inputMode
}

// encode returns the persisted form of e: a mode prefix followed by the line.
func (e HistoryEntry) encode() string {
	if e.Mode == modeCtrl {
		return "C:" + e.Line
	}

	return "E:" + e.Line
}

// decodeEntry parses one persisted history line. Lines without a mode
// prefix are eval entries.
func decodeEntry(s string) HistoryEntry {
	if line, ok := strings.CutPrefix(s, "C:"); ok {
		return HistoryEntry{Line: line, Mode: modeCtrl}
	}

	line, _ := strings.CutPrefix(s, "E:")

	return HistoryEntry{Line: line, Mode: modeEval}
}

// History is the line history of the REPL, persisted to a file in the cache
// directory. An empty path keeps the history in memory only.
type History struct {
	path    string
	entries []HistoryEntry
	mu      sync.RWMutex
}

// NewHistory returns an empty history persisted at path.
func NewHistory(path string) *History {
	return &History{path: path}
}

// Load replaces the entries of h with the content of its file. A missing
// file is an empty history.
func (h *History) Load() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = nil

	if h.path == "" {
		return nil
	}

	f, err := os.Open(h.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if s := strings.TrimSpace(sc.Text()); s != "" {
			h.entries = append(h.entries, decodeEntry(s))
		}
	}

	return sc.Err()
}

// Add appends line in mode to the history. An earlier identical entry is
// moved to the end instead of being repeated.
func (h *History) Add(line string, mode inputMode) error {
	e := HistoryEntry{Line: strings.TrimSpace(line), Mode: mode}
	if e.Line == "" {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if n := len(h.entries); n > 0 && h.entries[n-1] == e {
		return nil
	}

	if i := slices.Index(h.entries, e); i >= 0 {
		h.entries = slices.Delete(h.entries, i, i+1)
		h.entries = append(h.entries, e)

		return h.rewrite()
	}

	h.entries = append(h.entries, e)

	return h.append(e)
}

// Entry returns the entry at index i, where 0 is the oldest.
func (h *History) Entry(i int) (HistoryEntry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if i < 0 || i >= len(h.entries) {
		return HistoryEntry{}, ErrOutOfBounds
	}

	return h.entries[i], nil
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.entries)
}

// Entries returns a copy of every entry, oldest first.
func (h *History) Entries() []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return slices.Clone(h.entries)
}

// Must be called with h.mu held.
func (h *History) append(e HistoryEntry) error {
	if h.path == "" {
		return nil
	}

	f, err := os.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteString(e.encode() + "\n")

	return err
}

// Must be called with h.mu held.
func (h *History) rewrite() error {
	if h.path == "" {
		return nil
	}

	var sb strings.Builder

	for _, e := range h.entries {
		sb.WriteString(e.encode())
		sb.WriteByte('\n')
	}

	return os.WriteFile(h.path, []byte(sb.String()), 0o600)
}
