package repl

import (
	"slices"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/chtl/lang"
	"github.com/ardnew/chtl/lang/token"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{"help", "list", "edit", "css", "js", "reset", "clear", "quit"}

// typeTags are the definition and origin type tags, mapped to the symbol
// kinds a name following the tag may refer to.
var typeTags = map[string][]lang.SymbolKind{
	"@Style": {
		lang.SymbolTemplateStyle, lang.SymbolCustomStyle, lang.SymbolOriginStyle,
	},
	"@Element": {
		lang.SymbolTemplateElement, lang.SymbolCustomElement,
	},
	"@Var": {
		lang.SymbolTemplateVar, lang.SymbolCustomVar,
	},
	"@Html":       {lang.SymbolOriginHtml},
	"@JavaScript": {lang.SymbolOriginJavaScript},
	"@Config":     {lang.SymbolConfiguration},
}

// syntaxWords returns the sorted reserved words, bracketed markers, and type
// tags of the language.
var syntaxWords = sync.OnceValue(func() []string {
	words := []string{"at"}

	for k := range token.Keywords {
		words = append(words, k)
	}

	for k := range token.Markers {
		words = append(words, "["+k+"]")
	}

	for k := range typeTags {
		words = append(words, k)
	}

	sort.Strings(words)

	return words
})

// isWordBoundary reports whether r delimits words for completion. Brackets,
// '@', '.', and '-' are word characters so that markers, type tags,
// qualified names, and hyphenated element names complete as one word.
func isWordBoundary(r rune) bool {
	switch r {
	case ' ', '\t',
		'{', '}', '(', ')',
		';', ':', ',', '=':
		return true
	}

	return false
}

// wordBounds returns the word at cursor within input and its byte offsets.
// The word is empty when the cursor sits on a boundary.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(cursor, len(input))

	for start = cursor; start > 0; {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	for end = cursor; end < len(input); {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// previousWord returns the whitespace-separated word immediately before
// wordStart, or "" when another delimiter intervenes. For "div { @Element Ca"
// with the word "Ca", the previous word is "@Element".
func previousWord(input string, wordStart int) string {
	prefix := input[:wordStart]
	trimmed := strings.TrimRight(prefix, " \t")

	if trimmed == prefix && wordStart > 0 {
		// The word is attached to a non-space delimiter.
		return ""
	}

	word, _, _ := wordBounds(trimmed, len(trimmed))

	return word
}

// symbolCandidates returns the names registered in symbols of the kinds a
// name following tag may refer to, or nil when tag is not a type tag.
func symbolCandidates(symbols *lang.SymbolMap, tag string) []string {
	kinds, ok := typeTags[tag]
	if !ok || symbols == nil {
		return nil
	}

	return symbols.Names(kinds...)
}

// candidatesAt returns the completion candidates for the word starting at
// wordStart. After a type tag these are the names of matching symbols; inside
// a variable group call they are the variables of the group; otherwise they
// are the language syntax words.
func candidatesAt(
	symbols *lang.SymbolMap,
	input string,
	cursor, wordStart int,
) (candidates []string, contextual bool) {
	if call := detectFunctionCall(input, cursor); call.inCall {
		if vars := groupVariables(symbols, call.name); vars != nil {
			return vars, true
		}
	}

	if names := symbolCandidates(symbols, previousWord(input, wordStart)); names != nil {
		return names, true
	}

	return syntaxWords(), false
}

// computeMatches calculates the fuzzy matches for the word at the cursor,
// best first, along with the candidate list and the word boundaries. An
// empty word only lists candidates when they are contextual (after a type
// tag or inside a variable group call).
func (m model) computeMatches() (
	matches fuzzy.Matches,
	candidates []string,
	wordStart, wordEnd int,
) {
	input := m.input.Value()
	cursor := m.input.Position()

	word, wordStart, wordEnd := wordBounds(input, cursor)

	contextual := false
	if m.mode == modeCtrl {
		candidates = ctrlCommands
	} else {
		candidates, contextual = candidatesAt(m.session.Symbols(), input, cursor, wordStart)
	}

	if len(candidates) == 0 {
		return nil, nil, wordStart, wordEnd
	}

	if word == "" {
		if !contextual {
			return nil, nil, wordStart, wordEnd
		}

		matches = make(fuzzy.Matches, len(candidates))
		for i, c := range candidates {
			matches[i] = fuzzy.Match{Str: c, Index: i}
		}

		return matches, candidates, wordStart, wordEnd
	}

	return fuzzy.Find(word, candidates), candidates, wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within width. The selected candidate is highlighted while tab-cycling.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	ellipsis := hintStyle.Render("...")
	reserve := lipgloss.Width(sep) + lipgloss.Width(ellipsis)

	var (
		b    strings.Builder
		used int
	)

	for i, match := range matches {
		rendered := renderCandidate(match, tabActive && i == suggIdx)
		w := lipgloss.Width(rendered)

		if i > 0 {
			w += lipgloss.Width(sep)

			last := i == len(matches)-1
			if used+w > width || (!last && used+w+reserve > width) {
				b.WriteString(sep)
				b.WriteString(ellipsis)

				break
			}

			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += w
	}

	return b.String()
}

// renderCandidate renders one candidate with its matched runes highlighted.
func renderCandidate(match fuzzy.Match, selected bool) string {
	base, highlight := suggestionStyle, matchStyle
	if selected {
		base, highlight = selectedStyle, selectedMatchStyle
	}

	var b strings.Builder

	for i, r := range match.Str {
		if slices.Contains(match.MatchedIndexes, i) {
			b.WriteString(highlight.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}

	return b.String()
}
