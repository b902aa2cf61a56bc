package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/chtl/lang"
	"github.com/ardnew/chtl/log"
)

// editMsg is sent when the edited transcript replayed without errors.
type editMsg struct {
	session *lang.Session
	result  *lang.Result
	source  string
}

// editCancelledMsg is sent when the user cleared the editor content.
type editCancelledMsg struct{}

// editDeclinedMsg is sent when the user declined to re-edit after an error.
type editDeclinedMsg struct{}

// editErrorMsg is sent when the edit process fails for any other reason.
type editErrorMsg struct{ err error }

const (
	evalPrompt = "➜ "
	ctrlPrompt = " :"
)

func helpMessage() string {
	return `
: Commands (press Esc to toggle mode):

  help     Print this cruft
  list     List declared templates, customs, origins, and configurations
  edit     Edit the session transcript in external $EDITOR
  css      Print the global stylesheet of the last input
  js       Print the global script of the last input
  reset    Forget every declaration and start a new session
  clear    Clear screen
  quit     Exit REPL

Usage:
  Type CHTL to compile it; declarations persist across inputs
  Completions appear automatically as you type
  Names declared by earlier inputs complete after @Style, @Element, and @Var
  Press Tab / Shift-Tab to cycle through candidates
  Press Space to accept the current candidate
  Press Esc to toggle between eval and command modes
  Use Up/Down arrows for history navigation (mode switches automatically)
  Use Shift+Up/Shift+Down for history navigation within current mode only
  Use Alt+Up/Alt+Down to switch to command mode and navigate command history
    (restores original mode when reaching end of history)
  Press Ctrl+C on empty line or Ctrl+D to exit
`
}

// inputMode represents the current input mode.
type inputMode int

const (
	modeEval inputMode = iota
	modeCtrl
)

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warningStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	matchStyle      = lipgloss.NewStyle().
			Foreground(lipgloss.Color("4")).
			Bold(true)
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
	selectedMatchStyle = selectedStyle.Bold(true)
)

// formatCommand formats the echo line of an evaluated input.
func formatCommand(input string) string {
	return promptStyle.Render(evalPrompt) + inputStyle.Render(input)
}

// formatCtrlCommand formats the echo line of a control command.
func formatCtrlCommand(input string) string {
	return ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input)
}

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc          func() context.Context
	input            textinput.Model
	session          *lang.Session
	opts             []lang.Option
	transcript       []string     // inputs accepted without errors
	last             *lang.Result // result of the most recent input
	logger           log.Logger
	history          *History
	historyIdx       int
	matches          fuzzy.Matches // current fuzzy match results
	candidates       []string      // backing candidate list
	wordStart        int           // byte offset of current word start
	wordEnd          int           // byte offset of current word end
	suggIdx          int           // selected candidate index
	tabActive        bool          // whether user is tab-cycling
	preTabText       string        // input text before tab-cycling began
	preTabCursor     int           // cursor position before tab-cycling began
	altNavActive     bool          // whether user is in Alt+Up/Down navigation
	altNavOrigMode   inputMode     // original mode before Alt navigation
	altNavOrigText   string        // original text before Alt navigation
	altNavOrigCursor int           // original cursor position before Alt navigation
	width            int           // terminal width for ellipsization
	quitting         bool
	mode             inputMode
	evalText         string
	evalCursor       int
	ctrlText         string
	ctrlCursor       int
}

// Run starts the REPL. Every input is compiled by one [lang.Session]
// configured by opts, so declarations carry over to later inputs. When
// preload is not nil its content is compiled first and must be free of
// errors.
func Run(
	ctx context.Context,
	cacheDir string,
	logger log.Logger,
	preload io.Reader,
	opts ...lang.Option,
) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	logger.TraceContext(ctx, "repl start",
		slog.String("cache_dir", cacheDir),
		slog.Bool("has_preload", preload != nil))

	m := newModel(ctx, newHistory(cacheDir), logger, opts)

	if preload != nil {
		if m, err = m.preload(preload); err != nil {
			return err
		}
	}

	p := tea.NewProgram(m, tea.WithContext(ctx))
	_, err = p.Run()

	return err
}

// newHistory returns the history persisted in cacheDir, or an in-memory
// history when cacheDir is empty.
func newHistory(cacheDir string) *History {
	if cacheDir == "" {
		return NewHistory("")
	}

	return NewHistory(filepath.Join(cacheDir, baseHistory))
}

const defaultWidth = 80

func newModel(
	ctx context.Context,
	history *History,
	logger log.Logger,
	opts []lang.Option,
) model {
	if err := history.Load(); err != nil {
		logger.WarnContext(ctx, "could not load history", log.Err(err))
	}

	logger.TraceContext(ctx, "repl history loaded",
		slog.Int("entry_count", history.Len()))

	ti := textinput.New()
	ti.Prompt = promptStyle.Render(evalPrompt)
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = defaultWidth

	return model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		session:    lang.NewSession(opts...),
		opts:       opts,
		logger:     logger,
		history:    history,
		historyIdx: history.Len(),
		width:      defaultWidth,
		mode:       modeEval,
	}
}

// preload compiles the content of r into the session.
func (m model) preload(r io.Reader) (model, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return m, fmt.Errorf("%w: %w", ErrPreload, err)
	}

	res := m.session.Eval(m.ctxFunc(), string(data))
	if err := res.Err(); err != nil {
		return m, fmt.Errorf("%w: %w", ErrPreload, err)
	}

	m.last = res
	m.transcript = append(m.transcript, string(data))

	m.logger.TraceContext(m.ctxFunc(), "repl preloaded",
		slog.Int("symbol_count", m.session.Symbols().Len()))

	return m, nil
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - lipgloss.Width(evalPrompt) - 2

		return m, nil

	case editMsg:
		m.session, m.last = msg.session, msg.result
		m.transcript = []string{msg.source}
		m.logger.TraceContext(m.ctxFunc(), "repl edit complete",
			slog.Int("symbol_count", m.session.Symbols().Len()))

		return m, tea.Println(resultStyle.Render("✔ session replayed"))

	case editCancelledMsg:
		return m, tea.Println(hintStyle.Render("edit cancelled"))

	case editDeclinedMsg:
		m.quitting = true

		return m, tea.Quit

	case editErrorMsg:
		return m, tea.Println(errorStyle.Render("error: " + msg.err.Error()))
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.hintLine())
	b.WriteString("\n")

	return b.String()
}

// hintLine returns the line shown below the input: the history position,
// a usage hint, the signature of the enclosing group call, or the
// completion candidates.
func (m model) hintLine() string {
	input := m.input.Value()

	if m.historyIdx < m.history.Len() {
		pos := lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx + 1))

		return hintStyle.Render(fmt.Sprintf("%s/%d", pos, m.history.Len()))
	}

	if strings.TrimSpace(input) == "" {
		if m.mode == modeEval {
			return hintStyle.Render("Type CHTL or press Esc for commands")
		}

		return hintStyle.Render("Type: " + strings.Join(ctrlCommands, ", ") + " (press Esc to return)")
	}

	if m.mode == modeEval && !m.tabActive {
		if call := detectFunctionCall(input, m.input.Position()); call.inCall {
			if params := groupVariables(m.session.Symbols(), call.name); params != nil {
				return renderSignatureHint(call.name, params, call.arg)
			}
		}
	}

	return renderCandidateBar(m.matches, m.suggIdx, m.tabActive, m.width)
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(m.ctxFunc(), "repl keypress",
		slog.String("key", msg.String()),
		slog.Int("type", int(msg.Type)))

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
		m.altNavActive = false
		m.historyIdx = m.history.Len()
		refreshMatches(&m, false)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		m.altNavActive = false

		if !m.tabActive || len(m.matches) == 0 {
			return m.executeInput()
		}

		// Lock in the current tab candidate without executing.
		m.tabActive = false
		refreshMatches(&m, true)

		return m, nil

	case tea.KeyTab:
		return m.cycleCandidate(1), nil

	case tea.KeyShiftTab:
		return m.cycleCandidate(-1), nil

	case tea.KeyUp:
		if msg.Alt {
			return m.historyCtrl(-1), nil
		}

		return m.historyStep(-1), nil

	case tea.KeyDown:
		if msg.Alt {
			return m.historyCtrl(1), nil
		}

		return m.historyStep(1), nil

	case tea.KeyShiftUp:
		return m.historyInMode(-1), nil

	case tea.KeyShiftDown:
		return m.historyInMode(1), nil

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			refreshMatches(&m, false)

			return m, nil
		}

		m.altNavActive = false

		return m.toggleMode(), nil

	case tea.KeyRunes, tea.KeySpace:
		// Space accepts the current candidate while tab-cycling.
		if m.tabActive && msg.String() == " " {
			m.tabActive = false
		}

		var cmd tea.Cmd

		m.historyIdx = m.history.Len()
		m.input, cmd = m.input.Update(msg)
		refreshMatches(&m, true)

		return m, cmd
	}

	// Any other key edits or moves without auto-confirming a completion.
	var cmd tea.Cmd

	m.tabActive = false
	m.altNavActive = false
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	refreshMatches(&m, false)

	return m, cmd
}

// cycleCandidate completes the current word with the next (dir > 0) or
// previous candidate. A sole candidate is completed and confirmed at once.
func (m model) cycleCandidate(dir int) model {
	n := len(m.matches)
	if n == 0 {
		return m
	}

	if n == 1 {
		replaceCurrentWord(&m, m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil

		return m
	}

	switch {
	case m.tabActive:
		m.suggIdx = (m.suggIdx + dir + n) % n
	default:
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()

		m.suggIdx = 0
		if dir < 0 {
			m.suggIdx = n - 1
		}
	}

	replaceCurrentWord(&m, m.matches[m.suggIdx].Str)

	return m
}

// replaceCurrentWord replaces the current word in the input with
// replacement and moves the cursor after it.
func replaceCurrentWord(m *model, replacement string) {
	input := m.input.Value()
	cursor := m.wordStart + len(replacement)

	m.input.SetValue(input[:m.wordStart] + replacement + input[m.wordEnd:])
	m.input.SetCursor(cursor)

	m.wordEnd = cursor
}

// refreshMatches recomputes the fuzzy matches for the current input. With
// autoConfirm set, a sole candidate equal to the typed word is confirmed.
// Deletions and cursor movement pass false so that editing never completes
// unexpectedly.
func refreshMatches(m *model, autoConfirm bool) {
	m.matches, m.candidates, m.wordStart, m.wordEnd = m.computeMatches()

	if !m.tabActive {
		m.suggIdx = -1
	}

	if !autoConfirm || len(m.matches) != 1 {
		return
	}

	if m.input.Value()[m.wordStart:m.wordEnd] == m.matches[0].Str {
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil
	}
}

func (m model) executeInput() (model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return m, nil
	}

	m.evalText, m.evalCursor = "", 0
	m.ctrlText, m.ctrlCursor = "", 0
	m.input.SetValue("")
	m.matches = nil

	if err := m.history.Add(input, m.mode); err != nil {
		m.logger.WarnContext(m.ctxFunc(), "could not save history", log.Err(err))
	}

	m.historyIdx = m.history.Len()

	if m.mode == modeCtrl {
		m.logger.TraceContext(m.ctxFunc(), "repl command", slog.String("input", input))

		return m.executeCommand(input)
	}

	m.logger.TraceContext(m.ctxFunc(), "repl eval", slog.String("input", input))

	var out []tea.Cmd

	m, out = m.eval(input)

	return m, tea.Sequence(append([]tea.Cmd{tea.Println(formatCommand(input))}, out...)...)
}

// eval compiles input in the session and returns the commands printing its
// markup and diagnostics.
func (m model) eval(input string) (model, []tea.Cmd) {
	before := m.session.Symbols().Len()
	res := m.session.Eval(m.ctxFunc(), input)
	m.last = res

	if !res.Diagnostics.HasErrors() {
		m.transcript = append(m.transcript, input)
	}

	m.logger.TraceContext(m.ctxFunc(), "repl eval result",
		slog.Int("diagnostics", res.Diagnostics.Len()),
		slog.Int("symbols", res.Symbols.Len()))

	var out []tea.Cmd

	if body := renderBody(res); body != "" {
		out = append(out, tea.Println(resultStyle.Render(body)))
	} else if n := m.session.Symbols().Len() - before; n > 0 {
		out = append(out, tea.Println(hintStyle.Render(plural(n, "declaration"))))
	}

	for d := range res.Diagnostics.All() {
		out = append(out, tea.Println(renderDiagnostic(d)))
	}

	return m, out
}

// renderBody returns the body markup of res, pretty-printed when its
// options ask for it.
func renderBody(res *lang.Result) string {
	body := res.Document.Body()
	if body == "" {
		return ""
	}

	if o := res.Context.Options; o.PrettyPrint && !o.Minify {
		body = strings.TrimRight(lang.Pretty(body, o.Indent()), "\n")
	}

	return body
}

func renderDiagnostic(d lang.Diagnostic) string {
	switch d.Severity {
	case lang.SeverityError:
		return errorStyle.Render(d.String())
	case lang.SeverityWarning:
		return warningStyle.Render(d.String())
	default:
		return hintStyle.Render(d.String())
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}

	return strconv.Itoa(n) + " " + word + "s"
}

func (m model) executeCommand(input string) (model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}

	echo := tea.Println(formatCtrlCommand(input))
	cmd := parts[0]

	m.logger.TraceContext(m.ctxFunc(), "repl exec command",
		slog.String("command", cmd),
		slog.Any("args", parts[1:]))

	switch cmd {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Sequence(echo, tea.Quit)

	case "h", "help":
		return m, tea.Sequence(echo, tea.Println(helpMessage()))

	case "l", "list":
		return m, tea.Sequence(echo, tea.Println(m.listSymbols()))

	case "css", "js":
		return m, tea.Sequence(echo, tea.Println(m.lastAsset(cmd)))

	case "r", "reset":
		m.session = lang.NewSession(m.opts...)
		m.transcript = nil
		m.last = nil

		return m, tea.Sequence(echo, tea.Println(hintStyle.Render("session reset")))

	case "c", "clear":
		return m, tea.ClearScreen

	case "e", "edit":
		return m, tea.Sequence(echo, m.handleEdit())

	default:
		return m, tea.Println(
			errorStyle.Render("Unknown command: " + cmd + " (try 'help')"),
		)
	}
}

// lastAsset returns the global stylesheet ("css") or script ("js")
// collected from the most recent input.
func (m model) lastAsset(kind string) string {
	if m.last == nil {
		return hintStyle.Render("nothing compiled yet")
	}

	text := m.last.Document.CSS()
	if kind == "js" {
		text = m.last.Document.JS()
	}

	if text == "" {
		return hintStyle.Render("no global " + kind)
	}

	return resultStyle.Render(text)
}

func (m model) handleEdit() tea.Cmd {
	cmd := &editCommand{
		source:  strings.Join(m.transcript, "\n") + "\n",
		opts:    m.opts,
		ctxFunc: m.ctxFunc,
		logger:  m.logger,
	}

	return tea.Exec(cmd, func(err error) tea.Msg {
		if errors.Is(err, ErrEditDeclined) {
			return editDeclinedMsg{}
		}

		if err != nil {
			return editErrorMsg{err: err}
		}

		if cmd.session == nil {
			return editCancelledMsg{}
		}

		return editMsg{session: cmd.session, result: cmd.result, source: cmd.edited}
	})
}

// showEntry places history entry i in the input, switching to its mode.
func (m model) showEntry(i int, e HistoryEntry) model {
	if m.mode != e.Mode {
		m = m.switchToMode(e.Mode)
	}

	m.historyIdx = i
	m.input.SetValue(e.Line)
	m.input.SetCursor(len(e.Line))
	refreshMatches(&m, false)

	return m
}

// leaveHistory moves past the newest entry and clears the input.
func (m model) leaveHistory() model {
	m.historyIdx = m.history.Len()
	m.input.SetValue("")
	refreshMatches(&m, false)

	return m
}

// historyStep moves one entry back (dir < 0) or forward in the history,
// switching modes as needed.
func (m model) historyStep(dir int) model {
	i := m.historyIdx + dir

	if e, err := m.history.Entry(i); err == nil {
		return m.showEntry(i, e)
	}

	if dir > 0 {
		return m.leaveHistory()
	}

	return m
}

// historyFind returns the index and entry of the nearest entry in mode
// before (dir < 0) or after the current index.
func (m model) historyFind(dir int, mode inputMode) (int, HistoryEntry, bool) {
	for i := m.historyIdx + dir; i >= 0 && i < m.history.Len(); i += dir {
		if e, err := m.history.Entry(i); err == nil && e.Mode == mode {
			return i, e, true
		}
	}

	return 0, HistoryEntry{}, false
}

// historyInMode moves to the nearest entry of the current mode.
func (m model) historyInMode(dir int) model {
	if i, e, ok := m.historyFind(dir, m.mode); ok {
		return m.showEntry(i, e)
	}

	if dir > 0 && m.historyIdx < m.history.Len() {
		return m.leaveHistory()
	}

	return m
}

// historyCtrl switches to command mode and moves to the nearest command
// entry. Running off either end restores the mode and input in place before
// the navigation started.
func (m model) historyCtrl(dir int) model {
	if !m.altNavActive {
		m.altNavActive = true
		m.altNavOrigMode = m.mode
		m.altNavOrigText = m.input.Value()
		m.altNavOrigCursor = m.input.Position()

		if m.mode != modeCtrl {
			m = m.switchToMode(modeCtrl)
		}
	}

	if i, e, ok := m.historyFind(dir, modeCtrl); ok {
		return m.showEntry(i, e)
	}

	m.altNavActive = false
	if m.altNavOrigMode != m.mode {
		m = m.switchToMode(m.altNavOrigMode)
	}

	m.input.SetValue(m.altNavOrigText)
	m.input.SetCursor(m.altNavOrigCursor)
	m.historyIdx = m.history.Len()
	refreshMatches(&m, false)

	return m
}

// listSymbols returns one line per declaration of the session.
func (m model) listSymbols() string {
	var b strings.Builder

	for s := range m.session.Symbols().All() {
		fmt.Fprintf(&b, "  %s %s %s\n",
			hintStyle.Render(s.Kind.String()),
			s.QualifiedName(),
			hintStyle.Render(symbolPreview(m.session.Symbols(), s)))
	}

	if b.Len() == 0 {
		return hintStyle.Render("  no declarations")
	}

	return strings.TrimRight(b.String(), "\n")
}

// symbolPreview returns a short summary of the content of s.
func symbolPreview(symbols *lang.SymbolMap, s *lang.SymbolInfo) string {
	const limit = 40

	var text string

	switch {
	case s.Kind.Def() == lang.DefVar:
		text, _ = getSignature(symbols, s.QualifiedName())
	case s.Kind.Def() == lang.DefStyle && s.Properties != nil:
		text = "{ " + s.Properties.CSS() + " }"
	case s.Node != nil:
		text = plural(len(s.Node.Children), "node")
	}

	if len(text) > limit {
		text = text[:limit-3] + "..."
	}

	return text
}

// toggleMode switches between eval and control modes.
func (m model) toggleMode() model {
	if m.mode == modeEval {
		return m.switchToMode(modeCtrl)
	}

	return m.switchToMode(modeEval)
}

// switchToMode switches to mode, keeping the pending input of each mode.
func (m model) switchToMode(mode inputMode) model {
	if m.mode == modeEval {
		m.evalText, m.evalCursor = m.input.Value(), m.input.Position()
	} else {
		m.ctrlText, m.ctrlCursor = m.input.Value(), m.input.Position()
	}

	m.mode = mode

	if mode == modeEval {
		m.input.Prompt = promptStyle.Render(evalPrompt)
		m.input.SetValue(m.evalText)
		m.input.SetCursor(m.evalCursor)
	} else {
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
		m.input.SetValue(m.ctrlText)
		m.input.SetCursor(m.ctrlCursor)
	}

	refreshMatches(&m, false)

	return m
}
