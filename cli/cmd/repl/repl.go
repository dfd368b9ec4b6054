package repl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/formula/lang"
	"github.com/ardnew/formula/log"
)

const (
	evalPrompt = "➜ "
	ctrlPrompt = " :"

	// lastResult names the constant holding the previous result.
	lastResult = "_"
)

func helpMessage() string {
	return `
: Commands (press Esc to toggle mode):

  help     Print this help
  list     List functions and constants
  tree     Print the syntax tree of the last expression
  edit     Edit the last expression in $EDITOR
  clear    Clear screen
  quit     Exit REPL

Usage:
  Type an expression to evaluate it; _ holds the previous result
  Completions appear automatically as you type
  Press Tab / Shift-Tab to cycle through candidates
  Press Esc to toggle between eval and command modes
  Use Up/Down arrows for history navigation (mode switches automatically)
  Use Shift+Up/Shift+Down for history navigation within current mode only
  Press Ctrl+C on empty line or Ctrl+D to exit
`
}

// inputMode represents the current input mode.
type inputMode int

const (
	modeEval inputMode = iota
	modeCtrl
)

//nolint:gochecknoglobals
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
)

func formatCommand(input string) string {
	return promptStyle.Render(evalPrompt) + inputStyle.Render(input)
}

func formatCtrlCommand(input string) string {
	return ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input)
}

// evalDoneMsg carries the outcome of an evaluation started by the model.
type evalDoneMsg struct {
	input string
	ast   *lang.AST
	value lang.Value
	err   error
}

// editDoneMsg is sent when the editor produced a valid expression.
type editDoneMsg struct{ ast *lang.AST }

// editCancelledMsg is sent when the user emptied the editor or declined to
// re-edit after a parse error.
type editCancelledMsg struct{}

// editErrorMsg is sent when the editor could not be run.
type editErrorMsg struct{ err error }

// Config configures a REPL session.
type Config struct {
	// Options are applied to every evaluation.
	Options []lang.Option
	// Constants are the host constants of the session, used for completion.
	Constants map[string]any
	// Functions are the functions available to expressions, used for
	// completion and signature hints. Nil means the built-ins.
	Functions lang.Registry
	// CacheDir holds the history file. Empty keeps history in memory.
	CacheDir string
	Logger   log.Logger
}

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc      func() context.Context
	options      []lang.Option
	logger       log.Logger
	functions    lang.Registry
	tree         map[string]any
	input        textinput.Model
	history      *History
	last         lang.Value
	lastAST      *lang.AST
	hasLast      bool
	busy         bool
	historyIdx   int
	matches      fuzzy.Matches // current fuzzy match results
	candidates   []string      // backing candidate list
	wordStart    int           // byte offset of current word start
	wordEnd      int           // byte offset of current word end
	suggIdx      int           // selected candidate index
	tabActive    bool          // whether user is tab-cycling
	preTabText   string        // input text before tab-cycling began
	preTabCursor int           // cursor position before tab-cycling began
	width        int           // terminal width for ellipsization
	quitting     bool
	mode         inputMode
	evalText     string
	evalCursor   int
	ctrlText     string
	ctrlCursor   int
}

// Run starts an interactive session and blocks until the user quits.
func Run(ctx context.Context, cfg Config, opts ...tea.ProgramOption) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	cfg.Logger.TraceContext(ctx, "repl start",
		slog.String("cache_dir", cfg.CacheDir),
		slog.Int("constants", len(cfg.Constants)),
	)

	var history *History
	if cfg.CacheDir != "" {
		history = NewHistory(filepath.Join(cfg.CacheDir, baseHistory))
	} else {
		history = NewHistory("")
	}

	if err := history.Load(); err != nil {
		cfg.Logger.WarnContext(ctx, "could not load history",
			slog.String("path", history.path),
			slog.Any("error", err),
		)
	}

	cfg.Logger.TraceContext(ctx, "repl history loaded",
		slog.Int("entry_count", history.Len()),
	)

	m := newModel(ctx, cfg, history)

	_, err = tea.NewProgram(m, append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && context.Cause(ctx) == nil {
		return nil
	}

	return err
}

const defaultWidth = 80

func newModel(ctx context.Context, cfg Config, history *History) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(evalPrompt)
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = defaultWidth

	functions := cfg.Functions
	if functions == nil {
		functions = lang.Builtins()
	}

	return model{
		ctxFunc:    func() context.Context { return ctx },
		options:    cfg.Options,
		logger:     cfg.Logger,
		functions:  functions,
		tree:       completionTree(cfg.Constants),
		input:      ti,
		history:    history,
		historyIdx: history.Len(),
		suggIdx:    -1,
		width:      defaultWidth,
		mode:       modeEval,
	}
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
		m.input.Width = max(1, msg.Width-lipgloss.Width(evalPrompt)-2)

		return m, nil

	case evalDoneMsg:
		return m.handleResult(msg)

	case editDoneMsg:
		m, _ = m.switchToMode(modeEval)
		m.input.SetValue(msg.ast.String())
		m.input.CursorEnd()
		refreshMatches(&m, false)

		return m, nil

	case editCancelledMsg:
		return m, tea.Println(hintStyle.Render("edit cancelled"))

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
	b.WriteString(m.hintView())
	b.WriteString("\n")

	return b.String()
}

// hintView renders the line below the input: evaluation progress, history
// position, a usage hint, a signature or the completion bar.
func (m model) hintView() string {
	input := m.input.Value()

	if m.busy {
		return hintStyle.Render("evaluating...")
	}

	if m.historyIdx < m.history.Len() {
		return hintStyle.Render(fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx+1)),
			m.history.Len()))
	}

	if strings.TrimSpace(input) == "" {
		if m.mode == modeEval {
			return hintStyle.Render("Type an expression or press Esc for commands")
		}

		return hintStyle.Render("Type: " + strings.Join(ctrlCommands, ", ") + " (press Esc to return)")
	}

	if m.mode == modeEval && !m.tabActive {
		call := detectFunctionCall(input, m.input.Position())
		if fn, ok := m.functions.Lookup(call.name); call.inCall && ok {
			_, params := signature(call.name, fn)

			return renderSignatureHint(call.name, params, call.argIndex)
		}
	}

	return m.renderCandidateBar()
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(m.ctxFunc(), "repl keypress",
		slog.String("key", msg.String()),
	)

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
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
		if m.tabActive && len(m.matches) > 0 {
			// Lock in the current candidate without executing.
			m.tabActive = false
			refreshMatches(&m, true)

			return m, nil
		}

		return m.executeInput()

	case tea.KeyTab:
		return m.cycle(1), nil

	case tea.KeyShiftTab:
		return m.cycle(-1), nil

	case tea.KeyUp:
		return m.historyStep(-1, false), nil

	case tea.KeyDown:
		return m.historyStep(1, false), nil

	case tea.KeyShiftUp:
		return m.historyStep(-1, true), nil

	case tea.KeyShiftDown:
		return m.historyStep(1, true), nil

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			refreshMatches(&m, false)

			return m, nil
		}

		return m.toggleMode()

	case tea.KeyRunes, tea.KeySpace:
		if m.tabActive && msg.Type == tea.KeySpace {
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
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	refreshMatches(&m, false)

	return m, cmd
}

// cycle moves the tab selection by step through the candidates. A single
// candidate is completed immediately.
func (m model) cycle(step int) model {
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

	if m.tabActive {
		m.suggIdx = (m.suggIdx + step + n) % n
	} else {
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()

		m.suggIdx = 0
		if step < 0 {
			m.suggIdx = n - 1
		}
	}

	replaceCurrentWord(&m, m.matches[m.suggIdx].Str)

	return m
}

// replaceCurrentWord replaces the current word in the input with replacement
// and moves the cursor after it.
func replaceCurrentWord(m *model, replacement string) {
	input := m.input.Value()
	cursor := m.wordStart + len(replacement)

	m.input.SetValue(input[:m.wordStart] + replacement + input[m.wordEnd:])
	m.input.SetCursor(cursor)

	m.wordEnd = cursor
}

// refreshMatches recomputes fuzzy matches for the current input state.
// When autoConfirm is true it also confirms the completion when exactly one
// candidate remains and the typed word already equals it. autoConfirm is
// false for deletions and cursor movement so editing never completes
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
	if input == "" || m.busy {
		return m, nil
	}

	if m.mode == modeCtrl {
		m.ctrlText, m.ctrlCursor = "", 0
	} else {
		m.evalText, m.evalCursor = "", 0
	}

	m.input.SetValue("")
	refreshMatches(&m, false)

	if err := m.history.Add(input, m.mode); err != nil {
		m.logger.WarnContext(m.ctxFunc(), "could not save history",
			slog.Any("error", err))
	}

	m.historyIdx = m.history.Len()

	if m.mode == modeCtrl {
		return m.executeCommand(input)
	}

	m.logger.TraceContext(m.ctxFunc(), "repl eval",
		slog.String("input", input),
	)

	m.busy = true

	return m, tea.Sequence(tea.Println(formatCommand(input)), m.evaluate(input))
}

// evaluate returns a command that evaluates input in the background with the
// previous result bound to "_".
func (m model) evaluate(input string) tea.Cmd {
	ctx := m.ctxFunc()
	opts := slices.Clone(m.options)

	if m.hasLast {
		opts = append(opts, lang.WithConstant(lastResult, m.last))
	}

	return func() tea.Msg {
		ast, err := lang.ParseString(ctx, input, opts...)
		if err != nil {
			return evalDoneMsg{input: input, err: err}
		}

		v, err := ast.Evaluate(ctx)
		if err == nil {
			v, err = lang.DeepResolve(ctx, v)
		}

		return evalDoneMsg{input: input, ast: ast, value: v, err: err}
	}
}

func (m model) handleResult(msg evalDoneMsg) (model, tea.Cmd) {
	m.busy = false

	if msg.err != nil {
		m.logger.TraceContext(m.ctxFunc(), "repl eval result",
			slog.Any("error", msg.err),
		)

		return m, tea.Println(errorStyle.Render(strings.TrimSuffix(diagnostic(msg.input, msg.err), "\n")))
	}

	m.logger.TraceContext(m.ctxFunc(), "repl eval result",
		slog.String("kind", msg.value.Kind().String()),
	)

	m.last, m.lastAST, m.hasLast = msg.value, msg.ast, true

	return m, tea.Println(resultStyle.Render(msg.value.String()))
}

// diagnostic returns the message of err with the offending source line when
// err is positioned.
func diagnostic(src string, err error) string {
	var le *lang.Error
	if errors.As(err, &le) {
		return le.Diagnostic(src)
	}

	return "error: " + err.Error()
}

func (m model) executeCommand(input string) (model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}

	echo := tea.Println(formatCtrlCommand(input))

	m.logger.TraceContext(m.ctxFunc(), "repl command",
		slog.String("command", parts[0]),
		slog.Any("args", parts[1:]),
	)

	switch parts[0] {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Sequence(echo, tea.Quit)

	case "h", "help":
		return m, tea.Sequence(echo, tea.Println(helpMessage()))

	case "l", "list":
		return m, tea.Sequence(echo, tea.Println(m.listView()))

	case "t", "tree":
		return m, tea.Sequence(echo, tea.Println(m.treeView()))

	case "c", "clear":
		return m, tea.ClearScreen

	case "e", "edit":
		return m, tea.Sequence(echo, m.edit())

	default:
		return m, tea.Println(
			errorStyle.Render("Unknown command: " + parts[0] + " (try 'help')"),
		)
	}
}

// edit opens the last expression, or the pending eval-mode input, in the
// user's editor.
func (m model) edit() tea.Cmd {
	source := m.evalText
	if source == "" && m.lastAST != nil {
		source = m.lastAST.Source
	}

	cmd := &editCommand{
		ctxFunc: m.ctxFunc,
		logger:  m.logger,
		source:  source,
	}

	return tea.Exec(cmd, func(err error) tea.Msg {
		switch {
		case errors.Is(err, ErrEditDeclined):
			return editCancelledMsg{}

		case err != nil:
			return editErrorMsg{err: err}

		case cmd.result == nil:
			return editCancelledMsg{}

		default:
			return editDoneMsg{ast: cmd.result}
		}
	})
}

// listView lists the functions with their signatures and the constants by
// dotted path.
func (m model) listView() string {
	var b strings.Builder

	b.WriteString("Functions:\n")

	for _, name := range m.functions.Names() {
		fn, _ := m.functions.Lookup(name)
		sig, _ := signature(name, fn)
		b.WriteString("  " + hintStyle.Render(sig) + "\n")
	}

	b.WriteString("Constants:\n")

	for _, path := range flattenTree("", m.tree) {
		b.WriteString("  " + path + "\n")
	}

	if m.hasLast {
		b.WriteString("  " + lastResult + " " + hintStyle.Render(m.last.Kind().String()) + "\n")
	}

	return b.String()
}

// flattenTree returns the dotted paths of the leaves of tree, sorted.
func flattenTree(prefix string, tree map[string]any) []string {
	var paths []string

	for k, v := range tree {
		if sub, ok := v.(map[string]any); ok && len(sub) > 0 {
			paths = append(paths, flattenTree(prefix+k+".", sub)...)

			continue
		}

		paths = append(paths, prefix+k)
	}

	slices.Sort(paths)

	return paths
}

func (m model) treeView() string {
	if m.lastAST == nil {
		return hintStyle.Render("no expression evaluated yet")
	}

	var b strings.Builder
	if err := m.lastAST.FormatTree(m.ctxFunc(), &b, 2); err != nil {
		return errorStyle.Render("error: " + err.Error())
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// historyStep moves through history by step. When sameMode is true, entries
// from the other mode are skipped; otherwise the mode follows the entry.
// Stepping past the newest entry clears the input.
func (m model) historyStep(step int, sameMode bool) model {
	for i := m.historyIdx + step; i >= 0 && i < m.history.Len(); i += step {
		entry, err := m.history.At(i)
		if err != nil {
			break
		}

		if sameMode && entry.Mode != m.mode {
			continue
		}

		if entry.Mode != m.mode {
			m, _ = m.switchToMode(entry.Mode)
		}

		m.historyIdx = i
		m.input.SetValue(entry.Line)
		m.input.CursorEnd()
		refreshMatches(&m, false)

		return m
	}

	if step > 0 && m.historyIdx < m.history.Len() {
		m.historyIdx = m.history.Len()
		m.input.SetValue("")
		refreshMatches(&m, false)
	}

	return m
}

// toggleMode switches between eval and control modes.
func (m model) toggleMode() (model, tea.Cmd) {
	if m.mode == modeEval {
		return m.switchToMode(modeCtrl)
	}

	return m.switchToMode(modeEval)
}

// switchToMode switches to mode, saving the input of the current mode and
// restoring that of the target.
func (m model) switchToMode(mode inputMode) (model, tea.Cmd) {
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

	return m, nil
}
