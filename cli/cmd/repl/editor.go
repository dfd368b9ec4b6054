package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/ardnew/formula/lang"
	"github.com/ardnew/formula/log"
)

const defaultEditor = "vi"

// editCommand implements [tea.ExecCommand] for the edit-parse-retry loop. It
// writes an expression to a temporary file, opens the user's editor, and
// parses the result. On a parse error the user is prompted to re-edit;
// declining returns [ErrEditDeclined].
type editCommand struct {
	ctxFunc func() context.Context
	logger  log.Logger
	source  string
	result  *lang.AST
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	editor  func(ctx context.Context, path string, stdin io.Reader, stdout, stderr io.Writer) error
}

// SetStdin sets the stdin reader for the command.
func (c *editCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit loop. An emptied file cancels the edit, leaving
// result nil.
func (c *editCommand) Run() error {
	ctx := c.ctxFunc()

	f, err := os.CreateTemp("", "formula-repl-*.expr")
	if err != nil {
		return err
	}

	path := f.Name()
	defer os.Remove(path)

	if err := f.Close(); err != nil {
		return err
	}

	content := c.source

	for {
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			return err
		}

		run := c.editor
		if run == nil {
			run = runEditor
		}

		if err := run(ctx, path, c.stdin, c.stdout, c.stderr); err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		content = string(data)
		if strings.TrimSpace(content) == "" {
			return nil
		}

		ast, err := lang.ParseString(ctx, content, lang.WithLogger(c.logger))
		c.logger.TraceContext(ctx, "editor parse attempt",
			slog.Int("content_length", len(content)),
			slog.Bool("success", err == nil),
		)

		if err == nil {
			c.result = ast

			return nil
		}

		var le *lang.Error
		if errors.As(err, &le) {
			_, _ = fmt.Fprint(c.stderr, "\n"+le.Diagnostic(content))
		} else {
			_, _ = fmt.Fprintf(c.stderr, "\n%v\n", err)
		}

		_, _ = fmt.Fprint(c.stdout, "Re-edit? [Y/n] ")

		scanner := bufio.NewScanner(c.stdin)
		if !scanner.Scan() {
			return ErrEditDeclined
		}

		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "n", "no":
			return ErrEditDeclined
		}
	}
}

// runEditor opens $EDITOR, or vi, on path and waits for it to exit.
func runEditor(
	ctx context.Context,
	path string,
	stdin io.Reader,
	stdout, stderr io.Writer,
) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = defaultEditor
	}

	cmd := exec.CommandContext(ctx, editor, path)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	return cmd.Run()
}
