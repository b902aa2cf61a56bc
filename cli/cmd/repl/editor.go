package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/ardnew/chtl/lang"
	"github.com/ardnew/chtl/log"
	"github.com/ardnew/chtl/pkg"
)

const defaultEditor = "vi"

// editCommand implements [tea.ExecCommand] for the edit-replay-retry loop.
// It writes the session transcript to a temp file, opens the user's editor,
// and replays the result into a fresh session. When the replay reports
// errors the user is prompted to re-edit; declining exits the program.
type editCommand struct {
	source  string
	opts    []lang.Option
	ctxFunc func() context.Context
	logger  log.Logger
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer

	// Set by Run when the edited transcript replays without errors.
	session *lang.Session
	result  *lang.Result
	edited  string
}

// SetStdin sets the stdin reader for the command.
func (c *editCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit loop. An emptied file cancels the edit and leaves
// the session unchanged. If the user declines to re-edit after an error, Run
// returns [ErrEditDeclined].
func (c *editCommand) Run() error {
	ctx := c.ctxFunc()

	f, err := os.CreateTemp("", pkg.Name+"-repl-*"+pkg.Extension)
	if err != nil {
		return err
	}

	path := f.Name()

	defer os.Remove(path)

	if err := f.Chmod(0o600); err != nil {
		f.Close()

		return err
	}

	f.Close()

	content := c.source

	for {
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			return err
		}

		if err := runEditor(ctx, c.stdin, c.stdout, c.stderr, path); err != nil {
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

		session := lang.NewSession(c.opts...)
		res := session.Eval(ctx, content)

		c.logger.TraceContext(ctx, "editor replay attempt",
			slog.Int("content_length", len(content)),
			slog.Int("diagnostics", res.Diagnostics.Len()))

		if !res.Diagnostics.HasErrors() {
			c.session, c.result, c.edited = session, res, content

			return nil
		}

		fmt.Fprintln(c.stderr)

		for d := range res.Diagnostics.All() {
			if d.Severity == lang.SeverityError {
				fmt.Fprintln(c.stderr, d.String())
			}
		}

		fmt.Fprint(c.stdout, "Re-edit? [Y/n] ")

		sc := bufio.NewScanner(c.stdin)
		if !sc.Scan() {
			return ErrEditDeclined
		}

		switch strings.ToLower(strings.TrimSpace(sc.Text())) {
		case "n", "no":
			return ErrEditDeclined
		}
	}
}

// runEditor runs $EDITOR, or vi, on path with the given standard streams.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout, stderr io.Writer,
	path string,
) error {
	// EDITOR may carry arguments, e.g. "code --wait".
	args := strings.Fields(os.Getenv("EDITOR"))
	if len(args) == 0 {
		args = []string{defaultEditor}
	}

	cmd := exec.CommandContext(ctx, args[0], append(args[1:], path)...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	return cmd.Run()
}
