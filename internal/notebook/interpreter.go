package notebook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// DefaultInterpreters are the J console executables searched in $PATH.
var DefaultInterpreters = []string{"ijconsole", "jconsole"}

// Console runs programs through an interpreter executable reading code on stdin.
type Console struct {
	names []string
	exe   string

	// Destination of the interpreter stderr
	Stderr io.Writer

	listeners []func(cmd string, args ...string)
}

// NewConsole returns a console using the first executable found among names.
// The lookup is delayed until the first program is run.
func NewConsole(names ...string) *Console {
	if len(names) == 0 {
		names = DefaultInterpreters
	}
	return &Console{
		names:  names,
		Stderr: os.Stderr,
	}
}

// OnPreExecution registers a callback invoked before every execution.
func (c *Console) OnPreExecution(fn func(cmd string, args ...string)) {
	c.listeners = append(c.listeners, fn)
}

func (c *Console) notifyListeners(cmd string, args ...string) {
	for _, fn := range c.listeners {
		fn(cmd, args...)
	}
}

// Lookup searches the interpreter executable in $PATH.
func (c *Console) Lookup() (string, error) {
	if c.exe != "" {
		return c.exe, nil
	}
	for _, name := range c.names {
		path, err := exec.LookPath(name)
		if err == nil {
			c.exe = path
			return path, nil
		}
	}
	return "", fmt.Errorf("%w (searched: %s)", ErrMissingInterpreter, strings.Join(c.names, ", "))
}

// Run sends the code on the interpreter stdin and returns stdout read to EOF.
// The exit status of the interpreter is ignored as errors are part of the output.
func (c *Console) Run(ctx context.Context, code string) (string, error) {
	exe, err := c.Lookup()
	if err != nil {
		return "", err
	}

	c.notifyListeners(exe)
	cmd := exec.CommandContext(ctx, exe)
	cmd.Stdin = strings.NewReader(code)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = c.Stderr

	err = cmd.Run()
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return "", fmt.Errorf("unable to run %s: %w", exe, err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	return stdout.String(), nil
}
