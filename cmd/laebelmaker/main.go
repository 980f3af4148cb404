package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// Exit codes
const (
	ExitSuccess       = 0
	ExitConfigError   = 1
	ExitGenerateError = 2
	ExitDockerError   = 3
)

// RunError carries the exit code of a failed run.
type RunError struct {
	Op       string
	Err      error
	ExitCode int
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}
	return a.execute(ctx, args)
}

// execute runs the root command and maps its error to an exit code.
func (a *app) execute(ctx context.Context, args []string) int {
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		var runErr *RunError
		if errors.As(err, &runErr) {
			if runErr.Err != nil {
				fmt.Fprintf(a.stderr, "Error: %v\n", runErr)
			}
			return runErr.ExitCode
		}
		// Flag parsing and other cobra errors.
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return ExitConfigError
	}
	return ExitSuccess
}
