package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// exitInterrupted matches the shell convention for SIGINT.
const exitInterrupted = 130

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.Execute()
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(stderr, "rafcdn: interrupted")
		return exitInterrupted
	default:
		fmt.Fprintf(stderr, "rafcdn: %v\n", err)
		return 1
	}
}
