package config

import (
	"fmt"
	"io"
	"os"
)

const (
	exitFailure = 1
	exitUsage   = 2
)

// Exitf reports a runtime failure on stderr and exits with status 1.
func Exitf(format string, args ...any) {
	exitf(os.Stderr, exitFailure, format, args...)
}

// ExitUsagef reports invalid command input on stderr and exits with status 2,
// the status the flag package uses for bad arguments.
func ExitUsagef(format string, args ...any) {
	exitf(os.Stderr, exitUsage, format, args...)
}

func exitf(w io.Writer, code int, format string, args ...any) {
	fmt.Fprintf(w, format+"\n", args...)
	os.Exit(code)
}
