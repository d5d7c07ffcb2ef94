package main

import (
	"fmt"
	"os"

	"github.com/bidlens/bidlens/pkg/output/exitcode"
	"github.com/bidlens/bidlens/pkg/ui"
)

// exitWithError prints a formatted error message and exits with the
// runtime error code. Use exitClassified when an error value is
// available so source and usage failures keep their own codes.
func exitWithError(format string, args ...any) {
	ui.PrintError(fmt.Sprintf(format, args...))
	os.Exit(int(exitcode.Runtime))
}

// exitWithUsage prints an error message followed by a usage hint, then
// exits with the usage error code.
func exitWithUsage(msg, usage string) {
	ui.PrintError(msg)
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Usage:", usage)
	os.Exit(int(exitcode.Usage))
}

// exitClassified prints the error and exits with the code its class
// maps to: usage errors 2, source failures 3, everything else 4.
func exitClassified(context string, err error) {
	ui.PrintError(fmt.Sprintf("%s: %v", context, err))
	os.Exit(int(exitcode.FromError(err)))
}
