package console

import (
	"os"

	"golang.org/x/term"
)

// Interactive reports whether f is attached to a terminal.  The
// dispatcher only prints prompts and its banner when it is.
func Interactive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
