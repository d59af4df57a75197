package main

import (
	"io"
	"os"

	"github.com/olegrjumin/sideeye/internal/report"
)

var stdin io.Reader = os.Stdin

func readAllStdin() ([]byte, error) {
	return io.ReadAll(stdin)
}

// isTerminal reports whether w is a colour-capable terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && report.ColorEnabled(f)
}
