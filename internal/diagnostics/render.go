package diagnostics

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// colorLevel caches the detected color support: 0=none, 1=basic(16), 256=256colors
var (
	colorLevelOnce sync.Once
	colorLevelVal  int
)

func detectColorLevel() int {
	// NO_COLOR convention: https://no-color.org/
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return 0
	}

	if !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return 0
	}

	term := os.Getenv("TERM")
	if term == "dumb" {
		return 0
	}
	if strings.Contains(term, "256color") {
		return 256
	}
	return 1
}

func getColorLevel() int {
	colorLevelOnce.Do(func() {
		colorLevelVal = detectColorLevel()
	})
	return colorLevelVal
}

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiBold   = "\x1b[1m"
)

func paint(code, s string) string {
	if getColorLevel() == 0 {
		return s
	}
	return code + s + ansiReset
}

// Render writes a diagnostic error to w with the standard error prefix.
func Render(w io.Writer, err *DiagnosticError) {
	fmt.Fprintf(w, "%s %s\n", paint(ansiBold+ansiRed, "error["+err.Kind.String()+"]:"), err.Error())
}

// RenderWarning writes a warning to w.
func RenderWarning(w io.Writer, warning Warning) {
	fmt.Fprintf(w, "%s %s\n", paint(ansiBold+ansiYellow, "warning:"), warning.Message)
}
