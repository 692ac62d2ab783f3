package ui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	apperrors "activation/pkg/errors"

	"github.com/mattn/go-isatty"
	"github.com/mgutz/ansi"
)

var (
	// Check if output supports colors
	supportsColor = isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())

	ColorSuccess = colorFunc(ansi.Green)
	ColorError   = colorFunc(ansi.Red)
	ColorWarning = colorFunc(ansi.Yellow)
	ColorInfo    = colorFunc(ansi.Cyan)
	ColorBold    = colorFunc("default+b")
	ColorDim     = colorFunc("default+h")
)

// colorFunc returns a function that colors text if supported
func colorFunc(color string) func(string) string {
	return func(text string) string {
		if supportsColor {
			return ansi.Color(text, color)
		}
		return text
	}
}

// ShowError writes a formatted error, with code context and suggestions for AppErrors
func ShowError(w io.Writer, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		fmt.Fprintf(w, "%s %s\n", ColorError("Error:"), err.Error())
		return
	}

	fmt.Fprintf(w, "%s [%s] %s\n", ColorError("Error:"), appErr.Code, appErr.Message)
	if appErr.Cause != nil {
		for _, line := range strings.Split(appErr.Cause.Error(), "\n") {
			fmt.Fprintf(w, "  %s\n", ColorDim(line))
		}
	}

	if len(appErr.Suggestions) > 0 {
		fmt.Fprintf(w, "\n  %s\n", ColorInfo("Suggestions:"))
		for i, suggestion := range appErr.Suggestions {
			fmt.Fprintf(w, "  %d. %s\n", i+1, suggestion)
		}
	}
}
