package output

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/dshills/brief/internal/summary"
)

// Writer writes a response in a specific format.
type Writer interface {
	Write(w io.Writer, resp *summary.Response) error
}

// Formats lists the supported output formats.
func Formats() []string { return []string{"text", "json"} }

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "text":
		return &TextWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteReport writes the response to the specified output (file path or stdout).
func WriteReport(resp *summary.Response, format, outPath string) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}

	var w io.Writer
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	} else {
		w = os.Stdout
		if tw, ok := writer.(*TextWriter); ok {
			tw.Width = terminalWidth(int(os.Stdout.Fd()))
		}
	}

	return writer.Write(w, resp)
}

// terminalWidth returns the wrap width for a terminal on fd, or 0 when fd is
// not a terminal. Very wide terminals are capped at 120 columns.
func terminalWidth(fd int) int {
	if !term.IsTerminal(fd) {
		return 0
	}
	cols, _, err := term.GetSize(fd)
	if err != nil || cols < 40 {
		return 0
	}
	return min(cols-2, 120)
}
