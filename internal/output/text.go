package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/brief/internal/summary"
)

const defaultWidth = 78

// TextWriter outputs a human-readable report. Width is the summary wrap
// column; zero means 78.
type TextWriter struct {
	Width int
}

func (t *TextWriter) Write(w io.Writer, resp *summary.Response) error {
	ew := &errWriter{w: w}
	a := resp.Analysis()

	ew.printf("Brief - %s mode\n", resp.Mode())
	ew.printf("Model: %s", resp.Model())
	if resp.Provider() != "" {
		ew.printf(" (%s)", resp.Provider())
	}
	if resp.Cached() {
		ew.printf(" [cached]")
	}
	ew.println("")
	ew.println(strings.Repeat("─", 60))

	ew.printf("Tokens: %d across %d files", a.Total(), a.Count())
	if largest, ok := a.Largest(); ok {
		ew.printf(" (largest: %s, %d)", largest.Path, largest.Tokens)
	}
	ew.println("")

	if resp.Mode() == summary.ModeAnalyze {
		for _, s := range a.SortedDescending() {
			ew.printf("  %6d  %s\n", s.Tokens, s.Path)
		}
	}

	if a.ExcludedCount() > 0 {
		ew.printf("Excluded: %d files\n", a.ExcludedCount())
		for _, e := range a.Excluded() {
			ew.printf("  %6d  %s  (%s)\n", e.Tokens, e.Path, e.Reason)
		}
	}
	ew.println(strings.Repeat("─", 60))

	if resp.Mode() == summary.ModeSummarize {
		ew.println("")
		width := t.Width
		if width <= 0 {
			width = defaultWidth
		}
		for _, line := range wrapText(resp.Summary(), width) {
			ew.println(line)
		}
	} else {
		ew.println("\nDry run: no summary generated.")
	}

	if tr := resp.Tracker(); tr != nil && len(tr.Tasks) > 0 {
		ew.printf("\n%s\n", strings.Repeat("─", 60))
		ew.println("Tasks:")
		for _, task := range tr.Tasks {
			ew.printf("  T#%d %s", task.ID, task.Name)
			if task.UserStory != nil {
				ew.printf(" (story #%d %s)", task.UserStory.ID, task.UserStory.Name)
			}
			ew.println("")
		}
	}

	return ew.err
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

// wrapText wraps each paragraph of text to width, keeping blank lines and
// lines that are already short enough.
func wrapText(text string, width int) []string {
	var lines []string
	for _, para := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		if len(para) <= width {
			lines = append(lines, para)
			continue
		}
		var current strings.Builder
		for _, word := range strings.Fields(para) {
			if current.Len()+len(word)+1 > width && current.Len() > 0 {
				lines = append(lines, current.String())
				current.Reset()
			}
			if current.Len() > 0 {
				current.WriteString(" ")
			}
			current.WriteString(word)
		}
		if current.Len() > 0 {
			lines = append(lines, current.String())
		}
	}
	return lines
}
