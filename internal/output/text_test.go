package output

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/brief/internal/summary"
)

func TestTextWriter_Summarize(t *testing.T) {
	var buf bytes.Buffer
	w := &TextWriter{}
	if err := w.Write(&buf, testResponse(summary.ModeSummarize)); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"summarize mode",
		"Model: gpt-4o (openai)",
		"Tokens: 52 across 2 files (largest: main.go, 40)",
		"Excluded: 1 files",
		"big.go  (exceeds-per-item-cap)",
		"Adds a parser and fixes a typo.",
		"T#12 Parser (story #3 Import)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Output should contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Dry run") {
		t.Error("Summarize output should not mention a dry run")
	}
}

func TestTextWriter_Analyze(t *testing.T) {
	var buf bytes.Buffer
	w := &TextWriter{}
	if err := w.Write(&buf, testResponse(summary.ModeAnalyze)); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Dry run: no summary generated.") {
		t.Error("Output should say no summary was generated")
	}
	main := strings.Index(out, "main.go\n")
	util := strings.Index(out, "util.go\n")
	if main < 0 || util < 0 || main > util {
		t.Errorf("Included files should be listed largest first, got:\n%s", out)
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("short\n\n"+strings.Repeat("word ", 30), 20)
	if lines[0] != "short" || lines[1] != "" {
		t.Errorf("lines = %q", lines)
	}
	for _, l := range lines {
		if len(l) > 20 {
			t.Errorf("line %q exceeds width", l)
		}
	}
}

func TestWriteReport_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := WriteReport(testResponse(summary.ModeAnalyze), "json", path); err != nil {
		t.Fatalf("WriteReport error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !strings.Contains(string(data), `"mode": "analyze"`) {
		t.Errorf("unexpected output: %s", data)
	}
}

func TestTextWriter_Width(t *testing.T) {
	var buf bytes.Buffer
	w := &TextWriter{Width: 20}
	if err := w.Write(&buf, testResponse(summary.ModeSummarize)); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if strings.Contains(buf.String(), "Adds a parser and fixes a typo.") {
		t.Errorf("summary should wrap at 20 columns, got:\n%s", buf.String())
	}
}

func TestTerminalWidth_NotATerminal(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out.txt"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if got := terminalWidth(int(f.Fd())); got != 0 {
		t.Errorf("terminalWidth(file) = %d, want 0", got)
	}
}
