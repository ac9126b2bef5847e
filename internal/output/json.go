package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dshills/brief/internal/summary"
)

// JSONWriter outputs the full response as JSON.
type JSONWriter struct{}

func (j *JSONWriter) Write(w io.Writer, resp *summary.Response) error {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}
