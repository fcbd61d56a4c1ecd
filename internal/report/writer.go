// internal/report/writer.go
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Corphon/StyleCritic/internal/models"
)

// Writer renders a finished critique to an output stream.
type Writer interface {
	Write(resp *models.AnalysisResponse) error
}

// Format names accepted by NewWriter.
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// NewWriter returns the writer for format.
func NewWriter(format string, output io.Writer) (Writer, error) {
	switch format {
	case "", FormatJSON:
		return NewJSONWriter(output), nil
	case FormatMarkdown, "md":
		return NewMarkdownWriter(output), nil
	default:
		return nil, fmt.Errorf("unsupported report format %q", format)
	}
}

// JSONWriter writes the response exactly as the HTTP API returns it, indented.
type JSONWriter struct {
	output io.Writer
}

func NewJSONWriter(output io.Writer) *JSONWriter {
	return &JSONWriter{output: output}
}

func (w *JSONWriter) Write(resp *models.AnalysisResponse) error {
	enc := json.NewEncoder(w.output)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
