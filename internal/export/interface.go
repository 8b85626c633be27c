package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/serenity-guest/internal"
)

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(snapshot *internal.GuestSnapshot, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch strings.ToLower(format) {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: jsonl, md, yaml, json)", format)
	}
}

// Formats lists the accepted format names
func Formats() []string {
	return []string{"json", "jsonl", "md", "yaml"}
}
