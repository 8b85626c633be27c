package export

import (
	"encoding/json"
	"io"

	"github.com/iksnae/serenity-guest/internal"
)

// JSONExporter exports the snapshot as one pretty-printed JSON document
type JSONExporter struct{}

// Export exports a snapshot to JSON format
func (e *JSONExporter) Export(snapshot *internal.GuestSnapshot, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(snapshot)
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
