package export

import (
	"io"

	"github.com/iksnae/serenity-guest/internal"
	"gopkg.in/yaml.v3"
)

// YAMLExporter exports the snapshot in YAML format
type YAMLExporter struct{}

// Export exports a snapshot to YAML format
func (e *YAMLExporter) Export(snapshot *internal.GuestSnapshot, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer func() { _ = enc.Close() }()

	return enc.Encode(snapshot)
}

// Extension returns the file extension for this format
func (e *YAMLExporter) Extension() string {
	return "yaml"
}
