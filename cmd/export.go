package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/iksnae/serenity-guest/internal"
	"github.com/iksnae/serenity-guest/internal/export"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOut    string
)

// exportCmd writes every guest collection to a file or stdout
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export guest data",
	Long: fmt.Sprintf(`Export everything stored in guest mode.

Supported formats: %s
Use --out - to write to stdout.`, strings.Join(export.Formats(), ", ")),
	Example: `  serenity-guest export --format md --out ~/Documents
  serenity-guest export --format jsonl --out - | jq .`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		exporter, err := export.NewExporter(exportFormat)
		if err != nil {
			return err
		}

		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.Close()

		snapshot := a.store.Snapshot()

		if exportOut == "-" {
			if err := exporter.Export(snapshot, cmd.OutOrStdout()); err != nil {
				return &internal.ExportError{Format: exportFormat, Path: "stdout", Err: err}
			}
			return nil
		}

		dir := exportOut
		if dir == "" {
			dir = "."
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &internal.ExportError{Format: exportFormat, Path: dir, Err: err}
		}

		path := filepath.Join(dir, fmt.Sprintf("serenity-guest-%s.%s", snapshot.GuestID, exporter.Extension()))
		f, err := os.Create(path)
		if err != nil {
			return &internal.ExportError{Format: exportFormat, Path: path, Err: err}
		}
		if err := exporter.Export(snapshot, f); err != nil {
			_ = f.Close()
			return &internal.ExportError{Format: exportFormat, Path: path, Err: err}
		}
		if err := f.Close(); err != nil {
			return &internal.ExportError{Format: exportFormat, Path: path, Err: err}
		}

		internal.NewProgress(cmd.ErrOrStderr()).Success(fmt.Sprintf(
			"Exported %d session(s), %d mood log(s) to %s",
			len(snapshot.ChatSessions), len(snapshot.MoodLogs), path))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "Output format (json, jsonl, md, yaml)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", ".", "Output directory, or - for stdout")
}
