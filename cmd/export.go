package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/colmmemedsurv/sentinelnode/internal/export"
	"github.com/colmmemedsurv/sentinelnode/internal/pipeline"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export curated records as CSV or XLSX",
	RunE: func(cmd *cobra.Command, _ []string) error {
		in, _ := cmd.Flags().GetString("in")
		if in == "" {
			in = filepath.Join(cfg.Feeds.DataDir, pipeline.CuratedItemsFile)
		}
		out, _ := cmd.Flags().GetString("out")
		format, _ := cmd.Flags().GetString("format")
		return exportFile(in, out, format, os.Stdout)
	},
}

func init() {
	exportCmd.Flags().String("in", "", "records file (default <data_dir>/curated_items.json)")
	exportCmd.Flags().String("out", "", "output file (default stdout)")
	exportCmd.Flags().String("format", "", "csv or xlsx (default from --out extension, else csv)")
	rootCmd.AddCommand(exportCmd)
}

// exportFile renders the records in path in. An empty format is taken from
// the output extension.
func exportFile(in, out, format string, stdout io.Writer) error {
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(out)), ".")
		if format != export.FormatXLSX {
			format = export.FormatCSV
		}
	}

	records, err := pipeline.ReadRecords(in)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, records); err != nil {
		return err
	}

	if out == "" {
		if _, err := stdout.Write(buf.Bytes()); err != nil {
			return eris.Wrap(err, "export: write stdout")
		}
		return nil
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return eris.Wrapf(err, "export: write %s", out)
	}
	zap.L().Info("export: done", zap.String("out", out), zap.String("format", format), zap.Int("records", len(records)))
	return nil
}
