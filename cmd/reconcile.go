package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/colmmemedsurv/sentinelnode/internal/dedupe"
	"github.com/colmmemedsurv/sentinelnode/internal/model"
	"github.com/colmmemedsurv/sentinelnode/internal/pipeline"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile and deduplicate a JSON file of records",
	Long:  "Reads a JSON array of records, extracts or recovers each DOI, fills empty fields from Crossref and PubMed, deduplicates, and writes the result.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		in, _ := cmd.Flags().GetString("in")
		out, _ := cmd.Flags().GetString("out")

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close() //nolint:errcheck
		}

		engine, err := initEngine(ctx, st)
		if err != nil {
			return err
		}
		return reconcileFile(ctx, engine, in, out, os.Stdout)
	},
}

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Deduplicate a JSON file of records by DOI, link and title",
	RunE: func(cmd *cobra.Command, _ []string) error {
		in, _ := cmd.Flags().GetString("in")
		out, _ := cmd.Flags().GetString("out")
		return dedupeFile(in, out, os.Stdout)
	},
}

func init() {
	reconcileCmd.Flags().String("in", "data/relevant_items.json", "input records file")
	reconcileCmd.Flags().String("out", "", "output file (default stdout)")
	dedupeCmd.Flags().String("in", "data/relevant_items.json", "input records file")
	dedupeCmd.Flags().String("out", "", "output file (default stdout)")
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(dedupeCmd)
}

// reconcileFile runs one reconciliation batch over the records in path in.
func reconcileFile(ctx context.Context, rec pipeline.Reconciler, in, out string, stdout io.Writer) error {
	records, err := pipeline.ReadRecords(in)
	if err != nil {
		return err
	}

	kept, stats, dstats := rec.Batch(ctx, records)
	zap.L().Info("reconcile: done",
		zap.Int("input", len(records)),
		zap.Int("kept", len(kept)),
		zap.Int("doi_extracted", stats.DOIExtracted),
		zap.Int("doi_missing", stats.DOIMissing),
		zap.Int("duplicates", dstats.Input-dstats.Kept),
	)
	return writeRecords(out, stdout, kept)
}

// dedupeFile removes duplicate records without contacting any source.
func dedupeFile(in, out string, stdout io.Writer) error {
	records, err := pipeline.ReadRecords(in)
	if err != nil {
		return err
	}

	kept, stats := dedupe.Deduplicate(records)
	zap.L().Info("dedupe: done",
		zap.Int("input", stats.Input),
		zap.Int("kept", stats.Kept),
		zap.Int("by_doi", stats.ByDOI),
		zap.Int("by_link", stats.ByLink),
		zap.Int("by_title", stats.ByTitle),
	)
	return writeRecords(out, stdout, kept)
}

func writeRecords(out string, stdout io.Writer, records []model.Record) error {
	if records == nil {
		records = []model.Record{}
	}
	if out != "" {
		return pipeline.WriteJSON(out, records)
	}
	enc := json.NewEncoder(stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return eris.Wrap(err, "encode records")
	}
	return nil
}
