package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joescharf/adreview/internal/export"
	"github.com/joescharf/adreview/internal/models"
)

var (
	exportFormat string
	exportIn     string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Convert a JSON results export into another format",
	Long: `Convert results previously downloaded as JSON (format=json on the
review page) into csv, markdown or a SQLite database.

  adreview export --format sqlite --in results.json --out results.db
  adreview export --format csv --in results.json > ad-review.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return exportRun(cmd.Context())
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "Output format: csv, json, markdown, sqlite")
	exportCmd.Flags().StringVar(&exportIn, "in", "-", "JSON results file (- for stdin)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default stdout; required for sqlite)")
	rootCmd.AddCommand(exportCmd)
}

func exportRun(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	results, err := readResults(exportIn)
	if err != nil {
		return err
	}

	if exportFormat == "sqlite" {
		if exportOut == "" {
			return fmt.Errorf("--out is required for sqlite export")
		}
		if dryRun {
			ui.DryRunMsg("Would write %d result(s) to %s", len(results), exportOut)
			return nil
		}
		if err := export.SQLite(ctx, exportOut, results); err != nil {
			return err
		}
		ui.Success("Wrote %d result(s) to %s", len(results), exportOut)
		return nil
	}

	if exportOut == "" {
		return export.Write(ui.Out, exportFormat, results)
	}
	if dryRun {
		ui.DryRunMsg("Would write %d result(s) as %s to %s", len(results), exportFormat, exportOut)
		return nil
	}

	f, err := os.Create(exportOut)
	if err != nil {
		return fmt.Errorf("create %s: %w", exportOut, err)
	}
	if err := export.Write(f, exportFormat, results); err != nil {
		f.Close()
		_ = os.Remove(exportOut)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", exportOut, err)
	}
	ui.Success("Wrote %d result(s) to %s", len(results), exportOut)
	return nil
}

func readResults(path string) ([]models.ResultRecord, error) {
	var r io.Reader = os.Stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open results: %w", err)
		}
		defer f.Close()
		r = f
	}
	return export.ReadJSON(r)
}
