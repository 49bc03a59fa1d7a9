package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/relist-cli/internal/batch"
	"github.com/sells-group/relist-cli/internal/classify"
	"github.com/sells-group/relist-cli/internal/model"
	"github.com/sells-group/relist-cli/internal/sheet"
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Score, safety-check and tier a batch of candidates",
	Long: `Reads candidates from an XLSX sheet or JSON array, scores each one, checks it
against the safety dictionary and assigns a priority tier. Manual overrides are
applied and the run is recorded in the run log.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		input, _ := cmd.Flags().GetString("input")
		sheetName, _ := cmd.Flags().GetString("sheet")
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		textfile, _ := cmd.Flags().GetString("metrics-textfile")
		strict, _ := cmd.Flags().GetBool("strict")

		if cmd.Flags().Changed("limit") {
			cfg.Batch.Limit, _ = cmd.Flags().GetInt("limit")
		}
		if cmd.Flags().Changed("workers") {
			cfg.Batch.MaxWorkers, _ = cmd.Flags().GetInt("workers")
		}
		if textfile == "" {
			textfile = cfg.Metrics.Textfile
		}
		if err := cfg.Validate("classify"); err != nil {
			return err
		}
		if format != "table" && format != "json" {
			return eris.Errorf("classify: unknown format %q", format)
		}

		records, err := sheet.Load(input, sheet.Options{SheetName: sheetName})
		if err != nil {
			return eris.Wrap(err, "classify: load input")
		}
		if strict {
			if err := checkInputs(records); err != nil {
				return err
			}
		}

		a, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close() //nolint:errcheck

		res := a.core.RunBatch(ctx, records, batch.Options{
			Workers: cfg.Batch.MaxWorkers,
			Limit:   cfg.Batch.Limit,
		})
		if res.Run.Cancelled {
			zap.L().Warn("classify: run cancelled",
				zap.Int("processed", res.Run.Processed),
				zap.Int("total", res.Run.Total),
			)
		}

		if output != "" {
			if err := ensureDir(output); err != nil {
				return err
			}
			if err := sheet.WriteResults(output, res.Records, res.Run.Summary); err != nil {
				return eris.Wrap(err, "classify: write results")
			}
		}
		if textfile != "" {
			if err := a.metrics.WriteTextfile(textfile); err != nil {
				zap.L().Warn("classify: metrics textfile not written", zap.Error(err))
			}
		}

		out := cmd.OutOrStdout()
		if format == "json" {
			return writeJSON(out, res)
		}
		formatRecords(out, res.Records)
		_, _ = fmt.Fprintln(out)
		if res.Run.Summary != nil {
			formatSummary(out, *res.Run.Summary)
		}
		_, _ = fmt.Fprintf(out, "Run %s (preset %s, revision %d)\n", res.Run.ID, res.Run.Preset, res.Run.ConfigRevision)
		return stopErr(ctx)
	},
}

// stopErr reports a signal-driven cancellation after partial output is written.
func stopErr(ctx context.Context) error {
	if ctx.Err() != nil {
		return eris.New("classify: interrupted, partial results shown")
	}
	return nil
}

// checkInputs validates every record up front and reports the invalid ones
// by row, so a strict run fails before anything is recorded.
func checkInputs(records []model.CandidateRecord) error {
	var bad []string
	for i := range records {
		if err := classify.Validate(&records[i]); err != nil {
			bad = append(bad, fmt.Sprintf("record %d (%s): %v", i+1, records[i].ResolvedID, err))
		}
	}
	if len(bad) == 0 {
		return nil
	}
	return eris.Errorf("classify: %d invalid record(s):\n  %s", len(bad), strings.Join(bad, "\n  "))
}

func init() {
	classifyCmd.Flags().String("input", "", "candidate file (.xlsx or JSON array)")
	classifyCmd.Flags().String("sheet", "", "worksheet name (default: first sheet)")
	classifyCmd.Flags().String("format", "table", "output format: table or json")
	classifyCmd.Flags().String("output", "", "write results to this XLSX file")
	classifyCmd.Flags().Int("limit", 0, "process at most this many records (0 = all)")
	classifyCmd.Flags().Int("workers", 0, "concurrent workers (default from config)")
	classifyCmd.Flags().String("metrics-textfile", "", "write Prometheus metrics to this textfile")
	classifyCmd.Flags().Bool("strict", false, "fail before classifying if any record has invalid or missing input")
	_ = classifyCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(classifyCmd)
}
