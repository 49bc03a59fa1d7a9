package main

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/relist-cli/internal/batch"
	"github.com/sells-group/relist-cli/internal/model"
	"github.com/sells-group/relist-cli/internal/status"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize an already classified result file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		input, _ := cmd.Flags().GetString("input")
		asJSON, _ := cmd.Flags().GetBool("json")

		data, err := os.ReadFile(input)
		if err != nil {
			return eris.Wrap(err, "summarize: read input")
		}
		records, err := decodeClassified(data)
		if err != nil {
			return err
		}
		s := status.Summarize(records)
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), s)
		}
		formatSummary(cmd.OutOrStdout(), s)
		return nil
	},
}

// decodeClassified accepts either the object written by classify --format
// json or a bare array of records.
func decodeClassified(data []byte) ([]model.CandidateRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var res batch.Result
		if err := json.Unmarshal(trimmed, &res); err != nil {
			return nil, eris.Wrap(err, "summarize: decode result")
		}
		return res.Records, nil
	}
	var records []model.CandidateRecord
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, eris.Wrap(err, "summarize: decode records")
	}
	return records, nil
}

func init() {
	summarizeCmd.Flags().String("input", "", "classified records (output of classify --format json)")
	summarizeCmd.Flags().Bool("json", false, "print the summary as JSON")
	_ = summarizeCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(summarizeCmd)
}
