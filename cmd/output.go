package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/relist-cli/internal/model"
	"github.com/sells-group/relist-cli/internal/thresholds"
)

// ensureDir creates the parent directory of path.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "create directory %s", dir)
	}
	return nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatRecords writes classified records as a table.
func formatRecords(out io.Writer, records []model.CandidateRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TIER\tID\tSCORE\tRISK\tREASON\tTITLE")
	for i := range records {
		r := &records[i]
		tier := string(r.PriorityTier)
		if tier == "" {
			tier = "-"
		}
		risk := "-"
		if r.SafetyVerdict != nil {
			risk = string(r.SafetyVerdict.RiskLevel)
		}
		id := r.ResolvedID
		if id == "" {
			id = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%.1f\t%s\t%s\t%s\n",
			tier, id, r.Score, risk, r.ReasonCode, truncate(r.TitleText, 48))
	}
	_ = w.Flush()
}

// formatSummary writes a batch summary block.
func formatSummary(out io.Writer, s model.BatchSummary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total:\t%d\n", s.Total)
	_, _ = fmt.Fprintf(w, "Processed:\t%d (%.0f%%)\n", s.ProcessedCount, s.Progress*100)
	for _, t := range model.Tiers() {
		_, _ = fmt.Fprintf(w, "Tier %s:\t%d (%.2f%%)\n", t, s.PerTierCount[t], s.PerTierRate[t])
	}
	_, _ = fmt.Fprintf(w, "Average score:\t%.2f\n", s.AverageScore)
	_, _ = fmt.Fprintf(w, "Safety flagged:\t%d\n", s.SafetyFlaggedCount)
	_, _ = fmt.Fprintf(w, "Prime eligible:\t%.2f%%\n", s.PrimeEligibleRate)
	levels := make([]string, 0, len(model.RiskLevels()))
	for _, l := range model.RiskLevels() {
		levels = append(levels, fmt.Sprintf("%s=%d", l, s.RiskLevelCounts[l]))
	}
	_, _ = fmt.Fprintf(w, "Risk levels:\t%s\n", strings.Join(levels, " "))
	_ = w.Flush()
}

// formatRunsList writes a tabular list of batch runs to out.
func formatRunsList(out io.Writer, runs []model.BatchRun) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tPRESET\tREV\tPROCESSED\tCANCELLED\tSTARTED\tDURATION")
	for _, r := range runs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d/%d\t%t\t%s\t%s\n",
			shortID(r.ID),
			r.Preset,
			r.ConfigRevision,
			r.Processed, r.Total,
			r.Cancelled,
			r.StartedAt.Format(time.DateTime),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond),
		)
	}
	_ = w.Flush()
}

// formatHistory writes threshold history entries, newest last.
func formatHistory(out io.Writer, entries []thresholds.HistoryEntry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "REV\tACTION\tUSER\tCHANGES\tAT")
	for _, e := range entries {
		paths := make([]string, 0, len(e.Changes))
		for _, c := range e.Changes {
			paths = append(paths, c.Path)
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			e.Revision, e.Action, e.User, truncate(strings.Join(paths, ","), 60), e.Timestamp.Format(time.DateTime))
	}
	_ = w.Flush()
}

// formatOverrides writes the manual override book.
func formatOverrides(out io.Writer, overrides []model.Override) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTIER\tSTATUS\tUSER\tUPDATED\tNOTE")
	for _, o := range overrides {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			o.RecordID, o.Tier, o.Status, o.User, o.UpdatedAt.Format(time.DateTime), truncate(o.Note, 40))
	}
	_ = w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
