package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/relist-cli/internal/batch"
	"github.com/sells-group/relist-cli/internal/model"
)

// setupCLI runs each command inside a fresh working directory so the
// default data/ paths land in a temp dir.
func setupCLI(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	t.Setenv("RELIST_LOG_LEVEL", "error")
	t.Setenv("RELIST_USER", "tester")
	return dir
}

// resetFlags restores every flag to its default between executions.
func resetFlags(c *cobra.Command) {
	c.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeInput(t *testing.T, dir string) string {
	t.Helper()
	records := []model.CandidateRecord{
		{
			ResolvedID:       "B001",
			TitleText:        "Acme USB-C charging cable",
			ExtractedBrand:   "Acme",
			SellerType:       model.SellerAmazon,
			IsPrimeEligible:  true,
			FulfillmentHours: model.Hours(20),
			RelevanceScore:   80,
		},
		{
			ResolvedID:       "B002",
			TitleText:        "counterfeit designer wallet",
			SellerType:       model.SellerThirdParty,
			FulfillmentHours: model.Hours(30),
			RelevanceScore:   60,
		},
		{
			TitleText:      "unresolved listing",
			SellerType:     model.SellerAmazon,
			RelevanceScore: 90,
		},
	}
	data, err := json.Marshal(records)
	require.NoError(t, err)
	path := filepath.Join(dir, "input.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func classifyJSON(t *testing.T, input string) batch.Result {
	t.Helper()
	out, err := runCLI(t, "classify", "--input", input, "--format", "json")
	require.NoError(t, err, out)
	var res batch.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	return res
}

func byID(records []model.CandidateRecord) map[string]model.CandidateRecord {
	m := make(map[string]model.CandidateRecord, len(records))
	for _, r := range records {
		m[r.ResolvedID] = r
	}
	return m
}

func TestCLI_ClassifyEndToEnd(t *testing.T) {
	dir := setupCLI(t)
	input := writeInput(t, dir)

	_, err := runCLI(t, "safety", "init")
	require.NoError(t, err)

	res := classifyJSON(t, input)
	require.Len(t, res.Records, 3)
	recs := byID(res.Records)

	assert.Equal(t, model.TierA, recs["B001"].PriorityTier)
	assert.Equal(t, 100.0, recs["B001"].Score)

	assert.Equal(t, model.TierX, recs["B002"].PriorityTier)
	require.NotNil(t, recs["B002"].SafetyVerdict)
	assert.Equal(t, model.RiskHigh, recs["B002"].SafetyVerdict.RiskLevel)

	assert.Equal(t, model.TierX, recs[""].PriorityTier)
	assert.Equal(t, "no-identifier", recs[""].ReasonCode)

	assert.Equal(t, "B001", res.Records[0].ResolvedID)
	assert.Equal(t, 3, res.Run.Processed)
	assert.Equal(t, "balanced", res.Run.Preset)
	require.NotNil(t, res.Run.Summary)
	assert.Equal(t, 1, res.Run.Summary.PerTierCount[model.TierA])
	assert.Equal(t, 2, res.Run.Summary.PerTierCount[model.TierX])

	out, err := runCLI(t, "runs", "list")
	require.NoError(t, err)
	assert.Contains(t, out, res.Run.ID[:8])
	assert.Contains(t, out, "3/3")
}

func TestCLI_ClassifyTableAndXLSX(t *testing.T) {
	dir := setupCLI(t)
	input := writeInput(t, dir)
	xlsxPath := filepath.Join(dir, "out", "results.xlsx")
	promPath := filepath.Join(dir, "relist.prom")

	out, err := runCLI(t, "classify", "--input", input, "--output", xlsxPath, "--metrics-textfile", promPath, "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "TIER")
	assert.Contains(t, out, "B001")
	assert.Contains(t, out, "Total:")
	assert.FileExists(t, xlsxPath)

	prom, err := os.ReadFile(promPath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "relist_records_classified_total")
}

func TestCLI_ClassifyRejectsBadFormat(t *testing.T) {
	dir := setupCLI(t)
	input := writeInput(t, dir)

	_, err := runCLI(t, "classify", "--input", input, "--format", "csv")
	assert.Error(t, err)

	_, err = runCLI(t, "classify", "--input", input, "--workers", "1000")
	assert.Error(t, err)
}

func TestCLI_OverridePromoteWinsOnNextRun(t *testing.T) {
	dir := setupCLI(t)
	input := writeInput(t, dir)

	_, err := runCLI(t, "safety", "init")
	require.NoError(t, err)

	out, err := runCLI(t, "override", "promote", "B002", "--note", "checked by hand")
	require.NoError(t, err)
	assert.Contains(t, out, "B002: rule -> A (approved)")

	res := classifyJSON(t, input)
	rec := byID(res.Records)["B002"]
	assert.Equal(t, model.TierA, rec.PriorityTier)
	assert.Equal(t, model.ReviewApproved, rec.ReviewStatus)
	assert.Equal(t, "override-approved", rec.ReasonCode)
	assert.Contains(t, rec.ClassificationReason, "tester")
	require.Len(t, rec.AuditTrail, 1)

	out, err = runCLI(t, "override", "reject", "B002", "--tier", "c")
	require.NoError(t, err)
	assert.Contains(t, out, "B002: A -> C (rejected)")

	out, err = runCLI(t, "override", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "B002")
	assert.Contains(t, out, "rejected")

	out, err = runCLI(t, "override", "audit", "B002")
	require.NoError(t, err)
	var trail []model.AuditEntry
	require.NoError(t, json.Unmarshal([]byte(out), &trail))
	assert.Len(t, trail, 2)

	_, err = runCLI(t, "override", "reject", "B002", "--tier", "B")
	assert.Error(t, err)
}

func TestCLI_ThresholdsLifecycle(t *testing.T) {
	dir := setupCLI(t)

	out, err := runCLI(t, "thresholds", "get", "classification.group_a_threshold")
	require.NoError(t, err)
	assert.Equal(t, "70\n", out)

	_, err = runCLI(t, "thresholds", "set", "classification.group_a_threshold", "82", "--user", "alice")
	require.NoError(t, err)

	out, err = runCLI(t, "thresholds", "get", "classification.group_a_threshold")
	require.NoError(t, err)
	assert.Equal(t, "82\n", out)

	_, err = runCLI(t, "thresholds", "preset", "aggressive")
	require.NoError(t, err)
	out, err = runCLI(t, "thresholds", "get", "classification.group_a_threshold")
	require.NoError(t, err)
	assert.Equal(t, "60\n", out)

	_, err = runCLI(t, "thresholds", "preset", "reckless")
	assert.Error(t, err)

	exportPath := filepath.Join(dir, "export.yaml")
	_, err = runCLI(t, "thresholds", "export", "--format", "yaml", "--output", exportPath)
	require.NoError(t, err)

	_, err = runCLI(t, "thresholds", "reset")
	require.NoError(t, err)
	out, err = runCLI(t, "thresholds", "get", "classification.group_a_threshold")
	require.NoError(t, err)
	assert.Equal(t, "70\n", out)

	_, err = runCLI(t, "thresholds", "import", exportPath)
	require.NoError(t, err)
	out, err = runCLI(t, "thresholds", "get", "classification.group_a_threshold")
	require.NoError(t, err)
	assert.Equal(t, "60\n", out)

	out, err = runCLI(t, "thresholds", "history")
	require.NoError(t, err)
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "preset")
	assert.Contains(t, out, "reset")
	assert.Contains(t, out, "import")
}

func TestCLI_SafetyDictionary(t *testing.T) {
	dir := setupCLI(t)

	out, err := runCLI(t, "safety", "check", "fidget", "spinner")
	require.NoError(t, err)
	assert.Contains(t, out, `"risk_level": "safe"`)

	_, err = runCLI(t, "safety", "add", "prohibited", "fidget spinner")
	require.NoError(t, err)
	out, err = runCLI(t, "safety", "add", "prohibited", "Fidget Spinner")
	require.NoError(t, err)
	assert.Contains(t, out, "already in prohibited")

	out, err = runCLI(t, "safety", "check", "blue", "fidget", "spinner")
	require.NoError(t, err)
	assert.Contains(t, out, `"risk_level": "high"`)
	assert.Contains(t, out, `"action": "exclude"`)

	_, err = runCLI(t, "safety", "init")
	assert.Error(t, err, "init must not clobber an existing dictionary")

	seed := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(seed, []byte("medical:\n  - miracle cure\n"), 0o644))
	_, err = runCLI(t, "safety", "init", "--from", seed, "--force")
	require.NoError(t, err)

	out, err = runCLI(t, "safety", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "medical")
	assert.Contains(t, out, "miracle cure")
	assert.NotContains(t, out, "fidget spinner")

	out, err = runCLI(t, "safety", "remove", "medical", "miracle cure")
	require.NoError(t, err)
	assert.Contains(t, out, "removed")
}

func TestCLI_Summarize(t *testing.T) {
	dir := setupCLI(t)
	input := writeInput(t, dir)

	_, err := runCLI(t, "safety", "init")
	require.NoError(t, err)
	res := classifyJSON(t, input)

	data, err := json.Marshal(res)
	require.NoError(t, err)
	resultPath := filepath.Join(dir, "result.json")
	require.NoError(t, os.WriteFile(resultPath, data, 0o644))

	out, err := runCLI(t, "summarize", "--input", resultPath, "--json")
	require.NoError(t, err)
	var s model.BatchSummary
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.PerTierCount[model.TierA])
	assert.Equal(t, 1, s.SafetyFlaggedCount)
}

func TestDecodeClassified_BareArray(t *testing.T) {
	records, err := decodeClassified([]byte(`[{"resolved_id":"B1","priority_tier":"B","score":66}]`))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.TierB, records[0].PriorityTier)

	_, err = decodeClassified([]byte("not json"))
	assert.Error(t, err)
}

func TestCLI_ClassifyMissingRelevance(t *testing.T) {
	dir := setupCLI(t)
	input := filepath.Join(dir, "partial.json")
	data := `[
  {"resolved_id":"B01","seller_type":"amazon","is_prime_eligible":true,"fulfillment_hours":12},
  {"resolved_id":"B02","seller_type":"amazon","is_prime_eligible":true,"fulfillment_hours":12,"relevance_score":80}
]`
	require.NoError(t, os.WriteFile(input, []byte(data), 0o644))

	res := classifyJSON(t, input)
	recs := byID(res.Records)
	assert.Equal(t, model.TierX, recs["B01"].PriorityTier)
	assert.Equal(t, "invalid-input", recs["B01"].ReasonCode)
	assert.Contains(t, recs["B01"].ClassificationReason, "relevance_score missing")
	assert.Equal(t, model.TierA, recs["B02"].PriorityTier)

	out, err := runCLI(t, "classify", "--input", input, "--strict")
	require.Error(t, err, out)
	assert.Contains(t, err.Error(), "1 invalid record(s)")
	assert.Contains(t, err.Error(), "record 1 (B01)")
	assert.Contains(t, err.Error(), "relevance_score missing")

	out, err = runCLI(t, "runs", "list")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "2/2"), "strict failure records no run")
}

func TestCLI_SafetyCorruptDictionary(t *testing.T) {
	dir := setupCLI(t)
	path := filepath.Join(dir, "data", "safety_dictionary.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`{"weapons": ["switchblade"`), 0o644))

	_, err := runCLI(t, "safety", "add", "prohibited", "fidget spinner")
	require.Error(t, err)
	_, err = runCLI(t, "safety", "init")
	require.Error(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"weapons": ["switchblade"`, string(raw))

	_, err = runCLI(t, "safety", "init", "--force")
	require.NoError(t, err)
	_, err = runCLI(t, "safety", "add", "prohibited", "fidget spinner")
	require.NoError(t, err)
}
