package sheet

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/relist-cli/internal/model"
)

// ResultColumns is the header of the results worksheet.
var ResultColumns = []string{
	ColResolvedID, ColTitleText, ColExtractedBrand, ColSellerType, ColIsPrimeEligible,
	ColFulfillmentHours, ColRelevanceScore,
	"score", "priority_tier", "reason_code", "classification_reason",
	"safety_risk", "safety_action", "safety_terms", "review_status",
}

// WriteResults saves records to path as an XLSX workbook with a "results"
// sheet and, when summary is non-nil, a "summary" sheet.
func WriteResults(path string, records []model.CandidateRecord, summary *model.BatchSummary) error {
	f := xlsx.NewFile()

	sh, err := f.AddSheet("results")
	if err != nil {
		return eris.Wrap(err, "sheet: add results sheet")
	}
	addStrings(sh.AddRow(), ResultColumns...)
	for i := range records {
		writeRecord(sh.AddRow(), &records[i])
	}

	if summary != nil {
		if err := writeSummary(f, summary); err != nil {
			return err
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "sheet: save %s", path)
	}
	return nil
}

func writeRecord(row *xlsx.Row, r *model.CandidateRecord) {
	addStrings(row, r.ResolvedID, r.TitleText, r.ExtractedBrand, string(r.SellerType))
	row.AddCell().SetBool(r.IsPrimeEligible)
	if r.FulfillmentHours != nil {
		row.AddCell().SetFloat(*r.FulfillmentHours)
	} else {
		row.AddCell()
	}
	row.AddCell().SetFloat(r.RelevanceScore)
	row.AddCell().SetFloat(r.Score)
	addStrings(row, string(r.PriorityTier), r.ReasonCode, r.ClassificationReason)

	risk, action, terms := "", "", ""
	if v := r.SafetyVerdict; v != nil {
		risk, action, terms = string(v.RiskLevel), string(v.Action), strings.Join(v.MatchedTerms, ", ")
	}
	addStrings(row, risk, action, terms, string(r.ReviewStatus))
}

func writeSummary(f *xlsx.File, s *model.BatchSummary) error {
	sh, err := f.AddSheet("summary")
	if err != nil {
		return eris.Wrap(err, "sheet: add summary sheet")
	}
	addStrings(sh.AddRow(), "metric", "value")

	metric := func(name string, v float64) {
		row := sh.AddRow()
		addStrings(row, name)
		row.AddCell().SetFloat(v)
	}
	metric("total", float64(s.Total))
	metric("processed_count", float64(s.ProcessedCount))
	metric("progress", s.Progress)
	for _, t := range model.Tiers() {
		metric(fmt.Sprintf("tier_%s_count", t), float64(s.PerTierCount[t]))
		metric(fmt.Sprintf("tier_%s_rate", t), s.PerTierRate[t])
	}
	metric("average_score", s.AverageScore)
	metric("safety_flagged_count", float64(s.SafetyFlaggedCount))
	metric("prime_eligible_rate", s.PrimeEligibleRate)
	for _, r := range model.RiskLevels() {
		metric("risk_"+string(r), float64(s.RiskLevelCounts[r]))
	}
	return nil
}

func addStrings(row *xlsx.Row, values ...string) {
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}
