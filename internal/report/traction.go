package report

import (
	"strings"

	"github.com/lexlab-ai/funnel/internal/domain"
)

// Traction computes the public cumulative funnel from intake entries.
// Entries without a stage count as prospects and unknown stages are ignored.
func Traction(entries []domain.LOIEntry) []domain.TractionStage {
	counts := map[string]int{
		"lead":        0,
		"prospect":    0,
		"opportunity": 0,
		"customer":    0,
	}
	for _, entry := range entries {
		stage := strings.ToLower(entry.Stage)
		if stage == "" {
			stage = domain.LOIStageProspect
		}
		if _, ok := counts[stage]; ok {
			counts[stage]++
		}
	}

	total := counts["lead"] + counts["prospect"] + counts["opportunity"] + counts["customer"]
	divisor := total
	if divisor == 0 {
		divisor = 1
	}

	customers := counts["customer"]
	opportunities := counts["opportunity"] + customers
	prospects := counts["prospect"] + opportunities

	return []domain.TractionStage{
		{Stage: "Leads", Description: "Firms contacted", Count: total, Percentage: 100},
		{Stage: "Prospects", Description: "Responded / Interested", Count: prospects, Percentage: percentage(prospects, divisor)},
		{Stage: "Opportunities", Description: "Signed LOIs / Confirmed Interest", Count: opportunities, Percentage: percentage(opportunities, divisor)},
		{Stage: "Customers", Description: "Active Pilot Partners", Count: customers, Percentage: percentage(customers, divisor)},
	}
}
