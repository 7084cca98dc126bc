package report

import (
	"math"

	"github.com/lexlab-ai/funnel/internal/domain"
)

// Funnel computes the current stage distribution and conversion rates of leads
func Funnel(leads []domain.Lead) domain.FunnelMetrics {
	counts := make(map[domain.Stage]int, len(domain.Stages()))
	for _, lead := range leads {
		counts[lead.Stage]++
	}

	total := len(leads)
	divisor := total
	if divisor == 0 {
		divisor = 1
	}

	stages := make([]domain.StageCount, 0, len(domain.Stages()))
	for _, stage := range domain.Stages() {
		stages = append(stages, domain.StageCount{
			Stage:      stage,
			Count:      counts[stage],
			Percentage: percentage(counts[stage], divisor),
		})
	}

	suspects := counts[domain.StageSuspect]
	prospects := counts[domain.StageProspect]
	opportunities := counts[domain.StageOpportunity]
	customers := counts[domain.StageCustomer]

	return domain.FunnelMetrics{
		Total:                     total,
		Stages:                    stages,
		TotalSuspects:             suspects,
		TotalProspects:            prospects,
		TotalOpportunities:        opportunities,
		TotalCustomers:            customers,
		SuspectToProspectRate:     rate(prospects, suspects),
		ProspectToOpportunityRate: rate(opportunities, prospects),
		OpportunityToCustomerRate: rate(customers, opportunities),
		OverallConversionRate:     rate(customers, suspects),
	}
}

// percentage returns part/total*100 rounded half away from zero
func percentage(part, total int) int {
	return int(math.Round(float64(part) / float64(total) * 100))
}

// rate returns next/prev*100, or 0 when prev is 0
func rate(next, prev int) float64 {
	if prev == 0 {
		return 0
	}
	return float64(next) / float64(prev) * 100
}
