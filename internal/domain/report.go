package domain

import "time"

// StageCount is the number of leads currently in a stage and its rounded share of all leads
type StageCount struct {
	Stage      Stage `json:"stage"`
	Count      int   `json:"count"`
	Percentage int   `json:"percentage"`
}

// FunnelMetrics summarises the current distribution of leads across stages
type FunnelMetrics struct {
	Total                     int          `json:"total"`
	Stages                    []StageCount `json:"stages"`
	TotalSuspects             int          `json:"total_suspects"`
	TotalProspects            int          `json:"total_prospects"`
	TotalOpportunities        int          `json:"total_opportunities"`
	TotalCustomers            int          `json:"total_customers"`
	SuspectToProspectRate     float64      `json:"suspect_to_prospect_rate"`
	ProspectToOpportunityRate float64      `json:"prospect_to_opportunity_rate"`
	OpportunityToCustomerRate float64      `json:"opportunity_to_customer_rate"`
	OverallConversionRate     float64      `json:"overall_conversion_rate"`
}

// Mover is a lead that changed stage during the summary window
type Mover struct {
	FirmName string `json:"firm_name"`
	From     Stage  `json:"from"`
	To       Stage  `json:"to"`
}

// WeeklySummary aggregates pipeline activity for one Monday-to-Sunday week
type WeeklySummary struct {
	WeekStart        time.Time `json:"week_start"`
	WeekEnd          time.Time `json:"week_end"`
	NewSuspects      int       `json:"new_suspects"`
	NewProspects     int       `json:"new_prospects"`
	NewOpportunities int       `json:"new_opportunities"`
	NewCustomers     int       `json:"new_customers"`
	TotalMovements   int       `json:"total_movements"`
	TopMovers        []Mover   `json:"top_movers"`
}

// TractionStage is one row of the public traction funnel.
// Counts are cumulative: a customer is also counted as an opportunity and a prospect.
type TractionStage struct {
	Stage       string `json:"stage"`
	Description string `json:"description"`
	Count       int    `json:"count"`
	Percentage  int    `json:"percentage"`
}
