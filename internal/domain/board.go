package domain

// TractionMetrics are the headline counters of the public traction board
type TractionMetrics struct {
	FirmsContacted      int `json:"firms_contacted"`
	ActiveConversations int `json:"active_conversations"`
	NDAsExecuted        int `json:"ndas_executed"`
	LOIsSigned          int `json:"lois_signed"`
	UpcomingMeetings    int `json:"upcoming_meetings"`
}

// Firm is a design-partner firm listed on the traction board
type Firm struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Region    string `json:"region"`
	FocusArea string `json:"focus_area"`
	Stage     string `json:"stage"`
}

// Commitment is a signed or pending commitment such as an NDA or LOI
type Commitment struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Insight is an ordered learning shown on the board
type Insight struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Order int    `json:"order"`
}

// Milestone is an ordered goal with a free-form target date
type Milestone struct {
	ID         string `json:"id"`
	Goal       string `json:"goal"`
	TargetDate string `json:"target_date"`
	Order      int    `json:"order"`
}

// TractionBoard is everything the public traction page shows.
// Insights and milestones are sorted by Order.
type TractionBoard struct {
	Metrics     TractionMetrics `json:"metrics"`
	Firms       []Firm          `json:"firms"`
	Commitments []Commitment    `json:"commitments"`
	Insights    []Insight       `json:"insights"`
	Milestones  []Milestone     `json:"milestones"`
}
