package domain

import "time"

const (
	// LOISourcePilotForm tags entries written by the current intake form
	LOISourcePilotForm = "pilot_form_v2"
	// LOIStageProspect is the funnel stage assigned to every new intake entry
	LOIStageProspect = "prospect"
)

// LOISubmission is a completed Letter of Intent form
type LOISubmission struct {
	FirmName            string   `json:"firmName"`
	City                string   `json:"city"`
	TeamSize            string   `json:"teamSize"`
	PracticeFocus       string   `json:"practiceFocus"`
	Email               string   `json:"email"`
	Name                string   `json:"name"`
	Mobile              string   `json:"mobile"`
	Workflows           []string `json:"workflows"`
	WorkflowsOther      string   `json:"workflowsOther"`
	DocumentsPerMonth   string   `json:"documentsPerMonth"`
	PaidPilotReadiness  string   `json:"paidPilotReadiness"`
	ShareSamples        string   `json:"shareSamples"`
	ParticipationChoice string   `json:"participationChoice"`
}

// LOIEntry is a stored intake submission
type LOIEntry struct {
	ID         string        `json:"id"`
	Submission LOISubmission `json:"submission"`
	Stage      string        `json:"stage"`
	Source     string        `json:"source"`
	Timestamp  time.Time     `json:"timestamp"`
}
