package dto

import (
	"strings"

	apierrors "github.com/lexlab-ai/funnel/internal/api/shared/errors"
	"github.com/lexlab-ai/funnel/internal/domain"
)

// CreateLeadRequest represents the request body for creating a lead
type CreateLeadRequest struct {
	FirmName    string `json:"firm_name"`
	ContactName string `json:"contact_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	Stage       string `json:"stage,omitempty"`
	Notes       string `json:"notes,omitempty"`

	stage domain.Stage
}

// Validate validates the request body. An empty stage means Suspect.
func (r *CreateLeadRequest) Validate() error {
	if strings.TrimSpace(r.FirmName) == "" || strings.TrimSpace(r.ContactName) == "" {
		return apierrors.NewValidationError("firm_name and contact_name are required")
	}
	if !strings.Contains(r.Email, "@") {
		return apierrors.NewValidationError("a valid email is required")
	}

	r.stage = domain.StageSuspect
	if r.Stage != "" {
		stage, err := domain.ParseStage(r.Stage)
		if err != nil {
			return apierrors.NewValidationError(err.Error())
		}
		r.stage = stage
	}
	return nil
}

// ToInput converts a validated request
func (r *CreateLeadRequest) ToInput() domain.LeadInput {
	return domain.LeadInput{
		FirmName:    strings.TrimSpace(r.FirmName),
		ContactName: strings.TrimSpace(r.ContactName),
		Email:       strings.TrimSpace(r.Email),
		Phone:       strings.TrimSpace(r.Phone),
		Stage:       r.stage,
		Notes:       r.Notes,
	}
}

// UpdateLeadRequest represents a partial lead update. Omitted fields are kept.
type UpdateLeadRequest struct {
	FirmName    *string `json:"firm_name,omitempty"`
	ContactName *string `json:"contact_name,omitempty"`
	Email       *string `json:"email,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Notes       *string `json:"notes,omitempty"`

	// Stage is only read to reject it
	Stage *string `json:"stage,omitempty"`
}

// Validate validates the request body
func (r *UpdateLeadRequest) Validate() error {
	if r.Stage != nil {
		return apierrors.NewValidationError("stage can only be changed through the stage endpoint")
	}
	if r.ToUpdate().IsEmpty() {
		return apierrors.NewValidationError("at least one field is required")
	}
	if r.FirmName != nil && strings.TrimSpace(*r.FirmName) == "" {
		return apierrors.NewValidationError("firm_name cannot be empty")
	}
	if r.ContactName != nil && strings.TrimSpace(*r.ContactName) == "" {
		return apierrors.NewValidationError("contact_name cannot be empty")
	}
	if r.Email != nil && !strings.Contains(*r.Email, "@") {
		return apierrors.NewValidationError("a valid email is required")
	}
	return nil
}

// ToUpdate converts the request
func (r *UpdateLeadRequest) ToUpdate() domain.LeadUpdate {
	return domain.LeadUpdate{
		FirmName:    r.FirmName,
		ContactName: r.ContactName,
		Email:       r.Email,
		Phone:       r.Phone,
		Notes:       r.Notes,
	}
}

// ChangeStageRequest moves a lead from the stage the caller last saw to a new one
type ChangeStageRequest struct {
	From     string `json:"from"`
	To       string `json:"to"`
	FirmName string `json:"firm_name,omitempty"`
	Note     string `json:"note,omitempty"`

	from domain.Stage
	to   domain.Stage
}

// Validate validates the request body. Moving a lead to the stage it is
// already in is rejected so that it does not reach the store.
func (r *ChangeStageRequest) Validate() error {
	from, err := domain.ParseStage(r.From)
	if err != nil {
		return apierrors.NewValidationError("from: " + err.Error())
	}
	to, err := domain.ParseStage(r.To)
	if err != nil {
		return apierrors.NewValidationError("to: " + err.Error())
	}
	if from == to {
		return apierrors.NewValidationError("lead is already in stage " + string(to))
	}
	r.from, r.to = from, to
	return nil
}

// Stages returns the validated source and target stages
func (r *ChangeStageRequest) Stages() (domain.Stage, domain.Stage) {
	return r.from, r.to
}

// SubmitLOIRequest is the public Letter of Intent form
type SubmitLOIRequest struct {
	domain.LOISubmission
}

// Validate applies the form's required-field rules
func (r *SubmitLOIRequest) Validate() error {
	s := r.LOISubmission
	if strings.TrimSpace(s.FirmName) == "" ||
		strings.TrimSpace(s.City) == "" ||
		s.TeamSize == "" ||
		strings.TrimSpace(s.PracticeFocus) == "" {
		return apierrors.NewValidationError("Please complete all required fields")
	}
	if !strings.Contains(s.Email, "@") ||
		strings.TrimSpace(s.Name) == "" ||
		strings.TrimSpace(s.Mobile) == "" {
		return apierrors.NewValidationError("Please complete all required fields")
	}
	if len(s.Workflows) == 0 {
		return apierrors.NewValidationError("Please select at least one workflow")
	}
	if s.PaidPilotReadiness == "" {
		return apierrors.NewValidationError("Please answer the question")
	}
	if s.ParticipationChoice == "" {
		return apierrors.NewValidationError("Please select a participation option")
	}
	return nil
}

// LoginRequest carries the admin credentials
type LoginRequest struct {
	Email string `json:"email"`
	PIN   string `json:"pin"`
}

// Validate validates the request body
func (r *LoginRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" || r.PIN == "" {
		return apierrors.NewValidationError("email and pin are required")
	}
	return nil
}

// SaveMetricsRequest replaces the traction board counters
type SaveMetricsRequest struct {
	domain.TractionMetrics
}

// Validate rejects negative counters
func (r *SaveMetricsRequest) Validate() error {
	m := r.TractionMetrics
	for _, v := range []int{m.FirmsContacted, m.ActiveConversations, m.NDAsExecuted, m.LOIsSigned, m.UpcomingMeetings} {
		if v < 0 {
			return apierrors.NewValidationError("metrics cannot be negative")
		}
	}
	return nil
}

// FirmRequest creates or replaces a board firm
type FirmRequest struct {
	Name      string `json:"name"`
	Region    string `json:"region"`
	FocusArea string `json:"focus_area"`
	Stage     string `json:"stage"`
}

// Validate requires every field
func (r *FirmRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" || strings.TrimSpace(r.Stage) == "" ||
		strings.TrimSpace(r.Region) == "" || strings.TrimSpace(r.FocusArea) == "" {
		return apierrors.NewValidationError("Please fill all firm fields")
	}
	return nil
}

func (r *FirmRequest) ToFirm(id string) domain.Firm {
	return domain.Firm{
		ID:        id,
		Name:      strings.TrimSpace(r.Name),
		Region:    strings.TrimSpace(r.Region),
		FocusArea: strings.TrimSpace(r.FocusArea),
		Stage:     strings.TrimSpace(r.Stage),
	}
}

// CommitmentRequest creates or replaces a board commitment
type CommitmentRequest struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

func (r *CommitmentRequest) Validate() error {
	if strings.TrimSpace(r.Type) == "" || strings.TrimSpace(r.Description) == "" {
		return apierrors.NewValidationError("Please fill all commitment fields")
	}
	return nil
}

func (r *CommitmentRequest) ToCommitment(id string) domain.Commitment {
	return domain.Commitment{ID: id, Type: strings.TrimSpace(r.Type), Description: strings.TrimSpace(r.Description)}
}

// InsightRequest creates or replaces a board insight. A missing order means 1.
type InsightRequest struct {
	Text  string `json:"text"`
	Order int    `json:"order"`
}

func (r *InsightRequest) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return apierrors.NewValidationError("Please enter insight text")
	}
	return nil
}

func (r *InsightRequest) ToInsight(id string) domain.Insight {
	return domain.Insight{ID: id, Text: strings.TrimSpace(r.Text), Order: defaultOrder(r.Order)}
}

// MilestoneRequest creates or replaces a board milestone. A missing order means 1.
type MilestoneRequest struct {
	Goal       string `json:"goal"`
	TargetDate string `json:"target_date"`
	Order      int    `json:"order"`
}

func (r *MilestoneRequest) Validate() error {
	if strings.TrimSpace(r.Goal) == "" || strings.TrimSpace(r.TargetDate) == "" {
		return apierrors.NewValidationError("Please fill all milestone fields")
	}
	return nil
}

func (r *MilestoneRequest) ToMilestone(id string) domain.Milestone {
	return domain.Milestone{
		ID:         id,
		Goal:       strings.TrimSpace(r.Goal),
		TargetDate: strings.TrimSpace(r.TargetDate),
		Order:      defaultOrder(r.Order),
	}
}

func defaultOrder(order int) int {
	if order <= 0 {
		return 1
	}
	return order
}
