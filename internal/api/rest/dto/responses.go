package dto

import (
	"time"

	"github.com/lexlab-ai/funnel/internal/domain"
)

// LeadListResponse wraps a list of leads
type LeadListResponse struct {
	Leads []domain.Lead `json:"leads"`
	Total int           `json:"total"`
}

// CreatedResponse returns the id of a new document
type CreatedResponse struct {
	ID string `json:"id"`
}

// ActivityListResponse wraps activity entries, newest first
type ActivityListResponse struct {
	Entries []domain.ActivityLogEntry `json:"entries"`
}

// LOIEntryListResponse wraps intake entries, newest first
type LOIEntryListResponse struct {
	Entries []domain.LOIEntry `json:"entries"`
}

// SubmitLOIResponse identifies the stored intake entry and its lead
type SubmitLOIResponse struct {
	EntryID string `json:"entry_id"`
	LeadID  string `json:"lead_id,omitempty"`
}

// TractionResponse is the public funnel
type TractionResponse struct {
	Stages []domain.TractionStage `json:"stages"`
}

// SessionResponse describes the current admin session
type SessionResponse struct {
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
	Token     string    `json:"token,omitempty"`
}

// SeedResponse reports how many sample leads were created
type SeedResponse struct {
	Created int `json:"created"`
}
