package domain

import (
	"strings"
	"time"
)

// StageTransition is one immutable edge in a lead's stage history.
// From is nil for the creation event.
type StageTransition struct {
	From      *Stage    `json:"from"`
	To        Stage     `json:"to"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
}

// Lead represents a tracked business relationship with a law firm
type Lead struct {
	ID           string            `json:"id"`
	FirmName     string            `json:"firm_name"`
	ContactName  string            `json:"contact_name"`
	Email        string            `json:"email"`
	Phone        string            `json:"phone,omitempty"`
	Stage        Stage             `json:"stage"`
	Notes        string            `json:"notes"`
	CreatedAt    time.Time         `json:"created_at"`
	LastUpdated  time.Time         `json:"last_updated"`
	StageHistory []StageTransition `json:"stage_history"`
}

// LastTransition returns the most recent history entry, or nil when the history is empty
func (l *Lead) LastTransition() *StageTransition {
	if len(l.StageHistory) == 0 {
		return nil
	}
	return &l.StageHistory[len(l.StageHistory)-1]
}

// Matches reports whether term appears in the firm name, contact name or email,
// ignoring case. An empty term matches every lead.
func (l *Lead) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(l.FirmName), term) ||
		strings.Contains(strings.ToLower(l.ContactName), term) ||
		strings.Contains(strings.ToLower(l.Email), term)
}

// LeadInput holds the fields required to create a lead
type LeadInput struct {
	FirmName    string
	ContactName string
	Email       string
	Phone       string // optional
	Stage       Stage
	Notes       string
}

// LeadUpdate holds a partial set of lead fields. Nil fields are left untouched.
// Stage is deliberately absent: stage changes go through the stage operation.
type LeadUpdate struct {
	FirmName    *string
	ContactName *string
	Email       *string
	Phone       *string
	Notes       *string
}

// IsEmpty reports whether no field is set
func (u LeadUpdate) IsEmpty() bool {
	return u.FirmName == nil && u.ContactName == nil && u.Email == nil && u.Phone == nil && u.Notes == nil
}
