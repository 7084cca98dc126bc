package domain

import "time"

// ActivityAction is the kind of lead mutation an activity entry records
type ActivityAction string

const (
	ActivityActionCreated      ActivityAction = "created"
	ActivityActionUpdated      ActivityAction = "updated"
	ActivityActionStageChanged ActivityAction = "stage_changed"
)

// ActivityLogEntry is an append-only audit record of a lead mutation.
// FirmName is a copy taken at write time, not a live join.
type ActivityLogEntry struct {
	ID        string         `json:"id"`
	LeadID    string         `json:"lead_id"`
	FirmName  string         `json:"firm_name"`
	Action    ActivityAction `json:"action"`
	From      *Stage         `json:"from,omitempty"` // only for stage_changed
	To        *Stage         `json:"to,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Note      string         `json:"note,omitempty"`
}
