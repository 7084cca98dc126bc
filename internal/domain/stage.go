package domain

import (
	"fmt"
	"strings"
)

// Stage is a position in the sales pipeline
type Stage string

const (
	StageSuspect     Stage = "Suspect"
	StageProspect    Stage = "Prospect"
	StageOpportunity Stage = "Opportunity"
	StageCustomer    Stage = "Customer"
)

// Stages returns all stages in pipeline order
func Stages() []Stage {
	return []Stage{StageSuspect, StageProspect, StageOpportunity, StageCustomer}
}

// Valid checks if the stage is one of the four pipeline stages
func (s Stage) Valid() bool {
	switch s {
	case StageSuspect, StageProspect, StageOpportunity, StageCustomer:
		return true
	}
	return false
}

// ParseStage parses a stage name case-insensitively
func ParseStage(value string) (Stage, error) {
	for _, stage := range Stages() {
		if strings.EqualFold(string(stage), strings.TrimSpace(value)) {
			return stage, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStage, value)
}

// StagePtr returns a pointer to the given stage
func StagePtr(s Stage) *Stage {
	return &s
}
