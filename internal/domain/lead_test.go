package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLead_Matches(t *testing.T) {
	lead := &Lead{FirmName: "Acme Legal", ContactName: "Jane Doe", Email: "jane@acme.com"}

	tests := []struct {
		term string
		want bool
	}{
		{"", true},
		{"  ", true},
		{"acme", true},
		{"LEGAL", true},
		{"doe", true},
		{"@acme.com", true},
		{" jane ", true},
		{"baker", false},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			assert.Equal(t, tt.want, lead.Matches(tt.term))
		})
	}
}
