package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/lexlab-ai/funnel/internal/domain"
)

func TestLeadsWorkbook(t *testing.T) {
	created := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	moved := created.Add(26 * time.Hour)
	leads := []domain.Lead{
		{
			ID:          "lead-1",
			FirmName:    "Acme Legal",
			ContactName: "J Doe",
			Email:       "j@acme.com",
			Stage:       domain.StageProspect,
			Notes:       "responded",
			CreatedAt:   created,
			LastUpdated: moved,
			StageHistory: []domain.StageTransition{
				{To: domain.StageSuspect, Timestamp: created, Note: "Lead created"},
				{From: domain.StagePtr(domain.StageSuspect), To: domain.StageProspect, Timestamp: moved, Note: "responded"},
			},
		},
		{
			ID:          "lead-2",
			FirmName:    "Globex",
			Phone:       "+1 (555) 234-5678",
			Stage:       domain.StageSuspect,
			CreatedAt:   created,
			LastUpdated: created,
			StageHistory: []domain.StageTransition{
				{To: domain.StageSuspect, Timestamp: created, Note: "Lead created"},
			},
		},
	}

	f, err := LeadsWorkbook(leads)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{LeadsSheet, HistorySheet}, f.GetSheetList())

	rows, err := f.GetRows(LeadsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, leadHeaders, rows[0])
	assert.Equal(t, []string{"lead-1", "Acme Legal", "J Doe", "j@acme.com", "", "Prospect", "responded", "2026-03-02 09:00:00", "2026-03-03 11:00:00"}, rows[1])
	assert.Equal(t, "+1 (555) 234-5678", rows[2][4])

	history, err := f.GetRows(HistorySheet)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, historyHeaders, history[0])
	assert.Equal(t, []string{"lead-1", "Acme Legal", "", "Suspect", "2026-03-02 09:00:00", "Lead created"}, history[1])
	assert.Equal(t, []string{"lead-1", "Acme Legal", "Suspect", "Prospect", "2026-03-03 11:00:00", "responded"}, history[2])
	assert.Equal(t, "lead-2", history[3][0])

	// the file round-trips through its binary form
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	reopened, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer reopened.Close()
	value, err := reopened.GetCellValue(LeadsSheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "Acme Legal", value)
}

func TestLeadsWorkbook_Empty(t *testing.T) {
	f, err := LeadsWorkbook(nil)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(LeadsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, leadHeaders, rows[0])
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "leads_20260302_090000.xlsx", Filename(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)))
}
