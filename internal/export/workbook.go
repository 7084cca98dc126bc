package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/lexlab-ai/funnel/internal/domain"
)

const (
	LeadsSheet   = "Leads"
	HistorySheet = "History"

	// ContentType is the MIME type of the generated workbook
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	timeLayout = "2006-01-02 15:04:05"
)

var (
	leadHeaders    = []string{"ID", "Firm", "Contact", "Email", "Phone", "Stage", "Notes", "Created", "Last Updated"}
	leadColWidths  = []float64{28, 28, 20, 28, 18, 12, 48, 20, 20}
	historyHeaders = []string{"Lead ID", "Firm", "From", "To", "Timestamp", "Note"}
	historyWidths  = []float64{28, 28, 12, 12, 20, 40}
)

// Filename returns the download name of a workbook generated at t
func Filename(t time.Time) string {
	return fmt.Sprintf("leads_%s.xlsx", t.Format("20060102_150405"))
}

// LeadsWorkbook renders leads into a workbook with one row per lead
// and one row per stage transition. The caller closes the file.
func LeadsWorkbook(leads []domain.Lead) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", LeadsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(HistorySheet); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, err
	}

	if err := writeHeader(f, LeadsSheet, leadHeaders, leadColWidths, headerStyle); err != nil {
		return nil, err
	}
	if err := writeHeader(f, HistorySheet, historyHeaders, historyWidths, headerStyle); err != nil {
		return nil, err
	}

	historyRow := 2
	for i, lead := range leads {
		err := writeRow(f, LeadsSheet, i+2, []any{
			lead.ID,
			lead.FirmName,
			lead.ContactName,
			lead.Email,
			lead.Phone,
			string(lead.Stage),
			lead.Notes,
			formatTime(lead.CreatedAt),
			formatTime(lead.LastUpdated),
		})
		if err != nil {
			return nil, err
		}

		for _, transition := range lead.StageHistory {
			from := ""
			if transition.From != nil {
				from = string(*transition.From)
			}
			err := writeRow(f, HistorySheet, historyRow, []any{
				lead.ID,
				lead.FirmName,
				from,
				string(transition.To),
				formatTime(transition.Timestamp),
				transition.Note,
			})
			if err != nil {
				return nil, err
			}
			historyRow++
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

func writeHeader(f *excelize.File, sheet string, headers []string, widths []float64, style int) error {
	for i, h := range headers {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		cell := col + "1"
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, widths[i]); err != nil {
			return err
		}
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}
