package report

import (
	"time"

	"github.com/lexlab-ai/funnel/internal/domain"
)

// MaxTopMovers caps the movers listed in a weekly summary
const MaxTopMovers = 5

// WeekBounds returns Monday 00:00 and Sunday 23:59:59.999 of the week containing now, in now's location
func WeekBounds(now time.Time) (time.Time, time.Time) {
	// Monday is day 0
	offset := (int(now.Weekday()) + 6) % 7
	y, m, d := now.Date()
	start := time.Date(y, m, d-offset, 0, 0, 0, 0, now.Location())
	end := time.Date(y, m, d-offset+6, 23, 59, 59, int(999*time.Millisecond), now.Location())
	return start, end
}

// Weekly summarises the week containing now. New leads are counted by their
// current stage; movements are transitions with a source stage.
func Weekly(leads []domain.Lead, now time.Time) domain.WeeklySummary {
	start, end := WeekBounds(now)
	summary := domain.WeeklySummary{
		WeekStart: start,
		WeekEnd:   end,
		TopMovers: []domain.Mover{},
	}

	for _, lead := range leads {
		if within(lead.CreatedAt, start, end) {
			switch lead.Stage {
			case domain.StageSuspect:
				summary.NewSuspects++
			case domain.StageProspect:
				summary.NewProspects++
			case domain.StageOpportunity:
				summary.NewOpportunities++
			case domain.StageCustomer:
				summary.NewCustomers++
			}
		}

		for _, transition := range lead.StageHistory {
			if transition.From == nil || !within(transition.Timestamp, start, end) {
				continue
			}
			summary.TotalMovements++
			if len(summary.TopMovers) < MaxTopMovers {
				summary.TopMovers = append(summary.TopMovers, domain.Mover{
					FirmName: lead.FirmName,
					From:     *transition.From,
					To:       transition.To,
				})
			}
		}
	}

	return summary
}

func within(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}
