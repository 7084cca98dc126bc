package leads

import (
	"github.com/lexlab-ai/funnel/internal/domain"
	"github.com/lexlab-ai/funnel/internal/store"
)

// leadDocument is the persisted form of a lead in the leads collection
type leadDocument struct {
	FirmName     string               `json:"firmName"`
	ContactName  string               `json:"contactName"`
	Email        string               `json:"email"`
	Phone        string               `json:"phone,omitempty"`
	Stage        domain.Stage         `json:"stage"`
	Notes        string               `json:"notes"`
	CreatedAt    store.Timestamp      `json:"createdAt"`
	LastUpdated  store.Timestamp      `json:"lastUpdated"`
	StageHistory []transitionDocument `json:"stageHistory"`
}

type transitionDocument struct {
	From      *domain.Stage   `json:"from"`
	To        domain.Stage    `json:"to"`
	Timestamp store.Timestamp `json:"timestamp"`
	Note      string          `json:"note,omitempty"`
}

// toLead converts a stored document. Missing strings stay empty,
// a missing stage reads as Suspect and a missing history as empty.
func toLead(doc store.Document) (domain.Lead, error) {
	var d leadDocument
	if err := doc.DataTo(&d); err != nil {
		return domain.Lead{}, err
	}

	stage := d.Stage
	if stage == "" {
		stage = domain.StageSuspect
	}

	history := make([]domain.StageTransition, 0, len(d.StageHistory))
	for _, h := range d.StageHistory {
		history = append(history, domain.StageTransition{
			From:      h.From,
			To:        h.To,
			Timestamp: h.Timestamp.Time(),
			Note:      h.Note,
		})
	}

	return domain.Lead{
		ID:           doc.ID,
		FirmName:     d.FirmName,
		ContactName:  d.ContactName,
		Email:        d.Email,
		Phone:        d.Phone,
		Stage:        stage,
		Notes:        d.Notes,
		CreatedAt:    d.CreatedAt.Time(),
		LastUpdated:  d.LastUpdated.Time(),
		StageHistory: history,
	}, nil
}

func toTransitionDocument(t domain.StageTransition) transitionDocument {
	return transitionDocument{
		From:      t.From,
		To:        t.To,
		Timestamp: store.NewTimestamp(t.Timestamp),
		Note:      t.Note,
	}
}
