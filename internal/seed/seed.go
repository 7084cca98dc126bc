package seed

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lexlab-ai/funnel/internal/adapter"
	"github.com/lexlab-ai/funnel/internal/domain"
	"github.com/lexlab-ai/funnel/internal/leads"
	"github.com/lexlab-ai/funnel/internal/logger"
)

// SampleLeads returns the demo pipeline
func SampleLeads() []domain.LeadInput {
	return []domain.LeadInput{
		{
			FirmName:    "Acme Legal Partners",
			ContactName: "John Doe",
			Email:       "john@acmelegal.com",
			Phone:       "+1 (555) 123-4567",
			Stage:       domain.StageCustomer,
			Notes:       "First pilot partner - actively testing document automation",
		},
		{
			FirmName:    "Globex Corporation Legal",
			ContactName: "Jane Smith",
			Email:       "jane@globex.com",
			Phone:       "+1 (555) 234-5678",
			Stage:       domain.StageOpportunity,
			Notes:       "Signed LOI - starting pilot next week",
		},
		{
			FirmName:    "Stark Industries Legal",
			ContactName: "Tony Stark",
			Email:       "tony@stark.com",
			Stage:       domain.StageOpportunity,
			Notes:       "Very interested in contract review automation",
		},
		{
			FirmName:    "Wayne Enterprises Law",
			ContactName: "Bruce Wayne",
			Email:       "bruce@wayne.com",
			Phone:       "+1 (555) 456-7890",
			Stage:       domain.StageProspect,
			Notes:       "Responded positively, scheduling demo call",
		},
		{
			FirmName:    "Umbrella Legal Services",
			ContactName: "Alice Johnson",
			Email:       "alice@umbrella.com",
			Stage:       domain.StageProspect,
			Notes:       "Interested in AI research capabilities",
		},
		{
			FirmName:    "Oscorp Legal Department",
			ContactName: "Norman Osborn",
			Email:       "norman@oscorp.com",
			Stage:       domain.StageSuspect,
			Notes:       "Initial outreach sent, no response yet",
		},
		{
			FirmName:    "Cyberdyne Systems Legal",
			ContactName: "Miles Dyson",
			Email:       "miles@cyberdyne.com",
			Phone:       "+1 (555) 789-0123",
			Stage:       domain.StageSuspect,
			Notes:       "Potential fit for litigation support",
		},
		{
			FirmName:    "Weyland-Yutani Legal",
			ContactName: "Carter Burke",
			Email:       "carter@weyland.com",
			Stage:       domain.StageProspect,
			Notes:       "Expressed interest in compliance automation",
		},
	}
}

// Seed creates the sample leads one at a time, pausing delay between them.
// It stops at the first failure and returns how many leads were created.
func Seed(ctx context.Context, svc leads.Service, clock adapter.Clock, delay time.Duration) (int, error) {
	samples := SampleLeads()
	created := 0

	for i, input := range samples {
		if _, err := svc.Create(ctx, input); err != nil {
			logger.WarnCtx(ctx, "Seeding stopped",
				zap.Int("created", created),
				zap.String("firm_name", input.FirmName),
				zap.Error(err))
			return created, fmt.Errorf("seeded %d of %d leads: %w", created, len(samples), err)
		}
		created++
		logger.DebugCtx(ctx, "Seeded lead", zap.String("firm_name", input.FirmName))

		if delay > 0 && i < len(samples)-1 {
			select {
			case <-ctx.Done():
				return created, ctx.Err()
			case <-clock.After(delay):
			}
		}
	}

	logger.InfoCtx(ctx, "Seeded sample leads", zap.Int("count", created))
	return created, nil
}
