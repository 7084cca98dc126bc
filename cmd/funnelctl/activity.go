package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lexlab-ai/funnel/internal/activity"
	"github.com/lexlab-ai/funnel/internal/domain"
)

func newActivityCmd() *cobra.Command {
	var (
		limit  int
		leadID string
	)

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show the latest activity log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var (
				entries []domain.ActivityLogEntry
				err     error
			)
			if leadID != "" {
				entries, err = globalApp.activity.ListByLead(ctx, leadID)
			} else {
				entries, err = globalApp.activity.List(ctx, limit)
			}
			if err != nil {
				return fmt.Errorf("listing activity: %w", err)
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					formatTime(entry.Timestamp),
					string(entry.Action),
					truncate(entry.FirmName, 32),
					describeMove(entry),
					truncate(entry.Note, 40),
				})
			}
			return printOutput(os.Stdout, entries, []string{"time", "action", "firm", "move", "note"}, rows)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", activity.DefaultLimit, "Number of entries to show")
	cmd.Flags().StringVar(&leadID, "lead", "", "Only show entries of this lead")

	return cmd
}

func describeMove(entry domain.ActivityLogEntry) string {
	if entry.Action != domain.ActivityActionStageChanged || entry.To == nil {
		return "-"
	}
	from := "-"
	if entry.From != nil {
		from = string(*entry.From)
	}
	return from + " -> " + string(*entry.To)
}
