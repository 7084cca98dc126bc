package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lexlab-ai/funnel/internal/domain"
)

func newLeadsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "List and move leads",
	}

	cmd.AddCommand(newLeadsListCmd())
	cmd.AddCommand(newLeadsMoveCmd())

	return cmd
}

func newLeadsListCmd() *cobra.Command {
	var stageFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List leads, most recently updated first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var (
				result []domain.Lead
				err    error
			)
			if stageFlag != "" {
				stage, parseErr := domain.ParseStage(stageFlag)
				if parseErr != nil {
					return parseErr
				}
				result, err = globalApp.leads.ListByStage(ctx, stage)
			} else {
				result, err = globalApp.leads.List(ctx)
			}
			if err != nil {
				return fmt.Errorf("listing leads: %w", err)
			}

			rows := make([][]string, 0, len(result))
			for _, lead := range result {
				rows = append(rows, []string{
					lead.ID,
					truncate(lead.FirmName, 32),
					lead.ContactName,
					string(lead.Stage),
					formatTime(lead.LastUpdated),
				})
			}
			return printOutput(os.Stdout, result, []string{"id", "firm", "contact", "stage", "updated"}, rows)
		},
	}

	cmd.Flags().StringVar(&stageFlag, "stage", "", "Only list leads in this stage (suspect, prospect, opportunity, customer)")

	return cmd
}

func newLeadsMoveCmd() *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "move <id> <stage>",
		Short: "Move a lead to another stage",
		Long: `Move a lead to another stage. The transition is recorded in the lead's
stage history and in the activity log. Moving a lead to its current stage is refused.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]

			to, err := domain.ParseStage(args[1])
			if err != nil {
				return err
			}

			lead, err := globalApp.leads.Get(ctx, id)
			if err != nil {
				return err
			}
			if lead.Stage == to {
				return fmt.Errorf("lead %s is already in stage %s", id, to)
			}

			if err := globalApp.leads.ChangeStage(ctx, id, to, lead.Stage, lead.FirmName, note); err != nil {
				return fmt.Errorf("moving lead: %w", err)
			}

			fmt.Fprintf(os.Stdout, "%s: %s -> %s\n", lead.FirmName, lead.Stage, to)
			return nil
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "Note stored with the transition")

	return cmd
}
