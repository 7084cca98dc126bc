package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lexlab-ai/funnel/internal/domain"
	"github.com/lexlab-ai/funnel/internal/report"
)

type summaryOutput struct {
	Funnel domain.FunnelMetrics `json:"funnel"`
	Weekly domain.WeeklySummary `json:"weekly"`
}

func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show funnel metrics and this week's pipeline activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := globalApp.leads.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing leads: %w", err)
			}

			out := summaryOutput{
				Funnel: report.Funnel(all),
				Weekly: report.Weekly(all, globalApp.clock.Now()),
			}

			format, err := parseOutputFormat(outputFlag)
			if err != nil {
				return err
			}
			if format == outputJSON {
				return printOutput(os.Stdout, out, nil, nil)
			}

			rows := make([][]string, 0, len(out.Funnel.Stages))
			for _, stage := range out.Funnel.Stages {
				rows = append(rows, []string{string(stage.Stage), strconv.Itoa(stage.Count), strconv.Itoa(stage.Percentage) + "%"})
			}
			if err := printTable(os.Stdout, []string{"stage", "leads", "share"}, rows); err != nil {
				return err
			}

			f := out.Funnel
			fmt.Fprintf(os.Stdout, "\nTotal: %d  Overall conversion: %.1f%%\n", f.Total, f.OverallConversionRate)
			fmt.Fprintf(os.Stdout, "Suspect -> Prospect: %.1f%%  Prospect -> Opportunity: %.1f%%  Opportunity -> Customer: %.1f%%\n",
				f.SuspectToProspectRate, f.ProspectToOpportunityRate, f.OpportunityToCustomerRate)

			w := out.Weekly
			fmt.Fprintf(os.Stdout, "\nWeek %s to %s\n", w.WeekStart.Format("Jan 2"), w.WeekEnd.Format("Jan 2"))
			fmt.Fprintf(os.Stdout, "New: %d suspects, %d prospects, %d opportunities, %d customers\n",
				w.NewSuspects, w.NewProspects, w.NewOpportunities, w.NewCustomers)
			fmt.Fprintf(os.Stdout, "Stage movements: %d\n", w.TotalMovements)
			for _, mover := range w.TopMovers {
				fmt.Fprintf(os.Stdout, "  %s: %s -> %s\n", mover.FirmName, mover.From, mover.To)
			}
			return nil
		},
	}
}
