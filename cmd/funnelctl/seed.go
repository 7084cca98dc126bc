package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lexlab-ai/funnel/internal/seed"
)

func newSeedCmd() *cobra.Command {
	var delay time.Duration

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the sample leads",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("delay") {
				delay = globalApp.cfg.Seed.Delay
			}

			created, err := seed.Seed(cmd.Context(), globalApp.leads, globalApp.clock, delay)
			fmt.Fprintf(os.Stdout, "Created %d of %d sample leads\n", created, len(seed.SampleLeads()))
			return err
		},
	}

	cmd.Flags().DurationVar(&delay, "delay", 0, "Pause between leads (defaults to seed.delay from the config)")

	return cmd
}
