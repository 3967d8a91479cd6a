package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/go-band-notify/internal/application/delivery"
	"github.com/spf13/cobra"
)

func cycleCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "cycle",
		Short: "Run one delivery cycle and print its report (for cron)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.cycle(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

// cycle always exits zero. A backend that cannot be reached is reported as
// an empty cycle; the rows stay pending for the next run.
func (c *cli) cycle(ctx context.Context, out io.Writer) error {
	report := delivery.Report{Status: delivery.StatusOK}
	a, err := buildApp(ctx, c.cfg, c.log, nil)
	if err != nil {
		c.log.Error("delivery cycle skipped, backend unavailable", "err", err)
	} else {
		defer a.Close()
		report = a.worker.RunCycle(ctx)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
