package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Running:      %s\n", yesNo(status.Running))
			fmt.Fprintf(out, "PID:          %d\n", status.PID)
			fmt.Fprintf(out, "Bind:         %s\n", status.Bind)
			fmt.Fprintf(out, "Lock file:    %s\n", status.LockFilePath)
			fmt.Fprintf(out, "Queue depth:  %d\n", status.QueueDepth)
			fmt.Fprintf(out, "Subscribers:  %d\n", status.Subscribers)

			if len(status.JobCounts) > 0 {
				fmt.Fprintln(out, "Jobs:")
				names := make([]string, 0, len(status.JobCounts))
				for name := range status.JobCounts {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					fmt.Fprintf(out, "  %-12s %d\n", name+":", status.JobCounts[name])
				}
			}
			return nil
		},
	}
}
