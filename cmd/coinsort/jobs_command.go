package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"coinsort/internal/jobs"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List classification jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			list, err := client.Jobs(cmd.Context())
			if err != nil {
				return err
			}

			if filter := strings.TrimSpace(statusFilter); filter != "" {
				status, ok := jobs.ParseStatus(filter)
				if !ok {
					return fmt.Errorf("unknown status %q", filter)
				}
				kept := list[:0]
				for _, job := range list {
					if job.Status == status {
						kept = append(kept, job)
					}
				}
				list = kept
			}

			out := cmd.OutOrStdout()
			if asJSON {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(list)
			}

			if len(list) == 0 {
				fmt.Fprintln(out, "No jobs")
				return nil
			}

			rows := make([][]string, 0, len(list))
			for _, job := range list {
				rows = append(rows, []string{
					shortID(job.ID.String()),
					string(job.Status),
					job.Data.DestinationName,
					truncate(job.Data.Description, 40),
					job.Data.Category,
					job.UpdatedAt.Local().Format(time.TimeOnly),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Status", "Destination", "Description", "Category", "Updated"},
				rows,
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "Only show jobs with this status (created, in_progress, finished)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit raw JSON instead of a table")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(value string, limit int) string {
	runes := []rune(strings.TrimSpace(value))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit-3]) + "..."
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
