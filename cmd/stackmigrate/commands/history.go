package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stackmigrate/stackmigrate/pkg/stores"
)

func newHistoryCommand() *cobra.Command {
	var (
		dbPath string
		limit  int
		offset int
		runID  string
		events bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded validation runs",
		Long: `Show validation runs recorded with "validate --record".

Without arguments the most recent runs are listed. Pass --run to show a
single run in full, and --events to include its event log.`,
		Example: `  # List the last 20 runs
  stackmigrate history

  # Show a single run with its events
  stackmigrate history --run 6f1c... --events`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd.Context(), dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			if runID != "" {
				return showRun(cmd, store, runID, events)
			}

			runs, err := store.ListRuns(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(runs)
			}

			if len(runs) == 0 {
				fmt.Println("no recorded validation runs")
				return nil
			}

			for _, run := range runs {
				fmt.Printf("%s  %-24s  success=%-5t  %-11s  %s\n",
					run.ID,
					run.StackName,
					run.Success,
					run.DiffStatus,
					run.StartedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", defaultDBPath(), "history database path")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of runs to skip")
	cmd.Flags().StringVar(&runID, "run", "", "show a single run by ID")
	cmd.Flags().BoolVar(&events, "events", false, "include the run's event log (with --run)")

	return cmd
}

func showRun(cmd *cobra.Command, store stores.Store, runID string, withEvents bool) error {
	run, err := store.GetRun(cmd.Context(), runID)
	if err != nil {
		return err
	}

	var runEvents []*stores.Event
	if withEvents {
		runEvents, err = store.ListEvents(cmd.Context(), runID)
		if err != nil {
			return err
		}
	}

	if jsonOutput {
		out := struct {
			Run    *stores.ValidationRun `json:"run"`
			Events []*stores.Event       `json:"events,omitempty"`
		}{Run: run, Events: runEvents}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Printf("Run:        %s\n", run.ID)
	fmt.Printf("Stack:      %s\n", run.StackName)
	fmt.Printf("Template:   %s\n", run.TemplatePath)
	fmt.Printf("Project:    %s\n", run.ProjectDir)
	fmt.Printf("Success:    %t\n", run.Success)
	fmt.Printf("Status:     %s\n", run.DiffStatus)
	fmt.Printf("Started:    %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
	if run.CompletedAt != nil {
		fmt.Printf("Completed:  %s\n", run.CompletedAt.Format("2006-01-02 15:04:05"))
	}
	if run.ValidationErrors != "" && run.ValidationErrors != "null" && run.ValidationErrors != "[]" {
		fmt.Printf("Errors:     %s\n", run.ValidationErrors)
	}
	if run.Warnings != "" && run.Warnings != "null" && run.Warnings != "[]" {
		fmt.Printf("Warnings:   %s\n", run.Warnings)
	}
	if run.Comparison != nil {
		fmt.Printf("Comparison: %s\n", *run.Comparison)
	}

	for _, ev := range runEvents {
		fmt.Printf("  [%s] %s %s\n", ev.CreatedAt.Format("15:04:05"), ev.Level, ev.Message)
	}
	return nil
}
