package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"nexus/internal/config"
	"nexus/internal/state"
	"nexus/pkg/models"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show recent runs",
	Long: `List recent runs, or show the full record for one run ID.

Run records include the routing decision, the specialists involved,
token usage, and the final response.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if cfg.Storage.Disabled {
			return fmt.Errorf("run history is disabled in configuration")
		}

		path := cfg.Storage.Path
		if path == "" {
			path = state.DefaultDBPath()
		}
		db, err := state.Open(path)
		if err != nil {
			return fmt.Errorf("open run history: %w", err)
		}
		defer db.Close()

		if len(args) == 1 {
			return showRun(db, args[0])
		}
		return listRuns(db)
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of runs to list")
}

func listRuns(db *state.DB) error {
	runs, err := db.ListRuns(historyLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	for _, r := range runs {
		statusCol := color.GreenString
		switch r.Status {
		case models.RunFailed:
			statusCol = color.RedString
		case models.RunClarification:
			statusCol = color.YellowString
		}

		query := r.Query
		if len(query) > 60 {
			query = query[:57] + "..."
		}
		fmt.Printf("%s  %s  %-13s %-19s %s\n",
			color.CyanString(r.ID),
			r.StartedAt.Format("2006-01-02 15:04"),
			statusCol(string(r.Status)),
			r.Routing,
			query)
	}
	return nil
}

func showRun(db *state.DB, id string) error {
	r, err := db.GetRun(id)
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}
	if r == nil {
		return fmt.Errorf("no run with ID %s", id)
	}

	names := make([]string, len(r.Specialists))
	for i, n := range r.Specialists {
		names[i] = fmt.Sprintf("%s (%d iterations)", n, r.Iterations[n])
	}

	fmt.Printf("%s %s\n", color.CyanString("run:"), r.ID)
	fmt.Printf("%s %s\n", color.CyanString("started:"), r.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("%s %s (%s)\n", color.CyanString("user:"), r.UserID, r.UserRole)
	fmt.Printf("%s %s\n", color.CyanString("query:"), r.Query)
	fmt.Printf("%s %s\n", color.CyanString("routing:"), r.Routing)
	if len(names) > 0 {
		fmt.Printf("%s %s\n", color.CyanString("specialists:"), strings.Join(names, ", "))
	}
	fmt.Printf("%s %s", color.CyanString("status:"), r.Status)
	if r.Degraded {
		fmt.Print(" (degraded)")
	}
	fmt.Println()
	fmt.Printf("%s %d in / %d out\n", color.CyanString("tokens:"), r.TokensIn, r.TokensOut)
	fmt.Printf("%s %s\n\n", color.CyanString("duration:"), r.Duration)
	fmt.Println(r.FinalResponse)
	return nil
}
