package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"nexus/internal/config"
	"nexus/internal/orchestrator"
	"nexus/pkg/models"
)

var askVerbose bool

var askCmd = &cobra.Command{
	Use:   "ask [query]",
	Short: "Run a single query and print the answer",
	Long: `Run one query through routing, specialist investigation, and
synthesis, then print the final answer.

Examples:
  nexus ask "What is today's production at Block Rokan?"
  nexus ask "Where is MT Nusantara Prime and what does a delay cost us?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAsk(strings.Join(args, " "))
	},
}

func init() {
	askCmd.Flags().BoolVarP(&askVerbose, "verbose", "v", false, "Show routing and per-specialist details")
}

func runAsk(query string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	rt, err := buildRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	result, err := rt.orch.Run(ctx, query, flagUserID, flagUserRole)
	if result == nil {
		return err
	}
	if errors.Is(err, orchestrator.ErrAllSpecialistsFailed) {
		printResult(result)
		rt.Close()
		os.Exit(1)
	}

	printResult(result)
	return nil
}

func printResult(result *models.RunResult) {
	if askVerbose {
		fmt.Printf("%s %s\n", color.CyanString("routing:"), result.RoutingDecision)
		for _, name := range result.SpecialistsInvolved {
			line := fmt.Sprintf("%s (%d iterations)", name, result.Iterations[name])
			fmt.Printf("%s %s\n", color.CyanString("specialist:"), line)
		}
		if result.TokensIn > 0 || result.TokensOut > 0 {
			fmt.Printf("%s %d in / %d out\n", color.CyanString("tokens:"), result.TokensIn, result.TokensOut)
		}
		fmt.Printf("%s %s\n\n", color.CyanString("duration:"), result.Duration.Round(10*time.Millisecond))
	}

	switch result.Status {
	case models.RunFailed:
		fmt.Printf("%s %s\n", color.RedString("✗"), result.FinalResponse)
	case models.RunClarification:
		fmt.Printf("%s %s\n", color.YellowString("?"), result.FinalResponse)
	default:
		if result.Degraded {
			fmt.Printf("%s partial answer (some specialists degraded)\n", color.YellowString("⚠"))
		}
		fmt.Println(result.FinalResponse)
	}
}
