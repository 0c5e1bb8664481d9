package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	flagUserID   string
	flagUserRole string
)

var rootCmd = &cobra.Command{
	Use:   "nexus",
	Short: "Multi-specialist query orchestrator for energy operations",
	Long: `Nexus routes operational questions to domain specialists and
synthesizes their findings into one answer.

A router classifies each query against upstream production, logistics,
and finance domains. The matching specialists investigate in parallel
with their own data capabilities, and a synthesizer combines their
outputs when more than one contributed.

With no arguments, launches an interactive chat session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagUserID, "user", "cli", "User ID attached to run records")
	rootCmd.PersistentFlags().StringVar(&flagUserRole, "role", "analyst", "User role attached to run records")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(specialistsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
