package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"nexus/internal/capability"
	"nexus/internal/config"
	"nexus/internal/specialist"
)

var specialistsCmd = &cobra.Command{
	Use:   "specialists",
	Short: "List the configured specialists and their capabilities",
	RunE: func(cmd *cobra.Command, args []string) error {
		set := specialist.BuiltinSet()
		if overrides := config.FindSpecialistOverrides(); overrides != "" {
			if err := set.ApplyOverrides(overrides); err != nil {
				return fmt.Errorf("apply specialist overrides: %w", err)
			}
		}
		registry := capability.NewRegistry()

		for _, spec := range set.All() {
			fmt.Printf("%s  %s\n", color.CyanString(string(spec.Name)), spec.Description)
			if spec.Model != "" {
				fmt.Printf("  model: %s\n", spec.Model)
			}
			if names := registry.Names(spec.Name); len(names) > 0 {
				fmt.Printf("  capabilities: %s\n", strings.Join(names, ", "))
			}
			fmt.Println()
		}
		return nil
	},
}
