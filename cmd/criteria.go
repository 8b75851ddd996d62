package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joescharf/adreview/internal/criteria"
)

var criteriaCmd = &cobra.Command{
	Use:   "criteria",
	Short: "Show the configured review criteria and rating scale",
	RunE: func(cmd *cobra.Command, args []string) error {
		return criteriaRun()
	},
}

func init() {
	rootCmd.AddCommand(criteriaCmd)
}

func criteriaRun() error {
	p := criteria.FromConfig{}

	table := ui.Table([]string{"#", "Criterion"})
	for i, def := range p.Criteria() {
		_ = table.Append([]string{fmt.Sprintf("%d", i+1), def.Label})
	}
	_ = table.Render()

	fmt.Fprintln(ui.Out)
	ui.Info("Ratings: %s", strings.Join(p.Ratings(), ", "))
	return nil
}
