package main

import (
	"fmt"

	"delivery_notes_app_go/services"

	"github.com/spf13/cobra"
)

var seedBranchesCmd = &cobra.Command{
	Use:   "seed-branches",
	Short: "Install the default branches when the directory is empty",
	RunE: func(cmd *cobra.Command, args []string) error {
		created, err := services.NewBranchService(store).Seed(cmd.Context())
		if err != nil {
			return err
		}
		if created == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Branch directory is not empty, nothing seeded")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d branches\n", created)
		return nil
	},
}
