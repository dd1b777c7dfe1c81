package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/superbmd/superbmd/internal/db"
	"github.com/superbmd/superbmd/internal/server"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert demo users, locations and assets",
	Long:  `Insert the demo data set. Rows whose username or code already exists are left alone.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, database, err := server.Open()
		if err != nil {
			return err
		}
		if err := db.Migrate(database); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		if err := db.SeedDemoData(database); err != nil {
			return fmt.Errorf("failed to seed demo data: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Demo data seeded")
		return nil
	},
}
