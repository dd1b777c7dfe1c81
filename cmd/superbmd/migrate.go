package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/superbmd/superbmd/internal/db"
	"github.com/superbmd/superbmd/internal/server"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, database, err := server.Open()
		if err != nil {
			return err
		}
		if err := db.Migrate(database); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Migrations completed")
		return nil
	},
}
