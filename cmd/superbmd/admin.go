package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/superbmd/superbmd/internal/db"
	"github.com/superbmd/superbmd/internal/models"
	"github.com/superbmd/superbmd/internal/server"
)

var (
	adminUsername string
	adminPassword string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account, or reset its password and role",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(adminPassword) < 6 {
			return fmt.Errorf("password must be at least 6 characters")
		}

		_, database, err := server.Open()
		if err != nil {
			return err
		}
		if err := db.Migrate(database); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		created, err := db.UpsertUser(database, adminUsername, adminPassword, models.RoleAdmin)
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(cmd.OutOrStdout(), "Admin %q created\n", adminUsername)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Admin %q updated\n", adminUsername)
		}
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVarP(&adminUsername, "username", "u", "admin", "Admin username")
	createAdminCmd.Flags().StringVarP(&adminPassword, "password", "P", "", "Admin password (min 6 characters)")
	_ = createAdminCmd.MarkFlagRequired("password")
}
