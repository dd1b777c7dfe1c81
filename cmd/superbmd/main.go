package main

import (
	"os"

	"github.com/spf13/cobra"

	_ "github.com/superbmd/superbmd/docs" // Load swagger docs
)

// Version is set via ldflags at build time
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "superbmd",
	Short: "SuperBMD - asset inventory REST API",
	Long:  `SuperBMD tracks assets (barang) across locations (lokasi) with role-scoped access and reports.`,
	Example: `  # Prepare a database with demo data and start the API
  superbmd migrate
  superbmd seed
  superbmd serve --port 8080

  # Create or reset an administrator
  superbmd create-admin --username admin --password s3cret`,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(createAdminCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
