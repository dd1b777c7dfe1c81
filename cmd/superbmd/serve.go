package main

import (
	"github.com/spf13/cobra"
	"github.com/superbmd/superbmd/internal/server"
)

var servePort int

// @title SuperBMD API
// @version 1.0
// @description Asset inventory management API (barang, lokasi, users, reports)
// @host localhost:6543
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server",
	Long: `Start the SuperBMD HTTP API. Migrations run on start.

Environment variables:
  SUPERBMD_SERVER_PORT         Server port (default: 6543)
  SUPERBMD_DATABASE_DRIVER     Database driver: sqlite, postgres
  SUPERBMD_DATABASE_DSN        Database connection string
  SUPERBMD_AUTH_JWT_SECRET     JWT signing secret
  SUPERBMD_CACHE_TYPE          Dashboard cache: none, memory, valkey
  ADMIN_USERNAME               Bootstrap admin username
  ADMIN_PASSWORD               Bootstrap admin password`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.RunWithSignalHandling(server.Config{
			Port:    servePort,
			Version: Version,
		})
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (overrides config)")
}
