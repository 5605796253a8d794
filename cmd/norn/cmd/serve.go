/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/norndb/norn/pkg/api"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-side HTTP API",
	Long: `Start the HTTP API: record fetches, index queries, index
verification, health, and Prometheus metrics.

Example:
  norn serve --api-key secret`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := databaseFromContext(cmd)
		if err != nil {
			return err
		}
		cfg, err := configFromContext(cmd)
		if err != nil {
			return err
		}

		apiKey, _ := cmd.Flags().GetString("api-key")
		if apiKey == "" {
			return fmt.Errorf("--api-key is required")
		}

		return api.StartServer(db, api.ServerConfig{
			Port:   cfg.Port,
			Bind:   cfg.Bind,
			APIKey: apiKey,
		})
	},
}

func init() {
	serveCmd.Flags().String("api-key", "", "API key clients must present")
	rootCmd.AddCommand(serveCmd)
}
