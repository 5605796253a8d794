/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/norndb/norn/pkg/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new NornDB configuration",
	Long: `Initialize a new NornDB configuration with a generated database
identity and master key.

Example:
  norn init --data-dir ./data`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		if configPath == "" {
			configPath = config.GetDefaultConfigPath()
		}
		dataDir, _ := cmd.Flags().GetString("data-dir")

		cfg, err := config.BootstrapConfig(configPath, dataDir)
		if err != nil {
			return fmt.Errorf("failed to bootstrap config: %w", err)
		}

		fmt.Printf("Configuration written to %s\n", configPath)
		fmt.Printf("Database ID: %s\n", cfg.Database.ID)
		fmt.Printf("Data directory: %s\n", cfg.DataDir)
		return nil
	},
}

func init() {
	initCmd.Flags().StringP("data-dir", "d", "./data", "Data directory for the store")
	rootCmd.AddCommand(initCmd)
}
