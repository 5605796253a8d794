/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/norndb/norn/pkg/config"
	"github.com/norndb/norn/pkg/database"
	"github.com/norndb/norn/pkg/di"
)

type contextKey string

const (
	databaseKey contextKey = "database"
	configKey   contextKey = "config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "norn",
	Short: "NornDB - Typed records over an embedded KV store",
	Long: `NornDB stores typed records in an embedded key-value store behind a
layered value pipeline (serialize, compress, encrypt, error-correct) and
maintains secondary indexes queryable with AND/OR/NOT combinators.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// init writes the config; nothing to open yet
		if cmd.Name() == "init" {
			return nil
		}

		configPath, _ := cmd.Flags().GetString("config")
		if configPath == "" {
			configPath = config.GetDefaultConfigPath()
		}
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config (run 'norn init' first): %w", err)
		}

		if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
			return fmt.Errorf("failed to create data dir: %w", err)
		}

		container := di.NewContainer(cfg)
		db, err := container.BuildDatabase()
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		for name := range cfg.Tables {
			if _, err := container.CreateDocumentTable(db, name); err != nil {
				_ = db.Close()
				return fmt.Errorf("failed to register table %s: %w", name, err)
			}
		}

		ctx := context.WithValue(cmd.Context(), configKey, cfg)
		ctx = context.WithValue(ctx, databaseKey, db)
		cmd.SetContext(ctx)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if db, ok := cmd.Context().Value(databaseKey).(*database.Database); ok {
			return db.Close()
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the configuration file")
}

// databaseFromContext pulls the open database out of the command context
func databaseFromContext(cmd *cobra.Command) (*database.Database, error) {
	db, ok := cmd.Context().Value(databaseKey).(*database.Database)
	if !ok {
		return nil, fmt.Errorf("database not found in context")
	}
	return db, nil
}

// configFromContext pulls the loaded configuration out of the command context
func configFromContext(cmd *cobra.Command) (*config.Config, error) {
	cfg, ok := cmd.Context().Value(configKey).(*config.Config)
	if !ok {
		return nil, fmt.Errorf("config not found in context")
	}
	return cfg, nil
}
