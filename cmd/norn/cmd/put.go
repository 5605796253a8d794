/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/norndb/norn/pkg/di"
)

// putCmd represents the put command
var putCmd = &cobra.Command{
	Use:   "put <table> <key> <json>",
	Short: "Store a record in a table",
	Long: `Store a JSON record under a key. The record passes through the
table's configured layer pipeline and its indexed fields are updated in the
same transaction.

Example:
  norn put users alice '{"name": "Alice", "color": "red"}'`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := databaseFromContext(cmd)
		if err != nil {
			return err
		}
		table, err := db.Table(args[0])
		if err != nil {
			return err
		}

		var doc di.Document
		if err := json.Unmarshal([]byte(args[2]), &doc); err != nil {
			return fmt.Errorf("record is not valid JSON: %w", err)
		}

		if err := table.Put([]byte(args[1]), &doc); err != nil {
			return fmt.Errorf("failed to store record: %w", err)
		}
		fmt.Printf("Stored %s/%s\n", args[0], args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(putCmd)
}
