/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <table> <key>",
	Short: "Get a record by key",
	Long: `Read a record through the table's layer pipeline and print it as
JSON.

Example:
  norn get users alice`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := databaseFromContext(cmd)
		if err != nil {
			return err
		}
		table, err := db.Table(args[0])
		if err != nil {
			return err
		}

		record, err := table.Get([]byte(args[1]))
		if err != nil {
			return fmt.Errorf("failed to read record: %w", err)
		}

		out, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
