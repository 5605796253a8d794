/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete <table> <key>",
	Short: "Delete a record by key",
	Long: `Delete a record and remove it from every index in the same
transaction.

Example:
  norn delete users alice`,
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

		if err := table.Delete([]byte(args[1])); err != nil {
			return fmt.Errorf("failed to delete record: %w", err)
		}
		fmt.Printf("Deleted %s/%s\n", args[0], args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
