/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <table>",
	Short: "Verify a table's indexes against its records",
	Long: `Recompute every secondary index from the table's records and
report any divergence from the stored key sets.

Example:
  norn verify users`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := databaseFromContext(cmd)
		if err != nil {
			return err
		}
		table, err := db.Table(args[0])
		if err != nil {
			return err
		}

		if err := table.VerifyIndexes(); err != nil {
			return err
		}
		fmt.Printf("Table %s: indexes consistent\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
