/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/norndb/norn/pkg/query"
)

// queryCmd represents the query command
var queryCmd = &cobra.Command{
	Use:   "query <table> <expression>",
	Short: "Query a table's indexes",
	Long: `Evaluate a boolean expression over a table's secondary indexes and
print the matching primary keys. Expressions are JSON with eq, and, or, not,
and diff nodes.

Example:
  norn query users '{"and": [{"eq": {"index": "color", "key": "red"}}, {"not": {"eq": {"index": "role", "key": "admin"}}}]}'`,
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

		expr, err := query.ParseJSON([]byte(args[1]))
		if err != nil {
			return err
		}

		set, err := table.Query(expr)
		if err != nil {
			return fmt.Errorf("query failed: %w", err)
		}
		for _, key := range set.Keys() {
			fmt.Println(string(key))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
}
