/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"github.com/norndb/norn/cmd/norn/cmd"
)

func main() {
	cmd.Execute()
}
