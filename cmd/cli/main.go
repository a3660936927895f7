// Package main is the entry point for the aws-estimation CLI.
package main

import (
	"os"

	"aws-estimation/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
