/*
Package main is the entry point for the calorie-scan CLI.

Usage:
  calorie-scan [command]

Available Commands:
  serve       Run the calorie scan tool server over HTTP
  analyze     Estimate calories for a food photo
  history     Show recent analyses and today's calorie total
  version     Show version information
*/
package main

import (
	"fmt"
	"os"

	"calorie-scan/internal/cli"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := cli.NewRootCmd(cli.BuildInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
