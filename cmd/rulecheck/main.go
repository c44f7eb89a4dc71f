// Package main is the entry point for the rulecheck CLI.
//
// This file is intentionally minimal - all logic lives in the commands
// package. The main function only executes the root command.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rulekit/rulecheck/cmd/rulecheck/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		// A check that found violations already printed its report;
		// anything else gets an error line
		if !errors.Is(err, commands.ErrViolationsFound) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
