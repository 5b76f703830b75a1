// Package main provides the sqlwhat command.
package main

import (
	"os"

	"github.com/leapstack-labs/sqlwhat/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
