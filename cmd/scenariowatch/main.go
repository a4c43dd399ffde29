// Package main is the entry point of the scenariowatch CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/scenariowatch/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
