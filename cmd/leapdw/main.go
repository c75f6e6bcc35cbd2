// Package main provides the leapdw command.
package main

import (
	"os"

	"github.com/leapstack-labs/leapdw/internal/cli"

	// Register warehouse adapters
	_ "github.com/leapstack-labs/leapdw/pkg/adapters/bigquery"
	_ "github.com/leapstack-labs/leapdw/pkg/adapters/snowflake"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
