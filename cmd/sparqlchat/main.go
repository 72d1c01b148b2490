// Package main provides the sparqlchat command.
package main

import (
	"os"

	"github.com/leapstack-labs/sparqlchat/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
