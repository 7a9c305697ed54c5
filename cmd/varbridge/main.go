// Package main provides the varbridge CLI.
package main

import (
	"os"

	"github.com/varbridge/backend/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
