// Package main provides the entry point for the docfinder CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/docfinder/cmd/docfinder/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
