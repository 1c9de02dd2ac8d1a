// Package main provides the entry point for the amangrep CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/amangrep/cmd/amangrep/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
