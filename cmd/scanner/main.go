package main

import (
	"os"

	"github.com/jdemuth17/market-analysis/cmd/scanner/commands"
)

// main is the entry point for the scanner CLI
// ⭐ Unified CLI entry point: go run ./cmd/scanner [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
