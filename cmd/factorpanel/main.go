package main

import (
	"os"

	"github.com/wonny/factorpanel/cmd/factorpanel/commands"
)

// main is the entry point for the factorpanel CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/factorpanel [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
