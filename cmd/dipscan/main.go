package main

import (
	"os"

	"github.com/wonny/dipscan/cmd/dipscan/commands"
)

// main is the entry point for the dipscan CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/dipscan [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
