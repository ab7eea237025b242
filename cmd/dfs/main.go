package main

import (
	"os"

	"github.com/wonny/dfs/backend/cmd/dfs/commands"
)

// main is the entry point for the DFS CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/dfs [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
