package main

import (
	"os"

	"auction-house/internal/cli"
	"auction-house/utils"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		utils.Error("auction-house: command failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
