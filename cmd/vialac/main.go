package main

import (
	"os"

	"github.com/vialac/vialac/cmd/vialac/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
