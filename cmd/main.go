package main

import (
	"os"

	"github.com/aravindramcb/water-models/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
