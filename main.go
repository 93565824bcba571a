package main

import (
	"os"

	"github.com/spigell/ksa-graph/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
