package main

import (
	"os"

	"github.com/akson-app/cards/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
