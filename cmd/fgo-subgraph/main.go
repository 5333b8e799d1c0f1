package main

import (
	"os"

	"github.com/DIGITALAX/fgo-futures-contracts/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
