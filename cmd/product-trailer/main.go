package main

import (
	"os"

	"github.com/emmanuel-ch/Product-Trailer/pkg/interfaces/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
