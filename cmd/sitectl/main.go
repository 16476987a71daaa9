package main

import (
	"os"

	"github.com/aimatrix/site/internal/presentation/cli"
)

var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
