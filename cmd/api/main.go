package main

import (
	"os"

	"grocery/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
