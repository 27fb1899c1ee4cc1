package main

import (
	"os"

	"VulnixVex/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
