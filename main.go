// Package main is the entry point for the cloudcost-guard CLI.
package main

import (
	"os"

	"github.com/cloudcost-guard/internal/cli"
)

func main() {
	app := cli.New()
	if err := app.Execute(); err != nil {
		os.Exit(1)
	}
}
