// Package main is the entry point for the provctl CLI binary.
package main

import (
	"os"

	"provisioning-audit/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
