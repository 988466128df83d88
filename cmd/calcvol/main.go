// Package main provides the calcvol CLI entry point.
// calcvol computes pipeline volumes for paraffin removal and pig operations.
package main

import (
	"fmt"
	"os"

	"github.com/calcvol/calcvol/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
