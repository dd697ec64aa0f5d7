// Package main is the entry point for orderimport.
package main

import (
	"fmt"
	"os"

	"github.com/artm44/TestTask-SKRIN/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
