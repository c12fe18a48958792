// Package main is the entry point for the chaseconv CLI.
package main

import (
	"os"

	"github.com/gbrlfaria/chaseconv/cmd/chaseconv/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
