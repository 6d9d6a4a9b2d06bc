// Package main is the entry point for the effluent-watch server.
package main

import (
	"os"

	"github.com/donaldgifford/effluent-watch/cmd/effluent-watch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
