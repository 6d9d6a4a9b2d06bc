// Package main is the entry point for the ewctl CLI client.
package main

import (
	"github.com/donaldgifford/effluent-watch/cmd/ewctl/cmd"
)

func main() {
	cmd.Execute()
}
