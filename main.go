// Package main provides the entrypoint for bridge-sync.
package main

import (
	"fmt"
	"os"

	"github.com/isometry/bridge-sync/cmd"
)

func main() {
	if err := cmd.New().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
