// Package main provides the entry point for the retrieval-core CLI.
package main

import (
	"os"

	"github.com/retrievalcore/engine/cmd/retrieval-core/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
