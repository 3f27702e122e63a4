// Package main provides the entry point for the vibe CLI.
package main

import (
	"os"

	"github.com/zlink-cloudtech/spec-kit/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
