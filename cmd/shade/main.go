// Shade - adaptive dark-mode inversion for HTML pages
//
// Shade classifies a page and the desktop as light or dark, and applies or
// removes a reversible inversion that keeps images and video untouched.
package main

import (
	"os"

	"github.com/jmylchreest/shade/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
