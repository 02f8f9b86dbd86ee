// Command hn-archiver runs the periodic front-page archiver described in
// internal/crawl. See internal/cmd for the CLI surface.
package main

import (
	"fmt"
	"os"

	"github.com/jra3/hn-archiver/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
