package main

import (
	"os"

	"github.com/Iron-Ham/designctl/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		// The failing command has already written its JSON error object to
		// stdout; the exit code is the only signal left to set.
		os.Exit(1)
	}
}
