package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"ecusim/internal/simulate"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "ecusim:", err)
		}
		os.Exit(simulate.ExitCode(err))
	}
}
