package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// exitPartial is returned when a run produced some but not all clips.
const exitPartial = 3

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, errPartialSuccess) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(exitPartial)
		}
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
