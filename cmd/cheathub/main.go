// Command cheathub is the command line client for the snippet API.
//
//	cheathub login -username ada
//	cheathub add -title Quicksort -file qs.py -language python \
//	    -description "in-place sort" -tags "sort, algo"
//	cheathub fave <id>
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/victorlut/cheathub/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := cli.Run(ctx, cli.Options{Args: os.Args[1:]})
	switch {
	case err == nil:
		return 0
	case errors.Is(err, cli.ErrUsage):
		return 2
	default:
		return 1
	}
}
