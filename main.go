package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gilchrisn/leiden-runner/pkg/cli"
)

var version = "dev"

func main() {
	// trap Ctrl+C and SIGTERM so a running optimisation stops between rounds
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, version, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
