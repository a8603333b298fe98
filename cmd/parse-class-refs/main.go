package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"refmap/internal/analyzer"
	"refmap/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.NewGraphCommand("parse-class-refs", analyzer.ModeClasses).ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
