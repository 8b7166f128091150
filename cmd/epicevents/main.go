package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aussiebroadwan/epicevents/internal/auth/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := (&cli.CLI{}).Execute(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
