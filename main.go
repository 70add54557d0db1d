package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/harrisonrobin/grind/pkg/cli"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.Execute(ctx, version)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
