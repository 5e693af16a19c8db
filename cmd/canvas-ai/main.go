package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/example/canvasai/internal/cli"
	"github.com/example/canvasai/internal/wire"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.RootCmd().ExecuteContext(ctx)
	stop()
	wire.Close()

	if err != nil {
		// Failed commands have already emitted their error envelope.
		if !errors.Is(err, cli.ErrCommandFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
