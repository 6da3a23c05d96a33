package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/fx"
)

// run starts the container, blocks until a signal or an fx shutdown, and returns the process exit code.
func run(ctx context.Context, app *fx.App) int {
	startCtx, cancelStart := context.WithTimeout(ctx, app.StartTimeout())
	defer cancelStart()

	if err := app.Start(startCtx); err != nil {
		fmt.Fprintf(os.Stderr, "atelier: start: %v\n", err)
		return 1
	}

	code := 0
	select {
	case <-ctx.Done():
	case sig := <-app.Wait():
		code = sig.ExitCode
	}

	stopCtx, cancelStop := context.WithTimeout(context.Background(), app.StopTimeout())
	defer cancelStop()

	if err := app.Stop(stopCtx); err != nil {
		fmt.Fprintf(os.Stderr, "atelier: stop: %v\n", err)
		return 1
	}
	return code
}
