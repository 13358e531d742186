package app

import (
	"context"
	"os"
	"os/signal"
)

// HandleSignals returns a context that is cancelled on the first interrupt
// or termination signal. Calling the returned cancel func stops listening.
func (app *App) HandleSignals(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	app.setupSignalHandling(sigChan)

	go func() {
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			app.logger.Info("Received signal, stopping after the current item", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
