package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/yungbote/snapcal-backend/internal/app"
	"github.com/yungbote/snapcal-backend/internal/platform/shutdown"
)

func main() {
	// A missing .env is fine; the process environment wins anyway.
	_ = godotenv.Load()

	a, err := app.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init app: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- a.Run() }()

	select {
	case <-ctx.Done():
		a.Log.Info("Shutting down...")
	case err := <-errCh:
		if err != nil {
			a.Log.Error("Server exited", "error", err)
			a.Close()
			os.Exit(1)
		}
	}
	a.Close()
}
