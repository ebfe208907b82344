package main

import (
	"context"
	"fmt"
	"os"

	"github.com/noteflow/noteflow-backend/internal/app"
	"github.com/noteflow/noteflow-backend/internal/platform/shutdown"
)

func main() {
	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	a, err := app.New(ctx)
	if err != nil {
		fmt.Printf("failed to initialize app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close(context.Background())

	if err := a.Run(ctx); err != nil {
		a.Log.Error("server exited", "error", err)
	}
}
