// Command server runs the curricula content-tree HTTP API.
//
// Configuration comes from CONFIG_PATH (YAML) and environment
// variables; see internal/config. SIGINT/SIGTERM trigger a graceful
// shutdown.
//
// Exit codes: 0 = clean shutdown, 1 = error.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/curriculab/curricula-backend/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
