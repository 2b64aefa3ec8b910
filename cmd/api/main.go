package main

import (
	"context"
	"log"

	"teambuilder-backend/internal/bootstrap"
	"teambuilder-backend/internal/shared/config"
	"teambuilder-backend/internal/shared/server"
	"teambuilder-backend/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	if !telemetry.SetLevel(cfg.LogLevel) {
		telemetry.Warn("config.invalid_log_level", map[string]any{"value": cfg.LogLevel})
	}
	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	addr := server.Addr(cfg.Port)
	telemetry.Info("server.start", map[string]any{"addr": addr, "env": app.Config.Env, "storage": app.Health.Status(context.Background()).Storage})

	if err := app.Router.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
