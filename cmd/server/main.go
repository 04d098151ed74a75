package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"ProductParser/internal/app"
	"ProductParser/internal/server"
)

func main() {
	configPath := flag.String("config", "config.yml", "Path to the YAML configuration file")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	application, err := app.New(*configPath)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		application.Close(ctx)
	}()

	handler := server.NewHandler(application.Registry, application.Store)
	if err := server.Run(application.Config.Server.Port, handler); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
