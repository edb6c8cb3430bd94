package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/GriffinCanCode/AgentOS/appswitch/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/appswitch/internal/infrastructure/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Flags override the environment
	flag.StringVar(&cfg.Apps.ManifestDir, "apps", cfg.Apps.ManifestDir, "Application manifest directory")
	flag.StringVar(&cfg.Bus.Kind, "bus", cfg.Bus.Kind, "Message bus: system, session or none")
	flag.StringVar(&cfg.Display.Device, "fb", cfg.Display.Device, "Framebuffer device, or \"memory\"")
	flag.BoolVar(&cfg.Debug.Enabled, "debug", cfg.Debug.Enabled, "Serve the debug HTTP surface")
	flag.StringVar(&cfg.Debug.Addr, "debug-addr", cfg.Debug.Addr, "Debug HTTP listen address")
	flag.Parse()

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := srv.Run(ctx)
	if err := srv.Close(); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	if runErr != nil {
		log.Fatalf("Server error: %v", runErr)
	}
}
