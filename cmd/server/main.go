package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/GriffinCanCode/replbridge/internal/infrastructure/config"
	"github.com/GriffinCanCode/replbridge/internal/infrastructure/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Flags override environment variables
	port := flag.String("port", cfg.Server.Port, "Server port")
	command := flag.String("command", cfg.Console.Command, "Console command to run")
	dir := flag.String("dir", cfg.Console.WorkingDir, "Console working directory")
	patterns := flag.String("patterns", cfg.Console.PatternsFile, "YAML or TOML prompt/error pattern file")
	autostart := flag.Bool("autostart", cfg.Console.Autostart, "Start the console at boot")
	dev := flag.Bool("dev", cfg.Logging.Development, "Development logging")
	flag.Parse()

	cfg.Server.Port = *port
	cfg.Console.Command = *command
	cfg.Console.WorkingDir = *dir
	cfg.Console.PatternsFile = *patterns
	cfg.Console.Autostart = *autostart
	if *dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Console.Autostart {
		go func() {
			if err := srv.Autostart(ctx); err != nil {
				log.Printf("Console autostart failed: %v", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run()
	}()

	select {
	case <-sigChan:
		log.Println("Shutting down gracefully...")
		cancel()
		if err := srv.Close(); err != nil {
			log.Printf("Error during shutdown: %v", err)
			os.Exit(1)
		}
	case err := <-errChan:
		cancel()
		_ = srv.Close()
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}
}
