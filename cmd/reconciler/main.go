package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"

	"brokerage-billing/internal/config"
	"brokerage-billing/internal/logger"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "Path to the YAML config file (optional)")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	commander.Register(&billCmd{}, "billing")
	commander.Register(&brokerCmd{}, "billing")
	commander.Register(&ledgerCmd{}, "billing")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Logs go to stderr so stdout carries only the command output.
	if err := logger.InitWithConfig(logger.LogConfig{
		Level:           cfg.Log.Level,
		Format:          cfg.Log.Format,
		DetailedLogging: cfg.Log.Detailed,
		TracingEnabled:  cfg.Log.Tracing,
		Output:          os.Stderr,
		TraceOutput:     os.Stderr,
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	status := commander.Execute(context.Background(), cfg)
	if err := logger.Shutdown(context.Background()); err != nil {
		log.Printf("Failed to flush traces: %v", err)
	}
	os.Exit(int(status))
}
