package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"drone-activity-classifier/config"
	"drone-activity-classifier/utils"

	"github.com/joho/godotenv"
	"github.com/mdobak/go-xerrors"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Expected 'monitor' subcommand")
		os.Exit(1)
	}
	_ = godotenv.Load()

	switch os.Args[1] {
	case "monitor":
		monitorCmd := flag.NewFlagSet("monitor", flag.ExitOnError)
		configPath := monitorCmd.String("c", "", "Path to YAML config file")
		protocol := monitorCmd.String("proto", "http", "Protocol to use (http or https)")
		port := monitorCmd.String("p", "", "Port to use (overrides config)")
		monitorCmd.Parse(os.Args[2:])

		os.Exit(runMonitorCommand(*configPath, *protocol, *port))
	default:
		fmt.Println("Expected 'monitor' subcommand")
		os.Exit(1)
	}
}

func runMonitorCommand(configPath, protocol, port string) int {
	logger := utils.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load configuration.", slog.Any("error", xerrors.New(err)))
		return 1
	}
	if port != "" {
		cfg.Monitor.HTTPPort = port
	}

	if err := runMonitor(ctx, cfg, protocol); err != nil {
		logger.ErrorContext(ctx, "Monitor stopped with error.", slog.Any("error", xerrors.New(err)))
		return 1
	}
	return 0
}
