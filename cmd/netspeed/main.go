package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/tkjaer/netspeed/internal/config"
	"github.com/tkjaer/netspeed/internal/speedtest"
)

// exitInterrupted is the conventional status for SIGINT
const exitInterrupted = 130

func main() {
	os.Exit(run())
}

func run() int {
	args, err := config.ParseArgs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	// Setup logging
	logFile, err := config.SetupLogging(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to setup logging: %v\n", err)
		return 1
	}
	if logFile != nil {
		defer logFile.Close()
	}

	slog.Debug("Starting netspeed",
		"mode", args.Mode(),
		"ping_target", args.PingTarget,
		"servers", args.Servers,
		"duration", args.Duration,
	)

	m, err := speedtest.NewManager(args, os.Stdin, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create speed test manager: %v\n", err)
		return 1
	}

	// Set up signal handling for Ctrl+C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	// Run in a goroutine so we can handle signals
	done := make(chan error)
	go func() {
		done <- m.Run()
	}()

	// Wait for either completion or interrupt
	select {
	case err = <-done:
	case <-sigChan:
		slog.Debug("Received interrupt signal, stopping...")
		m.Stop()
		// Wait for Run() to release the terminal
		err = <-done
		if err == nil {
			err = context.Canceled
		}
	}

	return exitStatus(err, os.Stderr)
}

// exitStatus maps the result of a run to the process exit code
func exitStatus(err error, stderr io.Writer) int {
	switch {
	case err == nil:
		slog.Debug("netspeed completed")
		return 0
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(stderr, "\nSpeed test cancelled.")
		return exitInterrupted
	default:
		slog.Error("Speed test failed", "error", err)
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
}
