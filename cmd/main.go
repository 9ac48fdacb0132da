// Package main is the production entry point for the cadenza playback daemon.
//
// Cadenza drives an mpv instance over its JSON IPC socket, keeping playback
// state in sync and persisting resume positions across sessions.
//
// Build:
//
//	go build -o build/cadenza ./cmd
//
// Run:
//
//	mpv --idle --input-ipc-server=/tmp/cadenza-mpv.sock &
//	./build/cadenza [flags] [media...]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cadenza-player/cadenza/internal/app"
)

func main() {
	configPath := flag.String("config", app.DefaultConfigPath(), "path to the configuration file")
	socketPath := flag.String("socket", "", "mpv IPC socket (overrides the configured one)")
	mockEngine := flag.Bool("mock-engine", false, "use the in-process mock engine instead of mpv")
	flag.Parse()

	opts := app.Options{
		ConfigPath:    *configPath,
		SocketPath:    *socketPath,
		MediaPaths:    flag.Args(),
		UseMockEngine: *mockEngine,
	}

	application, err := app.New(opts)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Ensure a graceful shutdown on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	defer func() {
		fmt.Println("\nShutting down...")
		application.Shutdown()
	}()

	if err := application.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
	}
}
