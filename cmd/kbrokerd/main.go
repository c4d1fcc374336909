// Command kbrokerd serves the Kafka wire protocol subset implemented by
// this repository against an on-disk KRaft-style commit log.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmoss/kraft-broker/broker"
	"github.com/dmoss/kraft-broker/internal/metadata"
)

func main() {
	addr := flag.String("addr", "localhost:9092", "listen address")
	logDir := flag.String("log-dir", "/tmp/kraft-combined-logs", "KRaft log root directory")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cluster, err := metadata.Build(*logDir)
	if err != nil {
		logger.Error("loading cluster metadata", "log-dir", *logDir, "error", err)
		os.Exit(1)
	}

	srv := &broker.Server{
		Addr:    *addr,
		LogDir:  *logDir,
		Cluster: cluster,
		Logger:  logger,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Run(ctx) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
	case err := <-serveErr:
		if err != nil {
			logger.Error("serve error", "error", err)
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}
