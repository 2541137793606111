// Package main provides the entry point for the log collection server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"logcore/internal/config"
	"logcore/internal/orchestrator"
	"logcore/internal/queue"
	"logcore/internal/receiver"
	"logcore/internal/storage"
	"logcore/internal/utils"

	"github.com/sirupsen/logrus"
)

// gracefulShutdownTimeout bounds how long the server waits for the poll
// loop and receivers to stop before forcing exit; a second signal forces
// exit sooner.
const gracefulShutdownTimeout = 10 * time.Second

func main() {
	utils.SetupLogger(utils.LogConfig{Level: "info", Format: "text"})

	manager := config.ParseFlags(os.Args[1:])
	if err := manager.Validate(); err != nil {
		config.Fatal(err.Error())
	}
	manager.DisplayConfig(logrus.Infof)

	store, err := storage.Open(manager.DatabasePath())
	if err != nil {
		logrus.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	q := queue.New(store, manager.BatchSize(), queue.DefaultFlushInterval)

	srv := orchestrator.New(q)

	if manager.SyslogEnabled() {
		srv.Attach(receiver.NewSyslogReceiver(manager.SyslogPort(), q), true)
	}
	if manager.RestEnabled() {
		srv.Attach(receiver.NewHTTPReceiver(manager.RestPort(), store), true)
	}
	if manager.SNMPEnabled() {
		srv.Attach(receiver.NewSNMPReceiver(manager.SNMPPort(), q), false)
	}

	if err := srv.Start(); err != nil {
		logrus.Fatalf("Failed to start server: %v", err)
	}
	logrus.Info("logcore server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	logrus.Infof("Received signal: %v, initiating graceful shutdown...", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		srv.Stop(shutdownCtx)
		close(done)
	}()

	select {
	case <-done:
		logrus.Info("Graceful shutdown completed successfully")
	case <-quit:
		logrus.Warn("Second interrupt signal received, forcing immediate exit")
		os.Exit(1)
	case <-shutdownCtx.Done():
		logrus.Warn("Shutdown timeout exceeded, forcing exit")
		os.Exit(1)
	}
}
