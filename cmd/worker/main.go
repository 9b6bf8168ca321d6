package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"sierre/internal/config"
	"sierre/internal/database"
	"sierre/internal/logger"
	"sierre/internal/services/kpi"
	"sierre/internal/store"
	"sierre/internal/worker"
	"sierre/internal/worker/processors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.LogLevel)
	log.Info("Starting sierre worker")

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	st := store.New(db.DB)
	aggregator := kpi.NewAggregator(st, nil, log)
	processor := processors.NewKpiRefreshProcessor(aggregator, log)

	w := worker.New(cfg.KafkaBrokers, processor, log)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs
		log.Info("Shutting down worker")
		cancel()
	}()

	if err := w.Run(ctx); err != nil {
		log.Fatal("Worker failed: %v", err)
	}
}
