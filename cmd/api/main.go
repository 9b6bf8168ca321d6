package main

import (
	"github.com/redis/go-redis/v9"

	"sierre/internal/api"
	"sierre/internal/config"
	"sierre/internal/database"
	"sierre/internal/events"
	"sierre/internal/logger"
	"sierre/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.LogLevel)
	log.Info("Starting sierre API server")

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	st := store.New(db.DB)

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Warn("Invalid REDIS_URL, continuing without cache: %v", err)
		} else {
			rdb = redis.NewClient(opts)
		}
	}

	publisher := events.NewPublisher(cfg.KafkaBrokers)
	defer publisher.Close()

	server := api.NewServer(cfg, st, rdb, publisher, log)
	log.Info("Listening on %s:%s", cfg.APIHost, cfg.APIPort)
	if err := server.Run(); err != nil {
		log.Fatal("Server failed: %v", err)
	}
}
