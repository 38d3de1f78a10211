package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/finwatch/finwatch-backend/internal/api"
	"github.com/finwatch/finwatch-backend/internal/config"
	"github.com/finwatch/finwatch-backend/internal/database"
	"github.com/finwatch/finwatch-backend/internal/events"
	"github.com/finwatch/finwatch-backend/internal/marketdata"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	logrus.SetFormatter(&logrus.JSONFormatter{})
	log := logrus.WithField("service", "finwatch-backend")

	cfg := config.Load()

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	if err := db.Migrate(cfg.Database.MigrationsPath); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}
	log.Info("migrations applied")

	var responses *marketdata.ResponseCache
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			log.WithError(err).Warn("redis unavailable, response cache disabled")
		} else {
			responses = marketdata.NewResponseCache(client, cfg.CacheTTL)
			log.WithField("addr", cfg.Redis.Addr).Info("redis response cache enabled")
		}
	}

	var producer *events.Producer
	if cfg.Kafka.Enabled {
		producer = events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		log.WithField("topic", cfg.Kafka.Topic).Info("kafka producer enabled")
	}

	// provider order is the fallback priority; keyed providers join the
	// chain only when configured
	providers := []marketdata.Provider{
		marketdata.NewYahooProvider(""),
		marketdata.NewStooqProvider(""),
	}
	if cfg.Providers.AlphaVantageKey != "" {
		providers = append(providers, marketdata.NewAlphaVantageProvider("", cfg.Providers.AlphaVantageKey))
	}
	if cfg.Providers.FinnhubKey != "" {
		providers = append(providers, marketdata.NewFinnhubProvider("", cfg.Providers.FinnhubKey))
	}

	var riskFree *marketdata.FREDClient
	if cfg.Providers.FREDKey != "" {
		riskFree = marketdata.NewFREDClient("", cfg.Providers.FREDKey)
	}

	orch := marketdata.NewOrchestrator(log, providers...)
	fresh := marketdata.NewFreshnessCache(cfg.CacheTTL, nil)
	market := marketdata.NewService(db, orch, fresh, responses, riskFree, log)

	handler := api.NewHandler(db, market, producer, log)
	router := api.SetupRoutes(handler)

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.WithField("addr", addr).Info("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("shutdown failed")
	}
}
