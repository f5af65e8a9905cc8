package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/keepfit/internal/api"
	"example.com/keepfit/internal/config"
	"example.com/keepfit/internal/events"
	"example.com/keepfit/internal/persistence/memory"
	persistence "example.com/keepfit/internal/persistence/postgres"
	"example.com/keepfit/internal/prefs"
	"example.com/keepfit/internal/repository"
	"example.com/keepfit/internal/tracker"
	httptransport "example.com/keepfit/internal/transport/http"
	"example.com/keepfit/internal/units"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		goalStore    repository.GoalStore
		historyStore repository.HistoryStore
		updateStore  repository.UpdateStore
		backend      prefs.Backend
	)

	if cfg.PostgresURL != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			log.Fatalf("failed to connect to postgres: %v", err)
		}
		defer pool.Close()

		goalStore = persistence.NewGoalStore(pool)
		historyStore = persistence.NewHistoryStore(pool)
		updateStore = persistence.NewUpdateStore(pool)
		backend = persistence.NewSettingsBackend(pool)
	} else {
		log.Println("POSTGRES_URL not set, using in-memory stores")
		goalStore = memory.NewGoalStore()
		historyStore = memory.NewHistoryStore()
		updateStore = memory.NewUpdateStore()
		backend = memory.NewSettingsBackend()
	}

	conv := units.NewConverter(prefs.DefaultStepsPerMetre)
	settings, err := prefs.NewStore(ctx, backend)
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}
	settings.BindConverter(conv)

	opts := []tracker.Option{}
	if cfg.PublishEventsToKafka {
		publisher := events.NewPublisher(cfg.KafkaBrokers)
		defer publisher.Close()
		opts = append(opts, tracker.WithPublisher(publisher))
	}

	service := tracker.New(
		repository.NewGoals(goalStore),
		repository.NewHistory(historyStore),
		repository.NewUpdates(updateStore),
		settings, conv, opts...,
	)

	handler := api.NewHandler(service)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	// Basic request logger
	logger := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("%s %s", r.Method, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}, logger(mux))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("keepfit api listening on %s", cfg.HTTPAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
