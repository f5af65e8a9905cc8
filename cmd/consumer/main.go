package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"

	"example.com/keepfit/internal/config"
	"example.com/keepfit/internal/consumer"
	"example.com/keepfit/internal/persistence/memory"
	persistence "example.com/keepfit/internal/persistence/postgres"
	"example.com/keepfit/internal/prefs"
	"example.com/keepfit/internal/repository"
	"example.com/keepfit/internal/tracker"
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

	service := tracker.New(
		repository.NewGoals(goalStore),
		repository.NewHistory(historyStore),
		repository.NewUpdates(updateStore),
		settings, conv,
	)

	handler := consumer.NewCheckinHandler(service)

	metricsSrv := &http.Server{Addr: cfg.MetricsAddress, Handler: promhttp.Handler()}

	go func() {
		log.Printf("consumer metrics listening on %s", cfg.MetricsAddress)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:         cfg.KafkaBrokers,
		GroupID:         cfg.ConsumerGroup,
		Topic:           cfg.CheckinTopic,
		MinBytes:        1e3,
		MaxBytes:        10e6,
		CommitInterval:  time.Second,
		RetentionTime:   24 * time.Hour,
		ReadLagInterval: -1,
	})

	proc := consumer.NewProcessor(reader, handler)

	var wg sync.WaitGroup
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer reader.Close()

		log.Printf("consumer started (topic=%s, group=%s)", cfg.CheckinTopic, cfg.ConsumerGroup)
		if err := proc.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("consumer stopped with error: %v", err)
		}
	}()

	<-stop
	log.Println("consumer shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("metrics server shutdown error: %v", err)
	}

	wg.Wait()
}
