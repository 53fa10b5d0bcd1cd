package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/xiaot623/medintake/internal/adapter/artifact"
	"github.com/xiaot623/medintake/internal/adapter/llm"
	"github.com/xiaot623/medintake/internal/config"
	"github.com/xiaot623/medintake/internal/observability"
	"github.com/xiaot623/medintake/internal/prompt"
	store "github.com/xiaot623/medintake/internal/repository"
	"github.com/xiaot623/medintake/internal/service"
	handler "github.com/xiaot623/medintake/internal/transport/http"
	"github.com/xiaot623/medintake/policy"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting intake service...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Session store: %s", cfg.StoreBackend)
	log.Printf("Artifact store: %s", cfg.ArtifactBackend)
	log.Printf("LLM provider: %s (model %s)", cfg.LLMProvider, cfg.LLMModel)
	log.Printf("Locale: %s", cfg.Locale)

	ctx := context.Background()

	locale, err := prompt.LookupLocale(cfg.Locale)
	if err != nil {
		log.Fatalf("Failed to load locale: %v", err)
	}

	// Initialize stores
	sessions, events, sqliteDB, err := openStores(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer sessions.Close()

	artifacts, closeArtifacts, err := openArtifactStore(ctx, cfg, sqliteDB)
	if err != nil {
		log.Fatalf("Failed to initialize artifact store: %v", err)
	}
	defer closeArtifacts()

	// Initialize LLM client
	llmClient, err := llm.NewLLMClient(ctx, cfg, locale.CompletionAnnouncement)
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}

	// Initialize policy engine
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}

	// Initialize metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	// Initialize service
	svc, err := service.New(sessions, artifacts, llmClient, cfg, policyEngine,
		service.WithEventStore(events),
		service.WithMetrics(metrics),
	)
	if err != nil {
		log.Fatalf("Failed to initialize service: %v", err)
	}

	server := handler.NewServer(svc, cfg, registry)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("API started on port %d", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down intake service...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}

	log.Println("Intake service stopped")
}

// openStores opens the configured session store and the event store that
// goes with it. The SQLite handle is returned when one was opened so the
// artifact store can share it.
func openStores(cfg *config.Config) (store.SessionStore, store.EventStore, *store.SQLiteStore, error) {
	switch cfg.StoreBackend {
	case config.StoreSQLite:
		db, err := store.NewSQLiteStore(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		return db, db, db, nil

	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		// Audit events stay in process memory with the redis backend
		return store.NewRedisStore(client, store.WithRedisTTL(cfg.RedisSessionTTL)), store.NewMemoryStore(), nil, nil

	default:
		mem := store.NewMemoryStore()
		return mem, mem, nil, nil
	}
}

// openArtifactStore opens the configured artifact store. The returned close
// function releases a database opened only for artifacts.
func openArtifactStore(ctx context.Context, cfg *config.Config, sqliteDB *store.SQLiteStore) (artifact.Store, func(), error) {
	noop := func() {}

	switch cfg.ArtifactBackend {
	case config.ArtifactS3:
		s3Store, err := artifact.NewS3Store(ctx, artifact.S3Config{
			Bucket:   cfg.S3Bucket,
			Prefix:   cfg.S3Prefix,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,

			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			return nil, noop, err
		}
		return s3Store, noop, nil

	case config.ArtifactSQLite:
		if sqliteDB != nil {
			return sqliteDB, noop, nil
		}
		db, err := store.NewSQLiteStore(cfg.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		return db, func() {
			if err := db.Close(); err != nil {
				log.Printf("WARN: failed to close artifact database: %v", err)
			}
		}, nil

	default:
		fs, err := artifact.NewFileStore(cfg.ArtifactDir)
		if err != nil {
			return nil, noop, err
		}
		return fs, noop, nil
	}
}
