// Package main is the entry point for the stockledger API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"stockledger/internal/domain/auth"
	"stockledger/internal/domain/catalog"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/domain/reportcache"
	"stockledger/internal/domain/reports"
	"stockledger/internal/domain/valuation"
	v1 "stockledger/internal/infrastructure/http/v1"
	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/internal/infrastructure/storage/postgres/cache_repo"
	"stockledger/internal/infrastructure/storage/postgres/catalog_repo"
	"stockledger/internal/infrastructure/storage/postgres/ledger_repo"
	"stockledger/pkg/logger"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting stockledger server")

	// --- Database ---
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)
	ledgerRepo := ledger_repo.NewLedgerRepo(txManager)
	catalogRepo := catalog_repo.NewCatalogRepo(txManager)
	snapshotRepo := cache_repo.NewSnapshotRepo(txManager)

	// --- Domain services ---
	ledgerService := ledger.NewService(ledgerRepo)
	catalogService := catalog.NewService(catalogRepo)

	engine := valuation.NewEngine(ledgerRepo, log)
	aggregator := valuation.NewAggregator(catalogRepo, engine, log)

	cacheService, err := reportcache.NewService(snapshotRepo,
		getEnvDuration("REPORT_SNAPSHOT_TTL", reportcache.DefaultTTL), log)
	if err != nil {
		log.Fatalw("failed to initialize report cache", "error", err)
	}
	reportsService := reports.NewService(aggregator, cacheService, log)

	// Periodic snapshot cleanup.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if _, err := cacheService.CleanupExpired(ctx); err != nil {
				log.Warnw("snapshot cleanup failed", "error", err)
			}
		}
	}()

	// --- Auth ---
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(mustEnv("JWT_SECRET")))
	accounts, err := loadAccounts()
	if err != nil {
		log.Fatalw("failed to load accounts", "error", err)
	}
	authService := auth.NewService(accounts, jwtService, log)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:           pool.Pool,
		Logger:         log,
		JWTValidator:   jwtService,
		AuthService:    authService,
		CatalogService: catalogService,
		LedgerService:  ledgerService,
		ReportsService: reportsService,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// loadAccounts reads API accounts from AUTH_ACCOUNTS, a semicolon-separated
// list of user_id:email:name:bcrypt_hash[:admin] records.
func loadAccounts() ([]auth.Account, error) {
	raw := mustEnv("AUTH_ACCOUNTS")
	var accounts []auth.Account
	for _, record := range strings.Split(raw, ";") {
		record = strings.TrimSpace(record)
		if record == "" {
			continue
		}
		fields := strings.Split(record, ":")
		if len(fields) < 4 || len(fields) > 5 {
			return nil, fmt.Errorf("malformed account record %q", record)
		}
		accounts = append(accounts, auth.Account{
			UserID:       fields[0],
			Email:        fields[1],
			Name:         fields[2],
			PasswordHash: fields[3],
			IsAdmin:      len(fields) == 5 && fields[4] == "admin",
		})
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("AUTH_ACCOUNTS contains no accounts")
	}
	return accounts, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
