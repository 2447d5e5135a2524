package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pennykeep/internal/account"
	"pennykeep/internal/config"
	"pennykeep/internal/httpapi"
	"pennykeep/internal/legacy"
	"pennykeep/internal/log"
	"pennykeep/internal/migration"
	"pennykeep/internal/rates"
	"pennykeep/internal/receipt"
	"pennykeep/internal/settings"
	"pennykeep/internal/storage"
	"pennykeep/internal/store"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	logger.Info("Starting pennykeep")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository",
			log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	prefs, err := legacy.Open(cfg.LegacyStorePath)
	if err != nil {
		logger.Error("Failed to open legacy preference store",
			log.FieldError, err, "path", cfg.LegacyStorePath)
		os.Exit(1)
	}

	ctx := context.Background()

	// One-time takeover of records from the legacy flat store. Runs before
	// seeding so migrated categories count as existing data.
	if migrated := migration.Run(ctx, repo, prefs, logger); migrated {
		logger.Info("Legacy data migrated", log.FieldOperation, log.OpMigrate)
	}

	categories := store.NewCategoryRegistry(repo, logger)
	categories.SeedDefaults(ctx)
	categories.CleanupDuplicates(ctx)

	fixed := migration.FixTransactionTypes(ctx, repo,
		categories.ExpenseCategories(), categories.IncomeCategories(), logger)
	if fixed > 0 {
		logger.Info("Repaired transaction types", log.FieldCount, fixed)
	}

	transactions := store.NewTransactionStore(repo, logger)
	transactions.Load(ctx)

	appSettings := settings.New(prefs, logger)
	ratesClient := rates.NewClient(logger,
		rates.WithBaseURL(cfg.RatesBaseURL),
		rates.WithHTTPClient(&http.Client{Timeout: cfg.RatesTimeout}),
	)

	var receiptParser httpapi.ReceiptParser
	if cfg.GeminiAPIKey != "" {
		parser, err := receipt.NewParser(ctx, cfg.GeminiModel, logger)
		if err != nil {
			logger.Error("Failed to initialize receipt parser", log.FieldError, err)
			os.Exit(1)
		}
		receiptParser = parser
		logger.Info("Receipt parsing enabled", "model", cfg.GeminiModel)
	} else {
		logger.Info("Receipt parsing disabled - no GEMINI_API_KEY provided")
	}

	srv := httpapi.NewServer(":"+cfg.Port, httpapi.Deps{
		Transactions: transactions,
		Categories:   categories,
		Settings:     appSettings,
		Rates:        ratesClient,
		Receipts:     receiptParser,
		Account:      account.NewManager(prefs, logger),
		ReportMonths: cfg.ReportMonths,
	}, logger)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting pennykeep server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-runCtx.Done()
	logger.Info("Server stopped gracefully")
}
