// pennykeep-migrate runs the legacy takeover and data repairs offline: it
// migrates records out of the flat preference store, seeds and deduplicates
// the category partitions, and repairs mismatched transaction types. The
// server performs the same steps at startup; this command exists for doing
// them ahead of a deploy or against a copied data directory.
package main

import (
	"context"

	"pennykeep/internal/cli"
	"pennykeep/internal/log"
	"pennykeep/internal/migration"
	"pennykeep/internal/store"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting pennykeep-migrate")

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	prefs := cli.OpenLegacyStore(logger, cfg.LegacyStorePath)

	ctx := context.Background()

	if migrated := migration.Run(ctx, repo, prefs, logger); migrated {
		logger.Info("Legacy data migrated", log.FieldOperation, log.OpMigrate)
	} else {
		logger.Info("Nothing to migrate")
	}

	categories := store.NewCategoryRegistry(repo, logger)
	categories.SeedDefaults(ctx)
	categories.CleanupDuplicates(ctx)

	fixed := migration.FixTransactionTypes(ctx, repo,
		categories.ExpenseCategories(), categories.IncomeCategories(), logger)
	logger.Info("Migration complete", log.FieldCount, fixed)
}
