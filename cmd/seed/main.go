// Command seed loads the default menu catalog into the Postgres backend.
// Running it against a database that already has menus is a no-op, so it
// is safe to invoke on every deploy.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/caisseresto/api/internal/config"
	"github.com/caisseresto/api/internal/database"
	"github.com/caisseresto/api/internal/model"
	"github.com/caisseresto/api/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger := config.NewLogger(cfg.Logger)

	if cfg.Storage.Backend != config.BackendPostgres {
		logger.Fatal().Msg("seed requires STORAGE_BACKEND=postgres; the file backend seeds itself on first use")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal().Err(err).Msg("failed to apply migrations")
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to begin transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	count, err := seedMenus(ctx, tx, store.DefaultMenus())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to seed menus")
	}

	if err := tx.Commit(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to commit")
	}

	if count == 0 {
		logger.Info().Msg("catalog already populated, nothing to do")
		return
	}
	logger.Info().Int("menus", count).Msg("seed completed")
}

// seedMenus inserts the catalog only when the menus table is empty.
func seedMenus(ctx context.Context, tx pgx.Tx, menus []model.MenuItem) (int, error) {
	var existing int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM menus`).Scan(&existing); err != nil {
		return 0, fmt.Errorf("count menus: %w", err)
	}
	if existing > 0 {
		return 0, nil
	}

	const insertSQL = `
		INSERT INTO menus (name, price, category, image)
		VALUES ($1, $2, $3, NULLIF($4, ''))
	`
	for _, m := range menus {
		if _, err := tx.Exec(ctx, insertSQL, m.Name, m.Price.StringFixed(2), m.Category, m.Image); err != nil {
			return 0, fmt.Errorf("insert menu %q: %w", m.Name, err)
		}
	}
	return len(menus), nil
}
