package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/paladarnegro/plantel/config"
	"github.com/paladarnegro/plantel/models"
)

// Setup opens a PostgreSQL connection using the provided config.
func Setup(cfg *config.Config) *bun.DB {
	db := Open(cfg.PostgresDSN(), cfg.Debug)

	if err := db.PingContext(context.Background()); err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	return db
}

// Open builds the bun handle without connecting.
func Open(dsn string, debug bool) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	db.RegisterModel((*models.PlayerCategory)(nil))

	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// CreateTables creates all tables in dependency order and seeds the categories.
func CreateTables(ctx context.Context, db *bun.DB) error {
	tables := []struct {
		model any
		fks   []string
	}{
		{model: (*models.User)(nil)},
		{model: (*models.Profile)(nil), fks: []string{
			`("id") REFERENCES "users" ("id") ON DELETE CASCADE`,
		}},
		{model: (*models.Agent)(nil)},
		{model: (*models.Category)(nil)},
		{model: (*models.Player)(nil), fks: []string{
			`("agent_id") REFERENCES "agents" ("id") ON DELETE SET NULL`,
		}},
		{model: (*models.PlayerCategory)(nil), fks: []string{
			`("player_id") REFERENCES "players" ("id") ON DELETE CASCADE`,
			`("category_id") REFERENCES "categories" ("id") ON DELETE CASCADE`,
		}},
	}

	for _, t := range tables {
		q := db.NewCreateTable().Model(t.model).IfNotExists()
		for _, fk := range t.fks {
			q = q.ForeignKey(fk)
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("creating table for %T: %w", t.model, err)
		}
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS players_birthday_idx ON players (birthday)`,
		`CREATE INDEX IF NOT EXISTS player_categories_category_idx ON player_categories (category_id)`,
	}
	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			log.Printf("index: %v", err)
		}
	}

	return SeedCategories(ctx, db)
}

// SeedCategories inserts models.DefaultCategories, keeping existing rows.
func SeedCategories(ctx context.Context, db bun.IDB) error {
	cats := make([]models.Category, 0, len(models.DefaultCategories))
	for _, name := range models.DefaultCategories {
		cats = append(cats, models.Category{Name: name})
	}
	if _, err := db.NewInsert().Model(&cats).On("CONFLICT (name) DO NOTHING").Returning("NULL").Exec(ctx); err != nil {
		return fmt.Errorf("seeding categories: %w", err)
	}
	return nil
}
