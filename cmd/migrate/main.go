// cmd/migrate/main.go
// Copies a legacy MySQL roster database into the local PostgreSQL database.
//
// Usage:
//
//	MYSQL_DSN="user:pass@tcp(host:3306)/plantel?parseTime=true" \
//	DB_PASS="pgpass" \
//	go run ./cmd/migrate
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"

	"github.com/paladarnegro/plantel/config"
	bundb "github.com/paladarnegro/plantel/db"
	"github.com/paladarnegro/plantel/models"
	"github.com/paladarnegro/plantel/roster"
)

const batchSize = 500

func main() {
	ctx := context.Background()

	cfg := config.LoadDB()

	// --- MySQL ---
	if cfg.MySQLDSN == "" {
		log.Fatal("MYSQL_DSN required, e.g.: user:pass@tcp(host:3306)/plantel?parseTime=true")
	}
	myDB, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("open mysql: %v", err)
	}
	defer myDB.Close()
	myDB.SetMaxOpenConns(4)
	if err := myDB.PingContext(ctx); err != nil {
		log.Fatalf("ping mysql: %v", err)
	}
	log.Println("connected to MySQL")

	// --- PostgreSQL ---
	pgDB := bundb.Setup(cfg)
	defer pgDB.Close()
	log.Println("connected to PostgreSQL")

	if err := bundb.CreateTables(ctx, pgDB); err != nil {
		log.Fatalf("create tables: %v", err)
	}

	// Legacy category ids are remapped by name onto the seeded rows.
	var categoryIDs map[int]int

	steps := []struct {
		name string
		fn   func() (int, error)
	}{
		{"agents", func() (int, error) { return migrateAgents(ctx, myDB, pgDB) }},
		{"categories", func() (n int, err error) {
			categoryIDs, n, err = migrateCategories(ctx, myDB, pgDB)
			return n, err
		}},
		{"players", func() (int, error) { return migratePlayers(ctx, myDB, pgDB) }},
		{"player_categories", func() (int, error) { return migrateLinks(ctx, myDB, pgDB, categoryIDs) }},
	}

	for _, s := range steps {
		n, err := s.fn()
		if err != nil {
			log.Fatalf("migrate %s: %v", s.name, err)
		}
		log.Printf("%-18s  %d rows migrated", s.name, n)
	}

	resetSequences(ctx, pgDB)
	log.Println("migration complete")
}

// --- helpers ---

func nullInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

// bulkInsert inserts a batch, skipping rows that already exist (idempotent re-runs).
func bulkInsert[T any](ctx context.Context, pgDB *bun.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := pgDB.NewInsert().Model(&rows).On("CONFLICT DO NOTHING").Exec(ctx)
	return err
}

// batcher collects rows and flushes them with bulkInsert every batchSize rows.
type batcher[T any] struct {
	ctx   context.Context
	pgDB  *bun.DB
	rows  []T
	total int
}

func (b *batcher[T]) add(row T) error {
	b.rows = append(b.rows, row)
	if len(b.rows) < batchSize {
		return nil
	}
	return b.flush()
}

func (b *batcher[T]) flush() error {
	if err := bulkInsert(b.ctx, b.pgDB, b.rows); err != nil {
		return err
	}
	b.total += len(b.rows)
	b.rows = b.rows[:0]
	return nil
}

// --- per-table migrations ---

func migrateAgents(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) (int, error) {
	rows, err := myDB.QueryContext(ctx, "SELECT id, name FROM agents")
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	b := &batcher[models.Agent]{ctx: ctx, pgDB: pgDB}
	for rows.Next() {
		var r models.Agent
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return b.total, err
		}
		if err := b.add(r); err != nil {
			return b.total, err
		}
	}
	if err := rows.Err(); err != nil {
		return b.total, err
	}
	return b.total, b.flush()
}

// migrateCategories inserts legacy categories by normalized name and returns
// the legacy id to local id mapping.
func migrateCategories(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) (map[int]int, int, error) {
	rows, err := myDB.QueryContext(ctx, "SELECT id, name FROM categories")
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	legacy := map[int]string{}
	var cats []models.Category
	for rows.Next() {
		var (
			id   int
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, 0, err
		}
		name = roster.NormalizeCategory(name)
		legacy[id] = name
		cats = append(cats, models.Category{Name: name})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if len(cats) > 0 {
		_, err = pgDB.NewInsert().Model(&cats).
			On("CONFLICT (name) DO NOTHING").
			Returning("NULL").
			Exec(ctx)
		if err != nil {
			return nil, 0, err
		}
	}

	var local []models.Category
	if err := pgDB.NewSelect().Model(&local).Scan(ctx); err != nil {
		return nil, 0, err
	}
	byName := make(map[string]int, len(local))
	for _, c := range local {
		byName[c.Name] = c.ID
	}

	ids := make(map[int]int, len(legacy))
	for old, name := range legacy {
		ids[old] = byName[name]
	}
	return ids, len(legacy), nil
}

func migratePlayers(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) (int, error) {
	rows, err := myDB.QueryContext(ctx,
		`SELECT id, name, surname, position, description, birthday, agent_id
		 FROM players`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	b := &batcher[models.Player]{ctx: ctx, pgDB: pgDB}
	for rows.Next() {
		var (
			id          int
			name        string
			surname     string
			position    int
			description sql.NullString
			birthday    time.Time
			agentID     sql.NullInt64
		)
		if err := rows.Scan(&id, &name, &surname, &position, &description, &birthday, &agentID); err != nil {
			return b.total, err
		}
		err := b.add(models.Player{
			ID:          id,
			Name:        name,
			Surname:     surname,
			Position:    position,
			Description: description.String,
			Birthday:    time.Date(birthday.Year(), birthday.Month(), birthday.Day(), 0, 0, 0, 0, time.UTC),
			AgentID:     nullInt(agentID),
		})
		if err != nil {
			return b.total, err
		}
	}
	if err := rows.Err(); err != nil {
		return b.total, err
	}
	return b.total, b.flush()
}

func migrateLinks(ctx context.Context, myDB *sql.DB, pgDB *bun.DB, categoryIDs map[int]int) (int, error) {
	rows, err := myDB.QueryContext(ctx, "SELECT player_id, category_id FROM player_categories")
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	b := &batcher[models.PlayerCategory]{ctx: ctx, pgDB: pgDB}
	skipped := 0
	for rows.Next() {
		var playerID, legacyID int
		if err := rows.Scan(&playerID, &legacyID); err != nil {
			return b.total, err
		}
		categoryID, ok := categoryIDs[legacyID]
		if !ok || categoryID == 0 {
			skipped++
			continue
		}
		if err := b.add(models.PlayerCategory{PlayerID: playerID, CategoryID: categoryID}); err != nil {
			return b.total, err
		}
	}
	if err := rows.Err(); err != nil {
		return b.total, err
	}
	if skipped > 0 {
		log.Printf("player_categories: skipped %d links to unknown categories", skipped)
	}
	return b.total, b.flush()
}

// resetSequences advances each PG sequence to MAX(id) so new inserts don't conflict.
func resetSequences(ctx context.Context, pgDB *bun.DB) {
	for _, table := range []string{"agents", "categories", "players"} {
		q := fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE((SELECT MAX(id) FROM %s), 1))",
			table, table,
		)
		if _, err := pgDB.ExecContext(ctx, q); err != nil {
			log.Printf("reset seq %s: %v", table, err)
		}
	}
	log.Println("sequences reset")
}
