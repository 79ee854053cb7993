package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/paladarnegro/plantel/models"
	"github.com/paladarnegro/plantel/roster"
)

// Store implements roster.Repository and the account lookups on PostgreSQL.
type Store struct {
	db *bun.DB
}

var _ roster.Repository = (*Store)(nil)

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) ListAgents(ctx context.Context) ([]models.Agent, error) {
	agents := []models.Agent{}
	if err := s.db.NewSelect().Model(&agents).OrderExpr("a.name ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("listing agents: %w", err)
	}
	return agents, nil
}

func (s *Store) GetAgent(ctx context.Context, id int) (*models.Agent, error) {
	agent := &models.Agent{}
	err := s.db.NewSelect().Model(agent).Where("a.id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, roster.ErrAgentNotFound
		}
		return nil, fmt.Errorf("getting agent %d: %w", id, err)
	}
	return agent, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	cats := []models.Category{}
	if err := s.db.NewSelect().Model(&cats).OrderExpr("c.id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return cats, nil
}

func (s *Store) CategoryByName(ctx context.Context, name string) (*models.Category, error) {
	cat := &models.Category{}
	err := s.db.NewSelect().Model(cat).Where("c.name = ?", name).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, roster.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("getting category %q: %w", name, err)
	}
	return cat, nil
}

func (s *Store) CategoriesByName(ctx context.Context, names []string) ([]models.Category, error) {
	cats := []models.Category{}
	err := s.db.NewSelect().Model(&cats).
		Where("c.name IN (?)", bun.In(names)).
		OrderExpr("c.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving categories: %w", err)
	}
	return cats, nil
}

func (s *Store) InsertPlayer(ctx context.Context, p *models.Player, categoryIDs []int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.NewInsert().Model(p).Exec(ctx); err != nil {
		return fmt.Errorf("inserting player: %w", err)
	}
	if err := insertLinks(ctx, tx, p.ID, categoryIDs); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdatePlayer writes the changed columns and, when requested, replaces the
// category links. Both happen in one transaction.
func (s *Store) UpdatePlayer(ctx context.Context, id int, ch roster.Changes) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if ch.HasFields() {
		res, err := updatePlayerQuery(tx, id, ch).Exec(ctx)
		if err != nil {
			return fmt.Errorf("updating player %d: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return roster.ErrPlayerNotFound
		}
	} else {
		exists, err := tx.NewSelect().Model((*models.Player)(nil)).Where("p.id = ?", id).Exists(ctx)
		if err != nil {
			return fmt.Errorf("checking player %d: %w", id, err)
		}
		if !exists {
			return roster.ErrPlayerNotFound
		}
	}

	if ch.ReplaceCategories {
		if _, err := clearLinksQuery(tx, id).Exec(ctx); err != nil {
			return fmt.Errorf("clearing categories of player %d: %w", id, err)
		}
		if err := insertLinks(ctx, tx, id, ch.CategoryIDs); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func updatePlayerQuery(db bun.IDB, id int, ch roster.Changes) *bun.UpdateQuery {
	q := db.NewUpdate().Model((*models.Player)(nil)).Where("p.id = ?", id)
	if ch.Name != nil {
		q = q.Set("name = ?", *ch.Name)
	}
	if ch.Surname != nil {
		q = q.Set("surname = ?", *ch.Surname)
	}
	if ch.Position != nil {
		q = q.Set("position = ?", *ch.Position)
	}
	if ch.Description != nil {
		q = q.Set("description = ?", *ch.Description)
	}
	if ch.Birthday != nil {
		q = q.Set("birthday = ?::date", ch.Birthday.Format(roster.DateLayout))
	}
	if ch.AgentID != nil {
		q = q.Set("agent_id = ?", *ch.AgentID)
	}
	return q
}

func clearLinksQuery(db bun.IDB, playerID int) *bun.DeleteQuery {
	return db.NewDelete().Model((*models.PlayerCategory)(nil)).Where("player_id = ?", playerID)
}

func insertLinksQuery(db bun.IDB, playerID int, categoryIDs []int) *bun.InsertQuery {
	links := make([]models.PlayerCategory, 0, len(categoryIDs))
	for _, id := range categoryIDs {
		links = append(links, models.PlayerCategory{PlayerID: playerID, CategoryID: id})
	}
	return db.NewInsert().Model(&links).On("CONFLICT DO NOTHING")
}

func insertLinks(ctx context.Context, db bun.IDB, playerID int, categoryIDs []int) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	if _, err := insertLinksQuery(db, playerID, categoryIDs).Exec(ctx); err != nil {
		return fmt.Errorf("linking categories to player %d: %w", playerID, err)
	}
	return nil
}

func (s *Store) DeletePlayer(ctx context.Context, id int) error {
	res, err := s.db.NewDelete().Model((*models.Player)(nil)).Where("p.id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("deleting player %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return roster.ErrPlayerNotFound
	}
	return nil
}

func (s *Store) GetPlayer(ctx context.Context, id int) (*models.Player, error) {
	p := &models.Player{}
	err := withRelations(s.db.NewSelect().Model(p)).Where("p.id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, roster.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("getting player %d: %w", id, err)
	}
	return p, nil
}

func (s *Store) PlayersByCategory(ctx context.Context, categoryID int) ([]models.Player, error) {
	players := []models.Player{}
	if err := s.playersByCategoryQuery(&players, categoryID).Scan(ctx); err != nil {
		return nil, fmt.Errorf("listing players of category %d: %w", categoryID, err)
	}
	return players, nil
}

func (s *Store) PlayersBornBetween(ctx context.Context, from, to time.Time) ([]models.Player, error) {
	players := []models.Player{}
	if err := s.playersBornBetweenQuery(&players, from, to).Scan(ctx); err != nil {
		return nil, fmt.Errorf("listing players born %s..%s: %w", from.Format(roster.DateLayout), to.Format(roster.DateLayout), err)
	}
	return players, nil
}

func (s *Store) playersByCategoryQuery(players *[]models.Player, categoryID int) *bun.SelectQuery {
	linked := s.db.NewSelect().
		Model((*models.PlayerCategory)(nil)).
		Column("pc.player_id").
		Where("pc.category_id = ?", categoryID)
	return playerList(s.db.NewSelect().Model(players)).Where("p.id IN (?)", linked)
}

// Dates are compared as dates so the session time zone can't shift the range.
func (s *Store) playersBornBetweenQuery(players *[]models.Player, from, to time.Time) *bun.SelectQuery {
	return playerList(s.db.NewSelect().Model(players)).
		Where("p.birthday BETWEEN ?::date AND ?::date", from.Format(roster.DateLayout), to.Format(roster.DateLayout))
}

func withRelations(q *bun.SelectQuery) *bun.SelectQuery {
	return q.
		Relation("Agent").
		Relation("Categories", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("c.id ASC")
		})
}

func playerList(q *bun.SelectQuery) *bun.SelectQuery {
	return withRelations(q).OrderExpr("p.surname ASC, p.name ASC")
}

// UserByEmail returns nil when no user has the address.
func (s *Store) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	err := s.db.NewSelect().Model(user).
		Where("lower(u.email) = ?", strings.ToLower(strings.TrimSpace(email))).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return user, nil
}

// ProfileByID returns nil when the user has no profile.
func (s *Store) ProfileByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	profile := &models.Profile{}
	err := s.db.NewSelect().Model(profile).Where("pr.id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting profile %s: %w", id, err)
	}
	return profile, nil
}

// SaveUser creates the user or replaces the password of an existing address,
// then writes its profile. user.ID is set to the stored ID.
func (s *Store) SaveUser(ctx context.Context, user *models.User, isAdmin bool) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.NewInsert().Model(user).
		On("CONFLICT (email) DO UPDATE SET password = EXCLUDED.password").
		Returning("id").
		Scan(ctx)
	if err != nil {
		return fmt.Errorf("saving user: %w", err)
	}

	profile := &models.Profile{ID: user.ID, IsAdmin: isAdmin}
	_, err = tx.NewInsert().Model(profile).
		On("CONFLICT (id) DO UPDATE SET is_admin = EXCLUDED.is_admin").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return tx.Commit()
}
