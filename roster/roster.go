// Package roster holds the player roster rules: input validation, category
// resolution and the queries behind the year and category listings.
package roster

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/paladarnegro/plantel/models"
)

// DateLayout is the wire and form format of a birthday.
const DateLayout = "2006-01-02"

// Repository is the storage the roster needs. Implementations translate
// missing rows into the Err*NotFound values of this package.
type Repository interface {
	ListAgents(ctx context.Context) ([]models.Agent, error)
	GetAgent(ctx context.Context, id int) (*models.Agent, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	CategoryByName(ctx context.Context, name string) (*models.Category, error)
	CategoriesByName(ctx context.Context, names []string) ([]models.Category, error)

	// InsertPlayer writes the player and its category links atomically and sets p.ID.
	InsertPlayer(ctx context.Context, p *models.Player, categoryIDs []int) error
	// UpdatePlayer applies ch atomically, including the category replacement.
	UpdatePlayer(ctx context.Context, id int, ch Changes) error
	DeletePlayer(ctx context.Context, id int) error
	// GetPlayer loads the player with its categories and agent.
	GetPlayer(ctx context.Context, id int) (*models.Player, error)
	PlayersByCategory(ctx context.Context, categoryID int) ([]models.Player, error)
	PlayersBornBetween(ctx context.Context, from, to time.Time) ([]models.Player, error)
}

// Changes is a partial player update. Nil fields are left untouched.
type Changes struct {
	Name        *string
	Surname     *string
	Position    *int
	Description *string
	Birthday    *time.Time
	AgentID     *int

	// ReplaceCategories swaps the player's links for CategoryIDs, which may be empty.
	ReplaceCategories bool
	CategoryIDs       []int
}

// HasFields reports whether any player column changes.
func (c Changes) HasFields() bool {
	return c.Name != nil || c.Surname != nil || c.Position != nil ||
		c.Description != nil || c.Birthday != nil || c.AgentID != nil
}

// CreateInput is a new player as sent by a client.
type CreateInput struct {
	Name        string
	Surname     string
	Position    int
	Description string
	Birthday    string
	Categories  []string
	AgentID     *int
}

// UpdateInput is a partial player update as sent by a client. Nil means absent.
type UpdateInput struct {
	Name        *string
	Surname     *string
	Position    *int
	Description *string
	Birthday    *string
	AgentID     *int
	Categories  *[]string
}

type Service struct {
	repo Repository
}

func New(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListAgents(ctx context.Context) ([]models.Agent, error) {
	return s.repo.ListAgents(ctx)
}

func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) GetPlayer(ctx context.Context, id int) (*models.Player, error) {
	return s.repo.GetPlayer(ctx, id)
}

// CreatePlayer validates in, resolves its categories and stores the player.
func (s *Service) CreatePlayer(ctx context.Context, in CreateInput) (*models.Player, error) {
	name := strings.TrimSpace(in.Name)
	surname := strings.TrimSpace(in.Surname)
	cats := newCategoryRequest(in.Categories)
	if name == "" || surname == "" || in.Position == 0 || len(cats.names) == 0 || strings.TrimSpace(in.Birthday) == "" {
		return nil, invalid("Faltan campos requeridos: name, surname, position, categories (array no vacío), birthday")
	}
	birthday, err := parseBirthday(in.Birthday)
	if err != nil {
		return nil, err
	}
	if err := s.checkAgent(ctx, in.AgentID); err != nil {
		return nil, err
	}
	ids, err := s.resolveCategories(ctx, cats)
	if err != nil {
		return nil, err
	}

	p := &models.Player{
		Name:        name,
		Surname:     surname,
		Position:    in.Position,
		Description: strings.TrimSpace(in.Description),
		Birthday:    birthday,
		AgentID:     in.AgentID,
	}
	if err := s.repo.InsertPlayer(ctx, p, ids); err != nil {
		return nil, err
	}
	return s.repo.GetPlayer(ctx, p.ID)
}

// UpdatePlayer applies the present fields of in. When in.Categories is set,
// every name is resolved before anything is written, so an unknown name
// leaves the previous links in place.
func (s *Service) UpdatePlayer(ctx context.Context, id int, in UpdateInput) (*models.Player, error) {
	var ch Changes
	if in.Name != nil {
		v := strings.TrimSpace(*in.Name)
		if v == "" {
			return nil, invalid("name no puede estar vacío")
		}
		ch.Name = &v
	}
	if in.Surname != nil {
		v := strings.TrimSpace(*in.Surname)
		if v == "" {
			return nil, invalid("surname no puede estar vacío")
		}
		ch.Surname = &v
	}
	ch.Position = in.Position
	if in.Description != nil {
		v := strings.TrimSpace(*in.Description)
		ch.Description = &v
	}
	if in.Birthday != nil {
		b, err := parseBirthday(*in.Birthday)
		if err != nil {
			return nil, err
		}
		ch.Birthday = &b
	}
	if err := s.checkAgent(ctx, in.AgentID); err != nil {
		return nil, err
	}
	ch.AgentID = in.AgentID

	if in.Categories != nil {
		ids, err := s.resolveCategories(ctx, newCategoryRequest(*in.Categories))
		if err != nil {
			return nil, err
		}
		ch.ReplaceCategories = true
		ch.CategoryIDs = ids
	}

	if err := s.repo.UpdatePlayer(ctx, id, ch); err != nil {
		return nil, err
	}
	return s.repo.GetPlayer(ctx, id)
}

func (s *Service) DeletePlayer(ctx context.Context, id int) error {
	return s.repo.DeletePlayer(ctx, id)
}

// PlayersByCategory lists the players linked to the named category.
func (s *Service) PlayersByCategory(ctx context.Context, name string) ([]models.Player, error) {
	cat, err := s.repo.CategoryByName(ctx, NormalizeCategory(name))
	if err != nil {
		return nil, err
	}
	return s.repo.PlayersByCategory(ctx, cat.ID)
}

// PlayersByYear lists the players born in the given calendar year.
func (s *Service) PlayersByYear(ctx context.Context, year string) ([]models.Player, error) {
	y, err := ParseYear(year)
	if err != nil {
		return nil, err
	}
	from := time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(y, time.December, 31, 0, 0, 0, 0, time.UTC)
	return s.repo.PlayersBornBetween(ctx, from, to)
}

// ParseYear accepts a four digit year.
func ParseYear(year string) (int, error) {
	year = strings.TrimSpace(year)
	if len(year) != 4 || strings.IndexFunc(year, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return 0, invalid("Año inválido")
	}
	y, err := strconv.Atoi(year)
	if err != nil || y <= 0 {
		return 0, invalid("Año inválido")
	}
	return y, nil
}

func (s *Service) resolveCategories(ctx context.Context, req categoryRequest) ([]int, error) {
	ids := make([]int, 0, len(req.names))
	if len(req.names) == 0 {
		return ids, nil
	}
	found, err := s.repo.CategoriesByName(ctx, req.names)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(found))
	for _, c := range found {
		names = append(names, c.Name)
		ids = append(ids, c.ID)
	}
	if missing := req.missing(names); len(missing) > 0 {
		return nil, &MissingCategoriesError{Names: missing}
	}
	return ids, nil
}

func (s *Service) checkAgent(ctx context.Context, id *int) error {
	if id == nil {
		return nil
	}
	_, err := s.repo.GetAgent(ctx, *id)
	return err
}

func parseBirthday(v string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, invalid("birthday debe tener el formato AAAA-MM-DD")
	}
	return t, nil
}
